package models

import "time"

// TransformRequest is the JSON body of POST /api/transform-halloween
type TransformRequest struct {
	ImageData string `json:"imageData"` // data:image/...;base64,...
}

// TransformResult is returned for every transform request, successful or not
type TransformResult struct {
	Success          bool   `json:"success"`
	TransformedImage string `json:"transformedImage,omitempty"`
	Error            string `json:"error,omitempty"`
	Retryable        *bool  `json:"retryable,omitempty"`
	Details          string `json:"details,omitempty"` // development mode only
}

// DebugResponse is returned by GET /api/debug
type DebugResponse struct {
	Success bool      `json:"success"`
	Debug   DebugInfo `json:"debug"`
}

// DebugInfo describes the running server without exposing secrets
type DebugInfo struct {
	Method      string    `json:"method"`
	GoVersion   string    `json:"goVersion"`
	Environment string    `json:"environment"`
	HasAPIKey   bool      `json:"hasApiKey"`
	Model       string    `json:"model"`
	MaxAttempts int       `json:"maxAttempts"`
	Timestamp   time.Time `json:"timestamp"`
}
