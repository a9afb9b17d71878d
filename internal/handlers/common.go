package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/halloween/internal/config"
	"github.com/lehigh-university-libraries/halloween/internal/models"
	"github.com/lehigh-university-libraries/halloween/internal/ratelimit"
	"github.com/lehigh-university-libraries/halloween/internal/transform"
	"github.com/samber/lo"
)

// MaxBodyBytes caps the JSON request body; a 5 MiB image is about 6.7 MiB in base64.
const MaxBodyBytes = 10 * 1024 * 1024

type Handler struct {
	config         *config.Config
	service        *transform.Service
	limiter        *ratelimit.Limiter
	allowedOrigins []string
}

func New(cfg *config.Config, service *transform.Service, limiter *ratelimit.Limiter) *Handler {
	return &Handler{
		config:         cfg,
		service:        service,
		limiter:        limiter,
		allowedOrigins: AllowedOrigins(cfg.Origin),
	}
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/transform-halloween", h.HandleTransform)
	mux.HandleFunc("/transform", h.HandleTransform)
	mux.HandleFunc("/api/debug", h.HandleDebug)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	te := transform.AsError(err)
	status := te.Status()

	attrs := []any{"status", status, "path", r.URL.Path, "err", err}
	if status >= http.StatusInternalServerError {
		slog.Error(te.Message, attrs...)
	} else {
		slog.Warn(te.Message, attrs...)
	}

	result := models.TransformResult{
		Success: false,
		Error:   te.Message,
	}
	if status >= http.StatusInternalServerError {
		result.Retryable = lo.ToPtr(te.Retryable)
	}
	if h.config.Development() && te.Err != nil {
		result.Details = te.Err.Error()
	}

	if errors.Is(err, transform.ErrMethodNotAllowed) {
		w.Header().Set("Allow", "POST, OPTIONS")
	}
	h.writeJSON(w, status, result)
}
