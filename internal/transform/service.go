// Package transform turns a submitted photo into its Halloween version: it validates the
// payload, calls the image model under a retry policy and returns the result as a data URL.
package transform

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/dataurl"
	"github.com/lehigh-university-libraries/halloween/internal/gemini"
	"github.com/lehigh-university-libraries/halloween/internal/providers"
	"github.com/lehigh-university-libraries/halloween/internal/retry"
)

// MaxImageBytes is the largest decoded image accepted.
const MaxImageBytes = 5 * 1024 * 1024

// Options configure a Service.
type Options struct {
	APIKey      string
	Model       string
	Prompt      string
	Temperature float64
	Policy      retry.Policy
}

// Service runs the validate, call, extract pipeline.
type Service struct {
	transformer providers.ImageTransformer
	opts        Options
}

// NewService returns a Service that sends images to transformer.
// A zero Policy is replaced by DefaultPolicy(3).
func NewService(transformer providers.ImageTransformer, opts Options) *Service {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultPolicy(3, time.Second, time.Second)
	}
	return &Service{transformer: transformer, opts: opts}
}

// DefaultPolicy retries only upstream HTTP 500 answers, waiting
// 2^(attempt-1)*base plus up to jitter between attempts.
func DefaultPolicy(maxAttempts int, base, jitter time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts: maxAttempts,
		Backoff:     retry.ExponentialJitter(base, jitter),
		Retryable:   IsUpstreamInternal,
	}
}

// IsUpstreamInternal reports whether err is an HTTP 500 from the upstream API.
func IsUpstreamInternal(err error) bool {
	var statusErr *gemini.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == 500
}

// MaxAttempts returns the configured attempt budget.
func (s *Service) MaxAttempts() int {
	return s.opts.Policy.MaxAttempts
}

// Validate checks imageData and returns the parsed image. It never calls the upstream API.
func Validate(imageData string) (providers.Image, error) {
	if imageData == "" {
		return providers.Image{}, validationError("Image data is required", nil)
	}
	if !strings.HasPrefix(imageData, "data:image/") {
		return providers.Image{}, validationError("Invalid image format", nil)
	}

	parsed, err := dataurl.Parse(imageData)
	if err != nil {
		return providers.Image{}, validationError("Invalid image format", err)
	}
	if parsed.Data == "" {
		return providers.Image{}, validationError("Image data is required", nil)
	}

	// Cheap bound before decoding anything large.
	if base64.StdEncoding.DecodedLen(len(parsed.Data)) > MaxImageBytes+2 {
		return providers.Image{}, validationError("Image too large (max 5MB)", nil)
	}
	raw, err := parsed.Decode()
	if err != nil {
		return providers.Image{}, validationError("Invalid base64 image data", err)
	}
	if len(raw) > MaxImageBytes {
		return providers.Image{}, validationError("Image too large (max 5MB)", nil)
	}

	return providers.Image{MimeType: parsed.MimeType, Data: parsed.Data}, nil
}

// Transform validates imageData, sends it upstream and returns the generated image as a data URL.
func (s *Service) Transform(ctx context.Context, imageData string) (string, error) {
	image, err := Validate(imageData)
	if err != nil {
		return "", err
	}
	return s.TransformImage(ctx, image)
}

// TransformImage sends an already validated image upstream.
func (s *Service) TransformImage(ctx context.Context, image providers.Image) (string, error) {
	if s.opts.APIKey == "" {
		return "", &Error{
			Kind:    KindConfiguration,
			Message: "Server configuration error",
			Err:     errors.New("GEMINI_API_KEY environment variable not set"),
		}
	}

	config := providers.Config{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		Prompt:      s.opts.Prompt,
	}

	start := time.Now()
	result, err := retry.Do(ctx, s.opts.Policy, func(ctx context.Context, attempt int) (*providers.Image, error) {
		slog.Info("Calling image model", "attempt", attempt, "max_attempts", s.opts.Policy.MaxAttempts, "model", config.Model)
		return s.transformer.TransformImage(ctx, config, image)
	})
	if err != nil {
		return "", classify(err)
	}

	slog.Info("Image transformed", "mime_type", result.MimeType, "length", len(result.Data), "elapsed", time.Since(start))
	return dataurl.Encode(result.MimeType, result.Data), nil
}

func classify(err error) *Error {
	if errors.Is(err, gemini.ErrNoImage) {
		return &Error{Kind: KindNoImage, Message: "No image was generated", Err: err}
	}

	if IsUpstreamInternal(err) {
		return &Error{
			Kind:      KindUpstreamTransient,
			Message:   "Image service is temporarily unavailable, please try again later",
			Retryable: true,
			Err:       err,
		}
	}

	var statusErr *gemini.StatusError
	if errors.As(err, &statusErr) {
		return &Error{
			Kind:      KindUpstreamFatal,
			Message:   fmt.Sprintf("Image service error (status %d)", statusErr.StatusCode),
			Retryable: statusErr.Transient(),
			Err:       err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstreamFatal, Message: "Image service request timed out", Retryable: true, Err: err}
	}

	return &Error{Kind: KindUpstreamFatal, Message: "Image service request failed", Err: err}
}
