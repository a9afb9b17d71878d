package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lehigh-university-libraries/halloween/internal/models"
	"github.com/lehigh-university-libraries/halloween/internal/ratelimit"
	"github.com/lehigh-university-libraries/halloween/internal/transform"
)

func (h *Handler) HandleTransform(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		h.writeError(w, r, &transform.Error{Kind: transform.KindMethod, Message: "POST method required"})
		return
	}

	var request models.TransformRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&request); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, r, &transform.Error{Kind: transform.KindValidation, Message: "Image too large (max 5MB)", Err: err})
			return
		}
		h.writeError(w, r, &transform.Error{Kind: transform.KindValidation, Message: "Invalid JSON body", Err: err})
		return
	}

	image, err := transform.Validate(request.ImageData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	clientIP := ratelimit.ClientIP(r)
	if !h.limiter.Allow(r.Context(), clientIP) {
		h.writeError(w, r, &transform.Error{
			Kind:    transform.KindRateLimited,
			Message: "Too many requests. Please wait a few seconds and try again.",
		})
		return
	}

	transformed, err := h.service.TransformImage(r.Context(), image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.TransformResult{
		Success:          true,
		TransformedImage: transformed,
	})
}
