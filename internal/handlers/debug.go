package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/models"
)

func (h *Handler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.DebugResponse{
		Success: true,
		Debug: models.DebugInfo{
			Method:      r.Method,
			GoVersion:   runtime.Version(),
			Environment: h.config.Environment,
			HasAPIKey:   h.config.APIKey != "",
			Model:       h.config.Model,
			MaxAttempts: h.service.MaxAttempts(),
			Timestamp:   time.Now().UTC(),
		},
	})
}
