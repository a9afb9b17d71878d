package handlers

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
)

var developmentOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

// AllowedOrigins returns the exact origins that may call the API. deployment is a host name
// (https is assumed) or a full origin.
func AllowedOrigins(deployment string) []string {
	origins := append([]string{}, developmentOrigins...)
	deployment = strings.TrimRight(strings.TrimSpace(deployment), "/")
	if deployment == "" {
		return origins
	}
	if !strings.Contains(deployment, "://") {
		deployment = "https://" + deployment
	}
	return lo.Uniq(append(origins, deployment))
}

func (h *Handler) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	header.Add("Vary", "Origin")
	if origin := r.Header.Get("Origin"); origin != "" && lo.Contains(h.allowedOrigins, origin) {
		header.Set("Access-Control-Allow-Origin", origin)
	}
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
}
