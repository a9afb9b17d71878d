// Package ratelimit throttles clients to one accepted request per window.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/storage"
)

const DefaultWindow = 10 * time.Second

// Limiter allows a key at most once per window. The check and the update are separate store
// calls, so concurrent requests from one client may both pass.
type Limiter struct {
	store  storage.Store
	window time.Duration
	now    func() time.Time
}

func New(store storage.Store, window time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, window: window, now: time.Now}
}

// Window returns the throttle window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow reports whether key may proceed and, if so, records the request. Store failures
// let the request through.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	now := l.now()

	last, ok, err := l.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Rate limit store read failed, allowing request", "key", key, "err", err)
		return true
	}
	if ok && now.Sub(last) < l.window {
		slog.Info("Rate limited", "key", key, "since_last", now.Sub(last))
		return false
	}

	if err := l.store.Set(ctx, key, now, l.window); err != nil {
		slog.Warn("Rate limit store write failed", "key", key, "err", err)
	}
	return true
}

// ClientIP picks the caller address: the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
