package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

const (
	// PlayerIDHeader carries the authenticated player id set by the gateway
	PlayerIDHeader     = "X-Player-ID"
	// ServiceTokenHeader carries the shared secret of a collaborating game service
	ServiceTokenHeader = "X-Service-Token"
)

type contextKey int

const playerIDKey contextKey = iota

// RequirePlayer rejects requests without a valid player id with 401
func RequirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(PlayerIDHeader), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing or invalid player id"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), playerIDKey, id)))
	})
}

// RequireService admits only collaborators presenting token. A player id
// header alone is not enough. An empty token refuses everything.
func RequireService(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(ServiceTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				log.WithFields(log.Fields{
					"path":      r.URL.Path,
					"requestID": middleware.GetReqID(r.Context()),
				}).Warn("Rejected request without a valid service token")
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing or invalid service token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PlayerID returns the id stored by RequirePlayer
func PlayerID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(playerIDKey).(int64)
	return id, ok
}

// requestLogger logs one line per request with logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start),
			"requestID": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}
