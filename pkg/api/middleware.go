package api

import (
	"net/http"
	"time"

	"github.com/nordkredit/wallboard/pkg/session"
)

// requestLogger logs incoming HTTP requests.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("remote", r.RemoteAddr).
			WithField("duration", time.Since(start)).
			Debug("Request handled")
	})
}

// requireSession rejects requests without a valid session cookie. A
// missing cookie, a malformed token, and an expired token all produce
// the same response.
func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || !s.sessions.VerifyToken(cookie.Value) {
			writeJSON(w, http.StatusUnauthorized, okResponse{OK: false})

			return
		}

		next.ServeHTTP(w, r)
	})
}
