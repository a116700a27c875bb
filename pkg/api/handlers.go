package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nordkredit/wallboard/pkg/benchmark"
	"github.com/nordkredit/wallboard/pkg/display"
	"github.com/nordkredit/wallboard/pkg/session"
	"github.com/nordkredit/wallboard/pkg/store"
)

// okResponse is the standard mutation result payload. Message carries
// detail only on failure responses.
type okResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig returns the public display configuration. No secrets:
// only what a wallboard client needs to poll and render.
func (s *server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"refresh_interval_seconds": int(s.cfg.Display.RefreshInterval.Seconds()),
		"demo_mode":                !s.cfg.Store.ReadConfigured(),
		"writes_enabled":           s.cfg.Store.WriteConfigured(),
	})
}

// handleListBenchmarks returns the reconciled rows with their display
// block. A reachable-but-erroring store fails the request; defaults
// never mask an outage.
func (s *server) handleListBenchmarks(
	w http.ResponseWriter, r *http.Request,
) {
	rows, err := s.repo.FetchAll(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to fetch benchmarks")
		writeJSON(w, http.StatusInternalServerError,
			okResponse{OK: false, Message: err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"teams": display.Decorate(rows),
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

// handleLogin checks the admin password and sets the session cookie.
// Wrong password and malformed body are externally indistinguishable.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnauthorized, okResponse{OK: false})

		return
	}

	if req.Password == "" || !s.sessions.VerifyPassword(req.Password) {
		writeJSON(w, http.StatusUnauthorized, okResponse{OK: false})

		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    s.sessions.CreateToken(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil || s.cfg.Production(),
		MaxAge:   int(s.sessions.TTL().Seconds()),
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleLogout clears the session cookie. The token itself stays valid
// until its TTL elapses; only the cookie is dropped.
func (s *server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleUpdateBenchmark validates the payload and writes one team's
// row through the repository client. Validation failures reject before
// any store call is made.
func (s *server) handleUpdateBenchmark(
	w http.ResponseWriter, r *http.Request,
) {
	var payload benchmark.UpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest,
			okResponse{OK: false, Message: "invalid request body"})

		return
	}

	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest,
			okResponse{OK: false, Message: err.Error()})

		return
	}

	row, err := s.repo.UpdateOne(r.Context(), &payload)
	if err != nil {
		if errors.Is(err, store.ErrWriteNotConfigured) {
			s.log.WithError(err).Error("Update attempted without write credentials")
		} else {
			s.log.WithError(err).
				WithField("team", payload.Team).
				Error("Failed to update benchmark")
		}

		writeJSON(w, http.StatusInternalServerError,
			okResponse{OK: false, Message: err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"team": row,
	})
}
