package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordkredit/wallboard/pkg/benchmark"
	"github.com/nordkredit/wallboard/pkg/config"
	"github.com/nordkredit/wallboard/pkg/session"
	"github.com/nordkredit/wallboard/pkg/store"
)

const testPassword = "correct-horse-battery"

// fakeStore is a minimal stateful stand-in for the external REST
// store: GET lists rows, PATCH overwrites one by team filter.
type fakeStore struct {
	mu   sync.Mutex
	rows map[benchmark.Team]benchmark.TeamBenchmark
}

func newFakeStore() *fakeStore {
	rows := make(map[benchmark.Team]benchmark.TeamBenchmark, 2)
	for _, row := range benchmark.Defaults() {
		rows[row.Team] = row
	}

	return &fakeStore{rows: rows}
}

func (f *fakeStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			out := make([]benchmark.TeamBenchmark, 0, len(f.rows))
			for _, team := range benchmark.Teams() {
				out = append(out, f.rows[team])
			}

			_ = json.NewEncoder(w).Encode(out)
		case http.MethodPatch:
			team := benchmark.Team(strings.TrimPrefix(
				r.URL.Query().Get("team"), "eq."))

			row, ok := f.rows[team]
			if !ok {
				_, _ = w.Write([]byte("[]"))

				return
			}

			var patch map[string]any
			_ = json.NewDecoder(r.Body).Decode(&patch)

			raw, _ := json.Marshal(row)

			var merged map[string]any
			_ = json.Unmarshal(raw, &merged)

			for k, v := range patch {
				merged[k] = v
			}

			raw, _ = json.Marshal(merged)

			var updated benchmark.TeamBenchmark
			_ = json.Unmarshal(raw, &updated)

			f.rows[team] = updated
			_ = json.NewEncoder(w).Encode(
				[]benchmark.TeamBenchmark{updated})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestServer(t *testing.T, storeCfg config.StoreConfig) *server {
	t.Helper()

	if storeCfg.Table == "" {
		storeCfg.Table = "team_benchmarks"
	}

	if storeCfg.Timeout == 0 {
		storeCfg.Timeout = 5 * time.Second
	}

	cfg := &config.Config{
		Environment: "development",
		Store:       storeCfg,
		Auth: config.AuthConfig{
			SessionSecret: "test-secret",
			AdminPassword: testPassword,
			SessionTTL:    12 * time.Hour,
		},
		Display: config.DisplayConfig{
			RefreshInterval: 60 * time.Second,
		},
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return &server{
		log:      log,
		cfg:      cfg,
		sessions: session.New(&cfg.Auth),
		repo:     store.NewClient(log, &cfg.Store),
	}
}

func doJSON(
	t *testing.T,
	router http.Handler,
	method, path, body string,
	cookie *http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}

	return nil
}

func TestHandleHealth(t *testing.T) {
	router := newTestServer(t, config.StoreConfig{}).buildRouter()

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleConfig_DemoMode(t *testing.T) {
	router := newTestServer(t, config.StoreConfig{}).buildRouter()

	rec := doJSON(t, router, http.MethodGet, "/config", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["demo_mode"])
	assert.Equal(t, false, resp["writes_enabled"])
	assert.Equal(t, float64(60), resp["refresh_interval_seconds"])
}

func TestHandleListBenchmarks_DemoMode(t *testing.T) {
	router := newTestServer(t, config.StoreConfig{}).buildRouter()

	rec := doJSON(t, router, http.MethodGet, "/benchmarks", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Teams []struct {
			Team     benchmark.Team `json:"team"`
			Rank     int            `json:"rank"`
			Leader   bool           `json:"leader"`
			DeltaPct float64        `json:"delta_pct"`
		} `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Teams, 2)
	assert.Equal(t, benchmark.TeamAvida, resp.Teams[0].Team)
	assert.True(t, resp.Teams[0].Leader)
	assert.Equal(t, 2, resp.Teams[1].Rank)
}

func TestHandleListBenchmarks_StoreErrorIsLoud(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "backend down", http.StatusServiceUnavailable)
		}))
	defer ts.Close()

	router := newTestServer(t, config.StoreConfig{
		URL:     ts.URL,
		ReadKey: "read-key",
	}).buildRouter()

	rec := doJSON(t, router, http.MethodGet, "/benchmarks", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Message, "backend down")
}

func TestHandleLogin(t *testing.T) {
	router := newTestServer(t, config.StoreConfig{}).buildRouter()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCookie bool
	}{
		{
			name:       "wrong password",
			body:       `{"password":"guess"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty password",
			body:       `{"password":""}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed body",
			body:       `{not json`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "correct password",
			body:       fmt.Sprintf(`{"password":%q}`, testPassword),
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost,
				"/session/login", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)

			cookie := sessionCookie(rec)
			if !tt.wantCookie {
				assert.Nil(t, cookie)

				return
			}

			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
			assert.Equal(t, "/", cookie.Path)
			assert.Equal(t, int(12*time.Hour.Seconds()), cookie.MaxAge)
		})
	}
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	router := newTestServer(t, config.StoreConfig{}).buildRouter()

	rec := doJSON(t, router, http.MethodPost, "/session/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestHandleUpdateBenchmark_RequiresSession(t *testing.T) {
	srv := newTestServer(t, config.StoreConfig{})
	router := srv.buildRouter()

	body := `{"team":"avida"}`

	// No cookie at all.
	rec := doJSON(t, router, http.MethodPost,
		"/benchmarks/update", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage cookie.
	rec = doJSON(t, router, http.MethodPost, "/benchmarks/update", body,
		&http.Cookie{Name: session.CookieName, Value: "bogus.token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	other := session.New(&config.AuthConfig{
		SessionSecret: "other-secret",
		SessionTTL:    12 * time.Hour,
	})
	rec = doJSON(t, router, http.MethodPost, "/benchmarks/update", body,
		&http.Cookie{Name: session.CookieName, Value: other.CreateToken()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func login(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/session/login",
		fmt.Sprintf(`{"password":%q}`, testPassword), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	return cookie
}

func TestHandleUpdateBenchmark_ValidationBeforeStore(t *testing.T) {
	// Store deliberately unreachable: a validation failure must reject
	// before any store call is attempted.
	srv := newTestServer(t, config.StoreConfig{
		URL:      "http://127.0.0.1:1",
		ReadKey:  "read-key",
		WriteKey: "write-key",
	})
	router := srv.buildRouter()
	cookie := login(t, router)

	tests := []struct {
		name string
		body string
	}{
		{"unknown team", `{"team":"unknown-team","team_name":"x",
			"overholdelse_pct":1,"incoming_cases":1,"resolved_cases":1,
			"open_backlog":1,"avg_handle_minutes":1}`},
		{"non-numeric count", `{"team":"avida","team_name":"x",
			"overholdelse_pct":1,"incoming_cases":"forty",
			"resolved_cases":1,"open_backlog":1,"avg_handle_minutes":1}`},
		{"missing fields", `{"team":"avida"}`},
		{"not json", `..`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost,
				"/benchmarks/update", tt.body, cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleUpdateBenchmark_WriteNotConfigured(t *testing.T) {
	srv := newTestServer(t, config.StoreConfig{})
	router := srv.buildRouter()
	cookie := login(t, router)

	body := `{"team":"avida","team_name":"Team Avida",
		"overholdelse_pct":95.5,"incoming_cases":400,"resolved_cases":390,
		"open_backlog":120,"avg_handle_minutes":7.2}`

	rec := doJSON(t, router, http.MethodPost,
		"/benchmarks/update", body, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Message, "not configured")
}

func TestLoginUpdateFetch_EndToEnd(t *testing.T) {
	fake := newFakeStore()
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	srv := newTestServer(t, config.StoreConfig{
		URL:      ts.URL,
		ReadKey:  "read-key",
		WriteKey: "write-key",
	})
	router := srv.buildRouter()

	// Wrong password first: 401 and no cookie.
	rec := doJSON(t, router, http.MethodPost, "/session/login",
		`{"password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))

	cookie := login(t, router)

	body := `{"team":"santander","team_name":"Team Santander",
		"overholdelse_pct":95.5,"previous_month_pct":94.7,
		"best_month_pct":96.8,"incoming_cases":440,"resolved_cases":420,
		"open_backlog":140,"avg_handle_minutes":7.9}`

	rec = doJSON(t, router, http.MethodPost,
		"/benchmarks/update", body, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var updateResp struct {
		OK   bool                    `json:"ok"`
		Team benchmark.TeamBenchmark `json:"team"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updateResp))
	assert.True(t, updateResp.OK)
	assert.Equal(t, 95.5, updateResp.Team.OverholdelsePct)
	assert.NotNil(t, updateResp.Team.UpdatedAt)

	// Subsequent fetch reflects the write; avida stays untouched.
	rec = doJSON(t, router, http.MethodGet, "/benchmarks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Teams []benchmark.TeamBenchmark `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Teams, 2)

	assert.Equal(t, benchmark.TeamAvida, listResp.Teams[0].Team)
	assert.Equal(t, 96.2, listResp.Teams[0].OverholdelsePct)
	assert.Nil(t, listResp.Teams[0].UpdatedAt)

	assert.Equal(t, benchmark.TeamSantander, listResp.Teams[1].Team)
	assert.Equal(t, 95.5, listResp.Teams[1].OverholdelsePct)
	assert.NotNil(t, listResp.Teams[1].UpdatedAt)
}

func TestRateLimit_AuthTier(t *testing.T) {
	srv := newTestServer(t, config.StoreConfig{})
	srv.cfg.Server.RateLimit = config.RateLimitConfig{
		Enabled: true,
		Auth:    config.RateLimitTier{RequestsPerMinute: 2},
		Public:  config.RateLimitTier{RequestsPerMinute: 100},
	}
	router := srv.buildRouter()

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/session/login",
			`{"password":"wrong"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/session/login",
		`{"password":"wrong"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
