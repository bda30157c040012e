package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/observability"
	"github.com/gestao-municipal/gestao/internal/shared"
	"github.com/gestao-municipal/gestao/jobs"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "0 7 * * *", cfg.NotifyCron)
	require.Equal(t, 30, cfg.WarningDays)
	require.Equal(t, calendar.PolicyLenient, cfg.Policy())
	require.Equal(t, "America/Sao_Paulo", cfg.Location().String())
	require.Equal(t, language.BrazilianPortuguese, cfg.Locale())
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATE_POLICY", "Strict")
	t.Setenv("DEFAULT_LOCALE", "en-US")
	t.Setenv("CACHE_TTL", "1m")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, calendar.PolicyStrict, cfg.Policy())
	require.Equal(t, language.English, cfg.Locale())
	require.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"TIMEZONE":              "Mars/Olympus",
		"DATE_POLICY":           "sloppy",
		"WARNING_DAYS":          "-1",
		"RATE_LIMIT_PER_MINUTE": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestActorMiddleware(t *testing.T) {
	var seen string
	h := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, " maria.souza ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "maria.souza", seen)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, shared.SystemActor, seen)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	t.Setenv("GESTAO_TEST_MODE", "1")
	RefreshTestMode()
	t.Cleanup(RefreshTestMode)

	var ready error
	router := NewRouter(RouterParams{
		Config:     &Config{AppRequestTimeout: time.Second, RateLimitPerMinute: 100},
		Metrics:    observability.NewMetrics(),
		Readiness:  func(*http.Request) error { return ready },
		JobHandler: jobs.NewHandler(nil, nil),
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	ready = errors.New("pg down")
	require.Equal(t, http.StatusServiceUnavailable, get("/healthz").Code)

	require.Equal(t, http.StatusOK, get("/jobs/health").Code)

	rec = get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `gestao_http_requests_total{code="200",method="GET",resource="jobs",route="/jobs/health"} 1`)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json", AppEnv: "staging"}, &buf).Info("scan done", slog.Int("alerts", 2))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "scan done", line["msg"])
	require.Equal(t, "staging", line["env"])
	require.Equal(t, "gestao", line["service"])
	require.EqualValues(t, 2, line["alerts"])

	buf.Reset()
	newLogger(nil, &buf).Info("hello")
	require.Contains(t, buf.String(), "msg=hello")
}
