package apiserver

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/internal/testutil"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, tweak func(*Config)) (http.Handler, func()) {
	t.Helper()
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "apiserver")
	secret, err := base64.StdEncoding.DecodeString("blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20=")
	require.NoError(t, err)
	revoked, err := authprogram.InMemoryTokenStore(ctx, time.Hour)
	require.NoError(t, err)
	tokens, err := authprogram.NewTokens(secret, time.Hour, revoked)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Store = st
	cfg.Sessions = authprogram.NewSessions(st, authprogram.NewHasher(2), tokens)
	cfg.InsecureCookie = true
	if tweak != nil {
		tweak(&cfg)
	}
	return New(cfg), cleanup
}

func TestSessionFlow(t *testing.T) {
	api, cleanup := newTestAPI(t, nil)
	defer cleanup()

	res := apitest.New().Handler(api).
		Post("/api/users/register").
		JSON(`{"name":"Bob","email":"bob@sample.com","password":"Pa$$word20"}`).
		Expect(t).
		Status(http.StatusCreated).
		HeaderPresent("X-Request-Id").
		Header("X-Content-Type-Options", "nosniff").
		Header("X-Frame-Options", "DENY").
		CookiePresent("jwt").
		End()
	var profile struct {
		CSRFToken string `json:"csrfToken"`
	}
	res.JSON(&profile)
	var jwt string
	for _, c := range res.Response.Cookies() {
		if c.Name == "jwt" {
			jwt = c.Value
		}
	}
	require.NotEmpty(t, jwt)

	apitest.New().Handler(api).
		Post("/api/tasks").
		Cookie("jwt", jwt).
		JSON(`{"title":"buy milk"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().Handler(api).
		Post("/api/tasks").
		Cookie("jwt", jwt).
		Header("X-CSRF-TOKEN", profile.CSRFToken).
		JSON(`{"title":"buy milk"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()

	apitest.New().Handler(api).
		Get("/api/tasks").
		Cookie("jwt", jwt).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.tasks", 1)).
		Assert(jsonpath.Equal("$.pagination.total", float64(1))).
		End()

	apitest.New().Handler(api).
		Get("/api/analytics/users/1").
		Cookie("jwt", jwt).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.recentTasks", 1)).
		End()

	apitest.New().Handler(api).
		Post("/api/users/logoff").
		Cookie("jwt", jwt).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().Handler(api).
		Get("/api/tasks").
		Cookie("jwt", jwt).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "Authentication failed")).
		End()
}

func TestRequestIDIsEchoed(t *testing.T) {
	api, cleanup := newTestAPI(t, nil)
	defer cleanup()

	apitest.New().Handler(api).
		Get("/nowhere").
		Header("X-Request-Id", "abc-123").
		Expect(t).
		Status(http.StatusNotFound).
		Header("X-Request-Id", "abc-123").
		Assert(jsonpath.Equal("$.message", "Route not found")).
		Assert(jsonpath.Equal("$.requestId", "abc-123")).
		End()
}

func TestRequireJSON(t *testing.T) {
	api, cleanup := newTestAPI(t, nil)
	defer cleanup()

	apitest.New().Handler(api).
		Post("/api/users/logon").
		Body(`email=bob@sample.com`).
		ContentType("application/x-www-form-urlencoded").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestBodyLimit(t *testing.T) {
	api, cleanup := newTestAPI(t, func(c *Config) { c.BodyLimit = 32 })
	defer cleanup()

	apitest.New().Handler(api).
		Post("/api/users/register").
		JSON(`{"name":"Bob","email":"bob@sample.com","password":"Pa$$word20"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "Request body must not exceed 32 bytes")).
		End()
}

func TestAuthRateLimit(t *testing.T) {
	api, cleanup := newTestAPI(t, func(c *Config) { c.AuthRequestsPerMinute = 2 })
	defer cleanup()

	for i := 0; i < 2; i++ {
		apitest.New().Handler(api).
			Post("/api/users/logon").
			JSON(`{"email":"bob@sample.com","password":"Pa$$word20"}`).
			Expect(t).
			Status(http.StatusUnauthorized).
			End()
	}
	apitest.New().Handler(api).
		Post("/api/users/logon").
		JSON(`{"email":"bob@sample.com","password":"Pa$$word20"}`).
		Expect(t).
		Status(http.StatusTooManyRequests).
		HeaderPresent("Retry-After").
		End()
}

func TestHealthAndMetrics(t *testing.T) {
	api, cleanup := newTestAPI(t, nil)
	defer cleanup()

	apitest.New().Handler(api).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Body("ok").
		End()
	apitest.New().Handler(api).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		End()
}
