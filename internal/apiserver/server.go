// Package apiserver assembles the task API: routes, session protection and
// the shared middleware stack.
package apiserver

import (
	"net/http"
	"time"

	analyticsapi "github.com/andrebq/taskbox/analytics/api"
	"github.com/andrebq/taskbox/authprogram"
	authapi "github.com/andrebq/taskbox/authprogram/api"
	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/andrebq/taskbox/internal/middleware"
	"github.com/andrebq/taskbox/store"
	tasksapi "github.com/andrebq/taskbox/tasks/api"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type (
	Config struct {
		Store    *store.Store
		Sessions *authprogram.Sessions
		Logger   zerolog.Logger

		// InsecureCookie drops the Secure attribute from the session cookie.
		InsecureCookie bool
		CORS           middleware.CORSConfig

		// RequestsPerMinute applies to every route, AuthRequestsPerMinute
		// only to register and logon. Zero disables the limit.
		RequestsPerMinute     int
		AuthRequestsPerMinute int
		BodyLimit             int64
	}
)

func DefaultConfig() Config {
	return Config{
		Logger:                zerolog.Nop(),
		RequestsPerMinute:     300,
		AuthRequestsPerMinute: 20,
		BodyLimit:             middleware.DefaultBodyLimit,
	}
}

// New returns the complete API handler.
func New(cfg Config) http.Handler {
	realm := authapi.NewRealm(cfg.Sessions, cfg.Store, cfg.InsecureCookie)
	tasks := tasksapi.New(cfg.Store)
	analytics := analyticsapi.New(cfg.Store)
	authLimit := middleware.RateLimit(cfg.AuthRequestsPerMinute, time.Minute)
	protect := func(h http.HandlerFunc) http.Handler {
		return realm.Protect(h)
	}

	router := httprouter.New()
	router.Handler("POST", "/api/users/register", authLimit(http.HandlerFunc(realm.Register)))
	router.Handler("POST", "/api/users/logon", authLimit(http.HandlerFunc(realm.Logon)))
	router.HandlerFunc("POST", "/api/users/logoff", realm.Logoff)
	router.Handler("GET", "/api/users/:id", protect(realm.Show))

	router.Handler("GET", "/api/tasks", protect(tasks.Index))
	router.Handler("POST", "/api/tasks", protect(tasks.Create))
	router.Handler("POST", "/api/tasks/bulk", protect(tasks.Bulk))
	router.Handler("GET", "/api/tasks/:id", protect(tasks.Show))
	router.Handler("PATCH", "/api/tasks/:id", protect(tasks.Update))
	router.Handler("DELETE", "/api/tasks/:id", protect(tasks.Delete))

	router.Handler("GET", "/api/analytics/users/:id", protect(analytics.User))
	router.Handler("GET", "/api/analytics/users", protect(analytics.Users))
	router.Handler("GET", "/api/analytics/tasks/search", protect(analytics.Search))

	router.Handler("GET", "/metrics", promhttp.Handler())
	router.HandlerFunc("GET", "/healthz", health(cfg.Store))
	router.NotFound = http.HandlerFunc(apierr.NotFound)
	router.HandleMethodNotAllowed = false

	return Stack(cfg, router)
}

// Stack wraps h with the middleware shared by every taskbox service.
func Stack(cfg Config, h http.Handler) http.Handler {
	limit := cfg.BodyLimit
	if limit <= 0 {
		limit = middleware.DefaultBodyLimit
	}
	return middleware.Chain(h,
		middleware.RequestID,
		middleware.Logging(cfg.Logger),
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.CORS(cfg.CORS),
		middleware.RateLimit(cfg.RequestsPerMinute, time.Minute),
		middleware.RequireJSON,
		middleware.LimitBody(limit),
	)
}

func health(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			apierr.Write(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
