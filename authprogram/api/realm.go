package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/andrebq/taskbox/internal/jsonbody"
	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/andrebq/taskbox/internal/metrics"
	"github.com/andrebq/taskbox/internal/reqparams"
	"github.com/andrebq/taskbox/store"
)

type (
	// SecurityRealm owns the session cookie: it sets it on register and
	// logon, expires it on logoff and verifies it for protected handlers.
	SecurityRealm struct {
		sessions       *authprogram.Sessions
		users          UserLookup
		insecureCookie bool
	}

	UserLookup interface {
		UserByID(ctx context.Context, id int64) (*store.User, error)
	}

	profileView struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

const (
	CookieName = "jwt"
	CSRFHeader = "X-CSRF-TOKEN"
)

// NewRealm returns a realm backed by sessions. allowHTTPCookie drops the
// Secure attribute so the cookie also travels over plain http, which is
// only meant for local development.
func NewRealm(sessions *authprogram.Sessions, users UserLookup, allowHTTPCookie bool) *SecurityRealm {
	return &SecurityRealm{
		sessions:       sessions,
		users:          users,
		insecureCookie: allowHTTPCookie,
	}
}

// Protect only lets requests carrying a valid session reach sensitive. The
// anti-forgery header is compared on state changing methods.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var token string
		if c, err := r.Cookie(CookieName); err == nil {
			token = c.Value
		}
		id, err := s.sessions.Tokens().Verify(ctx, token, r.Header.Get(CSRFHeader), unsafeMethod(r.Method))
		if err != nil {
			var verr authprogram.VerifyError
			if errors.As(err, &verr) {
				metrics.TokenVerifications.WithLabelValues(string(verr.Reason)).Inc()
			} else {
				metrics.TokenVerifications.WithLabelValues("error").Inc()
			}
			apierr.Write(w, r, err)
			return
		}
		metrics.TokenVerifications.WithLabelValues("accepted").Inc()
		log := logutil.GetOrDefault(ctx).With().Int64("user.id", id.ID).Logger()
		ctx = log.WithContext(authprogram.WithIdentity(ctx, id))
		sensitive.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Register handles POST /api/users/register.
func (s *SecurityRealm) Register(w http.ResponseWriter, r *http.Request) {
	var in authprogram.RegisterInput
	if err := jsonbody.Decode(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	profile, session, err := s.sessions.Register(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	s.setCookie(w, session)
	apierr.WriteJSON(w, http.StatusCreated, profile)
}

// Logon handles POST /api/users/logon.
func (s *SecurityRealm) Logon(w http.ResponseWriter, r *http.Request) {
	var in authprogram.LogonInput
	if err := jsonbody.Decode(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	profile, session, err := s.sessions.Logon(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	s.setCookie(w, session)
	apierr.WriteJSON(w, http.StatusOK, profile)
}

// Logoff handles POST /api/users/logoff. It succeeds even without a session.
func (s *SecurityRealm) Logoff(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(CookieName); err == nil {
		token = c.Value
	}
	expired, err := s.sessions.Logoff(r.Context(), token)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    expired.Token,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.insecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	apierr.WriteJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Logged off"})
}

// Show handles GET /api/users/:id. Callers only see their own profile,
// any other id is reported as not found.
func (s *SecurityRealm) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := authprogram.IdentityFrom(ctx)
	if !ok {
		apierr.Write(w, r, apierr.AuthenticationError{Reason: "missing identity"})
		return
	}
	id, err := reqparams.PathID(r, "id", "The user ID passed is not valid.")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	notFound := apierr.NotFoundError{Message: "The user was not found."}
	if id != caller.ID {
		apierr.Write(w, r, notFound)
		return
	}
	user, err := s.users.UserByID(ctx, id)
	var missing store.UserNotFound
	if errors.As(err, &missing) {
		apierr.Write(w, r, notFound)
		return
	} else if err != nil {
		apierr.Write(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, profileView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func (s *SecurityRealm) setCookie(w http.ResponseWriter, session *authprogram.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   !s.insecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
