package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/internal/testutil"
	"github.com/julienschmidt/httprouter"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

const bobJSON = `{"name":"Bob","email":"bob@sample.com","password":"Pa$$word20"}`

func newTestRealm(t *testing.T) (http.Handler, func()) {
	t.Helper()
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "realm")
	secret, err := base64.StdEncoding.DecodeString("blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20=")
	require.NoError(t, err)
	revoked, err := authprogram.InMemoryTokenStore(ctx, time.Hour)
	require.NoError(t, err)
	tokens, err := authprogram.NewTokens(secret, time.Hour, revoked)
	require.NoError(t, err)
	realm := NewRealm(authprogram.NewSessions(st, authprogram.NewHasher(2), tokens), st, true)

	router := httprouter.New()
	router.HandlerFunc("POST", "/api/users/register", realm.Register)
	router.HandlerFunc("POST", "/api/users/logon", realm.Logon)
	router.HandlerFunc("POST", "/api/users/logoff", realm.Logoff)
	router.Handler("GET", "/api/users/:id", realm.Protect(http.HandlerFunc(realm.Show)))
	router.Handler("POST", "/echo", realm.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := authprogram.IdentityFrom(r.Context())
		fmt.Fprintf(w, "%v", id.ID)
	})))
	return router, cleanup
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("response did not set the session cookie")
	return nil
}

func setCookieHas(parts ...string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, _ *http.Request) error {
		hdr := res.Header.Get("Set-Cookie")
		for _, p := range parts {
			if !strings.Contains(hdr, p) {
				return fmt.Errorf("Set-Cookie %q should contain %q", hdr, p)
			}
		}
		return nil
	}
}

func TestRegisterLogonLogoff(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	res := apitest.New().
		Handler(handler).
		Post("/api/users/register").
		JSON(bobJSON).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.name", "Bob")).
		Assert(jsonpath.Equal("$.email", "bob@sample.com")).
		Assert(jsonpath.Present("$.csrfToken")).
		Assert(jsonpath.NotPresent("$.password")).
		Assert(setCookieHas("jwt=", "HttpOnly", "SameSite=Strict")).
		End()
	registered := sessionCookie(t, res.Response)

	res = apitest.New().
		Handler(handler).
		Post("/api/users/logon").
		JSON(`{"email":"bob@sample.com","password":"Pa$$word20"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.csrfToken")).
		Assert(setCookieHas("jwt=", "HttpOnly")).
		End()
	logged := sessionCookie(t, res.Response)
	require.NotEqual(t, registered.Value, logged.Value)

	apitest.New().
		Handler(handler).
		Post("/api/users/logoff").
		Cookie(CookieName, logged.Value).
		Expect(t).
		Status(http.StatusOK).
		Assert(setCookieHas("jwt=", "1970")).
		End()

	apitest.New().
		Handler(handler).
		Post("/echo").
		Cookie(CookieName, logged.Value).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "Authentication failed")).
		End()
}

func TestLogoffWithoutSession(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Post("/api/users/logoff").
		Expect(t).
		Status(http.StatusOK).
		Assert(setCookieHas("jwt=", "1970")).
		End()
}

func TestDuplicateRegister(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Post("/api/users/register").JSON(bobJSON).
		Expect(t).Status(http.StatusCreated).End()
	apitest.New().Handler(handler).
		Post("/api/users/register").JSON(bobJSON).
		Expect(t).Status(http.StatusConflict).
		Assert(jsonpath.Present("$.message")).
		End()
}

func TestRegisterValidation(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Post("/api/users/register").
		JSON(`{"name":"B","email":"not-an-email","password":"weak"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Len("$.details", 3)).
		End()

	apitest.New().Handler(handler).
		Post("/api/users/register").
		JSON(`{"name":`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLogonFailuresLookAlike(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Post("/api/users/register").JSON(bobJSON).
		Expect(t).Status(http.StatusCreated).End()

	wrongPassword := apitest.New().Handler(handler).
		Post("/api/users/logon").
		JSON(`{"email":"bob@sample.com","password":"Wrong$$word20"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "Authentication failed")).
		End()
	unknownEmail := apitest.New().Handler(handler).
		Post("/api/users/logon").
		JSON(`{"email":"alice@sample.com","password":"Pa$$word20"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "Authentication failed")).
		End()
	require.Empty(t, wrongPassword.Response.Cookies())
	require.Empty(t, unknownEmail.Response.Cookies())
}

func TestProtect(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Post("/echo").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	res := apitest.New().Handler(handler).
		Post("/api/users/register").JSON(bobJSON).
		Expect(t).Status(http.StatusCreated).End()
	cookie := sessionCookie(t, res.Response)
	var profile struct {
		CSRFToken string `json:"csrfToken"`
	}
	res.JSON(&profile)
	require.NotEmpty(t, profile.CSRFToken)

	apitest.New().Handler(handler).
		Post("/echo").
		Cookie(CookieName, cookie.Value).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	apitest.New().Handler(handler).
		Post("/echo").
		Cookie(CookieName, cookie.Value).
		Header(CSRFHeader, "forged").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	apitest.New().Handler(handler).
		Post("/echo").
		Cookie(CookieName, cookie.Value).
		Header(CSRFHeader, profile.CSRFToken).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().Handler(handler).
		Post("/echo").
		Cookie(CookieName, cookie.Value+"x").
		Header(CSRFHeader, profile.CSRFToken).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestShowOnlyOwnProfile(t *testing.T) {
	handler, cleanup := newTestRealm(t)
	defer cleanup()

	res := apitest.New().Handler(handler).
		Post("/api/users/register").JSON(bobJSON).
		Expect(t).Status(http.StatusCreated).End()
	cookie := sessionCookie(t, res.Response)

	apitest.New().Handler(handler).
		Get("/api/users/1").
		Cookie(CookieName, cookie.Value).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.email", "bob@sample.com")).
		Assert(jsonpath.NotPresent("$.password")).
		End()
	apitest.New().Handler(handler).
		Get("/api/users/2").
		Cookie(CookieName, cookie.Value).
		Expect(t).
		Status(http.StatusNotFound).
		End()
	apitest.New().Handler(handler).
		Get("/api/users/abc").
		Cookie(CookieName, cookie.Value).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "The user ID passed is not valid.")).
		End()
	apitest.New().Handler(handler).
		Get("/api/users/0").
		Cookie(CookieName, cookie.Value).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "The user ID passed is not valid.")).
		End()
}
