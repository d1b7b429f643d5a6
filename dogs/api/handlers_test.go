package api

import (
	"net/http"
	"testing"

	"github.com/andrebq/taskbox/dogs"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	c, err := dogs.Load()
	require.NoError(t, err)
	return Router(c)
}

func TestDogs(t *testing.T) {
	apitest.New().Handler(newRouter(t)).
		Get("/dogs").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$[0].name", "Luna")).
		End()
}

func TestAdopt(t *testing.T) {
	router := newRouter(t)

	apitest.New().Handler(router).
		Post("/adopt").
		JSON(`{"name":"Ann","email":"ann@sample.com","dogName":"Luna"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.message", "Adoption request received. We will contact you at ann@sample.com for further details.")).
		End()

	apitest.New().Handler(router).
		Post("/adopt").
		JSON(`{"name":"Ann","email":"ann@sample.com","dogName":"Nonexistent Dog"}`).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal("$.message", "Resource not found or not available")).
		End()

	apitest.New().Handler(router).
		Post("/adopt").
		JSON(`{"name":"Ann","email":"ann at home","dogName":"Luna"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.message", "Adoption request received. We will contact you at ann at home for further details.")).
		End()

	apitest.New().Handler(router).
		Post("/adopt").
		JSON(`{"name":"Ann","email":"   ","dogName":"Luna"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.New().Handler(router).
		Post("/adopt").
		JSON(`{"name":"Ann"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "Missing required fields")).
		Assert(jsonpath.Len("$.details", 2)).
		End()
}

func TestErrorRoute(t *testing.T) {
	apitest.New().Handler(newRouter(t)).
		Get("/error").
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.message", "Internal Server Error")).
		End()
}
