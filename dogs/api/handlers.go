// Package api serves the dogs adoption demo.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/andrebq/taskbox/dogs"
	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/andrebq/taskbox/internal/jsonbody"
	"github.com/andrebq/taskbox/internal/validation"
	"github.com/julienschmidt/httprouter"
)

type (
	AdoptionInput struct {
		Name    string `json:"name" validate:"required,notblank"`
		Address string `json:"address"`
		Email   string `json:"email" validate:"required,notblank"`
		DogName string `json:"dogName" validate:"required,notblank"`
	}

	message struct {
		Message string `json:"message"`
	}
)

// Router returns the dogs routes. Unknown routes answer with the JSON 404.
func Router(catalogue *dogs.Catalogue) http.Handler {
	router := httprouter.New()
	router.HandlerFunc("GET", "/dogs", func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteJSON(w, http.StatusOK, catalogue.List())
	})
	router.HandlerFunc("POST", "/adopt", adopt(catalogue))
	router.HandlerFunc("GET", "/error", func(w http.ResponseWriter, r *http.Request) {
		apierr.Write(w, r, errors.New("test error"))
	})
	router.NotFound = http.HandlerFunc(apierr.NotFound)
	return router
}

func adopt(catalogue *dogs.Catalogue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in AdoptionInput
		if err := jsonbody.Decode(r, &in); err != nil {
			apierr.Write(w, r, err)
			return
		}
		if err := validation.Struct(&in); err != nil {
			apierr.Write(w, r, apierr.ValidationError{Message: "Missing required fields", Fields: fieldsOf(err)})
			return
		}
		if _, ok := catalogue.Find(in.DogName); !ok {
			apierr.Write(w, r, apierr.NotFoundError{Message: "Resource not found or not available"})
			return
		}
		apierr.WriteJSON(w, http.StatusCreated, message{
			Message: fmt.Sprintf("Adoption request received. We will contact you at %v for further details.", in.Email),
		})
	}
}

func fieldsOf(err error) []apierr.FieldError {
	var verr apierr.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
