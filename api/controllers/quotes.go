package controllers

import (
	"net/http"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	"github.com/legacy-capsule/capsule-backend/api/validators"
	quotesvc "github.com/legacy-capsule/capsule-backend/internal/quotes"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

// SubmitCustomQuote records a bespoke-template quote request.
func SubmitCustomQuote(svc quotesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}

		var payload quotesvc.QuoteInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.SubmitQuote(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":      quote.ID,
			"status":  quote.Status,
			"message": "Quote request submitted successfully",
		})
	}
}

// SubmitResellerSignup records a reseller program application.
func SubmitResellerSignup(svc quotesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}

		var payload quotesvc.ResellerInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.SubmitResellerApplication(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":      app.ID,
			"status":  app.Status,
			"message": "Reseller application submitted successfully",
		})
	}
}
