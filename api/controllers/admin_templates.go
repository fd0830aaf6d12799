package controllers

import (
	"net/http"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	"github.com/legacy-capsule/capsule-backend/api/validators"
	templatesvc "github.com/legacy-capsule/capsule-backend/internal/templates"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

// ListTemplateRecords serves the administrator-published template records.
func ListTemplateRecords(svc templatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "template service unavailable"))
			return
		}

		records, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// CreateTemplateRecord publishes a new template record to the document store.
func CreateTemplateRecord(svc templatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "template service unavailable"))
			return
		}

		var payload templatesvc.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}
