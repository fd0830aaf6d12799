package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	"github.com/legacy-capsule/capsule-backend/api/validators"
	fulfillmentsvc "github.com/legacy-capsule/capsule-backend/internal/fulfillment"
	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

type generateArtifactRequest struct {
	SessionID     string               `json:"session_id" validate:"required"`
	TemplateID    string               `json:"template_id" validate:"required"`
	Customization *types.Customization `json:"customization"`
}

// GenerateArtifact renders one purchased template for a paid session.
func GenerateArtifact(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		var payload generateArtifactRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GenerateArtifact(r.Context(), payload.SessionID, payload.TemplateID, payload.Customization)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Reused {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

type fulfillRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type fulfillmentResponse struct {
	SessionID        string                 `json:"session_id"`
	State            string                 `json:"state"`
	Items            types.FulfillmentItems `json:"items,omitempty"`
	CustomerEmail    string                 `json:"customer_email,omitempty"`
	AmountTotalCents int64                  `json:"amount_total_cents"`
	FailureReason    string                 `json:"failure_reason,omitempty"`
}

func newFulfillmentResponse(record *models.FulfillmentRecord) fulfillmentResponse {
	return fulfillmentResponse{
		SessionID:        record.SessionID,
		State:            record.State.String(),
		Items:            record.Items,
		CustomerEmail:    record.CustomerEmail,
		AmountTotalCents: record.AmountTotalCents,
		FailureReason:    record.FailureReason,
	}
}

// Fulfill runs the whole post-payment pipeline for a session.
func Fulfill(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		var payload fulfillRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Fulfill(r.Context(), payload.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFulfillmentResponse(record))
	}
}

// FulfillmentBySession reports the fulfillment record for a session.
func FulfillmentBySession(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}

		record, err := svc.RecordBySession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFulfillmentResponse(record))
	}
}

// DownloadArtifact streams a generated document by its minted filename.
func DownloadArtifact(svc fulfillmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		filename := strings.TrimSpace(chi.URLParam(r, "filename"))
		if filename == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "filename is required"))
			return
		}

		rc, artifact, err := svc.OpenArtifact(r.Context(), filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer func() { _ = rc.Close() }()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
		if _, err := io.Copy(w, rc); err != nil {
			logg.Error(r.Context(), "artifact download interrupted", err)
		}
	}
}
