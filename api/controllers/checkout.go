package controllers

import (
	"net/http"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	"github.com/legacy-capsule/capsule-backend/api/validators"
	"github.com/legacy-capsule/capsule-backend/internal/cart"
	checkoutsvc "github.com/legacy-capsule/capsule-backend/internal/checkout"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

type checkoutSessionRequest struct {
	Items          []cart.Item                    `json:"items" validate:"required,min=1"`
	CustomerEmail  string                         `json:"customer_email" validate:"omitempty,email"`
	Customizations map[string]types.Customization `json:"customizations"`
}

// CreateCheckoutSession opens a hosted payment session for the submitted cart.
func CreateCheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), checkoutsvc.CreateSessionInput{
			Items:          payload.Items,
			CustomerEmail:  payload.CustomerEmail,
			Customizations: payload.Customizations,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
