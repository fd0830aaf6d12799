package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/legacy-capsule/capsule-backend/pkg/stripe"
)

// StripeSessionClient exposes the subset of Stripe operations required by the payment verifier.
type StripeSessionClient interface {
	GetSession(ctx context.Context, id string, params *stripe.CheckoutSessionRetrieveParams) (*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct {
	api *stripe.Client
}

// NewStripeClient wraps the provided Stripe client so the verifier can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeSessionClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{api: api.API()}
}

func (w *stripeClientWrapper) GetSession(ctx context.Context, id string, params *stripe.CheckoutSessionRetrieveParams) (*stripe.CheckoutSession, error) {
	return w.api.V1CheckoutSessions.Retrieve(ctx, id, params)
}
