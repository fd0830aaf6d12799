package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/legacy-capsule/capsule-backend/internal/cart"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

const (
	metadataItemsKey          = "items"
	metadataCustomizationsKey = "customizations"
)

// Verification is the provider's answer for one checkout session, fetched
// fresh on every call. Verdicts are never cached: a pending session may be
// paid seconds later, and fulfillment re-asks before every artifact.
type Verification struct {
	SessionID        string
	Status           enums.PaymentStatus
	CustomerEmail    string
	AmountTotalCents int64
	Items            []cart.PricedItem
	Customizations   map[string]types.Customization
}

// Paid reports whether the session cleared payment.
func (v *Verification) Paid() bool {
	return v != nil && v.Status == enums.PaymentStatusPaid
}

// Verifier resolves checkout session handles to payment verdicts.
type Verifier interface {
	Verify(ctx context.Context, sessionID string) (*Verification, error)
}

type verifier struct {
	client StripeSessionClient
	logg   *logger.Logger
}

// NewVerifier builds a provider-backed payment verifier.
func NewVerifier(client StripeSessionClient, logg *logger.Logger) (Verifier, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &verifier{client: client, logg: logg}, nil
}

// Verify fetches the session from the provider and maps its payment state.
// An unknown or malformed session handle is a not-found, not a dependency
// failure.
func (v *verifier) Verify(ctx context.Context, sessionID string) (*Verification, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	sess, err := v.client.GetSession(ctx, sessionID, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && (stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == 404) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("checkout session %q not found", sessionID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payments: fetch provider session")
	}

	result := &Verification{
		SessionID:        sess.ID,
		Status:           mapStatus(sess),
		CustomerEmail:    customerEmail(sess),
		AmountTotalCents: sess.AmountTotal,
		Items:            decodeItems(ctx, v.logg, sess),
		Customizations:   decodeCustomizations(ctx, v.logg, sess),
	}

	ctx = v.logg.WithSessionID(ctx, sess.ID)
	v.logg.Info(ctx, fmt.Sprintf("payment verification: %s", result.Status))
	return result, nil
}

func mapStatus(sess *stripe.CheckoutSession) enums.PaymentStatus {
	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return enums.PaymentStatusPaid
	}
	if sess.Status == stripe.CheckoutSessionStatusExpired {
		return enums.PaymentStatusFailed
	}
	return enums.PaymentStatusPending
}

func customerEmail(sess *stripe.CheckoutSession) string {
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return sess.CustomerDetails.Email
	}
	return sess.CustomerEmail
}

// decodeItems recovers the priced line items the checkout service stashed in
// provider metadata. They drive fulfillment without a second catalog walk.
func decodeItems(ctx context.Context, logg *logger.Logger, sess *stripe.CheckoutSession) []cart.PricedItem {
	raw, ok := sess.Metadata[metadataItemsKey]
	if !ok || raw == "" {
		return nil
	}
	var out []cart.PricedItem
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logg.Warn(ctx, fmt.Sprintf("payments: discarding malformed item metadata on %s: %v", sess.ID, err))
		return nil
	}
	return out
}

// decodeCustomizations recovers the personalization payload stashed in
// provider metadata at session creation. Corrupt metadata downgrades to no
// customization rather than blocking fulfillment.
func decodeCustomizations(ctx context.Context, logg *logger.Logger, sess *stripe.CheckoutSession) map[string]types.Customization {
	raw, ok := sess.Metadata[metadataCustomizationsKey]
	if !ok || raw == "" {
		return nil
	}
	var out map[string]types.Customization
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logg.Warn(ctx, fmt.Sprintf("payments: discarding malformed customization metadata on %s: %v", sess.ID, err))
		return nil
	}
	return out
}
