package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/legacy-capsule/capsule-backend/internal/cart"
	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	"github.com/legacy-capsule/capsule-backend/pkg/config"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

const metadataCustomizationsKey = "customizations"

// CreateSessionInput is the client-submitted checkout payload. Any prices the
// client attaches to items are discarded; the catalog snapshot is repriced
// server side before the provider sees an amount.
type CreateSessionInput struct {
	Items          []cart.Item                    `json:"items"`
	CustomerEmail  string                         `json:"customer_email"`
	Customizations map[string]types.Customization `json:"customizations"`
}

// SessionResult is the provider handle handed back to the storefront.
type SessionResult struct {
	SessionID        string            `json:"session_id"`
	CheckoutURL      string            `json:"checkout_url"`
	AmountTotalCents int64             `json:"amount_total_cents"`
	Items            []cart.PricedItem `json:"items"`
}

// Service creates payment provider checkout sessions.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*SessionResult, error)
}

type providerURLs interface {
	SuccessURL() string
	CancelURL() string
}

type service struct {
	client  StripeCheckoutClient
	catalog *catalog.Snapshot
	urls    providerURLs
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewService builds a checkout service backed by the provided stack.
func NewService(client StripeCheckoutClient, snap *catalog.Snapshot, urls providerURLs, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe checkout client required")
	}
	if snap == nil {
		return nil, fmt.Errorf("catalog snapshot required")
	}
	if urls == nil {
		return nil, fmt.Errorf("provider urls required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client:  client,
		catalog: snap,
		urls:    urls,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

// CreateSession reprices the submitted cart against the catalog, folds the
// customization payload into provider metadata, and opens a hosted checkout
// session. An empty cart and an oversized customization payload are rejected
// before the provider is contacted.
func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*SessionResult, error) {
	basket := cart.New(input.Items...)

	priced, total, err := cart.Price(basket, s.catalog)
	if err != nil {
		return nil, err
	}

	metadata, err := s.encodeCustomizations(input.Customizations, priced)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.urls.SuccessURL()),
		CancelURL:  stripe.String(s.urls.CancelURL()),
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}
	for _, line := range priced {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(line.PriceCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}
	itemsJSON, err := json.Marshal(priced)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout: encode line items")
	}
	params.AddMetadata("items", string(itemsJSON))
	if metadata != "" {
		params.AddMetadata(metadataCustomizationsKey, metadata)
	}

	callCtx := ctx
	if s.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
	}

	sess, err := s.client.CreateSession(callCtx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout: create provider session")
	}

	ctx = s.logg.WithSessionID(ctx, sess.ID)
	s.logg.Info(ctx, fmt.Sprintf("checkout session created for %d item(s), %d cents", len(priced), total))

	return &SessionResult{
		SessionID:        sess.ID,
		CheckoutURL:      sess.URL,
		AmountTotalCents: total,
		Items:            priced,
	}, nil
}

// encodeCustomizations serializes the per-template personalization map for
// provider metadata. Entries for templates absent from the priced cart are
// dropped rather than rejected.
func (s *service) encodeCustomizations(customizations map[string]types.Customization, priced []cart.PricedItem) (string, error) {
	if len(customizations) == 0 {
		return "", nil
	}

	inCart := make(map[string]struct{})
	for _, line := range priced {
		ids, err := s.catalog.ExpandTemplates(line.Kind, line.ID)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			inCart[id] = struct{}{}
		}
	}

	kept := make(map[string]types.Customization, len(customizations))
	for id, c := range customizations {
		if _, ok := inCart[id]; !ok {
			continue
		}
		if c.IsZero() {
			continue
		}
		kept[id] = c
	}
	if len(kept) == 0 {
		return "", nil
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout: encode customizations")
	}
	if ceiling := s.cfg.MetadataCeilingBytes; ceiling > 0 && len(raw) > ceiling {
		return "", pkgerrors.New(pkgerrors.CodePayloadTooLarge,
			fmt.Sprintf("customization payload is %d bytes, provider metadata allows %d", len(raw), ceiling))
	}
	return string(raw), nil
}
