package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/legacy-capsule/capsule-backend/internal/cart"
	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	"github.com/legacy-capsule/capsule-backend/pkg/config"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

type stubStripeClient struct {
	lastParams *stripe.CheckoutSessionCreateParams
	session    *stripe.CheckoutSession
	err        error
	calls      int
}

func (s *stubStripeClient) CreateSession(_ context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	s.calls++
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type stubURLs struct{}

func (stubURLs) SuccessURL() string { return "https://example.com/success" }
func (stubURLs) CancelURL() string  { return "https://example.com/cancel" }

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot(
		[]catalog.Template{
			{ID: "memory-letter", Name: "Memory Letter", Price: decimal.RequireFromString("12.99"), Fields: []string{"title", "message", "signature"}},
			{ID: "time-capsule", Name: "Time Capsule Letter", Price: decimal.RequireFromString("14.99")},
		},
		[]catalog.Bundle{
			{
				ID:            "personal-growth",
				Name:          "Personal Growth Bundle",
				OriginalPrice: decimal.RequireFromString("54.99"),
				SalePrice:     decimal.RequireFromString("34.99"),
				Templates:     []string{"memory-letter", "time-capsule"},
			},
		},
	)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func newTestService(t *testing.T, client StripeCheckoutClient, cfg config.CheckoutConfig) Service {
	t.Helper()
	svc, err := NewService(client, testSnapshot(t), stubURLs{}, cfg, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCreateSessionRepricesFromCatalog(t *testing.T) {
	stub := &stubStripeClient{session: &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://pay.example/cs_test_123"}}
	svc := newTestService(t, stub, config.CheckoutConfig{MetadataCeilingBytes: 500})

	res, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []cart.Item{
			{Kind: enums.ItemKindTemplate, ID: "memory-letter"},
			{Kind: enums.ItemKindBundle, ID: "personal-growth"},
		},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if res.SessionID != "cs_test_123" {
		t.Fatalf("unexpected session id %q", res.SessionID)
	}
	if res.AmountTotalCents != 4798 {
		t.Fatalf("expected repriced total 4798, got %d", res.AmountTotalCents)
	}

	lines := stub.lastParams.LineItems
	if len(lines) != 2 {
		t.Fatalf("expected 2 provider line items, got %d", len(lines))
	}
	if got := *lines[0].PriceData.UnitAmount; got != 1299 {
		t.Fatalf("expected catalog price 1299 on provider line, got %d", got)
	}
	if got := *lines[1].PriceData.UnitAmount; got != 3499 {
		t.Fatalf("expected bundle sale price 3499 on provider line, got %d", got)
	}
}

func TestCreateSessionRejectsEmptyCart(t *testing.T) {
	stub := &stubStripeClient{}
	svc := newTestService(t, stub, config.CheckoutConfig{})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{})
	if err == nil {
		t.Fatal("expected error for empty cart")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("provider should not be contacted for an empty cart, got %d calls", stub.calls)
	}
}

func TestCreateSessionRejectsUnknownItem(t *testing.T) {
	stub := &stubStripeClient{}
	svc := newTestService(t, stub, config.CheckoutConfig{})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []cart.Item{{Kind: enums.ItemKindTemplate, ID: "ghost"}},
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("provider should not be contacted for an unknown item, got %d calls", stub.calls)
	}
}

func TestCreateSessionRejectsOversizedCustomization(t *testing.T) {
	stub := &stubStripeClient{}
	svc := newTestService(t, stub, config.CheckoutConfig{MetadataCeilingBytes: 100})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []cart.Item{{Kind: enums.ItemKindTemplate, ID: "memory-letter"}},
		Customizations: map[string]types.Customization{
			"memory-letter": {Title: "Dear Future", Message: strings.Repeat("remember this ", 30)},
		},
	})
	if err == nil {
		t.Fatal("expected oversized payload to be rejected")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodePayloadTooLarge {
		t.Fatalf("expected payload-too-large error, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("provider should not be contacted for an oversized payload, got %d calls", stub.calls)
	}
}

func TestCreateSessionForwardsCustomizationMetadata(t *testing.T) {
	stub := &stubStripeClient{session: &stripe.CheckoutSession{ID: "cs_test_456"}}
	svc := newTestService(t, stub, config.CheckoutConfig{MetadataCeilingBytes: 500})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []cart.Item{{Kind: enums.ItemKindBundle, ID: "personal-growth"}},
		Customizations: map[string]types.Customization{
			"memory-letter": {Title: "To Mom", Message: "With love"},
			"not-in-cart":   {Title: "dropped"},
		},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	meta := stub.lastParams.Metadata[metadataCustomizationsKey]
	if !strings.Contains(meta, "memory-letter") || !strings.Contains(meta, "To Mom") {
		t.Fatalf("expected customization metadata for cart template, got %q", meta)
	}
	if strings.Contains(meta, "not-in-cart") {
		t.Fatalf("customization for template outside the cart should be dropped, got %q", meta)
	}
}

func TestCreateSessionWrapsProviderFailure(t *testing.T) {
	stub := &stubStripeClient{err: errors.New("stripe unreachable")}
	svc := newTestService(t, stub, config.CheckoutConfig{})

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []cart.Item{{Kind: enums.ItemKindTemplate, ID: "time-capsule"}},
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
