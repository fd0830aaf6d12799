package quotes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

type memoryQuotesRepo struct {
	quotes []*models.CustomQuote
	apps   []*models.ResellerApplication
	err    error
}

func (r *memoryQuotesRepo) WithTx(tx *gorm.DB) Repository {
	return r
}

func (r *memoryQuotesRepo) CreateQuote(ctx context.Context, quote *models.CustomQuote) (*models.CustomQuote, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.quotes = append(r.quotes, quote)
	return quote, nil
}

func (r *memoryQuotesRepo) CreateResellerApplication(ctx context.Context, app *models.ResellerApplication) (*models.ResellerApplication, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.apps = append(r.apps, app)
	return app, nil
}

func newQuotesService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSubmitQuoteDefaultsToPending(t *testing.T) {
	repo := &memoryQuotesRepo{}
	svc := newQuotesService(t, repo)

	quote, err := svc.SubmitQuote(context.Background(), QuoteInput{
		Name:         "  Sam  ",
		Email:        " sam@example.com ",
		TemplateType: "memorial",
		Notes:        "engraved cover",
	})
	if err != nil {
		t.Fatalf("SubmitQuote: %v", err)
	}
	if quote.Status != enums.RequestStatusPending {
		t.Fatalf("expected pending status, got %s", quote.Status)
	}
	if quote.ID == uuid.Nil {
		t.Fatalf("expected assigned id")
	}
	if quote.Name != "Sam" || quote.Email != "sam@example.com" {
		t.Fatalf("expected trimmed identity, got %q %q", quote.Name, quote.Email)
	}
	if len(repo.quotes) != 1 {
		t.Fatalf("expected 1 persisted quote, got %d", len(repo.quotes))
	}
}

func TestSubmitQuoteRequiresNameAndEmail(t *testing.T) {
	svc := newQuotesService(t, &memoryQuotesRepo{})

	_, err := svc.SubmitQuote(context.Background(), QuoteInput{Name: "   "})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitResellerApplication(t *testing.T) {
	repo := &memoryQuotesRepo{}
	svc := newQuotesService(t, repo)

	app, err := svc.SubmitResellerApplication(context.Background(), ResellerInput{
		Name:       "Sam",
		Email:      "sam@example.com",
		Package:    "starter",
		Experience: "etsy shop",
	})
	if err != nil {
		t.Fatalf("SubmitResellerApplication: %v", err)
	}
	if app.Status != enums.RequestStatusPending {
		t.Fatalf("expected pending status, got %s", app.Status)
	}
	if len(repo.apps) != 1 {
		t.Fatalf("expected 1 persisted application, got %d", len(repo.apps))
	}
}

func TestSubmitQuotePersistenceFailure(t *testing.T) {
	svc := newQuotesService(t, &memoryQuotesRepo{err: gorm.ErrInvalidDB})

	_, err := svc.SubmitQuote(context.Background(), QuoteInput{Name: "Sam", Email: "sam@example.com"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
