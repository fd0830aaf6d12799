package templates

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// CreateInput is an administrator's draft template.
type CreateInput struct {
	Name        string   `json:"name" validate:"required"`
	Price       string   `json:"price" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Fields      []string `json:"fields"`
}

// Service manages administrator-published templates. Writes land in the
// document store only; the serving catalog snapshot stays immutable until
// the next deploy picks the records up.
type Service interface {
	List(ctx context.Context) ([]models.TemplateRecord, error)
	Create(ctx context.Context, input CreateInput) (*models.TemplateRecord, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the admin template service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("template repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]models.TemplateRecord, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.TemplateRecord, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template name is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(input.Price))
	if err != nil || !price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive decimal amount")
	}

	id := Slug(name)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template name yields an empty id")
	}

	record := &models.TemplateRecord{
		ID:          id,
		Name:        name,
		PriceCents:  catalog.Cents(price),
		Description: input.Description,
		Category:    input.Category,
		Fields:      input.Fields,
	}
	created, err := s.repo.InsertIfAbsent(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "templates: persist record")
	}
	if !created {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("template %q already exists", id))
	}
	s.logg.Info(ctx, fmt.Sprintf("template record %s published", id))
	return record, nil
}

// Slug derives a template id from a display name: lowercase, spaces to
// dashes, everything else stripped.
func Slug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}
