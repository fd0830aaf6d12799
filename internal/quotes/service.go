package quotes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

// QuoteInput is a bespoke-template quote request.
type QuoteInput struct {
	Name         string          `json:"name" validate:"required"`
	Email        string          `json:"email" validate:"required,email"`
	TemplateType string          `json:"template_type"`
	Notes        string          `json:"notes"`
	Files        []types.FileRef `json:"files"`
}

// ResellerInput is a reseller program signup.
type ResellerInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Package    string `json:"package"`
	Experience string `json:"experience"`
}

// Service accepts customer requests that need human follow-up. Both flows
// land as pending rows for the back office; nothing here blocks checkout.
type Service interface {
	SubmitQuote(ctx context.Context, input QuoteInput) (*models.CustomQuote, error)
	SubmitResellerApplication(ctx context.Context, input ResellerInput) (*models.ResellerApplication, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the quotes service backed by the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) SubmitQuote(ctx context.Context, input QuoteInput) (*models.CustomQuote, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}

	quote := &models.CustomQuote{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		TemplateType: input.TemplateType,
		Notes:        input.Notes,
		Files:        input.Files,
		Status:       enums.RequestStatusPending,
	}
	saved, err := s.repo.CreateQuote(ctx, quote)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "quotes: persist quote request")
	}
	s.logg.Info(ctx, fmt.Sprintf("custom quote %s submitted", saved.ID))
	return saved, nil
}

func (s *service) SubmitResellerApplication(ctx context.Context, input ResellerInput) (*models.ResellerApplication, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}

	app := &models.ResellerApplication{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.TrimSpace(input.Email),
		Package:    input.Package,
		Experience: input.Experience,
		Status:     enums.RequestStatusPending,
	}
	saved, err := s.repo.CreateResellerApplication(ctx, app)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "quotes: persist reseller application")
	}
	s.logg.Info(ctx, fmt.Sprintf("reseller application %s submitted", saved.ID))
	return saved, nil
}
