package quotes

import (
	"context"

	"gorm.io/gorm"

	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
)

// Repository persists custom quote requests and reseller applications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateQuote(ctx context.Context, quote *models.CustomQuote) (*models.CustomQuote, error)
	CreateResellerApplication(ctx context.Context, app *models.ResellerApplication) (*models.ResellerApplication, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateQuote(ctx context.Context, quote *models.CustomQuote) (*models.CustomQuote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) CreateResellerApplication(ctx context.Context, app *models.ResellerApplication) (*models.ResellerApplication, error) {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}
