package templates

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
)

// Repository persists administrator-published template records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.TemplateRecord, error)
	FindByID(ctx context.Context, id string) (*models.TemplateRecord, error)

	// InsertIfAbsent writes the record unless the id is taken, returning
	// whether this call created it.
	InsertIfAbsent(ctx context.Context, record *models.TemplateRecord) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a template record repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.TemplateRecord, error) {
	var records []models.TemplateRecord
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.TemplateRecord, error) {
	var record models.TemplateRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "template record not found")
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) InsertIfAbsent(ctx context.Context, record *models.TemplateRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
