package fulfillment

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
)

// Repository persists generated artifacts and fulfillment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// InsertArtifactIfAbsent writes the artifact unless one already exists
	// for its (session, template) pair. It returns the surviving row and
	// whether this call created it.
	InsertArtifactIfAbsent(ctx context.Context, artifact *models.GeneratedArtifact) (*models.GeneratedArtifact, bool, error)
	FindArtifact(ctx context.Context, sessionID, templateID string) (*models.GeneratedArtifact, error)
	FindArtifactByFilename(ctx context.Context, filename string) (*models.GeneratedArtifact, error)
	ListArtifactsBySession(ctx context.Context, sessionID string) ([]models.GeneratedArtifact, error)

	// InsertRecordIfAbsent writes the record unless the session already has
	// one, returning the surviving row and whether this call created it.
	InsertRecordIfAbsent(ctx context.Context, record *models.FulfillmentRecord) (*models.FulfillmentRecord, bool, error)
	FindRecordBySession(ctx context.Context, sessionID string) (*models.FulfillmentRecord, error)

	// SaveRecord persists the mutable columns of an existing record.
	SaveRecord(ctx context.Context, record *models.FulfillmentRecord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) InsertArtifactIfAbsent(ctx context.Context, artifact *models.GeneratedArtifact) (*models.GeneratedArtifact, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "template_id"}},
			DoNothing: true,
		}).
		Create(artifact)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return artifact, true, nil
	}
	existing, err := r.FindArtifact(ctx, artifact.SessionID, artifact.TemplateID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *repository) FindArtifact(ctx context.Context, sessionID, templateID string) (*models.GeneratedArtifact, error) {
	var artifact models.GeneratedArtifact
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND template_id = ?", sessionID, templateID).
		First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artifact not found")
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *repository) FindArtifactByFilename(ctx context.Context, filename string) (*models.GeneratedArtifact, error) {
	var artifact models.GeneratedArtifact
	err := r.db.WithContext(ctx).
		Where("filename = ?", filename).
		First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artifact not found")
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *repository) ListArtifactsBySession(ctx context.Context, sessionID string) ([]models.GeneratedArtifact, error) {
	var artifacts []models.GeneratedArtifact
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&artifacts).Error
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (r *repository) InsertRecordIfAbsent(ctx context.Context, record *models.FulfillmentRecord) (*models.FulfillmentRecord, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return record, true, nil
	}
	existing, err := r.FindRecordBySession(ctx, record.SessionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *repository) FindRecordBySession(ctx context.Context, sessionID string) (*models.FulfillmentRecord, error) {
	var record models.FulfillmentRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment record not found")
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) SaveRecord(ctx context.Context, record *models.FulfillmentRecord) error {
	return r.db.WithContext(ctx).
		Model(&models.FulfillmentRecord{}).
		Where("session_id = ?", record.SessionID).
		Select("state", "items", "customer_email", "amount_total_cents", "failure_reason").
		Updates(*record).Error
}
