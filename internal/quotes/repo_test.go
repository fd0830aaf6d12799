package quotes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

func setupQuotesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	quotes := `
CREATE TABLE IF NOT EXISTS custom_quotes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  template_type TEXT,
  notes TEXT,
  files TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME
);`
	apps := `
CREATE TABLE IF NOT EXISTS reseller_applications (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  package TEXT,
  experience TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(quotes).Error)
	require.NoError(t, db.Exec(apps).Error)
	return db
}

func TestCreateQuote(t *testing.T) {
	repo := NewRepository(setupQuotesTestDB(t))

	saved, err := repo.CreateQuote(context.Background(), &models.CustomQuote{
		ID:           uuid.New(),
		Name:         "Alex Rivera",
		Email:        "alex@example.com",
		TemplateType: "anniversary",
		Notes:        "gold foil accents",
		Files:        []types.FileRef{{Filename: "sketch.png", StorageRef: "uploads/sketch.png"}},
		Status:       enums.RequestStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPending, saved.Status)
	require.Len(t, saved.Files, 1)
	assert.Equal(t, "sketch.png", saved.Files[0].Filename)
}

func TestCreateResellerApplication(t *testing.T) {
	repo := NewRepository(setupQuotesTestDB(t))

	saved, err := repo.CreateResellerApplication(context.Background(), &models.ResellerApplication{
		ID:         uuid.New(),
		Name:       "Casey Morgan",
		Email:      "casey@example.com",
		Package:    "starter",
		Experience: "two years of stationery retail",
		Status:     enums.RequestStatusPending,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, "starter", saved.Package)
}
