package fulfillment

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	"github.com/legacy-capsule/capsule-backend/internal/payments"
	"github.com/legacy-capsule/capsule-backend/pkg/db/models"
	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/metrics"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

const artifactPrefix = "artifacts"

// renderer produces artifact bytes and names for a template.
type renderer interface {
	Render(tpl catalog.Template, c types.Customization) ([]byte, error)
	Filename(templateID string) string
}

// blobStore is the slice of object storage the fulfillment pipeline needs.
type blobStore interface {
	Put(ctx context.Context, object, contentType string, data []byte) (string, error)
	Get(ctx context.Context, object string) (io.ReadCloser, error)
	Delete(ctx context.Context, object string) error
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
}

// ArtifactResult is the caller-facing handle for one generated document.
type ArtifactResult struct {
	SessionID   string `json:"session_id"`
	TemplateID  string `json:"template_id"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
	Reused      bool   `json:"reused"`
}

// Service drives artifact generation and per-session fulfillment runs.
type Service interface {
	// GenerateArtifact renders one template for a paid session. Repeat calls
	// for the same (session, template) pair return the first artifact.
	GenerateArtifact(ctx context.Context, sessionID, templateID string, customization *types.Customization) (*ArtifactResult, error)

	// Fulfill runs the whole session: verify payment, expand the purchased
	// items, generate every artifact, and persist the terminal record.
	Fulfill(ctx context.Context, sessionID string) (*models.FulfillmentRecord, error)

	// RecordBySession returns the fulfillment record for a session.
	RecordBySession(ctx context.Context, sessionID string) (*models.FulfillmentRecord, error)

	// OpenArtifact streams a previously generated document by filename.
	OpenArtifact(ctx context.Context, filename string) (io.ReadCloser, *models.GeneratedArtifact, error)
}

type service struct {
	repo      Repository
	verifier  payments.Verifier
	render    renderer
	blobs     blobStore
	catalog   *catalog.Snapshot
	metrics   *metrics.FulfillmentMetrics
	urlExpiry time.Duration
	logg      *logger.Logger
}

// NewService builds the fulfillment service backed by the provided stack.
// A positive urlExpiry turns download handles into signed storage URLs.
func NewService(repo Repository, verifier payments.Verifier, render renderer, blobs blobStore, snap *catalog.Snapshot, m *metrics.FulfillmentMetrics, urlExpiry time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if render == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if snap == nil {
		return nil, fmt.Errorf("catalog snapshot required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		verifier:  verifier,
		render:    render,
		blobs:     blobs,
		catalog:   snap,
		metrics:   m,
		urlExpiry: urlExpiry,
		logg:      logg,
	}, nil
}

// GenerateArtifact verifies payment fresh, then renders and stores the
// document. The unique (session, template) row is the idempotency anchor:
// whichever concurrent caller loses the insert race discards its blob and
// adopts the winner's artifact.
func (s *service) GenerateArtifact(ctx context.Context, sessionID, templateID string, customization *types.Customization) (*ArtifactResult, error) {
	verification, err := s.verifier.Verify(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !verification.Paid() {
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed,
			fmt.Sprintf("payment for session %q is %s", sessionID, verification.Status))
	}

	c := resolveCustomization(customization, verification, templateID)
	return s.generateForPaidSession(ctx, sessionID, templateID, c)
}

func (s *service) generateForPaidSession(ctx context.Context, sessionID, templateID string, c types.Customization) (*ArtifactResult, error) {
	ctx = s.logg.WithSessionID(ctx, sessionID)
	ctx = s.logg.WithTemplateID(ctx, templateID)

	tpl, err := s.catalog.TemplateByID(templateID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindArtifact(ctx, sessionID, templateID); err == nil {
		return s.artifactResult(ctx, existing, true), nil
	} else if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "fulfillment: lookup artifact")
	}

	start := time.Now()
	data, err := s.render.Render(tpl, c)
	if err != nil {
		s.observeFailure(templateID, start)
		return nil, err
	}

	filename := s.render.Filename(templateID)
	object := path.Join(artifactPrefix, filename)
	storageRef, err := s.blobs.Put(ctx, object, "application/pdf", data)
	if err != nil {
		s.observeFailure(templateID, start)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfillment: store artifact")
	}

	artifact := &models.GeneratedArtifact{
		ID:            uuid.New(),
		SessionID:     sessionID,
		TemplateID:    templateID,
		Filename:      filename,
		StorageRef:    storageRef,
		Customization: c,
	}
	saved, created, err := s.repo.InsertArtifactIfAbsent(ctx, artifact)
	if err != nil {
		s.observeFailure(templateID, start)
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "fulfillment: record artifact")
	}
	if !created {
		// Lost the insert race; the stored blob is an orphan.
		if delErr := s.blobs.Delete(ctx, object); delErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("fulfillment: orphan artifact blob %s left behind: %v", object, delErr))
		}
		return s.artifactResult(ctx, saved, true), nil
	}

	if s.metrics != nil {
		s.metrics.ObserveDuration(templateID, time.Since(start))
		s.metrics.IncSuccess(templateID)
	}
	s.logg.Info(ctx, fmt.Sprintf("artifact %s generated", filename))
	return s.artifactResult(ctx, saved, false), nil
}

// Fulfill is idempotent per session. A completed record is returned as-is;
// an interrupted run is resumed, re-verifying payment before any rendering.
func (s *service) Fulfill(ctx context.Context, sessionID string) (*models.FulfillmentRecord, error) {
	record, _, err := s.repo.InsertRecordIfAbsent(ctx, &models.FulfillmentRecord{
		ID:        uuid.New(),
		SessionID: sessionID,
		State:     enums.FulfillmentStateCreated,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "fulfillment: open record")
	}
	if record.State == enums.FulfillmentStateCompleted {
		return record, nil
	}

	ctx = s.logg.WithSessionID(ctx, sessionID)

	if err := s.transition(ctx, record, enums.FulfillmentStateVerifying, nil, ""); err != nil {
		return nil, err
	}

	verification, err := s.verifier.Verify(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !verification.Paid() {
		reason := fmt.Sprintf("payment is %s", verification.Status)
		if err := s.transition(ctx, record, enums.FulfillmentStateFailed, nil, reason); err != nil {
			return nil, err
		}
		return record, pkgerrors.New(pkgerrors.CodePaymentNotConfirmed,
			fmt.Sprintf("payment for session %q is %s", sessionID, verification.Status))
	}

	record.CustomerEmail = verification.CustomerEmail
	record.AmountTotalCents = verification.AmountTotalCents

	templateIDs, err := s.expandPurchase(verification)
	if err != nil {
		if terr := s.transition(ctx, record, enums.FulfillmentStateFailed, nil, err.Error()); terr != nil {
			return nil, terr
		}
		return record, err
	}

	if err := s.transition(ctx, record, enums.FulfillmentStateFulfilling, nil, ""); err != nil {
		return nil, err
	}

	items := make(types.FulfillmentItems, 0, len(templateIDs))
	var failures error
	for _, templateID := range templateIDs {
		c := resolveCustomization(nil, verification, templateID)
		res, genErr := s.generateForPaidSession(ctx, sessionID, templateID, c)
		if genErr != nil {
			failures = multierr.Append(failures, fmt.Errorf("template %s: %w", templateID, genErr))
			items = append(items, types.FulfillmentItem{
				TemplateID: templateID,
				Outcome:    enums.ItemOutcomeFailed,
				Reason:     genErr.Error(),
			})
			continue
		}
		items = append(items, types.FulfillmentItem{
			TemplateID: templateID,
			Outcome:    enums.ItemOutcomeCompleted,
			Filename:   res.Filename,
			StorageRef: path.Join(artifactPrefix, res.Filename),
		})
	}

	// Every item reached a terminal outcome, so the run itself is complete;
	// per-item failures live on the items and the failure reason. Failed is
	// reserved for runs that never got past payment or expansion.
	reason := ""
	if failures != nil {
		reason = failures.Error()
	}
	if err := s.transition(ctx, record, enums.FulfillmentStateCompleted, items, reason); err != nil {
		return nil, err
	}
	if items.AllSucceeded() {
		s.logg.Info(ctx, fmt.Sprintf("fulfillment completed with %d item(s)", len(items)))
	} else {
		s.logg.Warn(ctx, fmt.Sprintf("fulfillment completed with failed item(s): %s", reason))
	}
	return record, nil
}

func (s *service) RecordBySession(ctx context.Context, sessionID string) (*models.FulfillmentRecord, error) {
	return s.repo.FindRecordBySession(ctx, sessionID)
}

// OpenArtifact resolves the filename through the artifact table first, so
// only names this service minted ever reach object storage.
func (s *service) OpenArtifact(ctx context.Context, filename string) (io.ReadCloser, *models.GeneratedArtifact, error) {
	artifact, err := s.repo.FindArtifactByFilename(ctx, filename)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, path.Join(artifactPrefix, artifact.Filename))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfillment: open artifact blob")
	}
	return rc, artifact, nil
}

// expandPurchase flattens the session's line items to the distinct template
// ids they fulfill, preserving first-seen order across bundles.
func (s *service) expandPurchase(verification *payments.Verification) ([]string, error) {
	if len(verification.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("session %q carries no purchasable items", verification.SessionID))
	}
	seen := make(map[string]struct{})
	var out []string
	for _, item := range verification.Items {
		ids, err := s.catalog.ExpandTemplates(item.Kind, item.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *service) transition(ctx context.Context, record *models.FulfillmentRecord, state enums.FulfillmentState, items types.FulfillmentItems, reason string) error {
	record.State = state
	record.Items = items
	record.FailureReason = reason
	if err := s.repo.SaveRecord(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, fmt.Sprintf("fulfillment: transition to %s", state))
	}
	return nil
}

func (s *service) observeFailure(templateID string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(templateID, time.Since(start))
	s.metrics.IncFailure(templateID)
}

func resolveCustomization(explicit *types.Customization, verification *payments.Verification, templateID string) types.Customization {
	if explicit != nil {
		return *explicit
	}
	if c, ok := verification.Customizations[templateID]; ok {
		return c
	}
	return types.Customization{}
}

// artifactResult prefers a time-limited signed storage URL for the download
// handle; when signing is off or unavailable the API proxy path is used.
func (s *service) artifactResult(ctx context.Context, artifact *models.GeneratedArtifact, reused bool) *ArtifactResult {
	downloadURL := "/api/v1/artifact/" + artifact.Filename
	if s.urlExpiry > 0 {
		signed, err := s.blobs.SignedURL("", path.Join(artifactPrefix, artifact.Filename), "", s.urlExpiry)
		if err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("fulfillment: signing download url for %s: %v", artifact.Filename, err))
		} else {
			downloadURL = signed
		}
	}
	return &ArtifactResult{
		SessionID:   artifact.SessionID,
		TemplateID:  artifact.TemplateID,
		Filename:    artifact.Filename,
		DownloadURL: downloadURL,
		Reused:      reused,
	}
}
