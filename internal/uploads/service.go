package uploads

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legacy-capsule/capsule-backend/pkg/config"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

const uploadPrefix = "uploads"

// allowedExtensions mirrors the capture client's media types: images, audio,
// video, and documents attached to quote requests.
var allowedExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
	".mp3":  {},
	".wav":  {},
	".mp4":  {},
	".mov":  {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
}

// StoredFile describes one accepted upload.
type StoredFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	StorageRef   string `json:"storage_ref"`
}

type blobStore interface {
	Put(ctx context.Context, object, contentType string, data []byte) (string, error)
}

// Service stores customer media that later rides along in customizations.
type Service interface {
	Store(ctx context.Context, files []*multipart.FileHeader) ([]StoredFile, error)
}

type service struct {
	blobs blobStore
	cfg   config.UploadsConfig
	logg  *logger.Logger
}

// NewService builds an upload service writing to the provided blob store.
func NewService(blobs blobStore, cfg config.UploadsConfig, logg *logger.Logger) (Service, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{blobs: blobs, cfg: cfg, logg: logg}, nil
}

// Store validates and persists the batch. One bad file rejects the whole
// request so the client never has to guess which half was kept.
func (s *service) Store(ctx context.Context, files []*multipart.FileHeader) ([]StoredFile, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files submitted")
	}
	if max := s.cfg.MaxFiles; max > 0 && len(files) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d files per upload", max))
	}

	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	for _, header := range files {
		if err := validateHeader(header, maxBytes); err != nil {
			return nil, err
		}
	}

	stored := make([]StoredFile, 0, len(files))
	for _, header := range files {
		file, err := s.storeOne(ctx, header)
		if err != nil {
			return nil, err
		}
		stored = append(stored, *file)
	}
	s.logg.Info(ctx, fmt.Sprintf("stored %d uploaded file(s)", len(stored)))
	return stored, nil
}

func (s *service) storeOne(ctx context.Context, header *multipart.FileHeader) (*StoredFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "uploads: open part")
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "uploads: read part")
	}

	name := storedName(header.Filename)
	object := path.Join(uploadPrefix, name)
	ref, err := s.blobs.Put(ctx, object, header.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploads: store file")
	}

	return &StoredFile{
		Filename:     name,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		StorageRef:   ref,
	}, nil
}

func validateHeader(header *multipart.FileHeader, maxBytes int64) error {
	if header == nil || header.Filename == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	ext := strings.ToLower(path.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file type %q is not accepted", ext))
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return pkgerrors.New(pkgerrors.CodePayloadTooLarge,
			fmt.Sprintf("%s exceeds the %dMB upload limit", header.Filename, maxBytes>>20))
	}
	return nil
}

// storedName keeps the extension but replaces the client-chosen base with a
// timestamped unique name, so uploads can never collide or traverse paths.
func storedName(original string) string {
	ext := strings.ToLower(path.Ext(original))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
