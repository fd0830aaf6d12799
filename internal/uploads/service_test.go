package uploads

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/legacy-capsule/capsule-backend/pkg/config"
	pkgerrors "github.com/legacy-capsule/capsule-backend/pkg/errors"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
)

type stubBlobs struct {
	objects map[string][]byte
	puts    int
}

func (s *stubBlobs) Put(_ context.Context, object, _ string, data []byte) (string, error) {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.puts++
	s.objects[object] = data
	return object, nil
}

func multipartFile(t *testing.T, filename, contentType, body string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"][0]
}

func newTestService(t *testing.T, blobs *stubBlobs, cfg config.UploadsConfig) Service {
	t.Helper()
	svc, err := NewService(blobs, cfg, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestStoreAcceptsAllowedTypes(t *testing.T) {
	blobs := &stubBlobs{}
	svc := newTestService(t, blobs, config.UploadsConfig{MaxUploadMB: 50, MaxFiles: 10})

	stored, err := svc.Store(context.Background(), []*multipart.FileHeader{
		multipartFile(t, "voice-note.mp3", "audio/mpeg", "audio bytes"),
		multipartFile(t, "photo.JPG", "image/jpeg", "jpeg bytes"),
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if len(stored) != 2 || blobs.puts != 2 {
		t.Fatalf("expected both files stored, got %d results and %d puts", len(stored), blobs.puts)
	}
	if stored[0].OriginalName != "voice-note.mp3" {
		t.Fatalf("unexpected original name %q", stored[0].OriginalName)
	}
	if !strings.HasSuffix(stored[0].Filename, ".mp3") {
		t.Fatalf("stored name should keep the extension, got %q", stored[0].Filename)
	}
	if stored[0].Filename == "voice-note.mp3" {
		t.Fatal("stored name must not reuse the client-chosen name")
	}
	if !strings.HasPrefix(stored[0].StorageRef, "uploads/") {
		t.Fatalf("unexpected storage ref %q", stored[0].StorageRef)
	}
}

func TestStoreRejectsDisallowedExtension(t *testing.T) {
	blobs := &stubBlobs{}
	svc := newTestService(t, blobs, config.UploadsConfig{MaxUploadMB: 50, MaxFiles: 10})

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		multipartFile(t, "malware.exe", "application/octet-stream", "nope"),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if blobs.puts != 0 {
		t.Fatal("rejected batches must not touch storage")
	}
}

func TestStoreRejectsWholeBatchOnOneBadFile(t *testing.T) {
	blobs := &stubBlobs{}
	svc := newTestService(t, blobs, config.UploadsConfig{MaxUploadMB: 50, MaxFiles: 10})

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		multipartFile(t, "fine.png", "image/png", "png bytes"),
		multipartFile(t, "script.sh", "text/x-shellscript", "echo hi"),
	})
	if err == nil {
		t.Fatal("expected batch rejection")
	}
	if blobs.puts != 0 {
		t.Fatalf("no file from a rejected batch may be stored, got %d puts", blobs.puts)
	}
}

func TestStoreEnforcesFileCount(t *testing.T) {
	svc := newTestService(t, &stubBlobs{}, config.UploadsConfig{MaxUploadMB: 50, MaxFiles: 1})

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		multipartFile(t, "a.png", "image/png", "a"),
		multipartFile(t, "b.png", "image/png", "b"),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreEnforcesSizeLimit(t *testing.T) {
	svc := newTestService(t, &stubBlobs{}, config.UploadsConfig{MaxUploadMB: 1, MaxFiles: 10})

	header := multipartFile(t, "big.wav", "audio/wav", "x")
	header.Size = 2 << 20

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{header})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodePayloadTooLarge {
		t.Fatalf("expected payload-too-large, got %v", err)
	}
}

func TestStoreEmptyBatch(t *testing.T) {
	svc := newTestService(t, &stubBlobs{}, config.UploadsConfig{})

	_, err := svc.Store(context.Background(), nil)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
