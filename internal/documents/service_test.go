package documents

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

type fakeRepository struct {
	docs map[uuid.UUID]*models.Document
}

func newFakeRepo() *fakeRepository {
	return &fakeRepository{docs: map[uuid.UUID]*models.Document{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, doc *models.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (f *fakeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	var rows []models.Document
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			rows = append(rows, *doc)
		}
	}
	return rows, nil
}

func (f *fakeRepository) Delete(ctx context.Context, doc *models.Document) error {
	delete(f.docs, doc.ID)
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, entry audit.Entry) {}
func (noopAudit) List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepo()
	svc, err := NewService(Params{
		Repo:   repo,
		Config: config.DocumentsConfig{UploadDir: t.TempDir(), MaxUploadMB: 1},
		Audit:  noopAudit{},
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestUploadStoresFileAndMetadata(t *testing.T) {
	svc, repo := newTestService(t)
	owner := uuid.New()
	content := []byte("%PDF-1.4 test")

	doc, err := svc.Upload(context.Background(), owner, UploadInput{
		Kind:     enums.DocumentKindTravelReceipt,
		FileName: "szamla.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.SizeBytes != int64(len(content)) {
		t.Fatalf("expected %d bytes, got %d", len(content), doc.SizeBytes)
	}
	if !strings.HasSuffix(doc.Path, ".pdf") {
		t.Fatalf("expected .pdf extension, got %s", doc.Path)
	}
	stored, err := os.ReadFile(doc.Path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatal("stored bytes differ from upload")
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Fatal("expected metadata row")
	}
}

func TestUploadRejectsDisallowedMime(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Upload(context.Background(), uuid.New(), UploadInput{
		Kind:     enums.DocumentKindOther,
		FileName: "virus.exe",
		MimeType: "application/octet-stream",
		Size:     10,
		Content:  bytes.NewReader([]byte("x")),
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadRejectsOversizedStream(t *testing.T) {
	svc, _ := newTestService(t)
	// Declared size lies; the actual stream is over the 1 MB limit.
	big := bytes.Repeat([]byte("a"), 1024*1024+10)
	_, err := svc.Upload(context.Background(), uuid.New(), UploadInput{
		Kind:     enums.DocumentKindOther,
		FileName: "big.png",
		MimeType: "image/png",
		Size:     100,
		Content:  bytes.NewReader(big),
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	content := []byte("kep")

	doc, err := svc.Upload(context.Background(), owner, UploadInput{
		Kind:     enums.DocumentKindProfilePicture,
		FileName: "profil.jpg",
		MimeType: "image/jpeg",
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	meta, reader, err := svc.Open(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()
	if meta.MimeType != "image/jpeg" {
		t.Fatalf("unexpected mime %s", meta.MimeType)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Fatal("read bytes differ from upload")
	}
}

func TestDeleteSoftDeletesMetadata(t *testing.T) {
	svc, repo := newTestService(t)
	owner := uuid.New()
	content := []byte("x")

	doc, err := svc.Upload(context.Background(), owner, UploadInput{
		Kind:     enums.DocumentKindOther,
		FileName: "f.png",
		MimeType: "image/png",
		Size:     1,
		Content:  bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(context.Background(), owner, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.docs[doc.ID]; ok {
		t.Fatal("expected metadata removed")
	}
	// The bytes stay on disk.
	if _, err := os.Stat(doc.Path); err != nil {
		t.Fatalf("file must survive delete: %v", err)
	}
}
