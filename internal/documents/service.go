package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// allowedMimeTypes is the upload allowlist: images and PDF only.
var allowedMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// UploadInput carries one file upload.
type UploadInput struct {
	Kind     enums.DocumentKind
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Service stores uploaded files on local disk and tracks their metadata.
type Service interface {
	Upload(ctx context.Context, ownerID uuid.UUID, input UploadInput) (*models.Document, error)
	// Open returns the document's metadata and a reader over its bytes. The
	// caller closes the reader.
	Open(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cfg   config.DocumentsConfig
	audit audit.Service
	logg  *logger.Logger
}

type Params struct {
	Repo   Repository
	Config config.DocumentsConfig
	Audit  audit.Service
	Logger *logger.Logger
}

// NewService wires document dependencies and ensures the upload directory
// exists.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "documents repository required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if p.Config.UploadDir == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upload directory required")
	}
	if err := os.MkdirAll(p.Config.UploadDir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create upload directory")
	}
	return &service{repo: p.Repo, cfg: p.Config, audit: p.Audit, logg: p.Logger}, nil
}

func (s *service) Upload(ctx context.Context, ownerID uuid.UUID, input UploadInput) (*models.Document, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document kind")
	}
	if strings.TrimSpace(input.FileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name required")
	}
	ext, ok := allowedMimeTypes[input.MimeType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported file type %s", input.MimeType))
	}
	maxBytes := int64(s.cfg.MaxUploadMB) * 1024 * 1024
	if input.Size <= 0 || input.Size > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file size must be between 1 byte and %d MB", s.cfg.MaxUploadMB))
	}

	id := uuid.New()
	storedName := id.String() + ext
	path := filepath.Join(s.cfg.UploadDir, storedName)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create file")
	}
	// LimitReader guards against a client lying about the size header.
	written, err := io.Copy(file, io.LimitReader(input.Content, maxBytes+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write file")
	}
	if written > maxBytes {
		_ = os.Remove(path)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds %d MB", s.cfg.MaxUploadMB))
	}

	doc := &models.Document{
		ID:        id,
		OwnerID:   ownerID,
		Kind:      input.Kind,
		FileName:  filepath.Base(input.FileName),
		Path:      path,
		MimeType:  input.MimeType,
		SizeBytes: written,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		_ = os.Remove(path)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create document")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &ownerID,
		Action:     "document.upload",
		EntityType: "document",
		EntityID:   &doc.ID,
		Summary:    doc.FileName,
	})
	return doc, nil
}

func (s *service) Open(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(doc.Path)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open file")
	}
	return doc, file, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document")
	}
	return doc, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return rows, nil
}

// Delete soft-deletes the metadata row; the bytes stay on disk until a manual
// cleanup.
func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "document.delete",
		EntityType: "document",
		EntityID:   &doc.ID,
		Summary:    doc.FileName,
	})
	return nil
}
