package service

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/apperr"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// allowedMimeTypes is the upload allow-list: common image, PDF, office,
// text and zip types.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain":      true,
	"text/csv":        true,
	"application/zip": true,
}

// DocumentService validates uploads and runs the two-step saga: binary write
// to the object store, then the metadata row. The binary is removed if the
// metadata insert fails.
type DocumentService struct {
	db      *gorm.DB
	store   ObjectStore
	maxSize int64
}

func NewDocumentService(db *gorm.DB, store ObjectStore, maxSize int64) *DocumentService {
	return &DocumentService{db: db, store: store, maxSize: maxSize}
}

// UploadInput describes one incoming file.
type UploadInput struct {
	Filename       string
	Size           int64
	MimeType       string
	Type           model.DocumentType
	InterventionID string
	UnitID         string
	UploadedBy     string
	Reader         io.Reader
}

// Upload validates, stores and records a document. Validation failures are
// returned before any storage call.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	objectName := objectNameFor(in)
	path, err := s.store.Upload(ctx, objectName, in.Reader, in.Size, in.MimeType)
	if err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to store file")
	}

	doc := &model.Document{
		ID:             uuid.New().String(),
		InterventionID: in.InterventionID,
		UnitID:         in.UnitID,
		Type:           in.Type,
		Name:           in.Filename,
		StoragePath:    path,
		Size:           in.Size,
		MimeType:       in.MimeType,
		UploadedBy:     in.UploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		// Compensate: the binary is already stored and would be orphaned.
		// A compensation failure is logged but never masks the original error.
		if rmErr := s.store.Remove(ctx, path); rmErr != nil {
			logger.Error(ctx, "failed to remove orphaned storage object",
				"path", path,
				"error", rmErr,
			)
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to record document")
	}

	return doc, nil
}

func (s *DocumentService) validate(in UploadInput) error {
	if in.Size <= 0 {
		return apperr.New(apperr.ValidationFailed, "file is empty")
	}
	if in.Size > s.maxSize {
		return apperr.New(apperr.ValidationFailed,
			"file exceeds the %d byte limit", s.maxSize)
	}
	if !allowedMimeTypes[in.MimeType] {
		return apperr.New(apperr.ValidationFailed,
			"file type %q is not allowed", in.MimeType)
	}
	return nil
}

// Get returns a document row by id.
func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.NotFound, "document not found")
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, err, "failed to load document")
	}
	return &doc, nil
}

// DownloadURL generates a signed URL for the stored object.
func (s *DocumentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignedURL(ctx, doc.StoragePath)
	if err != nil {
		return "", apperr.Wrap(apperr.DependencyFailure, err, "failed to sign download URL")
	}
	return url, nil
}

// objectNameFor builds a collision-free object path:
// <scope>/<sanitized-name>-<timestamp>-<random><ext>
func objectNameFor(in UploadInput) string {
	scope := in.InterventionID
	if scope == "" {
		scope = in.UnitID
	}
	if scope == "" {
		scope = "misc"
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	base := SanitizeFilename(strings.TrimSuffix(in.Filename, filepath.Ext(in.Filename)))
	suffix := fmt.Sprintf("%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
	return fmt.Sprintf("%s/%s-%s%s", scope, base, suffix, ext)
}

// accentFold maps the accented characters common in French filenames to
// their ASCII counterparts.
var accentFold = map[rune]rune{
	'à': 'a', 'â': 'a', 'ä': 'a', 'á': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'î': 'i', 'ï': 'i', 'í': 'i',
	'ô': 'o', 'ö': 'o', 'ó': 'o',
	'ù': 'u', 'û': 'u', 'ü': 'u', 'ú': 'u',
	'ç': 'c', 'ñ': 'n',
}

const maxFilenameLen = 64

// SanitizeFilename strips accents, replaces anything outside [a-z0-9-] and
// truncates to a safe length.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "document"
	}
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	return out
}
