package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsroom-cms/models"
	"newsroom-cms/repositories"
)

// Multipart field names accepted by article submissions.
const (
	FieldFeaturedImage = "featured_image"
	FieldPrimaryMedia  = "primary_media"
	FieldGalleryImages = "gallery_images"
)

// FieldRule bounds one logical upload field.
type FieldRule struct {
	MaxSize      int64
	MimePrefixes []string
	MaxCount     int
}

var fieldRules = map[string]FieldRule{
	FieldFeaturedImage: {MaxSize: 10 << 20, MimePrefixes: []string{"image/"}, MaxCount: 1},
	FieldPrimaryMedia:  {MaxSize: 50 << 20, MimePrefixes: []string{"video/", "audio/"}, MaxCount: 1},
	FieldGalleryImages: {MaxSize: 10 << 20, MimePrefixes: []string{"image/"}, MaxCount: 10},
}

// FilePart is one incoming file: declared metadata plus a way to open its
// bytes. The HTTP layer builds these from the multipart form.
type FilePart struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadResult maps each logical field to the blob identifiers produced for
// it. Gallery order follows submission order.
type UploadResult struct {
	FeaturedImageID *string
	PrimaryMediaID  *string
	GalleryImageIDs []string
}

// Empty reports whether no file was uploaded at all.
func (r *UploadResult) Empty() bool {
	return r.FeaturedImageID == nil && r.PrimaryMediaID == nil && len(r.GalleryImageIDs) == 0
}

type UploadService interface {
	// ProcessFiles validates the whole batch, then stores every accepted part.
	// Any validation failure rejects the batch with nothing stored. A storage
	// failure after sibling parts already committed leaves those blobs
	// orphaned; they are logged, not rolled back.
	ProcessFiles(ctx context.Context, contentType models.ContentType, parts map[string][]FilePart) (*UploadResult, error)
}

type uploadService struct {
	blobs  repositories.BlobStore
	logger *zap.Logger
}

func NewUploadService(blobs repositories.BlobStore, logger *zap.Logger) UploadService {
	return &uploadService{blobs: blobs, logger: logger}
}

func (s *uploadService) ProcessFiles(ctx context.Context, contentType models.ContentType, parts map[string][]FilePart) (*UploadResult, error) {
	if err := s.validateBatch(contentType, parts); err != nil {
		return nil, err
	}

	result := &UploadResult{
		GalleryImageIDs: make([]string, len(parts[FieldGalleryImages])),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for field, files := range parts {
		for i, part := range files {
			field, i, part := field, i, part
			g.Go(func() error {
				id, err := s.storePart(gctx, field, part)
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				switch field {
				case FieldFeaturedImage:
					result.FeaturedImageID = &id
				case FieldPrimaryMedia:
					result.PrimaryMediaID = &id
				case FieldGalleryImages:
					result.GalleryImageIDs[i] = id
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		// Parts that committed before the failure stay behind as orphans.
		// Deliberately not collected; see DESIGN.md.
		mu.Lock()
		orphans := storedIDs(result)
		mu.Unlock()
		if len(orphans) > 0 {
			s.logger.Warn("upload batch failed, orphan blobs left behind",
				zap.Strings("blob_ids", orphans),
				zap.Error(err))
		}
		return nil, err
	}

	return result, nil
}

func (s *uploadService) validateBatch(contentType models.ContentType, parts map[string][]FilePart) error {
	for field, files := range parts {
		rule, ok := fieldRules[field]
		if !ok {
			return models.ErrorValidation{Fields: map[string][]string{
				field: {"unknown upload field"},
			}}
		}
		if len(files) > rule.MaxCount {
			return models.ErrorValidation{Fields: map[string][]string{
				field: {fmt.Sprintf("at most %d file(s) allowed", rule.MaxCount)},
			}}
		}

		for _, part := range files {
			if !mimeAllowed(part.ContentType, rule.MimePrefixes) {
				return models.ErrorInvalidFileType{Field: field, Mime: part.ContentType}
			}
			if part.Size > rule.MaxSize {
				return models.ErrorFileTooLarge{Field: field, Size: part.Size, Limit: rule.MaxSize}
			}
		}
	}

	// The primary media part must match the kind the content type demands:
	// video for motion media, audio for podcasts.
	if prefix := contentType.PrimaryMediaPrefix(); prefix != "" {
		for _, part := range parts[FieldPrimaryMedia] {
			if !strings.HasPrefix(part.ContentType, prefix) {
				return models.ErrorInvalidFileType{Field: FieldPrimaryMedia, Mime: part.ContentType}
			}
		}
	}

	return nil
}

func (s *uploadService) storePart(ctx context.Context, field string, part FilePart) (string, error) {
	src, err := part.Open()
	if err != nil {
		return "", models.ErrorStorage{Err: err}
	}
	defer src.Close()

	name := generateName(field, part.Name)
	id, err := s.blobs.Store(ctx, src, name, part.ContentType)
	if err != nil {
		return "", err
	}

	s.logger.Debug("stored upload",
		zap.String("field", field),
		zap.String("blob_id", id),
		zap.Int64("size", part.Size))
	return id, nil
}

// generateName builds a collision-resistant stored name keeping the original
// extension, e.g. "gallery_images-1718873000123456789-<uuid>.jpg".
func generateName(field, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixNano(), uuid.NewString(), ext)
}

func mimeAllowed(mime string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(mime, p) {
			return true
		}
	}
	return false
}

func storedIDs(r *UploadResult) []string {
	var ids []string
	if r.FeaturedImageID != nil {
		ids = append(ids, *r.FeaturedImageID)
	}
	if r.PrimaryMediaID != nil {
		ids = append(ids, *r.PrimaryMediaID)
	}
	for _, id := range r.GalleryImageIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
