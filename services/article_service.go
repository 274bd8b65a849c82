package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsroom-cms/models"
	"newsroom-cms/repositories"
)

type ArticleService interface {
	Create(ctx context.Context, req models.CreateArticleRequest, files *UploadResult, authorID uint) (*models.Article, error)
	Update(ctx context.Context, id uint, req models.UpdateArticleRequest, files *UploadResult) (*models.Article, error)
	Get(ctx context.Context, id uint, publicOnly bool) (*models.Article, error)
	List(ctx context.Context, params models.ArticleListParams, publicOnly bool) ([]models.Article, int64, error)
	Delete(ctx context.Context, id uint) error
}

type articleService struct {
	articleRepo repositories.ArticleRepository
	blobs       repositories.BlobStore
	sanitizer   *Sanitizer
	logger      *zap.Logger
}

func NewArticleService(articleRepo repositories.ArticleRepository, blobs repositories.BlobStore, sanitizer *Sanitizer, logger *zap.Logger) ArticleService {
	return &articleService{
		articleRepo: articleRepo,
		blobs:       blobs,
		sanitizer:   sanitizer,
		logger:      logger,
	}
}

func (s *articleService) Create(ctx context.Context, req models.CreateArticleRequest, files *UploadResult, authorID uint) (*models.Article, error) {
	if files == nil {
		files = &UploadResult{}
	}

	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	readTime := req.ReadTime
	if readTime <= 0 {
		readTime = 5
	}

	article := &models.Article{
		AuthorID:        authorID,
		Title:           s.sanitizer.Plain(req.Title),
		Summary:         s.sanitizer.Plain(req.Summary),
		Body:            s.sanitizer.Rich(req.Body),
		ContentType:     req.ContentType,
		Tags:            s.sanitizer.PlainAll(req.Tags),
		Category:        s.sanitizer.Plain(req.Category),
		Subcategory:     s.sanitizer.Plain(req.Subcategory),
		Status:          status,
		FeaturedImageID: files.FeaturedImageID,
		PrimaryMediaID:  files.PrimaryMediaID,
		GalleryImageIDs: files.GalleryImageIDs,
		ReadTime:        readTime,
	}

	// Validation happens before any write; counters start at zero.
	if err := validateArticle(article); err != nil {
		return nil, err
	}

	if article.Status == models.StatusPublished {
		now := time.Now()
		article.PublishedAt = &now
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, models.ErrorStorage{Err: err}
	}

	s.logger.Info("article created",
		zap.Uint("id", article.ID),
		zap.String("status", string(article.Status)))

	return s.articleRepo.GetByID(ctx, article.ID)
}

func (s *articleService) Update(ctx context.Context, id uint, req models.UpdateArticleRequest, files *UploadResult) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "article not found")
	}

	if req.Title != nil {
		article.Title = s.sanitizer.Plain(*req.Title)
	}
	if req.Summary != nil {
		article.Summary = s.sanitizer.Plain(*req.Summary)
	}
	if req.Body != nil {
		article.Body = s.sanitizer.Rich(*req.Body)
	}
	if req.ContentType != nil {
		article.ContentType = *req.ContentType
	}
	if req.Tags != nil {
		article.Tags = s.sanitizer.PlainAll(req.Tags)
	}
	if req.Category != nil {
		article.Category = s.sanitizer.Plain(*req.Category)
	}
	if req.Subcategory != nil {
		article.Subcategory = s.sanitizer.Plain(*req.Subcategory)
	}
	if req.ReadTime != nil && *req.ReadTime > 0 {
		article.ReadTime = *req.ReadTime
	}

	// New uploads replace the previous references; the old blobs become
	// orphans by design.
	if files != nil {
		if files.FeaturedImageID != nil {
			article.FeaturedImageID = files.FeaturedImageID
		}
		if files.PrimaryMediaID != nil {
			article.PrimaryMediaID = files.PrimaryMediaID
		}
		if len(files.GalleryImageIDs) > 0 {
			article.GalleryImageIDs = files.GalleryImageIDs
		}
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, models.ErrorValidation{Fields: map[string][]string{
				"status": {"status must be one of: draft, published, archived"},
			}}
		}
		// PublishedAt is set on the first transition into published and
		// survives every later edit, including archive and re-publish.
		if *req.Status == models.StatusPublished && article.PublishedAt == nil {
			now := time.Now()
			article.PublishedAt = &now
		}
		article.Status = *req.Status
	}

	if err := validateArticle(article); err != nil {
		return nil, err
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, models.ErrorStorage{Err: err}
	}

	return s.articleRepo.GetByID(ctx, article.ID)
}

func (s *articleService) Get(ctx context.Context, id uint, publicOnly bool) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "article not found")
	}

	if publicOnly {
		if article.Status != models.StatusPublished {
			return nil, models.ErrorNotFound{Message: "article not found"}
		}
		if err := s.articleRepo.IncrementViews(ctx, id); err == nil {
			article.Views++
		}
	}

	return article, nil
}

func (s *articleService) List(ctx context.Context, params models.ArticleListParams, publicOnly bool) ([]models.Article, int64, error) {
	return s.articleRepo.GetList(ctx, params, publicOnly)
}

func (s *articleService) Delete(ctx context.Context, id uint) error {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "article not found")
	}

	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return models.ErrorStorage{Err: err}
	}

	// Best effort; a failure here leaves an orphan blob, not a broken article.
	for _, blobID := range article.BlobIDs() {
		if err := s.blobs.Delete(ctx, blobID); err != nil {
			s.logger.Warn("failed to delete blob for removed article",
				zap.Uint("article_id", id),
				zap.String("blob_id", blobID),
				zap.Error(err))
		}
	}

	return nil
}

func validateArticle(a *models.Article) error {
	fields := map[string][]string{}

	addErr := func(field, msg string) {
		fields[field] = append(fields[field], msg)
	}

	if n := len(a.Title); n < 5 || n > 200 {
		addErr("title", "title must be 5-200 characters")
	}
	if n := len(a.Summary); n < 10 || n > 300 {
		addErr("summary", "summary must be 10-300 characters")
	}
	if len(a.Body) < 50 {
		addErr("body", "body must be at least 50 characters")
	}
	if !a.ContentType.Valid() {
		addErr("content_type", "content type must be one of: article, video, short, gallery, podcast")
	}
	if !a.Status.Valid() {
		addErr("status", "status must be one of: draft, published, archived")
	}
	if n := len(a.Category); n < 1 || n > 50 {
		addErr("category", "category must be 1-50 characters")
	}
	if n := len(a.Subcategory); n < 1 || n > 50 {
		addErr("subcategory", "subcategory must be 1-50 characters")
	}
	if len(a.Tags) == 0 {
		addErr("tags", "at least one tag is required")
	} else if len(a.Tags) > 10 {
		addErr("tags", "at most 10 tags are allowed")
	}

	if a.ContentType.RequiresPrimaryMedia() && a.PrimaryMediaID == nil {
		addErr("primary_media", fmt.Sprintf("content type %q requires a primary media upload", a.ContentType))
	}
	if a.ContentType == models.ContentTypeGallery && len(a.GalleryImageIDs) == 0 {
		addErr("gallery_images", "gallery articles require at least one gallery image")
	}

	if len(fields) > 0 {
		return models.ErrorValidation{Fields: fields}
	}
	return nil
}

func mapRepoError(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrorNotFound{Message: notFoundMsg}
	}
	return models.ErrorStorage{Err: err}
}
