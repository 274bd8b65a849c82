package repositories

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"newsroom-cms/models"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	GetList(ctx context.Context, params models.ArticleListParams, publicOnly bool) ([]models.Article, int64, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).Preload("Author").First(&article, id).Error
	return &article, err
}

var sortColumns = map[string]string{
	"title":        "title",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"published_at": "published_at",
	"views":        "views",
	"likes":        "likes",
	"read_time":    "read_time",
}

func (r *articleRepository) GetList(ctx context.Context, params models.ArticleListParams, publicOnly bool) ([]models.Article, int64, error) {
	var articles []models.Article
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Article{}).Preload("Author")

	if publicOnly {
		query = query.Where("status = ?", models.StatusPublished)
	} else if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if params.ContentType != "" {
		query = query.Where("content_type = ?", params.ContentType)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Subcategory != "" {
		query = query.Where("subcategory = ?", params.Subcategory)
	}
	if params.AuthorID > 0 {
		query = query.Where("author_id = ?", params.AuthorID)
	}
	if params.Tag != "" {
		// Tags are serialized as a JSON array of strings.
		query = query.Where("tags LIKE ?", fmt.Sprintf(`%%"%s"%%`, params.Tag))
	}
	if params.Search != "" {
		needle := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", needle, needle)
	}

	query.Count(&total)

	sortBy, ok := sortColumns[params.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := "desc"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortOrder = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	offset := (params.Page - 1) * params.Limit
	err := query.Offset(offset).Limit(params.Limit).Find(&articles).Error

	return articles, total, err
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Article{}, id).Error
}

func (r *articleRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}
