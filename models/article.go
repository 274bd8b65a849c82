package models

import (
	"time"

	"gorm.io/gorm"
)

type ContentType string

const (
	ContentTypeArticle ContentType = "article"
	ContentTypeVideo   ContentType = "video"
	ContentTypeShort   ContentType = "short"
	ContentTypeGallery ContentType = "gallery"
	ContentTypePodcast ContentType = "podcast"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeArticle, ContentTypeVideo, ContentTypeShort, ContentTypeGallery, ContentTypePodcast:
		return true
	}
	return false
}

// RequiresPrimaryMedia reports whether an article of this type must carry a
// primary media blob reference.
func (t ContentType) RequiresPrimaryMedia() bool {
	switch t {
	case ContentTypeVideo, ContentTypeShort, ContentTypePodcast:
		return true
	}
	return false
}

// PrimaryMediaPrefix returns the MIME prefix the primary media part must
// declare for this content type, or "" when any accepted media kind is fine.
func (t ContentType) PrimaryMediaPrefix() string {
	switch t {
	case ContentTypeVideo, ContentTypeShort:
		return "video/"
	case ContentTypePodcast:
		return "audio/"
	}
	return ""
}

type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusArchived  ArticleStatus = "archived"
)

func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Article references uploaded media by opaque blob identifier only; the bytes
// live in the blob tables.
type Article struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	AuthorID        uint           `json:"author_id" gorm:"not null;index"`
	Author          User           `json:"author" gorm:"foreignKey:AuthorID"`
	Title           string         `json:"title" gorm:"not null"`
	Summary         string         `json:"summary" gorm:"not null"`
	Body            string         `json:"body" gorm:"type:text;not null"`
	ContentType     ContentType    `json:"content_type" gorm:"not null"`
	Tags            []string       `json:"tags" gorm:"serializer:json;type:text"`
	Category        string         `json:"category" gorm:"not null"`
	Subcategory     string         `json:"subcategory" gorm:"not null"`
	Status          ArticleStatus  `json:"status" gorm:"default:'draft';index"`
	FeaturedImageID *string        `json:"featured_image_id"`
	PrimaryMediaID  *string        `json:"primary_media_id"`
	GalleryImageIDs []string       `json:"gallery_image_ids" gorm:"serializer:json;type:text"`
	ReadTime        int            `json:"read_time" gorm:"default:5"`
	Likes           int64          `json:"likes" gorm:"default:0"`
	Views           int64          `json:"views" gorm:"default:0"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	PublishedAt     *time.Time     `json:"published_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// BlobIDs collects every blob identifier the article references.
func (a *Article) BlobIDs() []string {
	var ids []string
	if a.FeaturedImageID != nil {
		ids = append(ids, *a.FeaturedImageID)
	}
	if a.PrimaryMediaID != nil {
		ids = append(ids, *a.PrimaryMediaID)
	}
	ids = append(ids, a.GalleryImageIDs...)
	return ids
}
