package models

type RegisterRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=128"`
	Role     UserRole `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateArticleRequest arrives as multipart form fields next to the file
// parts. Tags is sent as a JSON-encoded string by the browser client; the
// handler coerces it before the service sees it. Domain validation happens in
// the article service so failures come back per field.
type CreateArticleRequest struct {
	Title       string        `form:"title" json:"title"`
	Summary     string        `form:"summary" json:"summary"`
	Body        string        `form:"body" json:"body"`
	ContentType ContentType   `form:"content_type" json:"content_type"`
	RawTags     string        `form:"tags" json:"-"`
	Tags        []string      `form:"-" json:"tags"`
	Category    string        `form:"category" json:"category"`
	Subcategory string        `form:"subcategory" json:"subcategory"`
	Status      ArticleStatus `form:"status" json:"status"`
	ReadTime    int           `form:"read_time" json:"read_time"`
}

// UpdateArticleRequest is a partial payload; nil means "leave unchanged".
type UpdateArticleRequest struct {
	Title       *string        `form:"title" json:"title"`
	Summary     *string        `form:"summary" json:"summary"`
	Body        *string        `form:"body" json:"body"`
	ContentType *ContentType   `form:"content_type" json:"content_type"`
	RawTags     *string        `form:"tags" json:"-"`
	Tags        []string       `form:"-" json:"tags"`
	Category    *string        `form:"category" json:"category"`
	Subcategory *string        `form:"subcategory" json:"subcategory"`
	Status      *ArticleStatus `form:"status" json:"status"`
	ReadTime    *int           `form:"read_time" json:"read_time"`
}

type ArticleListParams struct {
	ContentType string `form:"content_type"`
	Category    string `form:"category"`
	Subcategory string `form:"subcategory"`
	Tag         string `form:"tag"`
	AuthorID    uint   `form:"author_id"`
	Status      string `form:"status"`
	Search      string `form:"search"`
	Page        int    `form:"page,default=1"`
	Limit       int    `form:"limit,default=10"`
	SortBy      string `form:"sort_by,default=created_at"`
	SortOrder   string `form:"sort_order,default=desc"`
}
