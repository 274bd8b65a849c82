package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsroom-cms/config"
	"newsroom-cms/handlers"
	"newsroom-cms/helper"
	"newsroom-cms/middleware"
	"newsroom-cms/models"
	"newsroom-cms/repositories"
	"newsroom-cms/services"
)

const testChunkSize = 1024

type IntegrationTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	token  string
	userID uint
}

var jwtSecret = []byte("test-secret")

func (suite *IntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (suite *IntegrationTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		suite.T().Fatal("Failed to open test database:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		suite.T().Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		suite.T().Fatal("Failed to migrate:", err)
	}

	suite.db = db
	suite.setupRouter()
	suite.registerAndLoginEditor()
}

func (suite *IntegrationTestSuite) setupRouter() {
	logger := zap.NewNop()

	userRepo := repositories.NewUserRepository(suite.db)
	articleRepo := repositories.NewArticleRepository(suite.db)
	blobStore := repositories.NewBlobRepository(suite.db, testChunkSize)

	sanitizer := services.NewSanitizer()
	authService := services.NewAuthService(userRepo, jwtSecret, 24*time.Hour)
	uploadService := services.NewUploadService(blobStore, logger)
	articleService := services.NewArticleService(articleRepo, blobStore, sanitizer, logger)

	httpHelper := helper.NewHTTPHelper()
	authHandler := handlers.NewAuthHandler(authService, httpHelper)
	articleHandler := handlers.NewArticleHandler(articleService, uploadService, httpHelper)
	fileHandler := handlers.NewFileHandler(blobStore, logger, httpHelper)

	router := gin.New()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/profile", authHandler.GetProfile)

			articles := protected.Group("/articles")
			{
				articles.GET("", articleHandler.GetArticles)
				articles.GET("/:id", articleHandler.GetArticle)

				editorOnly := articles.Group("")
				editorOnly.Use(middleware.RequireRole("editor", "admin"))
				{
					editorOnly.POST("", articleHandler.CreateArticle)
					editorOnly.PUT("/:id", articleHandler.UpdateArticle)
					editorOnly.DELETE("/:id", articleHandler.DeleteArticle)
				}
			}
		}

		public := v1.Group("/public")
		{
			public.GET("/articles", articleHandler.GetPublicArticles)
			public.GET("/articles/:id", articleHandler.GetPublicArticle)
		}

		v1.GET("/files/:id", fileHandler.GetFile)
	}

	suite.router = router
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func (suite *IntegrationTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *IntegrationTestSuite) registerAndLoginEditor() {
	registerPayload := models.RegisterRequest{
		Name:     "Test Editor",
		Email:    "editor@example.com",
		Password: "password123",
		Role:     models.RoleEditor,
	}

	body, _ := json.Marshal(registerPayload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := suite.do(req)
	suite.Equal(http.StatusCreated, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))

	var authResp models.AuthResponse
	suite.NoError(json.Unmarshal(env.Data, &authResp))

	suite.token = authResp.Token
	suite.userID = authResp.User.ID
}

// filePart is one file attachment for a multipart request.
type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func buildMultipart(suite *IntegrationTestSuite, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		suite.NoError(w.WriteField(k, v))
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		suite.NoError(err)
		_, err = part.Write(f.data)
		suite.NoError(err)
	}

	suite.NoError(w.Close())
	return &buf, w.FormDataContentType()
}

func articleFields(status string) map[string]string {
	return map[string]string{
		"title":        "Election results are in tonight",
		"summary":      "A complete breakdown of the results.",
		"body":         "The long form body of the article, repeated until it comfortably passes fifty characters.",
		"content_type": "article",
		"tags":         `["politics","elections"]`,
		"category":     "world",
		"subcategory":  "europe",
		"status":       status,
	}
}

func (suite *IntegrationTestSuite) createArticle(fields map[string]string, files []filePart) (models.Article, *httptest.ResponseRecorder) {
	body, contentType := buildMultipart(suite, fields, files)

	req := httptest.NewRequest("POST", "/api/v1/articles", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+suite.token)

	w := suite.do(req)

	var env envelope
	var article models.Article
	if json.Unmarshal(w.Body.Bytes(), &env) == nil && env.Data != nil {
		_ = json.Unmarshal(env.Data, &article)
	}
	return article, w
}

func (suite *IntegrationTestSuite) TestAuthFlow() {
	loginPayload := models.LoginRequest{
		Email:    "editor@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(loginPayload)
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := suite.do(req)
	suite.Equal(http.StatusOK, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))

	var authResp models.AuthResponse
	suite.NoError(json.Unmarshal(env.Data, &authResp))
	suite.NotEmpty(authResp.Token)
	suite.Equal("Test Editor", authResp.User.Name)
}

func (suite *IntegrationTestSuite) TestRegisterValidationFieldErrors() {
	payload := models.RegisterRequest{
		Name:     "V",
		Email:    "not-an-email",
		Password: "short",
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := suite.do(req)
	suite.Equal(http.StatusBadRequest, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))
	suite.False(env.Success)
	suite.Contains(env.Errors, "name")
	suite.Contains(env.Errors, "email")
	suite.Contains(env.Errors, "password")
}

func (suite *IntegrationTestSuite) TestGetProfile() {
	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+suite.token)

	w := suite.do(req)
	suite.Equal(http.StatusOK, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))

	var user models.User
	suite.NoError(json.Unmarshal(env.Data, &user))
	suite.Equal(suite.userID, user.ID)
	suite.Equal(models.RoleEditor, user.Role)
}

func (suite *IntegrationTestSuite) TestDuplicateRegistrationConflicts() {
	payload := models.RegisterRequest{
		Name:     "Someone Else",
		Email:    "editor@example.com",
		Password: "password456",
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := suite.do(req)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *IntegrationTestSuite) TestCreateArticleRequiresAuth() {
	body, contentType := buildMultipart(suite, articleFields("draft"), nil)

	req := httptest.NewRequest("POST", "/api/v1/articles", body)
	req.Header.Set("Content-Type", contentType)

	w := suite.do(req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *IntegrationTestSuite) TestCreateArticleWithFilesAndFetchThem() {
	imageData := bytes.Repeat([]byte("png-bytes-"), 400) // spans multiple chunks

	article, w := suite.createArticle(articleFields("published"), []filePart{
		{field: "featured_image", filename: "cover.png", contentType: "image/png", data: imageData},
		{field: "gallery_images", filename: "g1.png", contentType: "image/png", data: []byte("gallery-one")},
	})
	suite.Equal(http.StatusCreated, w.Code)
	suite.Require().NotNil(article.FeaturedImageID)
	suite.Require().Len(article.GalleryImageIDs, 1)

	// Stored bytes come back exactly, with the declared MIME type.
	req := httptest.NewRequest("GET", "/api/v1/files/"+*article.FeaturedImageID, nil)
	w = suite.do(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("image/png", w.Header().Get("Content-Type"))
	got, err := io.ReadAll(w.Body)
	suite.NoError(err)
	suite.Equal(imageData, got)
}

func (suite *IntegrationTestSuite) TestFileNotFound() {
	req := httptest.NewRequest("GET", "/api/v1/files/no-such-blob", nil)
	w := suite.do(req)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *IntegrationTestSuite) TestUploadRejectsWrongFileType() {
	article, w := suite.createArticle(articleFields("draft"), []filePart{
		{field: "gallery_images", filename: "notes.txt", contentType: "text/plain", data: []byte("not an image")},
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Zero(article.ID)

	var blobCount int64
	suite.NoError(suite.db.Model(&models.Blob{}).Count(&blobCount).Error)
	suite.Zero(blobCount, "rejected upload must store nothing")
}

func (suite *IntegrationTestSuite) TestVideoArticleWithoutClipFailsValidation() {
	fields := articleFields("draft")
	fields["content_type"] = "video"

	_, w := suite.createArticle(fields, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))
	suite.Contains(env.Errors, "primary_media")
}

func (suite *IntegrationTestSuite) TestPublicListingHidesDrafts() {
	_, w := suite.createArticle(articleFields("draft"), nil)
	suite.Equal(http.StatusCreated, w.Code)

	published, w := suite.createArticle(articleFields("published"), nil)
	suite.Equal(http.StatusCreated, w.Code)

	req := httptest.NewRequest("GET", "/api/v1/public/articles", nil)
	w = suite.do(req)
	suite.Equal(http.StatusOK, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))

	var data struct {
		Articles []models.Article `json:"articles"`
	}
	suite.NoError(json.Unmarshal(env.Data, &data))
	suite.Len(data.Articles, 1)
	suite.Equal(published.ID, data.Articles[0].ID)
}

func (suite *IntegrationTestSuite) TestPublishSetsTimestampOnce() {
	article, w := suite.createArticle(articleFields("draft"), nil)
	suite.Equal(http.StatusCreated, w.Code)
	suite.Nil(article.PublishedAt)

	update := func(fields map[string]string) models.Article {
		body, contentType := buildMultipart(suite, fields, nil)
		req := httptest.NewRequest("PUT", fmt.Sprintf("/api/v1/articles/%d", article.ID), body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+suite.token)

		w := suite.do(req)
		suite.Equal(http.StatusOK, w.Code)

		var env envelope
		suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))
		var updated models.Article
		suite.NoError(json.Unmarshal(env.Data, &updated))
		return updated
	}

	published := update(map[string]string{"status": "published"})
	suite.Require().NotNil(published.PublishedAt)
	firstPublish := *published.PublishedAt

	archived := update(map[string]string{"status": "archived"})
	suite.Require().NotNil(archived.PublishedAt)

	again := update(map[string]string{"status": "published"})
	suite.Require().NotNil(again.PublishedAt)
	suite.True(again.PublishedAt.Equal(firstPublish), "re-publishing must not reset the original publish time")
}

func (suite *IntegrationTestSuite) TestUpdateVetsReplacementMediaAgainstStoredContentType() {
	fields := articleFields("published")
	fields["content_type"] = "video"

	article, w := suite.createArticle(fields, []filePart{
		{field: "primary_media", filename: "clip.mp4", contentType: "video/mp4", data: []byte("clip-bytes")},
	})
	suite.Equal(http.StatusCreated, w.Code)
	suite.Require().NotNil(article.PrimaryMediaID)
	originalID := *article.PrimaryMediaID

	sendUpdate := func(files []filePart) *httptest.ResponseRecorder {
		body, contentType := buildMultipart(suite, nil, files)
		req := httptest.NewRequest("PUT", fmt.Sprintf("/api/v1/articles/%d", article.ID), body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+suite.token)
		return suite.do(req)
	}

	// A replacement clip declared as audio must be rejected even though the
	// request carries no content_type field; the stored article is a video.
	w = sendUpdate([]filePart{
		{field: "primary_media", filename: "episode.mp3", contentType: "audio/mpeg", data: []byte("audio-bytes")},
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	var current models.Article
	suite.NoError(suite.db.First(&current, article.ID).Error)
	suite.Require().NotNil(current.PrimaryMediaID)
	suite.Equal(originalID, *current.PrimaryMediaID, "rejected replacement must not touch the stored reference")

	// A proper video replacement goes through.
	w = sendUpdate([]filePart{
		{field: "primary_media", filename: "clip2.mp4", contentType: "video/mp4", data: []byte("new-clip-bytes")},
	})
	suite.Equal(http.StatusOK, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))
	var updated models.Article
	suite.NoError(json.Unmarshal(env.Data, &updated))
	suite.Require().NotNil(updated.PrimaryMediaID)
	suite.NotEqual(originalID, *updated.PrimaryMediaID)
}

func (suite *IntegrationTestSuite) TestRegularUserCannotCreateArticles() {
	registerPayload := models.RegisterRequest{
		Name:     "Plain Reader",
		Email:    "reader@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(registerPayload)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := suite.do(req)
	suite.Equal(http.StatusCreated, w.Code)

	var env envelope
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &env))
	var authResp models.AuthResponse
	suite.NoError(json.Unmarshal(env.Data, &authResp))

	mpBody, contentType := buildMultipart(suite, articleFields("draft"), nil)
	req = httptest.NewRequest("POST", "/api/v1/articles", mpBody)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+authResp.Token)

	w = suite.do(req)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *IntegrationTestSuite) TestDeleteArticleRemovesFiles() {
	article, w := suite.createArticle(articleFields("published"), []filePart{
		{field: "featured_image", filename: "cover.png", contentType: "image/png", data: []byte("cover-bytes")},
	})
	suite.Equal(http.StatusCreated, w.Code)
	suite.Require().NotNil(article.FeaturedImageID)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/articles/%d", article.ID), nil)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w = suite.do(req)
	suite.Equal(http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/files/"+*article.FeaturedImageID, nil)
	w = suite.do(req)
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
