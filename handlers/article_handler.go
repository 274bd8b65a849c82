package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"

	"newsroom-cms/helper"
	"newsroom-cms/models"
	"newsroom-cms/services"
)

type ArticleHandler struct {
	articleService services.ArticleService
	uploadService  services.UploadService
	Helper         *helper.HTTPHelper
}

func NewArticleHandler(articleService services.ArticleService, uploadService services.UploadService, httpHelper *helper.HTTPHelper) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
		uploadService:  uploadService,
		Helper:         httpHelper,
	}
}

func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.CreateArticleRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Helper.SendBadRequest(c, err.Error())
		return
	}
	req.Tags = parseTags(req.RawTags)

	files, err := h.uploadService.ProcessFiles(c.Request.Context(), req.ContentType, filePartsFromRequest(c))
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	article, err := h.articleService.Create(c.Request.Context(), req, files, userID.(uint))
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Article created", article)
}

func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid article ID")
		return
	}

	var req models.UpdateArticleRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Helper.SendBadRequest(c, err.Error())
		return
	}
	if req.RawTags != nil {
		req.Tags = parseTags(*req.RawTags)
	}

	parts := filePartsFromRequest(c)

	// Replacement media is vetted against the effective content type: the one
	// this request sets, or the stored one when the field is absent.
	contentType := models.ContentType("")
	if req.ContentType != nil {
		contentType = *req.ContentType
	} else if len(parts) > 0 {
		current, err := h.articleService.Get(c.Request.Context(), uint(id), false)
		if err != nil {
			h.Helper.HandleError(c, err)
			return
		}
		contentType = current.ContentType
	}

	files, err := h.uploadService.ProcessFiles(c.Request.Context(), contentType, parts)
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	article, err := h.articleService.Update(c.Request.Context(), uint(id), req, files)
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article updated", article)
}

func (h *ArticleHandler) GetArticles(c *gin.Context) {
	h.listArticles(c, false)
}

func (h *ArticleHandler) GetPublicArticles(c *gin.Context) {
	h.listArticles(c, true)
}

func (h *ArticleHandler) listArticles(c *gin.Context, publicOnly bool) {
	var params models.ArticleListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, err.Error())
		return
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}

	articles, total, err := h.articleService.List(c.Request.Context(), params, publicOnly)
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Articles loaded", gin.H{
		"articles": articles,
		"paging":   h.Helper.GeneratePaging(c, params.Limit, params.Page, total),
	})
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	h.getArticle(c, false)
}

func (h *ArticleHandler) GetPublicArticle(c *gin.Context) {
	h.getArticle(c, true)
}

func (h *ArticleHandler) getArticle(c *gin.Context, publicOnly bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid article ID")
		return
	}

	article, err := h.articleService.Get(c.Request.Context(), uint(id), publicOnly)
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article loaded", article)
}

func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid article ID")
		return
	}

	if err := h.articleService.Delete(c.Request.Context(), uint(id)); err != nil {
		h.Helper.HandleError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article deleted", nil)
}

// parseTags coerces the browser's tags field: a JSON-encoded array when the
// client serializes, a plain string otherwise.
func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		return tags
	}
	return []string{raw}
}

// filePartsFromRequest converts the multipart form into the upload service's
// field-to-parts mapping. A request without files yields an empty map.
func filePartsFromRequest(c *gin.Context) map[string][]services.FilePart {
	parts := make(map[string][]services.FilePart)

	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return parts
	}

	for field, headers := range form.File {
		for _, fh := range headers {
			parts[field] = append(parts[field], filePart(fh))
		}
	}

	return parts
}

func filePart(fh *multipart.FileHeader) services.FilePart {
	return services.FilePart{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
