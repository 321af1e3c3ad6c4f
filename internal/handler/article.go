package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/pagekit/internal/repository"
	"github.com/maxviazov/pagekit/internal/service"
	"github.com/maxviazov/pagekit/pkg/response"
)

type ArticleHandler struct {
	svc service.ArticleService
}

func NewArticleHandler(svc service.ArticleService) *ArticleHandler { return &ArticleHandler{svc: svc} }

func (h *ArticleHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/articles")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/headlines", h.headlines)
		// article_id is shared with the nested comment routes
		g.GET("/:article_id", h.getByID)
	}
}

type createArticleRequest struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

func (h *ArticleHandler) create(c *gin.Context) {
	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.InvalidInput(service.FieldError{Field: "request", Message: "malformed JSON"}))
		return
	}
	a, err := h.svc.CreateArticle(c.Request.Context(), req.Title, req.Author, req.Tags)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, a)
}

func (h *ArticleHandler) getByID(c *gin.Context) {
	id, ferrs := idParam(c, "article_id")
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return
	}
	a, err := h.svc.GetArticle(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, a)
}

func (h *ArticleHandler) list(c *gin.Context) {
	f, page, ok := listParams(c)
	if !ok {
		return
	}
	res, err := h.svc.ListArticles(c.Request.Context(), f, page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *ArticleHandler) headlines(c *gin.Context) {
	f, page, ok := listParams(c)
	if !ok {
		return
	}
	res, err := h.svc.ListHeadlines(c.Request.Context(), f, page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func listParams(c *gin.Context) (repository.ArticleFilter, repository.Page, bool) {
	page, ferrs := pageFromQuery(c)
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return repository.ArticleFilter{}, page, false
	}
	return repository.ArticleFilter{Tags: tagsFromQuery(c), Author: c.Query("author")}, page, true
}
