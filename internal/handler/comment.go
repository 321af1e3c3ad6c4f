package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/pagekit/internal/service"
	"github.com/maxviazov/pagekit/pkg/response"
)

type CommentHandler struct {
	svc service.CommentService
}

func NewCommentHandler(svc service.CommentService) *CommentHandler { return &CommentHandler{svc: svc} }

func (h *CommentHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/articles/:article_id/comments")
	{
		g.POST("", h.create)
		g.GET("", h.list)
	}
}

type createCommentRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

func (h *CommentHandler) create(c *gin.Context) {
	articleID, ferrs := idParam(c, "article_id")
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.InvalidInput(service.FieldError{Field: "request", Message: "malformed JSON"}))
		return
	}
	out, err := h.svc.AddComment(c.Request.Context(), articleID, req.Author, req.Body)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *CommentHandler) list(c *gin.Context) {
	articleID, ferrs := idParam(c, "article_id")
	page, pageErrs := pageFromQuery(c)
	ferrs = append(ferrs, pageErrs...)
	if len(ferrs) > 0 {
		response.WriteError(c, service.InvalidInput(ferrs...))
		return
	}
	res, err := h.svc.ListComments(c.Request.Context(), articleID, page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
