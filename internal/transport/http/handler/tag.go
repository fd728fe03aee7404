package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tags   repository.TagRepository
	logger *slog.Logger
}

func NewTagHandler(tags repository.TagRepository, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger.With("component", "tag_handler")}
}

type tagRequest struct {
	Name  string  `json:"name" binding:"required,max=128"`
	Color *string `json:"color"`
}

func (h *TagHandler) Create(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}

	tag, err := h.tags.Create(c.Request.Context(), &domain.Tag{Name: req.Name, Color: req.Color})
	if err != nil {
		if errors.Is(err, domain.ErrTagNameConflict) {
			problemConflict(c, err.Error())
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "create tag", "error", err)
		problemInternal(c)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}

	tag, err := h.tags.Update(c.Request.Context(), &domain.Tag{ID: id, Name: req.Name, Color: req.Color})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTagNotFound):
			problemNotFound(c, "tag not found")
		case errors.Is(err, domain.ErrTagNameConflict):
			problemConflict(c, err.Error())
		default:
			h.logger.ErrorContext(c.Request.Context(), "update tag", "tag_id", id, "error", err)
			problemInternal(c)
		}
		return
	}

	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.tags.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTagNotFound) {
			problemNotFound(c, "tag not found")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "delete tag", "tag_id", id, "error", err)
		problemInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list tags", "error", err)
		problemInternal(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
