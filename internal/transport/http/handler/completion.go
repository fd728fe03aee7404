package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/gin-gonic/gin"
)

type CompletionHandler struct {
	completions repository.CompletionRepository
	logger      *slog.Logger
}

func NewCompletionHandler(completions repository.CompletionRepository, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{completions: completions, logger: logger.With("component", "completion_handler")}
}

func (h *CompletionHandler) List(c *gin.Context) {
	choreID := c.Param("id")
	limit := clampLimit(atoiOrZero(c.Query("limit")))

	in := repository.ListCompletionsInput{
		ChoreID: choreID,
		Limit:   limit + 1,
	}

	if cur := c.Query("cursor"); cur != "" {
		t, id, err := decodeCursor(cur)
		if err != nil {
			problemBadRequest(c, "invalid cursor")
			return
		}
		in.CursorTime = t
		in.CursorID = id
	}

	completions, err := h.completions.List(c.Request.Context(), in)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list completions", "chore_id", choreID, "error", err)
		problemInternal(c)
		return
	}

	var nextCursor *string
	if len(completions) == limit+1 {
		last := completions[limit]
		nc := encodeCursor(last.CompletedAt, last.ID)
		nextCursor = &nc
		completions = completions[:limit]
	}

	c.JSON(http.StatusOK, gin.H{"completions": completions, "next_cursor": nextCursor})
}

func (h *CompletionHandler) Delete(c *gin.Context) {
	id := c.Param("completion_id")

	if err := h.completions.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			problemNotFound(c, "completion not found")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "delete completion", "completion_id", id, "error", err)
		problemInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}
