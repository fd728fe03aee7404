package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/FlyinPancake/nag/internal/schedule"
	"github.com/gin-gonic/gin"
)

type ChoreHandler struct {
	chores      repository.ChoreRepository
	completions repository.CompletionRepository
	logger      *slog.Logger
}

func NewChoreHandler(chores repository.ChoreRepository, completions repository.CompletionRepository, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: chores, completions: completions, logger: logger.With("component", "chore_handler")}
}

type scheduleRequest struct {
	Kind           domain.ScheduleKind `json:"kind" binding:"required,oneof=cron interval once_in_a_while"`
	CronExpr       string              `json:"cron_expr"`
	IntervalDays   int                 `json:"interval_days"`
	IntervalHour   *int                `json:"interval_hour"`
	IntervalMinute *int                `json:"interval_minute"`
}

func (r scheduleRequest) toDomain() domain.Schedule {
	return domain.Schedule{
		Kind:           r.Kind,
		CronExpr:       r.CronExpr,
		IntervalDays:   r.IntervalDays,
		IntervalHour:   r.IntervalHour,
		IntervalMinute: r.IntervalMinute,
	}
}

type scheduleResponse struct {
	Kind           domain.ScheduleKind `json:"kind"`
	CronExpr       string              `json:"cron_expr,omitempty"`
	IntervalDays   int                 `json:"interval_days,omitempty"`
	IntervalHour   *int                `json:"interval_hour,omitempty"`
	IntervalMinute *int                `json:"interval_minute,omitempty"`
}

func toScheduleResponse(s domain.Schedule) scheduleResponse {
	return scheduleResponse{
		Kind:           s.Kind,
		CronExpr:       s.CronExpr,
		IntervalDays:   s.IntervalDays,
		IntervalHour:   s.IntervalHour,
		IntervalMinute: s.IntervalMinute,
	}
}

type choreRequest struct {
	Name        string          `json:"name" binding:"required,max=256"`
	Description string          `json:"description"`
	Schedule    scheduleRequest `json:"schedule" binding:"required"`
	TagIDs      []string        `json:"tag_ids"`
}

type choreResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Schedule        scheduleResponse `json:"schedule"`
	Tags            []*domain.Tag    `json:"tags,omitempty"`
	LastCompletedAt *time.Time       `json:"last_completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (h *ChoreHandler) toResponse(c *gin.Context, chore *domain.Chore) choreResponse {
	tags, err := h.chores.TagsForChore(c.Request.Context(), chore.ID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "load tags for chore", "chore_id", chore.ID, "error", err)
	}
	last, err := h.completions.LastForChore(c.Request.Context(), chore.ID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "load last completion for chore", "chore_id", chore.ID, "error", err)
	}
	var lastCompletedAt *time.Time
	if last != nil {
		lastCompletedAt = &last.CompletedAt
	}
	return choreResponse{
		ID:              chore.ID,
		Name:            chore.Name,
		Description:     chore.Description,
		Schedule:        toScheduleResponse(chore.Schedule),
		Tags:            tags,
		LastCompletedAt: lastCompletedAt,
		CreatedAt:       chore.CreatedAt,
		UpdatedAt:       chore.UpdatedAt,
	}
}

func (h *ChoreHandler) Create(c *gin.Context) {
	var req choreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}

	sched := req.Schedule.toDomain()
	if err := schedule.ValidateSchedule(sched); err != nil {
		problemBadRequest(c, err.Error())
		return
	}

	chore, err := h.chores.Create(c.Request.Context(), &domain.Chore{
		Name:        req.Name,
		Description: req.Description,
		Schedule:    sched,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNameConflict) {
			problemConflict(c, err.Error())
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "create chore", "error", err)
		problemInternal(c)
		return
	}

	if len(req.TagIDs) > 0 {
		if err := h.chores.SetTags(c.Request.Context(), chore.ID, req.TagIDs); err != nil {
			h.logger.ErrorContext(c.Request.Context(), "set chore tags", "chore_id", chore.ID, "error", err)
			problemInternal(c)
			return
		}
	}

	c.JSON(http.StatusCreated, h.toResponse(c, chore))
}

func (h *ChoreHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	chore, err := h.chores.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChoreNotFound) {
			problemNotFound(c, "chore not found")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get chore", "chore_id", id, "error", err)
		problemInternal(c)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, chore))
}

func (h *ChoreHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req choreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}

	sched := req.Schedule.toDomain()
	if err := schedule.ValidateSchedule(sched); err != nil {
		problemBadRequest(c, err.Error())
		return
	}

	chore, err := h.chores.Update(c.Request.Context(), &domain.Chore{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Schedule:    sched,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChoreNotFound):
			problemNotFound(c, "chore not found")
		case errors.Is(err, domain.ErrNameConflict):
			problemConflict(c, err.Error())
		default:
			h.logger.ErrorContext(c.Request.Context(), "update chore", "chore_id", id, "error", err)
			problemInternal(c)
		}
		return
	}

	if req.TagIDs != nil {
		if err := h.chores.SetTags(c.Request.Context(), chore.ID, req.TagIDs); err != nil {
			h.logger.ErrorContext(c.Request.Context(), "set chore tags", "chore_id", chore.ID, "error", err)
			problemInternal(c)
			return
		}
	}

	c.JSON(http.StatusOK, h.toResponse(c, chore))
}

func (h *ChoreHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.chores.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrChoreNotFound) {
			problemNotFound(c, "chore not found")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "delete chore", "chore_id", id, "error", err)
		problemInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChoreHandler) List(c *gin.Context) {
	limit := clampLimit(atoiOrZero(c.Query("limit")))

	in := repository.ListChoresInput{
		TagName: c.Query("tag"),
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

	chores, err := h.chores.List(c.Request.Context(), in)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list chores", "error", err)
		problemInternal(c)
		return
	}

	var nextCursor *string
	if len(chores) == limit+1 {
		last := chores[limit]
		nc := encodeCursor(last.CreatedAt, last.ID)
		nextCursor = &nc
		chores = chores[:limit]
	}

	items := make([]choreResponse, len(chores))
	for i, ch := range chores {
		items[i] = h.toResponse(c, ch)
	}

	c.JSON(http.StatusOK, gin.H{"chores": items, "next_cursor": nextCursor})
}

// Complete appends a completion for the chore and returns it. A thin,
// auth-side-only alternative to the channel callback path, for UI users
// marking a chore done directly.
func (h *ChoreHandler) Complete(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.chores.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrChoreNotFound) {
			problemNotFound(c, "chore not found")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get chore for completion", "chore_id", id, "error", err)
		problemInternal(c)
		return
	}

	completion, err := h.completions.Create(c.Request.Context(), &domain.Completion{
		ChoreID:     id,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "create completion", "chore_id", id, "error", err)
		problemInternal(c)
		return
	}

	c.JSON(http.StatusCreated, completion)
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
