package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/dueview"
	"github.com/gin-gonic/gin"
)

type DueViewHandler struct {
	view   *dueview.View
	logger *slog.Logger
}

func NewDueViewHandler(view *dueview.View, logger *slog.Logger) *DueViewHandler {
	return &DueViewHandler{view: view, logger: logger.With("component", "dueview_handler")}
}

type dueEntryResponse struct {
	Chore           choreSummary  `json:"chore"`
	NextDue         *time.Time    `json:"next_due,omitempty"`
	IsOverdue       bool          `json:"is_overdue"`
	IsDueToday      bool          `json:"is_due_today"`
	LastCompletedAt *time.Time    `json:"last_completed_at,omitempty"`
	Tags            []*domain.Tag `json:"tags,omitempty"`
}

type choreSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Get implements GET /chores/due?include_upcoming={bool}&tag={name}&tz={iana name}.
func (h *DueViewHandler) Get(c *gin.Context) {
	includeUpcoming, _ := strconv.ParseBool(c.Query("include_upcoming"))

	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			problemBadRequest(c, "unknown timezone")
			return
		}
		loc = l
	}

	entries, err := h.view.Compute(c.Request.Context(), time.Now().UTC(), dueview.Input{
		TagName:         c.Query("tag"),
		IncludeUpcoming: includeUpcoming,
		Zone:            loc,
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "compute due view", "error", err)
		problemInternal(c)
		return
	}

	items := make([]dueEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = dueEntryResponse{
			Chore: choreSummary{
				ID:          e.Chore.ID,
				Name:        e.Chore.Name,
				Description: e.Chore.Description,
			},
			NextDue:         e.NextDue,
			IsOverdue:       e.IsOverdue,
			IsDueToday:      e.IsDueToday,
			LastCompletedAt: e.LastCompletedAt,
			Tags:            e.Tags,
		}
	}

	c.JSON(http.StatusOK, gin.H{"due": items})
}
