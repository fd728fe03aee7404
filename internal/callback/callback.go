// Package callback ingests inbound channel callbacks (inline-button
// taps) and turns them into completions: verify, look up the event,
// append a completion, acknowledge.
package callback

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FlyinPancake/nag/internal/channel"
	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/gin-gonic/gin"
)

type Ingestor struct {
	channel     channel.Channel
	events      repository.EventRepository
	completions repository.CompletionRepository
	logger      *slog.Logger
}

func New(ch channel.Channel, events repository.EventRepository, completions repository.CompletionRepository, logger *slog.Logger) *Ingestor {
	return &Ingestor{channel: ch, events: events, completions: completions, logger: logger.With("component", "callback")}
}

// Handle implements the POST /callbacks/<channel> route. Completions are
// an append-only log, so a duplicate callback inserting a second
// completion is semantically acceptable and never returns an error to
// the caller.
func (i *Ingestor) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := i.channel.VerifyCallback(c.Request)
	if err != nil {
		i.logger.WarnContext(ctx, "callback verification failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "could not verify callback"})
		return
	}

	event, err := i.events.GetByID(ctx, payload.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			c.JSON(http.StatusOK, gin.H{"ok": true, "message": "already processed or expired"})
			return
		}
		i.logger.ErrorContext(ctx, "callback load event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "try again"})
		return
	}

	if _, err := i.completions.Create(ctx, &domain.Completion{
		ChoreID:     event.ChoreID,
		CompletedAt: time.Now().UTC(),
	}); err != nil {
		i.logger.ErrorContext(ctx, "callback insert completion", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": fmt.Sprintf("could not record completion: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "marked done"})
}
