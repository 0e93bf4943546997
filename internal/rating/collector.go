// Package rating posts answer feedback with an optimistic local update and
// rolls it back when the backend rejects the submission.
package rating

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/metrics"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
	"github.com/uglyrobot/docsbot-widget-core/internal/store"
)

// Backend is the subset of the API client the collector needs.
type Backend interface {
	Rate(ctx context.Context, answerID string, rating int) error
}

// Viewport is the UI convenience surface nudged after a rating: scroll the
// conversation down and refocus the input. Called before the network call
// resolves, not after.
type Viewport interface {
	ScrollToBottom()
	FocusInput()
}

// Asker re-invokes the answer-fetch pipeline, used when an agent-mode rating
// carries response text that the user "replies" with.
type Asker func(ctx context.Context, question string)

// Collector submits ratings for answers.
type Collector struct {
	cfg   *config.Config
	store *store.Store
	api   Backend
	view  Viewport
	ask   Asker
	log   zerolog.Logger
}

// New creates a collector. view and ask may be nil.
func New(cfg *config.Config, st *store.Store, api Backend, view Viewport, ask Asker, log zerolog.Logger) *Collector {
	return &Collector{
		cfg:   cfg,
		store: st,
		api:   api,
		view:  view,
		ask:   ask,
		log:   log.With().Str("component", "rating").Logger(),
	}
}

// Rate submits value (-1 or 1) for the message. The local rating is applied
// optimistically and rolled back to 0 if the backend call fails; on failure
// the affordance is re-enabled so the user can retry. Repeat clicks while a
// rating is submitted are ignored.
func (c *Collector) Rate(ctx context.Context, messageID string, value int) {
	if value != -1 && value != 1 {
		c.log.Warn().Int("value", value).Msg("ignoring invalid rating value")
		return
	}
	msg, ok := c.store.Get(messageID)
	if !ok {
		return
	}
	if msg.RatingSubmitted {
		return
	}

	submitted := true
	c.store.UpdateMessage(messageID, store.Patch{Rating: &value, RatingSubmitted: &submitted})

	// In agent mode a thumb click can carry response text the user "replies"
	// with, feeding straight back into the ask pipeline.
	if c.cfg.AgentMode && msg.Responses != nil {
		reply := msg.Responses.No
		if value == 1 {
			reply = msg.Responses.Yes
		}
		if reply != "" {
			c.store.AddMessage(models.Message{
				Variant: models.VariantUser,
				Type:    models.TypeOther,
				Content: reply,
			})
			if c.ask != nil {
				c.ask(ctx, reply)
			}
		}
	}

	if c.view != nil {
		c.view.ScrollToBottom()
		c.view.FocusInput()
	}

	if msg.AnswerID == "" {
		// Nothing to submit against; keep the local rating.
		return
	}

	if err := c.api.Rate(ctx, msg.AnswerID, value); err != nil {
		zero := 0
		retry := false
		c.store.UpdateMessage(messageID, store.Patch{Rating: &zero, RatingSubmitted: &retry})
		metrics.RatingRollbacks.Inc()
		c.log.Warn().Err(err).Str("answer_id", msg.AnswerID).Msg("rating submit failed, rolled back")
		return
	}

	c.store.UpdateMessage(messageID, store.Patch{Rating: &value})
	label := "down"
	if value == 1 {
		label = "up"
	}
	metrics.RatingsSubmitted.WithLabelValues(label).Inc()
}
