// Package escalation hands conversations off to human support. It owns the
// popup-reservation protocol: a blank window must be opened synchronously
// inside the user gesture, before any network work, or popup blockers will
// refuse it; the window is navigated or closed only after the backend call
// and the host's support handler have settled.
package escalation

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/api"
	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/metrics"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
	"github.com/uglyrobot/docsbot-widget-core/internal/store"
)

// Window is a reserved browser window the host can navigate or close.
// Implementations must tolerate Close after Navigate.
type Window interface {
	Navigate(url string) error
	Close() error
}

// WindowOpener opens a blank window. Called synchronously inside the user
// gesture when reserving, so hosts must not defer the actual open.
type WindowOpener interface {
	OpenBlank() (Window, error)
}

// Tier declares how much metadata a support handler wants. Registering the
// ticket tier is what opts into the extra ticket-summary fetch; the other
// tiers never pay for that round-trip.
type Tier int

const (
	TierHistory  Tier = iota // event and history only
	TierMetadata             // adds merged identity/override metadata
	TierTicket               // adds the conversation ticket summary
)

// HandlerFunc is the host's support callback. metadata and ticket are nil
// below the tier that requests them.
type HandlerFunc func(ctx context.Context, ev *Event, history []models.Turn, metadata map[string]string, ticket *api.Ticket) error

// Handler is a support callback registered with its declared metadata tier.
type Handler struct {
	Tier Tier
	Fn   HandlerFunc
}

// Event is the synthetic event passed to the support handler. PreventDefault
// vetoes the popup navigation and closes the reserved window immediately.
type Event struct {
	mu        sync.Mutex
	prevented bool
	win       Window
}

// PreventDefault marks the escalation as do-not-navigate. If a window was
// reserved it is closed now rather than at finalization.
func (e *Event) PreventDefault() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prevented = true
	if e.win != nil {
		_ = e.win.Close()
		e.win = nil
	}
}

// Prevented reports whether the handler vetoed navigation.
func (e *Event) Prevented() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prevented
}

func (e *Event) take() Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.win
	e.win = nil
	return w
}

// Backend is the subset of the API client the orchestrator needs.
type Backend interface {
	SupportClick(ctx context.Context, answerID string, metadata map[string]string) error
	Escalate(ctx context.Context, conversationID string, history []models.Turn, metadata map[string]string) error
	GetTicket(ctx context.Context, conversationID string) (*api.Ticket, error)
}

// Orchestrator coordinates the escalation protocol.
type Orchestrator struct {
	cfg      *config.Config
	store    *store.Store
	backend  Backend
	opener   WindowOpener
	identity func() map[string]string
	handler  *Handler
	log      zerolog.Logger
}

// New creates an orchestrator. opener and identity may be nil when the host
// platform has no windows or no identity metadata.
func New(cfg *config.Config, st *store.Store, backend Backend, opener WindowOpener, identity func() map[string]string, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    st,
		backend:  backend,
		opener:   opener,
		identity: identity,
		log:      log.With().Str("component", "escalation").Logger(),
	}
}

// SetHandler registers the host's support callback.
func (o *Orchestrator) SetHandler(h *Handler) {
	o.handler = h
}

// Escalate performs the support handoff for msg. gesture reports whether the
// call originates from a genuine user gesture; only then is a popup window
// reserved up front. Failures are logged and swallowed; the popup is always
// finalized and the support-loading flag always cleared.
func (o *Orchestrator) Escalate(ctx context.Context, msg models.Message, gesture bool, history []models.Turn, metadata map[string]string) {
	o.store.SetSupportLoading(true)
	defer o.store.SetSupportLoading(false)

	var reserved Window
	if o.cfg.SupportLink != "" && gesture && o.opener != nil {
		w, err := o.opener.OpenBlank()
		if err != nil {
			o.log.Warn().Err(err).Msg("could not reserve popup window")
		} else {
			reserved = w
		}
	}

	ev := &Event{win: reserved}
	defer o.finalize(ev)

	if err := o.run(ctx, ev, msg, history, metadata); err != nil {
		metrics.Escalations.WithLabelValues("error").Inc()
		o.log.Error().Err(err).Str("message_id", msg.ID).Msg("escalation failed")
	}
}

func (o *Orchestrator) run(ctx context.Context, ev *Event, msg models.Message, history []models.Turn, metadata map[string]string) error {
	meta := o.buildMetadata(msg, metadata)

	// Answers escalate against their answer id; everything else escalates
	// the whole conversation.
	var err error
	switch {
	case msg.AnswerID != "":
		err = o.backend.SupportClick(ctx, msg.AnswerID, meta)
	case msg.ConversationID != "":
		err = o.backend.Escalate(ctx, msg.ConversationID, history, meta)
	default:
		o.log.Debug().Msg("no correlation id on message, skipping backend record")
	}
	if err != nil {
		return fmt.Errorf("record escalation: %w", err)
	}

	if o.handler == nil {
		return nil
	}

	var (
		md     map[string]string
		ticket *api.Ticket
	)
	switch o.handler.Tier {
	case TierTicket:
		md = meta
		if o.cfg.AgentMode && msg.ConversationID != "" {
			t, terr := o.backend.GetTicket(ctx, msg.ConversationID)
			if terr != nil {
				o.log.Warn().Err(terr).Msg("ticket fetch failed, handler gets nil")
			} else {
				ticket = t
			}
		}
	case TierMetadata:
		md = meta
	}

	if herr := o.handler.Fn(ctx, ev, history, md, ticket); herr != nil {
		// Finalization still proceeds.
		o.log.Warn().Err(herr).Msg("support handler failed")
	}
	return nil
}

// finalize settles the reserved window: navigate it to the support link when
// the handler did not veto, otherwise close it.
func (o *Orchestrator) finalize(ev *Event) {
	win := ev.take()

	if ev.Prevented() || o.cfg.SupportLink == "" {
		outcome := "closed"
		if ev.Prevented() {
			outcome = "cancelled"
		}
		if win != nil {
			if err := win.Close(); err != nil {
				o.log.Warn().Err(err).Msg("could not close reserved window")
			}
		}
		metrics.Escalations.WithLabelValues(outcome).Inc()
		return
	}

	if win == nil && o.opener != nil {
		w, err := o.opener.OpenBlank()
		if err != nil {
			o.log.Warn().Err(err).Msg("could not open support window")
			metrics.Escalations.WithLabelValues("error").Inc()
			return
		}
		win = w
	}
	if win == nil {
		return
	}
	if err := win.Navigate(o.cfg.SupportLink); err != nil {
		o.log.Warn().Err(err).Str("url", o.cfg.SupportLink).Msg("could not navigate support window")
		metrics.Escalations.WithLabelValues("error").Inc()
		return
	}
	metrics.Escalations.WithLabelValues("navigated").Inc()
}

func (o *Orchestrator) buildMetadata(msg models.Message, override map[string]string) map[string]string {
	meta := make(map[string]string)
	if o.identity != nil {
		for k, v := range o.identity() {
			meta[k] = v
		}
	}
	for k, v := range override {
		meta[k] = v
	}
	if o.cfg.AgentMode && msg.ConversationID != "" {
		meta["conversationId"] = msg.ConversationID
	}
	return meta
}
