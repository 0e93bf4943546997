// Package widget assembles the conversation engine: the store, the
// affordance collectors and the ask flow. Rendering, styling and DOM
// concerns live in the embedding host; the engine only owns state and the
// side-effecting protocols around it.
package widget

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/api"
	"github.com/uglyrobot/docsbot-widget-core/internal/clipboard"
	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/escalation"
	"github.com/uglyrobot/docsbot-widget-core/internal/leadcapture"
	"github.com/uglyrobot/docsbot-widget-core/internal/metrics"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
	"github.com/uglyrobot/docsbot-widget-core/internal/rating"
	"github.com/uglyrobot/docsbot-widget-core/internal/store"
)

// Backend is the full API surface the engine consumes. *api.Client
// implements it; tests substitute fakes.
type Backend interface {
	Ask(ctx context.Context, req api.AskRequest) (*api.AskResponse, error)
	Rate(ctx context.Context, answerID string, rating int) error
	SupportClick(ctx context.Context, answerID string, metadata map[string]string) error
	Escalate(ctx context.Context, conversationID string, history []models.Turn, metadata map[string]string) error
	GetTicket(ctx context.Context, conversationID string) (*api.Ticket, error)
}

// Options are the injected capabilities of the embedding host. Everything
// except Backend is optional.
type Options struct {
	Backend         Backend
	WindowOpener    escalation.WindowOpener
	ClipboardDevice any
	Viewport        rating.Viewport
	Identity        func() map[string]string
	SupportHandler  *escalation.Handler
	Logger          zerolog.Logger
}

// Engine is one conversation session of the widget.
type Engine struct {
	cfg     *config.Config
	store   *store.Store
	backend Backend
	esc     *escalation.Orchestrator
	gate    *leadcapture.Gate
	rater   *rating.Collector
	copier  *clipboard.Copier
	log     zerolog.Logger

	mu             sync.Mutex
	conversationID string
}

// New creates an engine with a fresh conversation.
func New(cfg *config.Config, opts Options) *Engine {
	st := store.New()
	log := opts.Logger.With().Str("component", "widget").Logger()

	e := &Engine{
		cfg:            cfg,
		store:          st,
		backend:        opts.Backend,
		log:            log,
		conversationID: uuid.NewString(),
	}

	e.esc = escalation.New(cfg, st, opts.Backend, opts.WindowOpener, opts.Identity, opts.Logger)
	if opts.SupportHandler != nil {
		e.esc.SetHandler(opts.SupportHandler)
	}
	e.gate = leadcapture.New(cfg, st, e.esc, opts.Logger)
	e.rater = rating.New(cfg, st, opts.Backend, opts.Viewport, func(ctx context.Context, q string) {
		e.Ask(ctx, q)
	}, opts.Logger)
	e.copier = clipboard.New(opts.ClipboardDevice, opts.Logger)

	e.greet()
	return e
}

func (e *Engine) greet() {
	if e.cfg.Labels.FirstMessage == "" {
		return
	}
	e.store.AddMessage(models.Message{
		Variant: models.VariantBot,
		Type:    models.TypeOther,
		Content: e.cfg.Labels.FirstMessage,
	})
}

// Store exposes the message store for rendering and subscriptions.
func (e *Engine) Store() *store.Store {
	return e.store
}

// ConversationID returns the current conversation id.
func (e *Engine) ConversationID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversationID
}

// Close releases the engine's store subscriptions.
func (e *Engine) Close() {
	e.gate.Close()
}

// Ask runs the question flow: the user turn and a loading bot turn are
// appended optimistically before the network round-trip starts, then the
// answer (or an inline error state) is patched into the bot message.
func (e *Engine) Ask(ctx context.Context, question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		return
	}

	e.store.ClearInput()
	e.store.AddMessage(models.Message{
		Variant: models.VariantUser,
		Type:    models.TypeOther,
		Content: question,
	})
	botID := e.store.AddMessage(models.Message{
		Variant: models.VariantBot,
		Type:    models.TypePlainAnswer,
		Loading: true,
	})
	metrics.QuestionsAsked.Inc()

	resp, err := e.backend.Ask(ctx, api.AskRequest{
		Question:       question,
		ConversationID: e.ConversationID(),
		History:        e.store.History(),
	})

	done := false
	if err != nil {
		rateLimited := api.IsRateLimited(err)
		reason := "error"
		content := "Something went wrong, please try again."
		if rateLimited {
			reason = "rate_limited"
			content = "Too many questions in a row, please wait a moment."
		}
		metrics.AskFailures.WithLabelValues(reason).Inc()
		errText := err.Error()
		e.store.UpdateMessage(botID, store.Patch{
			Loading:          &done,
			Content:          &content,
			Error:            &errText,
			IsRateLimitError: &rateLimited,
		})
		e.log.Warn().Err(err).Msg("ask failed")
		return
	}

	convID := resp.ConversationID
	if convID == "" {
		convID = e.ConversationID()
	} else {
		e.mu.Lock()
		e.conversationID = convID
		e.mu.Unlock()
	}

	typ := resp.Type
	if typ == "" {
		typ = models.TypePlainAnswer
	}
	e.store.UpdateMessage(botID, store.Patch{
		Loading:        &done,
		Content:        &resp.Answer,
		Sources:        resp.Sources,
		AnswerID:       &resp.ID,
		ConversationID: &convID,
		Type:           &typ,
		CouldAnswer:    resp.CouldAnswer,
	})
	e.store.AppendTurn(question, resp.Answer)
}

// RequestSupport is the escalation affordance entry point. gesture reports
// whether it was triggered by a genuine user gesture, which gates the popup
// reservation. When lead collection is configured the escalation is parked
// behind a form instead.
func (e *Engine) RequestSupport(ctx context.Context, messageID string, gesture bool) {
	if !e.cfg.EnableSupport {
		return
	}
	msg, ok := e.store.Get(messageID)
	if !ok {
		e.log.Warn().Str("message_id", messageID).Msg("support requested for unknown message")
		return
	}
	if msg.IsRateLimitError {
		// Rate-limited turns suppress the escalation affordance.
		return
	}

	meta := map[string]string{}
	parked, err := e.gate.Intercept(msg, e.store.History(), meta)
	if err != nil {
		e.log.Warn().Err(err).Msg("support request ignored")
		return
	}
	if parked {
		form := msg.LeadForm
		if form == nil {
			form = &models.LeadForm{Fields: e.cfg.LeadFields}
		}
		e.store.AddMessage(models.Message{
			Variant:  models.VariantBot,
			Type:     models.TypeLeadCollect,
			LeadForm: form,
		})
		return
	}

	e.esc.Escalate(ctx, msg, gesture, e.store.History(), meta)
}

// SubmitLead resolves a pending lead capture with the user's form values.
func (e *Engine) SubmitLead(ctx context.Context, values map[string]string) error {
	return e.gate.Submit(ctx, values)
}

// CancelLead abandons a pending lead capture.
func (e *Engine) CancelLead() error {
	return e.gate.Cancel()
}

// LeadPending reports whether a lead form is awaiting submission.
func (e *Engine) LeadPending() bool {
	return e.gate.Pending()
}

// LeadFields returns the form fields for a pending capture.
func (e *Engine) LeadFields() []models.FieldSpec {
	return e.gate.Fields()
}

// Rate submits feedback (-1 or 1) for a message.
func (e *Engine) Rate(ctx context.Context, messageID string, value int) {
	if !e.cfg.EnableFeedback {
		return
	}
	e.rater.Rate(ctx, messageID, value)
}

// Copy writes a message's content to the clipboard through the fallback
// chain and reports success. renderedHTML is the host-rendered form used by
// the rich tier.
func (e *Engine) Copy(messageID, renderedHTML string) bool {
	msg, ok := e.store.Get(messageID)
	if !ok || msg.Content == "" {
		return false
	}
	return e.copier.Copy(msg.Content, renderedHTML)
}

// Reset starts a fresh conversation in the same session.
func (e *Engine) Reset() {
	e.store.Reset()
	e.mu.Lock()
	e.conversationID = uuid.NewString()
	e.mu.Unlock()
	e.greet()
}
