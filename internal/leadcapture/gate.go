// Package leadcapture interposes a data-collection form between a support
// request and the actual escalation. The gate is a two-state machine: idle,
// or awaiting one form submission; a pending capture is resolved by Submit,
// discarded by Cancel, or auto-resumed when the intercepted escalation
// message is (re)rendered.
package leadcapture

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/metrics"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
	"github.com/uglyrobot/docsbot-widget-core/internal/store"
)

var (
	// ErrCapturePending rejects a new intercept while one is live. The
	// caller must submit or cancel the open form first.
	ErrCapturePending = errors.New("a lead capture is already pending")

	// ErrNoPending is returned by Submit and Cancel when the gate is idle.
	ErrNoPending = errors.New("no lead capture is pending")
)

// Escalator is the downstream the gate forwards resolved escalations to.
type Escalator interface {
	Escalate(ctx context.Context, msg models.Message, gesture bool, history []models.Turn, metadata map[string]string)
}

// Gate owns the single PendingLeadCapture of a conversation session.
type Gate struct {
	cfg   *config.Config
	store *store.Store
	esc   Escalator
	log   zerolog.Logger

	mu         sync.Mutex
	pending    *models.PendingLeadCapture
	pendingMsg models.Message

	unsub func()
}

// New creates a gate and subscribes it to store changes for auto-resume.
func New(cfg *config.Config, st *store.Store, esc Escalator, log zerolog.Logger) *Gate {
	g := &Gate{
		cfg:   cfg,
		store: st,
		esc:   esc,
		log:   log.With().Str("component", "leadcapture").Logger(),
	}
	g.unsub = st.Subscribe(g.onStoreEvent)
	return g
}

// Close cancels the store subscription.
func (g *Gate) Close() {
	if g.unsub != nil {
		g.unsub()
	}
}

// Pending reports whether a capture is awaiting submission.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Fields returns the form fields for the pending capture: the triggering
// message's form when it carries one, the configured default otherwise.
func (g *Gate) Fields() []models.FieldSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fieldsLocked()
}

func (g *Gate) fieldsLocked() []models.FieldSpec {
	if g.pendingMsg.LeadForm != nil && len(g.pendingMsg.LeadForm.Fields) > 0 {
		return g.pendingMsg.LeadForm.Fields
	}
	return g.cfg.LeadFields
}

// Intercept parks the escalation request when lead collection is configured.
// It returns true when the request was parked; the caller must then show the
// form instead of escalating. A second intercept while one is pending is
// rejected with ErrCapturePending.
func (g *Gate) Intercept(msg models.Message, history []models.Turn, metadata map[string]string) (bool, error) {
	if !g.cfg.CollectLeadBeforeSupport {
		return false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return false, ErrCapturePending
	}
	g.pending = &models.PendingLeadCapture{
		Trigger:  true,
		Type:     models.PendingSupport,
		History:  history,
		Metadata: cloneMap(metadata),
	}
	g.pendingMsg = msg
	metrics.LeadCaptures.WithLabelValues("intercepted").Inc()
	g.log.Info().Str("message_id", msg.ID).Msg("escalation intercepted for lead capture")
	return true, nil
}

// Submit resolves the pending capture: validates the form values, merges
// them into the stored metadata and forwards the parked escalation.
func (g *Gate) Submit(ctx context.Context, values map[string]string) error {
	g.mu.Lock()
	if g.pending == nil {
		g.mu.Unlock()
		return ErrNoPending
	}
	fields := g.fieldsLocked()
	if err := Validate(fields, values); err != nil {
		g.mu.Unlock()
		return err
	}
	pending := g.pending
	msg := g.pendingMsg
	// Cleared before escalating so the auto-resume watcher cannot fire a
	// second time off the store events the escalation itself produces.
	g.pending = nil
	g.pendingMsg = models.Message{}
	g.mu.Unlock()

	meta := cloneMap(pending.Metadata)
	for k, v := range Resolve(fields, values) {
		meta[k] = v
	}

	metrics.LeadCaptures.WithLabelValues("resolved").Inc()
	g.log.Info().Str("message_id", msg.ID).Msg("lead captured, resuming escalation")
	g.esc.Escalate(ctx, msg, false, pending.History, meta)
	return nil
}

// Cancel discards the pending capture without escalating.
func (g *Gate) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return ErrNoPending
	}
	g.pending = nil
	g.pendingMsg = models.Message{}
	metrics.LeadCaptures.WithLabelValues("cancelled").Inc()
	g.log.Info().Msg("lead capture cancelled")
	return nil
}

// onStoreEvent auto-resumes the parked escalation when the active displayed
// message is a support escalation, covering the case where the intercepted
// message is being (re)rendered.
func (g *Gate) onStoreEvent(e store.Event) {
	if e.Kind != store.MessageAdded && e.Kind != store.MessageUpdated {
		return
	}

	g.mu.Lock()
	if g.pending == nil {
		g.mu.Unlock()
		return
	}
	last, ok := g.store.Get(g.store.LastID())
	if !ok || last.Type != models.TypeSupportEscalation {
		g.mu.Unlock()
		return
	}
	pending := g.pending
	g.pending = nil
	g.pendingMsg = models.Message{}
	g.mu.Unlock()

	metrics.LeadCaptures.WithLabelValues("resolved").Inc()
	g.log.Info().Str("message_id", last.ID).Msg("support message rendered, resuming escalation")
	g.esc.Escalate(context.Background(), last, false, pending.History, pending.Metadata)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
