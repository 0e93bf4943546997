package store

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

// EventKind identifies what changed in the store.
type EventKind int

const (
	MessageAdded EventKind = iota
	MessageUpdated
	SupportLoadingChanged
)

// Event is delivered to subscribers after a store transition commits.
type Event struct {
	Kind      EventKind
	MessageID string // set for message events
}

// Patch is a partial update merged into an existing message. Nil fields are
// left untouched.
type Patch struct {
	Type             *models.Type
	Content          *string
	Streaming        *bool
	Loading          *bool
	Sources          []models.Source
	Rating           *int
	RatingSubmitted  *bool
	AnswerID         *string
	ConversationID   *string
	LeadForm         *models.LeadForm
	Responses        *models.Responses
	CouldAnswer      *bool
	Error            *string
	IsRateLimitError *bool
}

// Store is the single shared mutable resource of the widget: the ordered
// message timeline plus a few session fields. All mutation goes through its
// transition operations; subscribers are notified after each commit.
type Store struct {
	mu       sync.Mutex
	messages []models.Message
	index    map[string]int
	lastID   string // tracked on insertion, no positional scan

	input          string
	history        []models.Turn
	supportLoading bool

	nextSub int
	subs    map[int]func(Event)
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index: make(map[string]int),
		subs:  make(map[int]func(Event)),
	}
}

// AddMessage assigns a fresh id, appends the message at the end of the
// timeline and returns the id. The new message becomes the unique last one.
func (s *Store) AddMessage(m models.Message) string {
	s.mu.Lock()
	m.ID = ulid.Make().String()
	m.IsLast = false // computed on snapshots
	s.index[m.ID] = len(s.messages)
	s.messages = append(s.messages, m)
	s.lastID = m.ID
	s.mu.Unlock()

	s.notify(Event{Kind: MessageAdded, MessageID: m.ID})
	return m.ID
}

// UpdateMessage merges patch into the message with the given id. It is a
// no-op if the id is absent. Ordering is never affected.
func (s *Store) UpdateMessage(id string, patch Patch) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	m := &s.messages[i]
	if patch.Type != nil {
		m.Type = *patch.Type
	}
	if patch.Content != nil {
		m.Content = *patch.Content
	}
	if patch.Streaming != nil {
		m.Streaming = *patch.Streaming
	}
	if patch.Loading != nil {
		m.Loading = *patch.Loading
	}
	if patch.Sources != nil {
		m.Sources = patch.Sources
	}
	if patch.Rating != nil {
		m.Rating = *patch.Rating
	}
	if patch.RatingSubmitted != nil {
		m.RatingSubmitted = *patch.RatingSubmitted
	}
	if patch.AnswerID != nil {
		m.AnswerID = *patch.AnswerID
	}
	if patch.ConversationID != nil {
		m.ConversationID = *patch.ConversationID
	}
	if patch.LeadForm != nil {
		m.LeadForm = patch.LeadForm
	}
	if patch.Responses != nil {
		m.Responses = patch.Responses
	}
	if patch.CouldAnswer != nil {
		m.CouldAnswer = patch.CouldAnswer
	}
	if patch.Error != nil {
		m.Error = *patch.Error
	}
	if patch.IsRateLimitError != nil {
		m.IsRateLimitError = *patch.IsRateLimitError
	}
	s.mu.Unlock()

	s.notify(Event{Kind: MessageUpdated, MessageID: id})
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return models.Message{}, false
	}
	m := s.messages[i]
	m.IsLast = id == s.lastID
	return m, true
}

// Messages returns a snapshot of the timeline in insertion order, with
// IsLast set on the most recently appended message.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	for i := range out {
		out[i].IsLast = out[i].ID == s.lastID
	}
	return out
}

// Len returns the number of messages in the timeline.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// LastID returns the id of the most recently appended message.
func (s *Store) LastID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

// SetInput records the current input text.
func (s *Store) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Input returns the current input text.
func (s *Store) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// ClearInput resets the input text.
func (s *Store) ClearInput() {
	s.SetInput("")
}

// AppendTurn adds a completed question/answer exchange to the history.
func (s *Store) AppendTurn(question, answer string) {
	s.mu.Lock()
	s.history = append(s.history, models.Turn{Question: question, Answer: answer})
	s.mu.Unlock()
}

// History returns a copy of the accumulated exchange history.
func (s *Store) History() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// SetSupportLoading flips the support-loading flag.
func (s *Store) SetSupportLoading(v bool) {
	s.mu.Lock()
	changed := s.supportLoading != v
	s.supportLoading = v
	s.mu.Unlock()
	if changed {
		s.notify(Event{Kind: SupportLoadingChanged})
	}
}

// SupportLoading reports whether a support escalation is in flight.
func (s *Store) SupportLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supportLoading
}

// Reset clears the timeline, history and session fields. Subscriptions
// survive a reset.
func (s *Store) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.index = make(map[string]int)
	s.lastID = ""
	s.input = ""
	s.history = nil
	s.supportLoading = false
	s.mu.Unlock()
}

// Subscribe registers fn to be called after each store transition. The
// returned function cancels the subscription. Callbacks run on the mutating
// goroutine and may themselves call back into the store.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Called outside the lock so subscribers can re-enter the store.
	for _, fn := range fns {
		fn(e)
	}
}
