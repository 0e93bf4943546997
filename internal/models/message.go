package models

// Variant identifies who authored a message.
type Variant string

const (
	VariantBot  Variant = "bot"
	VariantUser Variant = "user"
)

// Type governs which affordances attach to a message.
type Type string

const (
	TypePlainAnswer        Type = "plain_answer"
	TypeLeadCollect        Type = "lead_collect"
	TypeLeadCollectMessage Type = "lead_collect_message"
	TypeSupportEscalation  Type = "support_escalation"
	TypeIsResolvedQuestion Type = "is_resolved_question"
	TypeOther              Type = "other"
)

// Source is a citation attached to a bot answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Page  int    `json:"page,omitempty"`
	Type  string `json:"type"`
}

// Responses carries custom labels for the binary rating affordance.
type Responses struct {
	Yes string `json:"yes"`
	No  string `json:"no"`
}

// Message is a single record in the conversation timeline.
type Message struct {
	ID      string  `json:"id"` // ULID, assigned by the store
	Variant Variant `json:"variant"`
	Type    Type    `json:"type"`

	Content   string `json:"content"`
	Streaming bool   `json:"streaming"` // content still being appended
	Loading   bool   `json:"loading"`   // no content has arrived yet

	Sources []Source `json:"sources,omitempty"`

	// Rating is -1, 0 or 1; 0 means unrated. RatingSubmitted disables the
	// affordance after the first click.
	Rating          int  `json:"rating"`
	RatingSubmitted bool `json:"-"`

	// Correlation identifiers used by downstream API calls.
	AnswerID       string `json:"answerId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`

	LeadForm  *LeadForm  `json:"leadForm,omitempty"`
	Responses *Responses `json:"responses,omitempty"`

	// CouldAnswer is false when the system found no good answer.
	CouldAnswer *bool `json:"couldAnswer,omitempty"`

	Error            string `json:"error,omitempty"`
	IsRateLimitError bool   `json:"isRateLimitError,omitempty"`

	// IsLast is set on store snapshots for the most recently appended message.
	IsLast bool `json:"isLast"`
}
