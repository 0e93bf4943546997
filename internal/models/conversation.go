package models

// Turn is one completed question/answer exchange, sent as context with
// follow-up questions and escalations.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PendingType identifies what kind of flow a lead capture intercepted.
type PendingType string

const PendingSupport PendingType = "support"

// PendingLeadCapture parks an intercepted escalation while the lead form is
// open. At most one instance is live per conversation session.
type PendingLeadCapture struct {
	Trigger  bool
	Type     PendingType
	History  []Turn
	Metadata map[string]string
}
