package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/api"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

const version = "0.1.0"

// Handler contains shared state for the stub endpoints.
type Handler struct {
	log zerolog.Logger

	mu            sync.Mutex
	conversations map[string][]models.Turn // conversation id -> history
	ratings       map[string]int           // answer id -> rating
	escalated     map[string]bool          // conversation id -> handed off
}

// NewHandler creates a stub handler.
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log:           log,
		conversations: make(map[string][]models.Turn),
		ratings:       make(map[string]int),
		escalated:     make(map[string]bool),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	conversations := len(h.conversations)
	h.mu.Unlock()

	h.JSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"version":       version,
		"conversations": conversations,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// Ask answers a question with canned content.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req api.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		h.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}
	answer := fmt.Sprintf("You asked: *%s*\n\nThis is a canned development answer from the stub backend.", req.Question)

	resp := api.AskResponse{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Answer:         answer,
		Sources: []models.Source{
			{Title: "Getting started", URL: "https://example.com/docs/start", Type: "url"},
			{Title: "FAQ", URL: "https://example.com/docs/faq", Type: "url"},
		},
	}

	h.mu.Lock()
	h.conversations[convID] = append(h.conversations[convID], models.Turn{Question: req.Question, Answer: answer})
	h.mu.Unlock()

	h.JSON(w, http.StatusOK, resp)
}

// Rate records a rating for an answer.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	answerID := chi.URLParam(r, "answerID")

	var req struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating != -1 && req.Rating != 1 {
		h.Error(w, http.StatusBadRequest, "rating must be -1 or 1")
		return
	}

	h.mu.Lock()
	h.ratings[answerID] = req.Rating
	h.mu.Unlock()

	h.log.Info().Str("answer_id", answerID).Int("rating", req.Rating).Msg("rating recorded")
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Support records a support click against an answer.
func (h *Handler) Support(w http.ResponseWriter, r *http.Request) {
	answerID := chi.URLParam(r, "answerID")
	h.log.Info().Str("answer_id", answerID).Msg("support click recorded")
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Escalate hands a conversation off to support.
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "conversationID")

	h.mu.Lock()
	h.escalated[convID] = true
	h.mu.Unlock()

	h.log.Info().Str("conversation_id", convID).Msg("conversation escalated")
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Ticket returns a support ticket summary for a conversation.
func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "conversationID")

	h.mu.Lock()
	history, ok := h.conversations[convID]
	h.mu.Unlock()
	if !ok {
		h.Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	subject := "Support request"
	if len(history) > 0 {
		subject = history[0].Question
	}
	h.JSON(w, http.StatusOK, api.Ticket{
		ConversationID: convID,
		Subject:        subject,
		Summary:        fmt.Sprintf("Conversation with %d exchanges, escalated to support.", len(history)),
		History:        history,
		CreatedAt:      time.Now().UTC(),
	})
}
