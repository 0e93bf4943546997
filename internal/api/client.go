// Package api provides the HTTP client for the DocsBot widget backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

// Client is a widget backend API client. All endpoints are scoped to a
// single team/bot pair.
type Client struct {
	BaseURL    string
	TeamID     string
	BotID      string
	SignedKey  string
	HTTPClient *http.Client
}

// NewClient creates a client from the widget configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:    cfg.APIBaseURL(),
		TeamID:     cfg.TeamID,
		BotID:      cfg.BotID,
		SignedKey:  cfg.SignedKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a failed backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("docsbot error %d: %s", e.Status, e.Message)
}

// IsRateLimited reports whether err is a server-signaled rate limit.
func IsRateLimited(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// botPath builds a path under the team/bot prefix.
func (c *Client) botPath(suffix string) string {
	return fmt.Sprintf("/teams/%s/bots/%s%s", c.TeamID, c.BotID, suffix)
}

// doRequest performs an HTTP request and decodes the JSON response into out
// when out is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.SignedKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.SignedKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return &Error{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// AskRequest is the request body for asking a question.
type AskRequest struct {
	Question       string            `json:"question"`
	ConversationID string            `json:"conversationId,omitempty"`
	History        []models.Turn     `json:"history,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// AskResponse is the answer returned by the bot.
type AskResponse struct {
	ID             string          `json:"id"` // answer id
	ConversationID string          `json:"conversationId"`
	Answer         string          `json:"answer"`
	Sources        []models.Source `json:"sources,omitempty"`
	Type           models.Type     `json:"type,omitempty"`
	CouldAnswer    *bool           `json:"couldAnswer,omitempty"`
}

// Ask posts a question to the bot.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	var resp AskResponse
	if err := c.doRequest(ctx, http.MethodPost, c.botPath("/ask"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rate submits a rating (-1 or 1) for an answer.
func (c *Client) Rate(ctx context.Context, answerID string, rating int) error {
	body := map[string]int{"rating": rating}
	return c.doRequest(ctx, http.MethodPut, c.botPath("/rate/"+answerID), body, nil)
}

// SupportClick records a support click against a specific answer.
func (c *Client) SupportClick(ctx context.Context, answerID string, metadata map[string]string) error {
	body := map[string]any{"metadata": metadata}
	return c.doRequest(ctx, http.MethodPut, c.botPath("/support/"+answerID), body, nil)
}

// Escalate hands a whole conversation off to human support.
func (c *Client) Escalate(ctx context.Context, conversationID string, history []models.Turn, metadata map[string]string) error {
	body := map[string]any{"history": history, "metadata": metadata}
	return c.doRequest(ctx, http.MethodPut, c.botPath("/conversations/"+conversationID+"/escalate"), body, nil)
}

// Ticket is a conversation summary prepared for support handoff.
type Ticket struct {
	ConversationID string        `json:"conversationId"`
	Subject        string        `json:"subject"`
	Summary        string        `json:"summary"`
	History        []models.Turn `json:"history,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// GetTicket fetches the ticket summary for a conversation.
func (c *Client) GetTicket(ctx context.Context, conversationID string) (*Ticket, error) {
	var t Ticket
	if err := c.doRequest(ctx, http.MethodGet, c.botPath("/conversations/"+conversationID+"/ticket"), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
