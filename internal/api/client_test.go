package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

func newTestClient(url string) *Client {
	return &Client{
		BaseURL:    url,
		TeamID:     "team1",
		BotID:      "bot1",
		SignedKey:  "secret",
		HTTPClient: http.DefaultClient,
	}
}

func TestAsk_RequestShape(t *testing.T) {
	var gotPath, gotMethod, gotAuth, gotAccept string
	var gotBody AskRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(AskResponse{ID: "ans1", ConversationID: "conv1", Answer: "42"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Ask(context.Background(), AskRequest{
		Question:       "meaning of life?",
		ConversationID: "conv1",
		History:        []models.Turn{{Question: "q", Answer: "a"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPost || gotPath != "/teams/team1/bots/bot1/ask" {
		t.Errorf("unexpected request: %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotBody.Question != "meaning of life?" || len(gotBody.History) != 1 {
		t.Errorf("unexpected body: %+v", gotBody)
	}
	if resp.Answer != "42" || resp.ID != "ans1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRate_PathAndBody(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.Rate(context.Background(), "ans1", -1); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPut || gotPath != "/teams/team1/bots/bot1/rate/ans1" {
		t.Errorf("unexpected request: %s %s", gotMethod, gotPath)
	}
	if gotBody["rating"] != -1 {
		t.Errorf("rating = %d", gotBody["rating"])
	}
}

func TestEscalate_Path(t *testing.T) {
	var gotPath, gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Escalate(context.Background(), "conv1", nil, map[string]string{"email": "a@b.com"})
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPut || gotPath != "/teams/team1/bots/bot1/conversations/conv1/escalate" {
		t.Errorf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestGetTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams/team1/bots/bot1/conversations/conv1/ticket" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Ticket{ConversationID: "conv1", Subject: "help"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ticket, err := c.GetTicket(context.Background(), "conv1")
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Subject != "help" {
		t.Errorf("subject = %q", ticket.Subject)
	}
}

func TestErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "question is required"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Ask(context.Background(), AskRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "question is required" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if IsRateLimited(err) {
		t.Error("400 must not look rate limited")
	}
}

func TestIsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "slow down"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Ask(context.Background(), AskRequest{Question: "q"})
	if !IsRateLimited(err) {
		t.Errorf("expected rate-limited error, got %v", err)
	}
}

func TestNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(AskResponse{})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.SignedKey = ""
	if _, err := c.Ask(context.Background(), AskRequest{Question: "q"}); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
}
