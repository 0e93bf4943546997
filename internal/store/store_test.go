package store

import (
	"testing"

	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

func TestAddMessage_OrderAndUniqueIDs(t *testing.T) {
	s := New()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, s.AddMessage(models.Message{Variant: models.VariantUser}))
	}

	msgs := s.Messages()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}

	seen := make(map[string]bool)
	for i, m := range msgs {
		if m.ID != ids[i] {
			t.Errorf("message %d: expected id %s, got %s", i, ids[i], m.ID)
		}
		if seen[m.ID] {
			t.Errorf("duplicate id %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestAddMessage_ExactlyOneIsLast(t *testing.T) {
	s := New()
	s.AddMessage(models.Message{})
	s.AddMessage(models.Message{})
	last := s.AddMessage(models.Message{})

	count := 0
	for _, m := range s.Messages() {
		if m.IsLast {
			count++
			if m.ID != last {
				t.Errorf("isLast on %s, expected %s", m.ID, last)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one isLast message, got %d", count)
	}
	if s.LastID() != last {
		t.Errorf("LastID() = %s, expected %s", s.LastID(), last)
	}
}

func TestUpdateMessage_MergesPatch(t *testing.T) {
	s := New()
	id := s.AddMessage(models.Message{Variant: models.VariantBot, Loading: true})

	content := "hello"
	loading := false
	rating := 1
	s.UpdateMessage(id, Patch{Content: &content, Loading: &loading, Rating: &rating})

	m, ok := s.Get(id)
	if !ok {
		t.Fatal("message not found")
	}
	if m.Content != "hello" || m.Loading || m.Rating != 1 {
		t.Errorf("patch not merged: %+v", m)
	}
	if m.Variant != models.VariantBot {
		t.Errorf("untouched field changed: %s", m.Variant)
	}
}

func TestUpdateMessage_AbsentIDIsNoOp(t *testing.T) {
	s := New()
	s.AddMessage(models.Message{Content: "a"})

	content := "changed"
	s.UpdateMessage("nope", Patch{Content: &content})

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Content != "a" {
		t.Errorf("no-op update changed the store: %+v", msgs)
	}
}

func TestUpdateMessage_PreservesOrder(t *testing.T) {
	s := New()
	first := s.AddMessage(models.Message{})
	s.AddMessage(models.Message{})

	content := "updated"
	s.UpdateMessage(first, Patch{Content: &content})

	msgs := s.Messages()
	if msgs[0].ID != first {
		t.Error("update reordered the timeline")
	}
	if msgs[0].IsLast {
		t.Error("updated message must not become last")
	}
}

func TestInputOperations(t *testing.T) {
	s := New()
	s.SetInput("typing...")
	if s.Input() != "typing..." {
		t.Errorf("Input() = %q", s.Input())
	}
	s.ClearInput()
	if s.Input() != "" {
		t.Errorf("input not cleared: %q", s.Input())
	}
}

func TestHistory(t *testing.T) {
	s := New()
	s.AppendTurn("q1", "a1")
	s.AppendTurn("q2", "a2")

	h := s.History()
	if len(h) != 2 || h[0].Question != "q1" || h[1].Answer != "a2" {
		t.Errorf("unexpected history: %+v", h)
	}

	// The returned slice is a copy.
	h[0].Question = "mutated"
	if s.History()[0].Question != "q1" {
		t.Error("History() exposed internal state")
	}
}

func TestSubscribe_DeliversEvents(t *testing.T) {
	s := New()

	var events []Event
	unsub := s.Subscribe(func(e Event) {
		events = append(events, e)
	})

	id := s.AddMessage(models.Message{})
	content := "x"
	s.UpdateMessage(id, Patch{Content: &content})
	s.SetSupportLoading(true)

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Kind != MessageAdded || events[0].MessageID != id {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Kind != MessageUpdated {
		t.Errorf("unexpected second event: %+v", events[1])
	}
	if events[2].Kind != SupportLoadingChanged {
		t.Errorf("unexpected third event: %+v", events[2])
	}

	unsub()
	s.AddMessage(models.Message{})
	if len(events) != 3 {
		t.Error("event delivered after unsubscribe")
	}
}

func TestSubscriber_MayReenterStore(t *testing.T) {
	s := New()

	var secondID string
	s.Subscribe(func(e Event) {
		// Only react to the first add.
		if e.Kind == MessageAdded && secondID == "" {
			secondID = "pending"
			secondID = s.AddMessage(models.Message{Content: "from subscriber"})
		}
	})

	s.AddMessage(models.Message{Content: "trigger"})
	if s.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", s.Len())
	}
}

func TestSupportLoading_NotifiesOnlyOnChange(t *testing.T) {
	s := New()
	count := 0
	s.Subscribe(func(e Event) {
		if e.Kind == SupportLoadingChanged {
			count++
		}
	})

	s.SetSupportLoading(true)
	s.SetSupportLoading(true)
	s.SetSupportLoading(false)

	if count != 2 {
		t.Errorf("expected 2 support-loading events, got %d", count)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.AddMessage(models.Message{})
	s.AppendTurn("q", "a")
	s.SetInput("text")
	s.SetSupportLoading(true)

	s.Reset()

	if s.Len() != 0 || len(s.History()) != 0 || s.Input() != "" || s.SupportLoading() {
		t.Error("reset left state behind")
	}
	if s.LastID() != "" {
		t.Errorf("LastID() = %q after reset", s.LastID())
	}

	// Subscriptions survive.
	got := false
	s.Subscribe(func(Event) { got = true })
	s.AddMessage(models.Message{})
	if !got {
		t.Error("subscription lost after reset")
	}
}
