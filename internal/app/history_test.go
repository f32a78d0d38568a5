package app

import (
	"context"
	"testing"
	"time"
)

func TestConversationListingAndMessages(t *testing.T) {
	a, _, _, clock := newTestApp(t, &fakeProvider{reply: "ok"})
	userID := registerUser(t, a, "alice")

	first, err := a.SendMessage(context.Background(), userID, ChatRequest{Text: "first thread"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	clock.Advance(11 * time.Second)
	second, err := a.SendMessage(context.Background(), userID, ChatRequest{Text: "second thread"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	convs, err := a.ListConversations(userID)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ID != second.ConversationID {
		t.Fatalf("most recent conversation must come first, got %s", convs[0].ID)
	}

	msgs, err := a.ConversationMessages(userID, first.ConversationID)
	if err != nil {
		t.Fatalf("ConversationMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "first thread" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestHistorySoftReset(t *testing.T) {
	a, _, _, clock := newTestApp(t, &fakeProvider{reply: "ok"})
	userID := registerUser(t, a, "alice")

	if _, err := a.SendMessage(context.Background(), userID, ChatRequest{Text: "before reset"}); err != nil {
		t.Fatalf("message: %v", err)
	}

	msgs, err := a.History(userID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(msgs))
	}

	clock.Advance(time.Second)
	if err := a.ResetHistory(userID); err != nil {
		t.Fatalf("ResetHistory: %v", err)
	}
	msgs, err = a.History(userID)
	if err != nil {
		t.Fatalf("History after reset: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history after reset, got %d", len(msgs))
	}

	clock.Advance(11 * time.Second)
	if _, err := a.SendMessage(context.Background(), userID, ChatRequest{Text: "after reset"}); err != nil {
		t.Fatalf("message after reset: %v", err)
	}
	msgs, _ = a.History(userID)
	if len(msgs) != 2 || msgs[0].Text != "after reset" {
		t.Fatalf("history must only show post-reset messages: %+v", msgs)
	}
}
