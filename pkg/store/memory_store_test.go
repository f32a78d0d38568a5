package store

import (
	"errors"
	"testing"
	"time"

	"divai/pkg/domain"
)

func seedUser(t *testing.T, m *MemoryStore, id, username string) domain.User {
	t.Helper()
	u := domain.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := m.SaveUser(u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func TestMemoryStoreUserUniqueness(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "u1", "alice")

	err := m.SaveUser(domain.User{ID: "u2", Username: "alice", Email: "other@example.com"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for username, got %v", err)
	}
	err = m.SaveUser(domain.User{ID: "u2", Username: "bob", Email: "alice@example.com"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for email, got %v", err)
	}

	// Updating the same user is allowed.
	if err := m.SaveUser(domain.User{ID: "u1", Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("self update: %v", err)
	}
}

func TestMemoryStoreRateState(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "u1", "alice")

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := m.SaveRateState("u1", 1, at); err != nil {
		t.Fatalf("SaveRateState: %v", err)
	}
	u, _, _ := m.GetUserByID("u1")
	if u.ChatCount != 1 || u.LastChatTime == nil || !u.LastChatTime.Equal(at) {
		t.Fatalf("rate state not saved: %+v", u)
	}
}

func TestMemoryStoreMessageOrdering(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := m.CreateConversation(domain.Conversation{ID: "c1", UserID: "u1"}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for i := 0; i < 5; i++ {
		err := m.AppendMessage(domain.Message{
			ID:             string(rune('a' + i)),
			ConversationID: "c1",
			UserID:         "u1",
			Role:           domain.RoleUser,
			Text:           string(rune('a' + i)),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	recent, _ := m.ListRecentMessages("c1", 3)
	if len(recent) != 3 || recent[0].Text != "e" || recent[2].Text != "c" {
		t.Fatalf("ListRecentMessages wrong order: %+v", recent)
	}
	chrono, _ := m.ListConversationMessages("c1", 0)
	if len(chrono) != 5 || chrono[0].Text != "a" || chrono[4].Text != "e" {
		t.Fatalf("ListConversationMessages wrong order: %+v", chrono)
	}

	since, _ := m.ListUserMessagesSince("u1", base.Add(2*time.Second))
	if len(since) != 2 || since[0].Text != "d" {
		t.Fatalf("ListUserMessagesSince wrong window: %+v", since)
	}
}

func TestMemoryStoreConversationRecency(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3"} {
		err := m.CreateConversation(domain.Conversation{
			ID: id, UserID: "u1", UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := m.TouchConversation("c1", base.Add(time.Hour)); err != nil {
		t.Fatalf("touch: %v", err)
	}

	convs, _ := m.ListConversationsByUser("u1", 10)
	if len(convs) != 3 || convs[0].ID != "c1" {
		t.Fatalf("expected touched conversation first: %+v", convs)
	}

	if err := m.CreateConversation(domain.Conversation{ID: "c1", UserID: "u1"}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on duplicate id, got %v", err)
	}
}

func TestMemoryStoreFaq(t *testing.T) {
	m := NewMemoryStore()
	entry := domain.FaqEntry{Question: "what is go", Answer: "a language"}
	if err := m.CreateFaqEntry(entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.CreateFaqEntry(entry); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	if err := m.IncrementFaqHits("what is go"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, ok, _ := m.GetFaqEntry("what is go")
	if !ok || got.Hits != 2 {
		t.Fatalf("expected 2 hits, got %+v", got)
	}

	// Incrementing a missing entry is a no-op, not an error.
	if err := m.IncrementFaqHits("missing"); err != nil {
		t.Fatalf("increment missing: %v", err)
	}
}

func TestMemoryStoreQueryStats(t *testing.T) {
	m := NewMemoryStore()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_ = m.UpsertQueryStat("what is go", at)
	_ = m.UpsertQueryStat("what is go", at.Add(time.Minute))

	stat, ok := m.QueryStat("what is go")
	if !ok || stat.Count != 2 || !stat.LastAskedAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("unexpected stat: %+v", stat)
	}
}

func TestMemoryStoreSystemStatus(t *testing.T) {
	m := NewMemoryStore()
	status, err := m.GetSystemStatus()
	if err != nil || status.Maintenance {
		t.Fatalf("expected maintenance off: %+v %v", status, err)
	}
	at := time.Now().UTC()
	if err := m.SetMaintenance(true, at); err != nil {
		t.Fatalf("SetMaintenance: %v", err)
	}
	status, _ = m.GetSystemStatus()
	if !status.Maintenance {
		t.Fatal("expected maintenance on")
	}
}
