package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"divai/pkg/notify"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://exports.test/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func TestIsAdmin(t *testing.T) {
	a, _, _, _ := newTestApp(t, &fakeProvider{reply: "ok"})
	if !a.IsAdmin("root") || !a.IsAdmin("  ROOT ") {
		t.Fatal("admin allowlist must be case-insensitive")
	}
	if a.IsAdmin("alice") || a.IsAdmin("") {
		t.Fatal("non-admin must not pass")
	}
}

func TestMaintenanceToggle(t *testing.T) {
	a, _, _, _ := newTestApp(t, &fakeProvider{reply: "ok"})

	on, err := a.Maintenance()
	if err != nil || on {
		t.Fatalf("expected maintenance off initially: %v %v", on, err)
	}
	if err := a.SetMaintenance(true); err != nil {
		t.Fatalf("SetMaintenance: %v", err)
	}
	on, _ = a.Maintenance()
	if !on {
		t.Fatal("maintenance must be on after toggle")
	}
}

func TestAnnounce(t *testing.T) {
	a, _, pub, _ := newTestApp(t, &fakeProvider{reply: "ok"})
	registerUser(t, a, "alice")
	registerUser(t, a, "bob")

	count, err := a.Announce("Downtime", "We will be offline briefly.")
	if err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recipients, got %d", count)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := 0
		for _, ev := range pub.snapshot() {
			if ev.Kind == notify.KindAnnouncement {
				got++
				if ev.Subject != "Downtime" {
					t.Fatalf("unexpected subject %q", ev.Subject)
				}
			}
		}
		if got == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 announcement events, got %d", got)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := a.Announce("x", "   "); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestExport(t *testing.T) {
	objects := newFakeObjectStore()
	a, _, pub, _ := newTestApp(t, &fakeProvider{reply: "ok"})
	a.exports = objects
	userID := registerUser(t, a, "alice")

	if _, err := a.SendMessage(context.Background(), userID, ChatRequest{Text: "export me please"}); err != nil {
		t.Fatalf("message: %v", err)
	}

	url, err := a.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasPrefix(url, "https://exports.test/exports/") {
		t.Fatalf("unexpected export url %q", url)
	}

	objects.mu.Lock()
	if len(objects.objects) != 1 {
		objects.mu.Unlock()
		t.Fatalf("expected 1 uploaded object, got %d", len(objects.objects))
	}
	var raw []byte
	for _, b := range objects.objects {
		raw = b
	}
	objects.mu.Unlock()

	var payload exportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if len(payload.Users) != 1 || payload.Users[0].User.Username != "alice" {
		t.Fatalf("unexpected export users: %+v", payload.Users)
	}
	if len(payload.Users[0].Conversations) != 1 {
		t.Fatalf("expected 1 conversation in export")
	}
	if got := len(payload.Users[0].Conversations[0].Messages); got != 2 {
		t.Fatalf("expected 2 exported messages, got %d", got)
	}
	if strings.Contains(string(raw), "passwordHash") {
		t.Fatal("export must not leak password hashes")
	}

	ev := waitEvent(t, pub, notify.KindExportReady)
	if ev.To != "admin@example.com" || !strings.Contains(ev.Body, url) {
		t.Fatalf("unexpected export event: %+v", ev)
	}
}

func TestExportWithoutStorage(t *testing.T) {
	a, _, _, _ := newTestApp(t, &fakeProvider{reply: "ok"})
	if _, err := a.Export(context.Background()); err == nil {
		t.Fatal("expected error when export storage is not configured")
	}
}
