package mail

import (
	"strings"
	"testing"

	"divai/pkg/notify"
)

func TestRenderResetOTP(t *testing.T) {
	msg, err := Render(notify.Event{
		Kind: notify.KindResetOTP,
		To:   "user@example.com",
		OTP:  "123456",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.To != "user@example.com" {
		t.Fatalf("wrong recipient %q", msg.To)
	}
	if !strings.Contains(msg.HTML, "123456") || !strings.Contains(msg.Text, "123456") {
		t.Fatal("OTP code missing from rendered mail")
	}
	if !strings.Contains(msg.Text, "5 minutes") {
		t.Fatal("expiry notice missing")
	}
}

func TestRenderWelcome(t *testing.T) {
	msg, err := Render(notify.Event{
		Kind:     notify.KindWelcome,
		To:       "alice@example.com",
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(msg.HTML, "alice") {
		t.Fatal("username missing from welcome mail")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	msg, err := Render(notify.Event{
		Kind:     notify.KindChatActivity,
		To:       "admin@example.com",
		Username: "bob",
		Question: "<script>alert(1)</script>",
		Provider: "gemini",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatal("question not escaped in HTML body")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, err := Render(notify.Event{Kind: "mystery"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
