package ratelimit

import (
	"testing"
	"time"
)

func TestCooldownFirstChatAllowed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := DefaultCooldown.Check(0, nil, now)
	if !d.Allowed {
		t.Fatal("first chat must be allowed")
	}
	if d.ChatCount != 1 {
		t.Fatalf("expected count 1, got %d", d.ChatCount)
	}
	if !d.LastChatTime.Equal(now) {
		t.Fatalf("expected lastChatTime=now, got %v", d.LastChatTime)
	}
}

func TestCooldownBlocksWithinWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-3 * time.Second)
	d := DefaultCooldown.Check(1, &last, now)
	if d.Allowed {
		t.Fatal("second chat inside window must be blocked")
	}
	if d.RetryAfterSec != 7 {
		t.Fatalf("expected 7s remaining, got %d", d.RetryAfterSec)
	}
}

func TestCooldownRemainingRoundsUp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-9500 * time.Millisecond)
	d := DefaultCooldown.Check(1, &last, now)
	if d.Allowed {
		t.Fatal("expected blocked")
	}
	if d.RetryAfterSec != 1 {
		t.Fatalf("500ms remaining must round up to 1s, got %d", d.RetryAfterSec)
	}
}

func TestCooldownResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Second)
	d := DefaultCooldown.Check(1, &last, now)
	if !d.Allowed {
		t.Fatal("chat after full window must be allowed")
	}
	if d.ChatCount != 1 {
		t.Fatalf("counter should reset then increment to 1, got %d", d.ChatCount)
	}
}

func TestCooldownHigherQuota(t *testing.T) {
	cd := Cooldown{Window: 10 * time.Second, MaxChats: 3}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Second)

	d := cd.Check(2, &last, now)
	if !d.Allowed || d.ChatCount != 3 {
		t.Fatalf("third chat should pass within quota: %+v", d)
	}
	d = cd.Check(3, &last, now)
	if d.Allowed {
		t.Fatal("fourth chat should be blocked")
	}
}

func TestCooldownZeroValueUsesDefaults(t *testing.T) {
	var cd Cooldown
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Second)
	d := cd.Check(1, &last, now)
	if d.Allowed {
		t.Fatal("zero-value cooldown should fall back to defaults and block")
	}
	if d.RetryAfterSec != 9 {
		t.Fatalf("expected 9s remaining, got %d", d.RetryAfterSec)
	}
}
