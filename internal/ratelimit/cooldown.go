package ratelimit

import (
	"math"
	"time"
)

// Cooldown is the per-user chat throttle. A user may send MaxChats messages,
// then must wait until Window has elapsed since their last message. The state
// lives on the user row so it survives restarts; this type only decides.
type Cooldown struct {
	Window   time.Duration
	MaxChats int
}

// DefaultCooldown mirrors the product default: one chat per 10 seconds.
var DefaultCooldown = Cooldown{
	Window:   10 * time.Second,
	MaxChats: 1,
}

// Decision is the outcome of a cooldown check. When Allowed, ChatCount and
// LastChatTime are the new values to persist. When denied, RetryAfterSec is
// the whole number of seconds the client must wait, rounded up so it is
// never reported as zero while time remains.
type Decision struct {
	Allowed       bool
	RetryAfterSec int
	ChatCount     int
	LastChatTime  time.Time
}

// Check applies the cooldown to the user's stored counter state at the given
// instant. The window resets the counter once fully elapsed; within the
// window the counter accumulates until MaxChats is reached.
func (c Cooldown) Check(chatCount int, lastChatTime *time.Time, now time.Time) Decision {
	window := c.Window
	if window <= 0 {
		window = DefaultCooldown.Window
	}
	maxChats := c.MaxChats
	if maxChats <= 0 {
		maxChats = DefaultCooldown.MaxChats
	}

	if lastChatTime != nil {
		elapsed := now.Sub(*lastChatTime)
		if elapsed < window {
			if chatCount >= maxChats {
				remaining := window - elapsed
				secs := int(math.Ceil(remaining.Seconds()))
				if secs < 1 {
					secs = 1
				}
				return Decision{Allowed: false, RetryAfterSec: secs, ChatCount: chatCount, LastChatTime: *lastChatTime}
			}
		} else {
			chatCount = 0
		}
	}

	return Decision{
		Allowed:      true,
		ChatCount:    chatCount + 1,
		LastChatTime: now,
	}
}
