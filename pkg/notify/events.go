// Package notify carries fire-and-forget email side effects over RabbitMQ.
// The HTTP path publishes events after the response is decided; the worker
// consumes them and sends mail. Delivery is at-most-once.
package notify

import "time"

// QueueName is the durable queue shared by publisher and worker.
const QueueName = "divai.notifications"

// Kind identifies the notification template to render.
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindResetOTP     Kind = "reset_otp"
	KindChatActivity Kind = "chat_activity"
	KindAnnouncement Kind = "announcement"
	KindExportReady  Kind = "export_ready"
)

// Event is one queued notification. Fields are populated per kind; consumers
// ignore fields that do not apply.
type Event struct {
	Kind     Kind   `json:"kind"`
	To       string `json:"to,omitempty"`
	Username string `json:"username,omitempty"`

	// reset_otp
	OTP string `json:"otp,omitempty"`

	// announcement / export_ready
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`

	// chat_activity
	Question string `json:"question,omitempty"`
	Provider string `json:"provider,omitempty"`
	Cached   bool   `json:"cached,omitempty"`

	OccurredAt time.Time `json:"occurredAt"`
}
