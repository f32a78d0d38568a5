// Package mail renders and sends the product's transactional email.
package mail

import "context"

// Message is one rendered email ready to send.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends rendered messages. The worker wires an SES implementation;
// tests use a recorder.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
