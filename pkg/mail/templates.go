package mail

import (
	"fmt"
	"html"

	"divai/pkg/notify"
)

const htmlShell = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; line-height: 1.6;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #f8f9fa; padding: 16px; text-align: center; border-radius: 4px;">
      <h2 style="margin: 0;">%s</h2>
    </div>
    <div style="padding: 20px 0;">%s</div>
    <div style="color: #666; font-size: 12px; border-top: 1px solid #eee; padding-top: 16px;">
      This is an automated message. Please do not reply to this email.
    </div>
  </div>
</body>
</html>`

// Render turns a queued notification event into a sendable message.
// chat_activity events are addressed to the admin inbox by the worker before
// rendering, so every event kind carries a recipient here.
func Render(ev notify.Event) (Message, error) {
	switch ev.Kind {
	case notify.KindWelcome:
		return renderWelcome(ev), nil
	case notify.KindResetOTP:
		return renderResetOTP(ev), nil
	case notify.KindAnnouncement:
		return renderAnnouncement(ev), nil
	case notify.KindChatActivity:
		return renderChatActivity(ev), nil
	case notify.KindExportReady:
		return renderExportReady(ev), nil
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", ev.Kind)
	}
}

func renderWelcome(ev notify.Event) Message {
	name := html.EscapeString(ev.Username)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account is ready. Start a conversation whenever you like and your chat
history will be waiting for you here.</p>`, name)
	return Message{
		To:      ev.To,
		Subject: "Welcome aboard",
		HTML:    fmt.Sprintf(htmlShell, "Welcome aboard", body),
		Text: fmt.Sprintf("Hi %s,\n\nYour account is ready. Start a conversation whenever you like and your chat history will be waiting for you here.\n",
			ev.Username),
	}
}

func renderResetOTP(ev notify.Event) Message {
	body := fmt.Sprintf(`<p>Use this code to reset your password:</p>
<div style="font-size: 28px; letter-spacing: 6px; font-weight: bold; background: #f1f3f5; padding: 14px; text-align: center; border-radius: 4px;">%s</div>
<p>The code expires in 5 minutes. If you did not request a reset, ignore this email.</p>`,
		html.EscapeString(ev.OTP))
	return Message{
		To:      ev.To,
		Subject: "Your password reset code",
		HTML:    fmt.Sprintf(htmlShell, "Password reset", body),
		Text: fmt.Sprintf("Use this code to reset your password: %s\n\nThe code expires in 5 minutes. If you did not request a reset, ignore this email.\n",
			ev.OTP),
	}
}

func renderAnnouncement(ev notify.Event) Message {
	subject := ev.Subject
	if subject == "" {
		subject = "Announcement"
	}
	body := fmt.Sprintf("<p>%s</p>", html.EscapeString(ev.Body))
	return Message{
		To:      ev.To,
		Subject: subject,
		HTML:    fmt.Sprintf(htmlShell, html.EscapeString(subject), body),
		Text:    ev.Body + "\n",
	}
}

func renderChatActivity(ev notify.Event) Message {
	source := "model"
	if ev.Cached {
		source = "cache"
	}
	body := fmt.Sprintf(`<p><strong>%s</strong> asked:</p>
<blockquote style="border-left: 3px solid #ccc; margin: 8px 0; padding-left: 12px;">%s</blockquote>
<p>Answered by %s (provider: %s).</p>`,
		html.EscapeString(ev.Username), html.EscapeString(ev.Question), source, html.EscapeString(ev.Provider))
	return Message{
		To:      ev.To,
		Subject: fmt.Sprintf("New chat from %s", ev.Username),
		HTML:    fmt.Sprintf(htmlShell, "Chat activity", body),
		Text: fmt.Sprintf("%s asked: %s\nAnswered by %s (provider: %s)\n",
			ev.Username, ev.Question, source, ev.Provider),
	}
}

func renderExportReady(ev notify.Event) Message {
	body := fmt.Sprintf(`<p>The data export you requested is ready.</p>
<p><a href="%s">Download export</a></p>
<p>The link expires after a short period.</p>`, ev.Body)
	return Message{
		To:      ev.To,
		Subject: "Your data export is ready",
		HTML:    fmt.Sprintf(htmlShell, "Data export", body),
		Text:    fmt.Sprintf("The data export you requested is ready: %s\n", ev.Body),
	}
}
