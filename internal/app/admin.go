package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"divai/pkg/domain"
	"divai/pkg/notify"
	"divai/pkg/storage"
)

const exportLinkTTL = 24 * time.Hour

// Maintenance reports whether the service is in maintenance mode.
func (a *App) Maintenance() (bool, error) {
	status, err := a.store.GetSystemStatus()
	if err != nil {
		return false, fmt.Errorf("load system status: %w", err)
	}
	return status.Maintenance, nil
}

// SetMaintenance flips the maintenance flag.
func (a *App) SetMaintenance(on bool) error {
	if err := a.store.SetMaintenance(on, a.now()); err != nil {
		return fmt.Errorf("set maintenance: %w", err)
	}
	return nil
}

// Announce queues an announcement email to every registered user and returns
// the recipient count.
func (a *App) Announce(subject, body string) (int, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, fmt.Errorf("%w: announcement body is required", ErrValidation)
	}
	users, err := a.store.ListUsers()
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	at := a.now()
	for _, user := range users {
		notify.PublishAsync(a.publisher, notify.Event{
			Kind:       notify.KindAnnouncement,
			To:         user.Email,
			Username:   user.Username,
			Subject:    subject,
			Body:       body,
			OccurredAt: at,
		})
	}
	return len(users), nil
}

type exportConversation struct {
	Conversation domain.Conversation `json:"conversation"`
	Messages     []domain.Message    `json:"messages"`
}

type exportUser struct {
	User          domain.User          `json:"user"`
	Conversations []exportConversation `json:"conversations"`
}

type exportPayload struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Users       []exportUser `json:"users"`
}

// Export builds a JSON dump of all users with their conversations and
// messages, uploads it to object storage and returns a pre-signed download
// URL. Per-user data is fetched concurrently.
func (a *App) Export(ctx context.Context) (string, error) {
	if a.exports == nil {
		return "", fmt.Errorf("export storage not configured")
	}
	users, err := a.store.ListUsers()
	if err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}

	results := make([]exportUser, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, user := range users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			convs, err := a.store.ListConversationsByUser(user.ID, 10000)
			if err != nil {
				return fmt.Errorf("conversations for %s: %w", user.ID, err)
			}
			out := exportUser{User: user, Conversations: make([]exportConversation, 0, len(convs))}
			for _, conv := range convs {
				msgs, err := a.store.ListConversationMessages(conv.ID, 0)
				if err != nil {
					return fmt.Errorf("messages for %s: %w", conv.ID, err)
				}
				out.Conversations = append(out.Conversations, exportConversation{
					Conversation: conv,
					Messages:     msgs,
				})
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(exportPayload{
		GeneratedAt: a.now(),
		Users:       results,
	})
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	_, url, err := storage.UploadExport(ctx, a.exports, payload, exportLinkTTL)
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	if a.adminEmail != "" {
		notify.PublishAsync(a.publisher, notify.Event{
			Kind: notify.KindExportReady,
			To:   a.adminEmail,
			Body: url,
		})
	}
	return url, nil
}
