package app

import (
	"fmt"
	"time"

	"divai/pkg/domain"
)

const conversationListLimit = 100

// ListConversations returns the user's conversations, most recent first.
func (a *App) ListConversations(userID string) ([]domain.Conversation, error) {
	convs, err := a.store.ListConversationsByUser(userID, conversationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// ConversationMessages returns a conversation's messages in chronological
// order. A conversation owned by another user is reported as not found.
func (a *App) ConversationMessages(userID, conversationID string) ([]domain.Message, error) {
	conv, ok, err := a.store.GetConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if !ok || conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	msgs, err := a.store.ListConversationMessages(conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// History returns the user's flat message history across conversations,
// excluding anything before their last soft reset.
func (a *App) History(userID string) ([]domain.Message, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	var since time.Time
	if user.LastChatReset != nil {
		since = *user.LastChatReset
	}
	msgs, err := a.store.ListUserMessagesSince(userID, since)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return msgs, nil
}

// ResetHistory soft-deletes the user's visible history by moving the reset
// marker to now. Stored messages are kept.
func (a *App) ResetHistory(userID string) error {
	if _, ok, err := a.store.GetUserByID(userID); err != nil {
		return fmt.Errorf("load user: %w", err)
	} else if !ok {
		return ErrUserNotFound
	}
	if err := a.store.SetLastChatReset(userID, a.now()); err != nil {
		return fmt.Errorf("set reset marker: %w", err)
	}
	return nil
}
