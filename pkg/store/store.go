package store

import (
	"errors"
	"time"

	"divai/pkg/domain"
)

// ErrDuplicateKey is returned when an insert violates a unique constraint.
// Callers on best-effort paths are expected to log and swallow it.
var ErrDuplicateKey = errors.New("duplicate key")

// Store defines persistence operations for users, conversations, messages,
// the FAQ cache, query analytics, and the system status singleton.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUsername(username string) (bool, error)
	HasUserEmail(email string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	// SaveRateState persists only the cooldown fields of a user.
	SaveRateState(userID string, chatCount int, lastChatTime time.Time) error
	// SetLastChatReset moves the soft-reset marker forward.
	SetLastChatReset(userID string, at time.Time) error

	// conversations
	CreateConversation(domain.Conversation) error
	GetConversation(id string) (domain.Conversation, bool, error)
	ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error)
	TouchConversation(id string, at time.Time) error

	// messages
	AppendMessage(domain.Message) error
	// ListRecentMessages returns up to limit messages newest-first.
	ListRecentMessages(conversationID string, limit int) ([]domain.Message, error)
	// ListConversationMessages returns messages in chronological order.
	ListConversationMessages(conversationID string, limit int) ([]domain.Message, error)
	// ListUserMessagesSince returns a user's messages created after the cutoff,
	// chronological. A zero cutoff returns everything.
	ListUserMessagesSince(userID string, since time.Time) ([]domain.Message, error)

	// faq cache
	GetFaqEntry(question string) (domain.FaqEntry, bool, error)
	CreateFaqEntry(domain.FaqEntry) error
	IncrementFaqHits(question string) error

	// analytics
	UpsertQueryStat(question string, askedAt time.Time) error

	// system status
	GetSystemStatus() (domain.SystemStatus, error)
	SetMaintenance(on bool, at time.Time) error
}
