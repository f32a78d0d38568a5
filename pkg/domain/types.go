package domain

import "time"

// Message roles as stored. Providers remap these to their own vocabulary.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	ResetOTPHash    string     `json:"-"`
	ResetOTPExpires *time.Time `json:"-"`
	LastChatReset   *time.Time `json:"-"`
	ChatCount       int        `json:"-"`
	LastChatTime    *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageMeta records how an assistant message was produced.
type MessageMeta struct {
	Provider string `json:"provider,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
}

type Message struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	ConversationID string      `json:"conversationId"`
	Role           string      `json:"role"`
	Text           string      `json:"text"`
	Meta           MessageMeta `json:"meta,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// FaqEntry memoizes a generated answer under a normalized question key.
type FaqEntry struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Hits      int64     `json:"hits"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QueryStat tracks how often a normalized question reached the provider path.
type QueryStat struct {
	Question    string    `json:"question"`
	Count       int64     `json:"count"`
	LastAskedAt time.Time `json:"lastAskedAt"`
}

// SystemStatus is the singleton maintenance flag.
type SystemStatus struct {
	Maintenance bool      `json:"maintenance"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Answer is the chat send result returned to clients.
type Answer struct {
	ConversationID string    `json:"conversationId"`
	Text           string    `json:"text"`
	Cached         bool      `json:"cached"`
	CreatedAt      time.Time `json:"createdAt"`
}
