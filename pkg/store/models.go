package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID              string `gorm:"primaryKey"`
	Username        string `gorm:"uniqueIndex;not null"`
	Email           string `gorm:"uniqueIndex;not null"`
	PasswordHash    string `gorm:"not null"`
	ResetOTPHash    string
	ResetOTPExpires *time.Time
	LastChatReset   *time.Time
	ChatCount       int `gorm:"not null;default:0"`
	LastChatTime    *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time
}

type ConversationModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

type MessageModel struct {
	ID             string         `gorm:"primaryKey"`
	UserID         string         `gorm:"not null;index"`
	ConversationID string         `gorm:"not null;index"`
	Role           string         `gorm:"not null"`
	Text           string         `gorm:"type:text;not null"`
	Meta           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null;index"`
}

type FaqEntryModel struct {
	Question  string    `gorm:"primaryKey"`
	Answer    string    `gorm:"type:text;not null"`
	Hits      int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

type QueryStatModel struct {
	Question    string    `gorm:"primaryKey"`
	Count       int64     `gorm:"not null;default:1"`
	LastAskedAt time.Time `gorm:"not null"`
}

// SystemStatusModel holds a single row keyed by a fixed ID.
type SystemStatusModel struct {
	ID          int  `gorm:"primaryKey"`
	Maintenance bool `gorm:"not null;default:false"`
	UpdatedAt   time.Time
}
