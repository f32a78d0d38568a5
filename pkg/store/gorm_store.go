package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"divai/pkg/domain"
)

const migrateLockID int64 = 48291517

const systemStatusRowID = 1

// GormStore implements Store using GORM + Postgres.
// The database enforces uniqueness for usernames, emails, and FAQ questions;
// concurrent insert races surface as ErrDuplicateKey.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&ConversationModel{},
			&MessageModel{},
			&FaqEntryModel{},
			&QueryStatModel{},
			&SystemStatusModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// SaveUser inserts or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "password_hash", "reset_otp_hash", "reset_otp_expires",
			"last_chat_reset", "chat_count", "last_chat_time", "updated_at",
		}),
	}).Create(&model).Error
	return translateDuplicate(err)
}

// HasUsername checks if a username is taken.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasUserEmail checks if an email is taken.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.getUser("username = ?", username)
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.getUser("email = ?", email)
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	return s.getUser("id = ?", id)
}

func (s *GormStore) getUser(query string, arg any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SaveRateState persists the cooldown counter fields only.
func (s *GormStore) SaveRateState(userID string, chatCount int, lastChatTime time.Time) error {
	return s.db.Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"chat_count":     chatCount,
			"last_chat_time": lastChatTime.UTC(),
			"updated_at":     time.Now().UTC(),
		}).Error
}

// SetLastChatReset moves the soft-reset marker forward.
func (s *GormStore) SetLastChatReset(userID string, at time.Time) error {
	return s.db.Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"last_chat_reset": at.UTC(),
			"updated_at":      time.Now().UTC(),
		}).Error
}

// CreateConversation creates a new conversation record.
func (s *GormStore) CreateConversation(c domain.Conversation) error {
	model := conversationToModel(c)
	return translateDuplicate(s.db.Create(&model).Error)
}

// GetConversation returns one conversation by ID.
func (s *GormStore) GetConversation(id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListConversationsByUser returns the user's conversations, most recent first.
func (s *GormStore) ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []ConversationModel
	if err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Conversation, 0, len(models))
	for _, model := range models {
		items = append(items, conversationFromModel(model))
	}
	return items, nil
}

// TouchConversation refreshes the recency timestamp.
func (s *GormStore) TouchConversation(id string, at time.Time) error {
	return s.db.Model(&ConversationModel{}).
		Where("id = ?", id).
		Update("updated_at", at.UTC()).Error
}

// AppendMessage records a message.
func (s *GormStore) AppendMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// ListRecentMessages returns up to limit messages for a conversation, newest first.
func (s *GormStore) ListRecentMessages(conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	var models []MessageModel
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// ListConversationMessages returns messages in chronological order.
func (s *GormStore) ListConversationMessages(conversationID string, limit int) ([]domain.Message, error) {
	query := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// ListUserMessagesSince returns the user's messages created after the cutoff.
func (s *GormStore) ListUserMessagesSince(userID string, since time.Time) ([]domain.Message, error) {
	query := s.db.Where("user_id = ?", userID).Order("created_at ASC")
	if !since.IsZero() {
		query = query.Where("created_at > ?", since.UTC())
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// GetFaqEntry returns the cached answer for a normalized question.
func (s *GormStore) GetFaqEntry(question string) (domain.FaqEntry, bool, error) {
	var model FaqEntryModel
	if err := s.db.First(&model, "question = ?", question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.FaqEntry{}, false, nil
		}
		return domain.FaqEntry{}, false, err
	}
	return faqFromModel(model), true, nil
}

// CreateFaqEntry inserts a new cache entry with hit count 1.
// A concurrent insert of the same question yields ErrDuplicateKey;
// the existing answer is never overwritten.
func (s *GormStore) CreateFaqEntry(entry domain.FaqEntry) error {
	model := faqToModel(entry)
	return translateDuplicate(s.db.Create(&model).Error)
}

// IncrementFaqHits bumps the hit counter for an entry.
func (s *GormStore) IncrementFaqHits(question string) error {
	return s.db.Model(&FaqEntryModel{}).
		Where("question = ?", question).
		Updates(map[string]any{
			"hits":       gorm.Expr("hits + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

// UpsertQueryStat records one provider-backed occurrence of a question.
func (s *GormStore) UpsertQueryStat(question string, askedAt time.Time) error {
	model := QueryStatModel{
		Question:    question,
		Count:       1,
		LastAskedAt: askedAt.UTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "question"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":         gorm.Expr("query_stat_models.count + 1"),
			"last_asked_at": askedAt.UTC(),
		}),
	}).Create(&model).Error
}

// GetSystemStatus returns the maintenance flag, defaulting to off.
func (s *GormStore) GetSystemStatus() (domain.SystemStatus, error) {
	var model SystemStatusModel
	if err := s.db.First(&model, "id = ?", systemStatusRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SystemStatus{}, nil
		}
		return domain.SystemStatus{}, err
	}
	return domain.SystemStatus{Maintenance: model.Maintenance, UpdatedAt: model.UpdatedAt}, nil
}

// SetMaintenance toggles the singleton maintenance flag.
func (s *GormStore) SetMaintenance(on bool, at time.Time) error {
	model := SystemStatusModel{
		ID:          systemStatusRowID,
		Maintenance: on,
		UpdatedAt:   at.UTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"maintenance": on,
			"updated_at":  at.UTC(),
		}),
	}).Create(&model).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		ResetOTPHash:    u.ResetOTPHash,
		ResetOTPExpires: u.ResetOTPExpires,
		LastChatReset:   u.LastChatReset,
		ChatCount:       u.ChatCount,
		LastChatTime:    u.LastChatTime,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:              m.ID,
		Username:        m.Username,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		ResetOTPHash:    m.ResetOTPHash,
		ResetOTPExpires: m.ResetOTPExpires,
		LastChatReset:   m.LastChatReset,
		ChatCount:       m.ChatCount,
		LastChatTime:    m.LastChatTime,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	rawMeta, _ := json.Marshal(msg.Meta)
	return MessageModel{
		ID:             msg.ID,
		UserID:         msg.UserID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Text:           msg.Text,
		Meta:           rawMeta,
		CreatedAt:      msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	var meta domain.MessageMeta
	if len(m.Meta) > 0 {
		_ = json.Unmarshal(m.Meta, &meta)
	}
	return domain.Message{
		ID:             m.ID,
		UserID:         m.UserID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Text:           m.Text,
		Meta:           meta,
		CreatedAt:      m.CreatedAt,
	}
}

func faqToModel(e domain.FaqEntry) FaqEntryModel {
	hits := e.Hits
	if hits <= 0 {
		hits = 1
	}
	return FaqEntryModel{
		Question:  strings.TrimSpace(e.Question),
		Answer:    e.Answer,
		Hits:      hits,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func faqFromModel(m FaqEntryModel) domain.FaqEntry {
	return domain.FaqEntry{
		Question:  m.Question,
		Answer:    m.Answer,
		Hits:      m.Hits,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
