package app

import (
	"context"
	"fmt"
	"strings"

	"divai/internal/util"
	"divai/pkg/ai"
	"divai/pkg/domain"
	"divai/pkg/notify"
	"divai/pkg/store"
)

// ChatRequest is one user chat turn.
type ChatRequest struct {
	Text           string
	ConversationID string
	Provider       string
}

// SendMessage runs the chat pipeline: FAQ cache lookup, cooldown on misses,
// conversation threading, provider dispatch and best-effort bookkeeping.
// The user message is persisted once before dispatch and never rolled back.
func (a *App) SendMessage(ctx context.Context, userID string, req ChatRequest) (domain.Answer, error) {
	logger := util.LoggerFromContext(ctx)

	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.Answer{}, ErrUserNotFound
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.Answer{}, ErrEmptyMessage
	}

	provider, providerName, err := a.providers.Resolve(req.Provider)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
	}

	now := a.now()
	normalized := NormalizeQuestion(text)
	if normalized != "" {
		entry, found, err := a.store.GetFaqEntry(normalized)
		if err != nil {
			logger.Warn("faq lookup failed", "error", err)
		} else if found {
			return a.answerFromCache(ctx, user, text, normalized, req.ConversationID, entry)
		}
		// Frequency stats count provider-backed questions only; hits are
		// tracked on the cache entry itself.
		if err := a.store.UpsertQueryStat(normalized, now); err != nil {
			logger.Warn("query stat update failed", "error", err)
		}
	}

	decision := a.cooldown.Check(user.ChatCount, user.LastChatTime, now)
	if !decision.Allowed {
		return domain.Answer{}, &CooldownError{Seconds: decision.RetryAfterSec}
	}

	conv, err := a.ensureConversation(user.ID, req.ConversationID, text)
	if err != nil {
		return domain.Answer{}, err
	}

	if err := a.store.AppendMessage(domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		UserID:         user.ID,
		Role:           domain.RoleUser,
		Text:           text,
		CreatedAt:      now,
	}); err != nil {
		return domain.Answer{}, fmt.Errorf("persist user message: %w", err)
	}

	history, err := a.conversationWindow(conv.ID)
	if err != nil {
		return domain.Answer{}, err
	}

	answerText, err := provider.Generate(ctx, history, a.systemPrompt)
	if err != nil {
		if pe, ok := ai.AsProviderError(err); ok && pe.RateLimited() {
			logger.Warn("provider rate limited", "provider", providerName)
			return domain.Answer{}, ErrProviderBusy
		}
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	replyAt := a.now()
	if err := a.store.AppendMessage(domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		UserID:         user.ID,
		Role:           domain.RoleModel,
		Text:           answerText,
		Meta:           domain.MessageMeta{Provider: providerName},
		CreatedAt:      replyAt,
	}); err != nil {
		// The answer was already paid for; return it and log the gap.
		logger.Error("persist model message failed", "conversation_id", conv.ID, "error", err)
	}
	if err := a.store.TouchConversation(conv.ID, replyAt); err != nil {
		logger.Warn("conversation touch failed", "conversation_id", conv.ID, "error", err)
	}

	// Quota is consumed only once an answer has been produced; a failed
	// dispatch leaves the counter untouched so the retry is free.
	if err := a.store.SaveRateState(user.ID, decision.ChatCount, decision.LastChatTime); err != nil {
		logger.Warn("rate state save failed", "user_id", user.ID, "error", err)
	}

	if normalized != "" {
		err := a.store.CreateFaqEntry(domain.FaqEntry{
			Question:  normalized,
			Answer:    answerText,
			Hits:      1,
			CreatedAt: replyAt,
			UpdatedAt: replyAt,
		})
		if err != nil && err != store.ErrDuplicateKey {
			logger.Warn("faq insert failed", "error", err)
		}
	}

	a.notifyChat(user, text, providerName, false)

	return domain.Answer{
		ConversationID: conv.ID,
		Text:           answerText,
		Cached:         false,
		CreatedAt:      replyAt,
	}, nil
}

// answerFromCache serves a FAQ hit. The cooldown counter is not consumed and
// no provider is called; the exchange is still threaded into a conversation.
func (a *App) answerFromCache(ctx context.Context, user domain.User, text, normalized, conversationID string, entry domain.FaqEntry) (domain.Answer, error) {
	logger := util.LoggerFromContext(ctx)

	if err := a.store.IncrementFaqHits(normalized); err != nil {
		logger.Warn("faq hit increment failed", "error", err)
	}

	conv, err := a.ensureConversation(user.ID, conversationID, text)
	if err != nil {
		return domain.Answer{}, err
	}

	now := a.now()
	if err := a.store.AppendMessage(domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		UserID:         user.ID,
		Role:           domain.RoleUser,
		Text:           text,
		CreatedAt:      now,
	}); err != nil {
		return domain.Answer{}, fmt.Errorf("persist user message: %w", err)
	}
	if err := a.store.AppendMessage(domain.Message{
		ID:             util.NewID(),
		ConversationID: conv.ID,
		UserID:         user.ID,
		Role:           domain.RoleModel,
		Text:           entry.Answer,
		Meta:           domain.MessageMeta{Cached: true},
		CreatedAt:      now,
	}); err != nil {
		logger.Error("persist cached answer failed", "conversation_id", conv.ID, "error", err)
	}
	if err := a.store.TouchConversation(conv.ID, now); err != nil {
		logger.Warn("conversation touch failed", "conversation_id", conv.ID, "error", err)
	}

	a.notifyChat(user, text, "", true)

	return domain.Answer{
		ConversationID: conv.ID,
		Text:           entry.Answer,
		Cached:         true,
		CreatedAt:      now,
	}, nil
}

// ensureConversation reuses an owned conversation or starts a fresh one. An
// unknown identifier, or one belonging to another user, falls through to the
// create branch so a stale client id never blocks the send.
func (a *App) ensureConversation(userID, conversationID, firstText string) (domain.Conversation, error) {
	if conversationID != "" {
		conv, ok, err := a.store.GetConversation(conversationID)
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
		}
		if ok && conv.UserID == userID {
			return conv, nil
		}
	}
	now := a.now()
	conv := domain.Conversation{
		ID:        util.NewID(),
		UserID:    userID,
		Title:     DeriveTitle(firstText),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateConversation(conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// conversationWindow returns up to historyWindow messages in chronological
// order, including the just-persisted user turn.
func (a *App) conversationWindow(conversationID string) ([]ai.Turn, error) {
	recent, err := a.store.ListRecentMessages(conversationID, a.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]ai.Turn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, ai.Turn{Role: recent[i].Role, Text: recent[i].Text})
	}
	return turns, nil
}

func (a *App) notifyChat(user domain.User, question, providerName string, cached bool) {
	if !a.notifyAdminOnChat || a.adminEmail == "" {
		return
	}
	notify.PublishAsync(a.publisher, notify.Event{
		Kind:       notify.KindChatActivity,
		To:         a.adminEmail,
		Username:   user.Username,
		Question:   question,
		Provider:   providerName,
		Cached:     cached,
		OccurredAt: a.now(),
	})
}
