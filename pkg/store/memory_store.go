package store

import (
	"sort"
	"sync"
	"time"

	"divai/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local runs
// without Postgres, enforcing the same unique constraints as GormStore.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User   // key: user ID
	usernames map[string]string        // username -> user ID
	emails    map[string]string        // email -> user ID
	convs     map[string]domain.Conversation
	msgs      []domain.Message
	faq       map[string]domain.FaqEntry
	stats     map[string]domain.QueryStat
	status    domain.SystemStatus
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		usernames: make(map[string]string),
		emails:    make(map[string]string),
		convs:     make(map[string]domain.Conversation),
		faq:       make(map[string]domain.FaqEntry),
		stats:     make(map[string]domain.QueryStat),
	}
}

// SaveUser inserts or updates a user, enforcing username/email uniqueness.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.usernames[u.Username]; ok && id != u.ID {
		return ErrDuplicateKey
	}
	if id, ok := m.emails[u.Email]; ok && id != u.ID {
		return ErrDuplicateKey
	}
	if old, ok := m.users[u.ID]; ok {
		delete(m.usernames, old.Username)
		delete(m.emails, old.Email)
	}
	m.users[u.ID] = u
	m.usernames[u.Username] = u.ID
	m.emails[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.usernames[username]
	return ok, nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.emails[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.usernames[username]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.emails[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SaveRateState(userID string, chatCount int, lastChatTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	t := lastChatTime.UTC()
	u.ChatCount = chatCount
	u.LastChatTime = &t
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) SetLastChatReset(userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	t := at.UTC()
	u.LastChatReset = &t
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) CreateConversation(c domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[c.ID]; ok {
		return ErrDuplicateKey
	}
	m.convs[c.ID] = c
	return nil
}

func (m *MemoryStore) GetConversation(id string) (domain.Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.convs[id]
	return c, ok, nil
}

func (m *MemoryStore) ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	res := make([]domain.Conversation, 0)
	for _, c := range m.convs {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) TouchConversation(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil
	}
	c.UpdatedAt = at.UTC()
	m.convs[id] = c
	return nil
}

func (m *MemoryStore) AppendMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *MemoryStore) ListRecentMessages(conversationID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	chrono := m.conversationMessagesLocked(conversationID)
	res := make([]domain.Message, 0, limit)
	for i := len(chrono) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, chrono[i])
	}
	return res, nil
}

func (m *MemoryStore) ListConversationMessages(conversationID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := m.conversationMessagesLocked(conversationID)
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) conversationMessagesLocked(conversationID string) []domain.Message {
	res := make([]domain.Message, 0)
	for _, msg := range m.msgs {
		if msg.ConversationID == conversationID {
			res = append(res, msg)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res
}

func (m *MemoryStore) ListUserMessagesSince(userID string, since time.Time) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Message, 0)
	for _, msg := range m.msgs {
		if msg.UserID != userID {
			continue
		}
		if !since.IsZero() && !msg.CreatedAt.After(since) {
			continue
		}
		res = append(res, msg)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) GetFaqEntry(question string) (domain.FaqEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.faq[question]
	return e, ok, nil
}

func (m *MemoryStore) CreateFaqEntry(entry domain.FaqEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.faq[entry.Question]; ok {
		return ErrDuplicateKey
	}
	if entry.Hits <= 0 {
		entry.Hits = 1
	}
	m.faq[entry.Question] = entry
	return nil
}

func (m *MemoryStore) IncrementFaqHits(question string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.faq[question]
	if !ok {
		return nil
	}
	e.Hits++
	e.UpdatedAt = time.Now().UTC()
	m.faq[question] = e
	return nil
}

func (m *MemoryStore) UpsertQueryStat(question string, askedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, ok := m.stats[question]
	if !ok {
		stat = domain.QueryStat{Question: question}
	}
	stat.Count++
	stat.LastAskedAt = askedAt.UTC()
	m.stats[question] = stat
	return nil
}

// QueryStat exposes analytics rows for tests.
func (m *MemoryStore) QueryStat(question string) (domain.QueryStat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stat, ok := m.stats[question]
	return stat, ok
}

func (m *MemoryStore) GetSystemStatus() (domain.SystemStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, nil
}

func (m *MemoryStore) SetMaintenance(on bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = domain.SystemStatus{Maintenance: on, UpdatedAt: at.UTC()}
	return nil
}
