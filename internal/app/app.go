package app

import (
	"fmt"
	"strings"
	"time"

	"divai/internal/ratelimit"
	"divai/pkg/ai"
	"divai/pkg/auth"
	"divai/pkg/notify"
	"divai/pkg/storage"
	"divai/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	Store     store.Store
	Providers *ai.Registry
	Tokens    *auth.TokenIssuer

	Publisher notify.Publisher
	Exports   storage.ObjectStore

	Cooldown      ratelimit.Cooldown
	HistoryWindow int
	SystemPrompt  string

	AdminUsers        []string
	AdminEmail        string
	NotifyAdminOnChat bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// App wires storage, providers and side effects behind the HTTP surface.
type App struct {
	store     store.Store
	providers *ai.Registry
	tokens    *auth.TokenIssuer

	publisher notify.Publisher
	exports   storage.ObjectStore

	cooldown      ratelimit.Cooldown
	historyWindow int
	systemPrompt  string

	adminUsers        map[string]bool
	adminEmail        string
	notifyAdminOnChat bool

	now func() time.Time
}

// New validates dependencies and constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Providers == nil {
		return nil, fmt.Errorf("provider registry required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token issuer required")
	}
	historyWindow := cfg.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = 10
	}
	cooldown := cfg.Cooldown
	if cooldown.Window <= 0 {
		cooldown = ratelimit.DefaultCooldown
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	adminUsers := make(map[string]bool, len(cfg.AdminUsers))
	for _, u := range cfg.AdminUsers {
		u = strings.ToLower(strings.TrimSpace(u))
		if u != "" {
			adminUsers[u] = true
		}
	}

	return &App{
		store:             cfg.Store,
		providers:         cfg.Providers,
		tokens:            cfg.Tokens,
		publisher:         cfg.Publisher,
		exports:           cfg.Exports,
		cooldown:          cooldown,
		historyWindow:     historyWindow,
		systemPrompt:      cfg.SystemPrompt,
		adminUsers:        adminUsers,
		adminEmail:        strings.TrimSpace(cfg.AdminEmail),
		notifyAdminOnChat: cfg.NotifyAdminOnChat,
		now:               now,
	}, nil
}

// Tokens exposes the token issuer for the HTTP auth middleware.
func (a *App) Tokens() *auth.TokenIssuer {
	return a.tokens
}

// IsAdmin reports whether the username is in the admin allowlist.
func (a *App) IsAdmin(username string) bool {
	return a.adminUsers[strings.ToLower(strings.TrimSpace(username))]
}
