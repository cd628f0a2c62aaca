package discordchat

import (
	"context"
	"strings"
	"sync"
)

// DefaultPrefix marks a message as a command.
const DefaultPrefix = "!"

// Router maps "<prefix><keyword>" messages to handlers. Matching is
// case-insensitive and ignores surrounding whitespace.
type Router struct {
	prefix string

	mu       sync.RWMutex
	handlers map[string]func(ctx context.Context, channelID string)
}

// NewRouter builds a Router for prefix, falling back to DefaultPrefix.
func NewRouter(prefix string) *Router {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Router{
		prefix:   prefix,
		handlers: make(map[string]func(context.Context, string)),
	}
}

// Handle registers fn for keyword, replacing any earlier registration.
func (r *Router) Handle(keyword string, fn func(ctx context.Context, channelID string)) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[keyword] = fn
}

// Route dispatches one incoming message. It reports whether a handler ran.
// Messages from bots never trigger commands.
func (r *Router) Route(ctx context.Context, channelID, content string, fromBot bool) bool {
	if fromBot {
		return false
	}
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, r.prefix) {
		return false
	}
	keyword := strings.ToLower(strings.TrimPrefix(content, r.prefix))

	r.mu.RLock()
	fn, ok := r.handlers[keyword]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	fn(ctx, channelID)
	return true
}

// Keywords lists the registered command keywords.
func (r *Router) Keywords() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}
