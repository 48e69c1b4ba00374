package discord

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc is the signature for text command handlers. args is the
// message content after the command word, trimmed.
type HandlerFunc func(m *discordgo.MessageCreate, args string)

// ComponentFunc is the signature for message component (button) handlers.
type ComponentFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

// CommandRouter dispatches prefix text commands and component interactions
// to registered handlers.
type CommandRouter struct {
	mu              sync.RWMutex
	commands        map[string]HandlerFunc // command word (or alias) → handler
	components      map[string]ComponentFunc
	componentPrefix map[string]ComponentFunc
}

// NewCommandRouter creates an empty router.
func NewCommandRouter() *CommandRouter {
	return &CommandRouter{
		commands:        make(map[string]HandlerFunc),
		components:      make(map[string]ComponentFunc),
		componentPrefix: make(map[string]ComponentFunc),
	}
}

// RegisterCommand registers a handler under a command name and any aliases.
func (r *CommandRouter) RegisterCommand(name string, handler HandlerFunc, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = handler
	for _, alias := range aliases {
		r.commands[alias] = handler
	}
}

// RegisterComponent registers a handler for a component custom_id.
func (r *CommandRouter) RegisterComponent(customID string, handler ComponentFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[customID] = handler
}

// RegisterComponentPrefix registers a handler matching any component whose
// custom_id starts with prefix. Useful for buttons carrying dynamic
// suffixes.
func (r *CommandRouter) RegisterComponentPrefix(prefix string, handler ComponentFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.componentPrefix[prefix] = handler
}

// DispatchMessage parses a prefixed text command out of m and invokes its
// handler. It reports whether the message was a recognised command.
func (r *CommandRouter) DispatchMessage(prefix string, m *discordgo.MessageCreate) bool {
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, prefix) {
		return false
	}
	rest := strings.TrimSpace(content[len(prefix):])
	if rest == "" {
		return false
	}
	name := rest
	args := ""
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		name, args = rest[:idx], strings.TrimSpace(rest[idx+1:])
	}
	name = strings.ToLower(name)

	r.mu.RLock()
	handler, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		slog.Debug("discord: unknown command", "name", name)
		return false
	}
	handler(m, args)
	return true
}

// HandleInteraction dispatches a component interaction to its handler.
func (r *CommandRouter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		slog.Warn("discord: unhandled interaction type", "type", i.Type)
		return
	}
	customID := i.MessageComponentData().CustomID

	r.mu.RLock()
	handler, ok := r.components[customID]
	if !ok {
		for prefix, h := range r.componentPrefix {
			if strings.HasPrefix(customID, prefix) {
				handler = h
				ok = true
				break
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		slog.Warn("discord: unknown component", "custom_id", customID)
		return
	}
	handler(s, i)
}
