package navigation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mevellea/telegram-menu/core/logger"
	"github.com/mevellea/telegram-menu/core/menu"
)

// RootFactory builds a fresh root menu for one conversation. Each session
// gets its own instance so per-chat state never leaks between users.
type RootFactory func() (*menu.Message, error)

// Registry maps conversation identities to sessions, creating one lazily on
// first contact. Safe for concurrent use.
type Registry struct {
	transport Transport
	sched     Scheduler
	factory   RootFactory
	opts      Options

	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry validates the root factory up front: building it must succeed
// and must yield a menu-mode message, otherwise no session could ever start.
func NewRegistry(transport Transport, sched Scheduler, factory RootFactory, opts Options) (*Registry, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}
	if factory == nil {
		return nil, ErrNoRootFactory
	}
	probe, err := factory()
	if err != nil {
		return nil, err
	}
	if probe == nil || probe.Inlined() {
		return nil, ErrInvalidRoot
	}
	return &Registry{
		transport: transport,
		sched:     sched,
		factory:   factory,
		opts:      opts,
		sessions:  make(map[int64]*Session),
	}, nil
}

// Session returns the session for the given chat, creating and starting one
// on first contact.
func (r *Registry) Session(ctx context.Context, chatID int64) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[chatID]; ok {
		return s, nil
	}
	root, err := r.factory()
	if err != nil {
		return nil, err
	}
	s, err = NewSession(chatID, r.transport, r.sched, r.opts)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx, root); err != nil {
		return nil, err
	}
	r.sessions[chatID] = s
	logger.Info(ctx, "reg", "session.create",
		slog.Int64("chat_id", chatID),
		slog.Int("tracked", len(r.sessions)),
	)
	return s, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(chatID int64) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Discard closes and forgets the session for the given chat.
func (r *Registry) Discard(chatID int64) {
	r.mu.Lock()
	s, ok := r.sessions[chatID]
	delete(r.sessions, chatID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Sessions returns a snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// BroadcastText sends a plain message to every live session's chat.
func (r *Registry) BroadcastText(ctx context.Context, text string) {
	for _, s := range r.Sessions() {
		if _, err := r.transport.SendMessage(ctx, s.ChatID(), text, nil, true); err != nil {
			logger.Error(ctx, "reg", "broadcast.text.fail",
				slog.Int64("chat_id", s.ChatID()),
				slog.String("cause", logger.Sanitize(err.Error())),
			)
		}
	}
}

// BroadcastPicture sends a photo attachment to every live session's chat.
func (r *Registry) BroadcastPicture(ctx context.Context, attachment, caption string) {
	for _, s := range r.Sessions() {
		if _, err := r.transport.SendPhoto(ctx, s.ChatID(), attachment, caption, nil, true); err != nil {
			logger.Error(ctx, "reg", "broadcast.photo.fail",
				slog.Int64("chat_id", s.ChatID()),
				slog.String("cause", logger.Sanitize(err.Error())),
			)
		}
	}
}

// Close shuts down every session and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[int64]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
