package navigation

import "errors"

var (
	// ErrNoRootFactory is returned when a registry is built without a root
	// menu factory.
	ErrNoRootFactory = errors.New("navigation: root menu factory is required")
	// ErrInvalidRoot is returned when the root factory produces something
	// other than a menu-mode message.
	ErrInvalidRoot = errors.New("navigation: root factory must produce a menu message")
	// ErrNoTransport is returned when a session is built without a transport.
	ErrNoTransport = errors.New("navigation: transport is required")
	// ErrNoScheduler is returned when a session is built without a scheduler.
	ErrNoScheduler = errors.New("navigation: scheduler is required")
	// ErrNoSession is returned by registry lookups for unknown conversations.
	ErrNoSession = errors.New("navigation: no session for chat")
)
