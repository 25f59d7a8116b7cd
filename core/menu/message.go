package menu

import (
	"time"
)

// UnsentID marks a message that was never successfully transmitted.
const UnsentID = -1

// DefaultTTL bounds the lifetime of application messages unless overridden.
const DefaultTTL = 12 * time.Minute

// ContentFunc produces the current text of a message. It may rebuild the
// keyboard through the message before returning.
type ContentFunc func() string

// Message is a single conversational screen. A menu message is rendered with
// a persistent reply keyboard and lives on the navigation stack; an
// application message is rendered with an inline keyboard and expires after
// its TTL. The mode is a capability flag, not a subtype.
type Message struct {
	label    string
	suffixed bool
	inlined  bool

	// Content produces the message text on every send and edit.
	Content ContentFunc
	// TextInput receives free text typed by the user while this message is
	// the most recently alive one. Optional.
	TextInput func(text string)
	// OnKill runs right before the message is deleted from the chat. Optional.
	OnKill func()

	// HomeAfter collapses the menu stack to the root after this message is sent.
	HomeAfter bool
	// Notify controls whether sends of this message ring the client.
	Notify bool
	// Picture is an optional attachment reference sent with the message.
	Picture string
	// TTL overrides the session default expiry period when non-zero.
	TTL time.Duration

	buttons []Button

	msgID        int
	createdAt    time.Time
	lastAliveAt  time.Time
	contentPrev  string
	keyboardPrev []string
}

// NewMenu builds a menu-mode message.
func NewMenu(label string, content ContentFunc) (*Message, error) {
	return newMessage(label, content, false)
}

// NewApp builds an application-mode (inline, TTL-bound) message.
func NewApp(label string, content ContentFunc) (*Message, error) {
	return newMessage(label, content, true)
}

func newMessage(label string, content ContentFunc, inlined bool) (*Message, error) {
	if err := validateLabel(label); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Message{
		label:       label,
		inlined:     inlined,
		Content:     content,
		Notify:      true,
		msgID:       UnsentID,
		createdAt:   now,
		lastAliveAt: now,
	}, nil
}

// Label returns the current (possibly suffixed) message label.
func (m *Message) Label() string { return m.label }

// Inlined reports whether this is an application-mode message.
func (m *Message) Inlined() bool { return m.inlined }

// MessageID returns the id assigned by the transport, or UnsentID.
func (m *Message) MessageID() int { return m.msgID }

// SetMessageID records the transport-assigned message id.
func (m *Message) SetMessageID(id int) { m.msgID = id }

// CreatedAt returns the construction timestamp.
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// LastAliveAt returns the last activity timestamp.
func (m *Message) LastAliveAt() time.Time { return m.lastAliveAt }

// MarkAlive refreshes the expiry clock.
func (m *Message) MarkAlive(now time.Time) { m.lastAliveAt = now }

// Expired reports whether the message outlived its TTL at the given instant.
// fallback applies when the message carries no TTL of its own.
func (m *Message) Expired(now time.Time, fallback time.Duration) bool {
	ttl := m.TTL
	if ttl <= 0 {
		ttl = fallback
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return m.lastAliveAt.Add(ttl).Before(now)
}

// ApplySuffix disambiguates the label with the triggering button label.
// Only the first call has any effect; later sends keep the suffixed label.
func (m *Message) ApplySuffix(trigger string) {
	if m.suffixed || trigger == "" {
		return
	}
	m.label = m.label + "_" + trigger
	m.suffixed = true
}

// AddButton appends a notify-kind button invoking the given handler.
func (m *Message) AddButton(label string, action Action) error {
	return m.Add(Button{Label: label, Action: action})
}

// Add appends a fully specified button to the keyboard.
func (m *Message) Add(b Button) error {
	if err := validateLabel(b.Label); err != nil {
		return err
	}
	for _, existing := range m.buttons {
		if existing.Label == b.Label {
			return ErrDuplicateLabel
		}
	}
	m.buttons = append(m.buttons, b)
	return nil
}

// ClearButtons empties the keyboard. Content producers that rebuild their
// keyboard on every render call this first.
func (m *Message) ClearButtons() {
	m.buttons = m.buttons[:0]
}

// Button returns the button with the given label.
func (m *Message) Button(label string) (Button, bool) {
	for _, b := range m.buttons {
		if b.Label == label {
			return b, true
		}
	}
	return Button{}, false
}

// Buttons returns a copy of the keyboard in insertion order.
func (m *Message) Buttons() []Button {
	out := make([]Button, len(m.buttons))
	copy(out, m.buttons)
	return out
}

// ButtonLabels returns the flattened ordered label list used for diffing.
func (m *Message) ButtonLabels() []string {
	labels := make([]string, len(m.buttons))
	for i, b := range m.buttons {
		labels[i] = b.Label
	}
	return labels
}

// RenderContent invokes the content producer, tolerating a nil hook.
func (m *Message) RenderContent() string {
	if m.Content == nil {
		return ""
	}
	return m.Content()
}

// Changed compares freshly rendered content and the current keyboard against
// the last-transmitted snapshot. It never mutates the snapshot; call
// Snapshot after the transport confirms the transmit.
func (m *Message) Changed(content string) bool {
	if content != m.contentPrev {
		return true
	}
	labels := m.ButtonLabels()
	if len(labels) != len(m.keyboardPrev) {
		return true
	}
	for i, l := range labels {
		if l != m.keyboardPrev[i] {
			return true
		}
	}
	return false
}

// Snapshot records the transmitted content and keyboard as an immutable
// value copy. Call only after a successful send or edit.
func (m *Message) Snapshot(content string) {
	m.contentPrev = content
	m.keyboardPrev = m.ButtonLabels()
}
