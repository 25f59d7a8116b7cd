package menu

import "strings"

// MarkupButton is one rendered keyboard cell, transport neutral.
type MarkupButton struct {
	Text string
	// Data carries the callback token for inline buttons.
	Data string
	// URL is set for link buttons.
	URL string
	// WebApp is set for web-app opener buttons.
	WebApp string
}

// Markup is a rendered keyboard snapshot handed to the transport.
type Markup struct {
	Inline bool
	Rows   [][]MarkupButton
}

// Token builds the wire format correlating an inline button press back to a
// tracked message: "<messageLabel>##<buttonLabel>".
func Token(messageLabel, buttonLabel string) string {
	return messageLabel + Separator + buttonLabel
}

// SplitToken splits a callback token on the first separator occurrence.
func SplitToken(token string) (messageLabel, buttonLabel string, ok bool) {
	idx := strings.Index(token, Separator)
	if idx < 0 {
		return "", "", false
	}
	return token[:idx], token[idx+len(Separator):], true
}

const (
	replyButtonsPerRow       = 2
	inlineButtonsPerRow      = 5
	inlineButtonsPerRowDense = 4
	inlineDenseThreshold     = 5
)

// Markup lays the keyboard out as a row/column grid. perRow overrides the
// default density when > 0. Menu messages render reply keyboards; application
// messages render inline keyboards whose cells carry callback tokens.
func (m *Message) Markup(perRow int) *Markup {
	if len(m.buttons) == 0 {
		return nil
	}
	if perRow <= 0 {
		if m.inlined {
			perRow = inlineButtonsPerRow
			if len(m.buttons) > inlineDenseThreshold {
				perRow = inlineButtonsPerRowDense
			}
		} else {
			perRow = replyButtonsPerRow
		}
	}

	mk := &Markup{Inline: m.inlined}
	var row []MarkupButton
	for _, b := range m.buttons {
		cell := MarkupButton{Text: b.Label}
		if m.inlined {
			switch {
			case b.Kind == KindLink && b.WebApp != "":
				cell.WebApp = b.WebApp
			case b.Kind == KindLink:
				cell.URL = b.URL
			default:
				cell.Data = Token(m.label, b.Label)
			}
		}
		row = append(row, cell)
		if len(row) == perRow {
			mk.Rows = append(mk.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		mk.Rows = append(mk.Rows, row)
	}
	return mk
}
