package menu

import (
	"fmt"
	"strings"
)

// FormatListToHTML renders a list of rows as Telegram HTML. The first element
// of a row is emphasized; a second element is appended as "label: value".
// Rows may be plain strings or [2]string pairs.
func FormatListToHTML(rows []any) string {
	var sb strings.Builder
	for _, row := range rows {
		switch v := row.(type) {
		case [2]string:
			sb.WriteString("<b>")
			sb.WriteString(EscapeHTML(v[0]))
			sb.WriteString("</b>")
			if v[1] != "" {
				sb.WriteString(": ")
				sb.WriteString(EscapeHTML(v[1]))
			}
		case string:
			sb.WriteString("<b>")
			sb.WriteString(EscapeHTML(v))
			sb.WriteString("</b>")
		default:
			sb.WriteString(EscapeHTML(fmt.Sprint(v)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats
// specially.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
