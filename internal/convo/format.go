package convo

import "strings"

// FormatHistory renders messages as a single transcript string, one
// "<role>: <content>\n" line per message in sequence order. Every entry
// carries a trailing newline, including the last one; callers rely on that
// when estimating token load over the rendered transcript. Empty input
// yields the empty string.
func FormatHistory(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// WithoutRole returns the messages whose role differs from the given one,
// preserving order. Used to hide system entries from the /history view.
func WithoutRole(messages []Message, role string) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != role {
			out = append(out, m)
		}
	}
	return out
}
