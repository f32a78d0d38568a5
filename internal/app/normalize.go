package app

import "strings"

const trailingPunctuation = "?.,!"

// NormalizeQuestion canonicalizes a question for FAQ cache lookups: trim,
// lowercase, and strip trailing punctuation. Stripping repeats until stable
// so mixed runs of punctuation and whitespace cannot survive at the end,
// which keeps the function idempotent.
func NormalizeQuestion(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for {
		t := strings.TrimSpace(strings.TrimRight(s, trailingPunctuation))
		if t == s {
			return s
		}
		s = t
	}
}

// DeriveTitle names a new conversation after its first message: the first
// five whitespace-separated tokens, with "..." appended when the message is
// longer.
func DeriveTitle(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) > 5 {
		return strings.Join(tokens[:5], " ") + "..."
	}
	return strings.TrimSpace(text)
}
