package notification

import "strings"

// rupeeSign is the one non-ASCII glyph allowed through to the mail transport.
const rupeeSign = '₹'

// SanitizeForTransport strips runes outside the printable ASCII range so a
// strict SMTP relay cannot reject the message. Newlines, tabs and the rupee
// sign survive.
func SanitizeForTransport(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r >= 0x20 && r <= 0x7e:
			b.WriteRune(r)
		case r == rupeeSign:
			b.WriteRune(r)
		}
	}
	return b.String()
}
