// Package email derives human-readable requester names from email addresses
// for notifications, where only the address is known from the inbound mail.
package email

import (
	"strings"
	"unicode"
)

// DisplayName turns an address like "jane.smith@company.com" into
// "Jane Smith". Separators in the local part (dots, underscores, dashes,
// plus signs) split name segments; a single segment yields just that name.
// An unparseable address falls back to "Requester".
func DisplayName(addr string) string {
	local := addr
	if at := strings.IndexByte(addr, '@'); at > 0 {
		local = addr[:at]
	}

	segments := strings.FieldsFunc(local, func(r rune) bool {
		switch r {
		case '.', '_', '-', '+':
			return true
		}
		return false
	})
	if len(segments) == 0 {
		return "Requester"
	}

	for i, seg := range segments {
		segments[i] = title(seg)
	}
	return strings.Join(segments, " ")
}

func title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
