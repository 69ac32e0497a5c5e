// Package email normalizes firm email addresses and derives display names from them.
package email

import (
	"strings"
	"unicode"
)

// Normalize lowercases and trims addr. ok is false when addr has no local part
// or no domain.
func Normalize(addr string) (normalized string, ok bool) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	at := strings.IndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 || strings.Count(addr, "@") != 1 {
		return "", false
	}
	return addr, true
}

// DisplayName builds a name from the local part: "jane.o-doe@firm.test" becomes
// "Jane O Doe".
func DisplayName(addr string) string {
	localPart := addr
	if at := strings.IndexByte(addr, '@'); at > 0 {
		localPart = addr[:at]
	}
	if plus := strings.IndexByte(localPart, '+'); plus > 0 {
		localPart = localPart[:plus]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return "User"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
