package telegram

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// The wire encoding is CP932 (Microsoft's Shift-JIS variant); x/text's
// ShiftJIS codec implements exactly that table.

// decodeField decodes one fixed-width field and strips its space padding.
// The decoder substitutes U+FFFD for byte sequences outside the CP932
// table; CP932 itself cannot encode U+FFFD, so its presence always means
// the input was invalid.
func decodeField(b []byte) (string, bool) {
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return "", false
	}
	s := string(decoded)
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", false
	}
	return strings.TrimSpace(s), true
}
