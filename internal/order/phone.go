package order

import (
	"fmt"
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+998\d{9}$`)

// NormalizePhone turns the accepted local spellings of an Uzbek number into
// +998XXXXXXXXX: 9 digits, 998 + 9 digits, or 0 + 9 digits. Separators are ignored.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	switch {
	case len(d) == 9:
		d = "998" + d
	case len(d) == 10 && d[0] == '0':
		d = "998" + d[1:]
	}
	out := "+" + d
	if !phoneRe.MatchString(out) {
		return "", fmt.Errorf("%w: phone must look like +998XXXXXXXXX", ErrValidation)
	}
	return out, nil
}
