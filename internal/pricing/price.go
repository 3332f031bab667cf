package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("invalid price")

// ParsePrice accepts catalog prices as typed by admins ("1,250,000", "49 900", "12000.50")
// and returns whole currency units. Fractions are truncated.
func ParsePrice(s string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidPrice, s)
	}
	return d.Truncate(0).IntPart(), nil
}

// FormatPrice renders v with comma thousands separators.
func FormatPrice(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// NormalizePrice parses and re-formats a price string.
func NormalizePrice(s string) (string, error) {
	v, err := ParsePrice(s)
	if err != nil {
		return "", err
	}
	return FormatPrice(v), nil
}
