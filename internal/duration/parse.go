// Package duration parses the timeout values accepted in request settings.
// On top of the stdlib forms it understands d (days) and w (weeks), alone or
// mixed with smaller units, with optional whitespace between segments.
package duration

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var unitScale = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
}

const overflowLimit = float64(math.MaxInt64)

// Parse reports the duration and whether the input was a valid value.
func Parse(value string) (time.Duration, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		fallthrough
	case '+':
		s = strings.TrimSpace(s[1:])
	}

	var total float64
	segments := 0
	for s != "" {
		part, rest, ok := nextSegment(s)
		if !ok {
			return 0, false
		}
		total += part
		if math.IsNaN(total) || math.Abs(total) > overflowLimit {
			return 0, false
		}
		segments++
		s = strings.TrimSpace(rest)
	}
	if segments == 0 {
		return 0, false
	}

	if negative {
		total = -total
	}
	return time.Duration(math.Round(total)), true
}

// nextSegment consumes one "<number><unit>" pair from the front of s.
func nextSegment(s string) (float64, string, bool) {
	i := 0
	sawDigit, sawDot := false, false
	for i < len(s) {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			sawDigit = true
		case c == '.' && !sawDot:
			sawDot = true
		default:
			goto number
		}
		i++
	}
number:
	if !sawDigit {
		return 0, "", false
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", false
	}

	j := i
	for j < len(s) && isAlpha(s[j]) {
		j++
	}
	scale, ok := unitScale[strings.ToLower(s[i:j])]
	if !ok {
		return 0, "", false
	}
	return n * float64(scale), s[j:], true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
