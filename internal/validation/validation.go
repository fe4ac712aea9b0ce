package validation

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/claudian37/lax-flights-dashboard/internal/aggregate"
)

// ErrHourNotInteger is returned when the hour parameter is not an integer.
var ErrHourNotInteger = errors.New("hour must be an integer")

// ErrHourOutOfRange is returned when the hour parameter is outside 0-23.
var ErrHourOutOfRange = errors.New("hour must be between 0 and 23")

// ErrTerminalTooLong is returned when the terminal label exceeds the maximum.
var ErrTerminalTooLong = errors.New("terminal label too long")

// ErrTerminalInvalidChars is returned when the terminal label contains
// disallowed characters.
var ErrTerminalInvalidChars = errors.New("terminal label contains invalid characters")

const maxTerminalLen = 16

// ParseHour parses an optional hour query parameter. An empty string
// means "no hour filter" and maps to aggregate.NoHour; otherwise the
// value must be an integer in 0-23 (hour 0 included).
func ParseHour(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return aggregate.NoHour, nil
	}
	hour, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrHourNotInteger
	}
	if hour < 0 || hour > 23 {
		return 0, ErrHourOutOfRange
	}
	return hour, nil
}

// ParseTerminal validates an optional terminal query parameter. An empty
// string means "no terminal filter". Labels are short alphanumerics in
// practice ("4", "B", "TBIT"); letters, digits, space and hyphen are
// allowed.
func ParseTerminal(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}
	r := []rune(s)
	if len(r) > maxTerminalLen {
		return "", ErrTerminalTooLong
	}
	for _, c := range r {
		if !isAllowedTerminalRune(c) {
			return "", ErrTerminalInvalidChars
		}
	}
	return s, nil
}

// isAllowedTerminalRune returns true for letters (Unicode), digits, space, hyphen.
func isAllowedTerminalRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', '-':
		return true
	}
	return false
}
