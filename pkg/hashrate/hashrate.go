// Package hashrate converts between the pool's unit-suffixed hashrate text
// (e.g. "6.2M", "340M", "0") and plain hashes-per-second values.
package hashrate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrSyntax indicates the numeric part is not a base-10 number.
	ErrSyntax = errors.New("invalid hashrate syntax")

	// ErrNegative indicates the text decoded to a negative value.
	ErrNegative = errors.New("negative hashrate")

	// ErrRange indicates the value does not fit in a float64.
	ErrRange = errors.New("hashrate out of range")
)

// ParseError reports a hashrate string that could not be decoded.
type ParseError struct {
	// Text is the offending numeric substring (suffix already removed).
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("hashrate %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type unit struct {
	suffix     string
	multiplier float64
}

// units is ordered by ascending multiplier.
var units = []unit{
	{"", 1},
	{"K", 1e3},
	{"M", 1e6},
	{"G", 1e9},
	{"T", 1e12},
	{"P", 1e15},
	{"E", 1e18},
}

// Multiplier returns the scale factor for a suffix letter (case-insensitive).
func Multiplier(suffix rune) (float64, bool) {
	switch suffix {
	case 'K', 'k':
		return 1e3, true
	case 'M', 'm':
		return 1e6, true
	case 'G', 'g':
		return 1e9, true
	case 'T', 't':
		return 1e12, true
	case 'P', 'p':
		return 1e15, true
	case 'E', 'e':
		return 1e18, true
	}
	return 0, false
}

// Decode parses a unit-suffixed hashrate into hashes per second.
// Empty, whitespace-only and "0" inputs decode to 0.
func Decode(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" || s == "0" {
		return 0, nil
	}

	number, multiplier := s, 1.0
	if m, ok := Multiplier(rune(s[len(s)-1])); ok {
		number, multiplier = s[:len(s)-1], m
	}

	if !isDecimal(number) {
		return 0, &ParseError{Text: number, Err: ErrSyntax}
	}

	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ParseError{Text: number, Err: ErrRange}
		}
		return 0, &ParseError{Text: number, Err: ErrSyntax}
	}
	if v < 0 {
		return 0, &ParseError{Text: number, Err: ErrNegative}
	}

	h := v * multiplier
	if math.IsInf(h, 0) {
		return 0, &ParseError{Text: number, Err: ErrRange}
	}
	if h == 0 {
		// normalizes -0
		return 0, nil
	}
	return h, nil
}

// isDecimal rejects forms strconv accepts but the pool never emits
// (hex floats, underscores, Inf, NaN).
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	digits := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return digits
}

// Format renders h in the pool's convention with three significant digits.
func Format(h float64) string {
	return FormatPrecision(h, 3)
}

// FormatPrecision renders h with the largest suffix not exceeding it and the
// given number of significant digits. Non-positive and non-finite values
// render as "0".
func FormatPrecision(h float64, digits int) string {
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return "0"
	}
	if digits < 1 {
		digits = 1
	}

	i := 0
	for i < len(units)-1 && h >= units[i+1].multiplier {
		i++
	}

	scaled := roundSignificant(h/units[i].multiplier, digits)
	if scaled >= 1000 && i < len(units)-1 {
		i++
		scaled = roundSignificant(h/units[i].multiplier, digits)
	}

	return strconv.FormatFloat(scaled, 'f', -1, 64) + units[i].suffix
}

func roundSignificant(v float64, digits int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', digits, 64), 64)
	if err != nil {
		return v
	}
	return r
}
