package evaluator

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a number the way tostring does (%.14g).
func FormatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 14, 64)
}

// ToNumber converts numbers and numeric strings.
func ToNumber(obj Object) (float64, bool) {
	switch o := obj.(type) {
	case *Number:
		return o.Value, true
	case *String:
		return ParseNumber(o.Value)
	}
	return 0, false
}

// ParseNumber accepts decimal and hexadecimal numerals with surrounding space.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	body := s
	if body[0] == '-' || body[0] == '+' {
		neg = body[0] == '-'
		body = body[1:]
	}
	if len(body) > 2 && (body[:2] == "0x" || body[:2] == "0X") {
		n, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		if neg {
			return -float64(n), true
		}
		return float64(n), true
	}
	// strconv accepts "inf", "nan" and underscores, which are not numerals here.
	lower := strings.ToLower(body)
	if strings.ContainsAny(lower, "_in") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseNumberBase parses an integer numeral in base 2..36.
func ParseNumberBase(s string, base int) (float64, bool) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

// ToString renders obj the way tostring does.
func ToString(obj Object) string {
	switch o := obj.(type) {
	case nil:
		return "nil"
	case *Builtin:
		return "function: builtin: " + o.Name
	default:
		return obj.Inspect()
	}
}
