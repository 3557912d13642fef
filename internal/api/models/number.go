package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when a Number holds a value that is not a finite number.
var ErrNotNumeric = errors.New("value is not numeric")

// Number is a numeric payload field that remembers whether it was supplied.
// It accepts JSON numbers and numeric strings. JSON null counts as not supplied.
type Number struct {
	raw json.RawMessage
	set bool
}

// NewNumber returns a supplied Number holding v, for building requests in code.
func NewNumber(v float64) Number {
	return Number{raw: json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64)), set: true}
}

// UnmarshalJSON implements json.Unmarshaler for Number.
func (n *Number) UnmarshalJSON(data []byte) error {
	n.raw = append(n.raw[:0], data...)
	n.set = true
	return nil
}

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.IsSet() {
		return []byte("null"), nil
	}
	return n.raw, nil
}

// IsSet reports whether a non-null value was supplied.
func (n Number) IsSet() bool {
	if !n.set {
		return false
	}
	trimmed := bytes.TrimSpace(n.raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Float64 returns the supplied value as a finite float64.
func (n Number) Float64() (float64, error) {
	if !n.IsSet() {
		return 0, ErrNotNumeric
	}

	text := string(bytes.TrimSpace(n.raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(n.raw, &s); err != nil {
			return 0, ErrNotNumeric
		}
		text = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotNumeric
	}
	return v, nil
}
