package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants a raw cell can hold.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

// Value is a tagged union over the domain of raw tabular input: a string, a
// number, or missing. Representing cells this way keeps the reconciliation
// rules total functions instead of reflection over an untyped bag.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// String returns a string-valued cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a number-valued cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Missing returns the missing cell.
func Missing() Value { return Value{kind: KindMissing} }

// FromAny converts a decoded JSON value into a Value. Unsupported types are
// rendered through fmt to keep the mapping total.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Missing()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		if t {
			return Number(1)
		}
		return Number(0)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// AsString returns the string content when the cell holds text.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric content when the cell holds a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text renders the cell for pattern matching and CSV output. Missing cells
// render empty.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return ""
	}
}

// ParseNumber coerces the cell to a number. The second return reports whether
// the coercion succeeded; missing and unparseable text both fail.
func (v Value) ParseNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Record is one raw row: a mapping from column name to cell.
type Record map[string]Value

// RecordFromAny converts a decoded JSON object into a Record.
func RecordFromAny(m map[string]any) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		rec[k] = FromAny(v)
	}
	return rec
}
