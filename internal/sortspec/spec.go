// Package sortspec compiles the operator-facing sort letters into an ordering
// over flight and itinerary records.
//
// Each letter names one field: f origin, t destination, d departure time,
// l landing time, w duration, p price, r remaining seats. Lowercase sorts
// ascending, uppercase descending, and the leftmost letter is the primary key.
package sortspec

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrInvalidSortSpec = errors.New("invalid sort spec")

// InvalidSortSpecError describes why a sort spec was rejected. Position is the
// zero-based character index of Char; it is -1 when the spec is empty.
type InvalidSortSpecError struct {
	Spec     string
	Char     rune
	Position int
}

func (e *InvalidSortSpecError) Error() string {
	if e.Position < 0 {
		return "invalid sort spec: empty"
	}
	return fmt.Sprintf("invalid sort spec %q: unsupported letter %q at position %d", e.Spec, e.Char, e.Position)
}

func (e *InvalidSortSpecError) Is(target error) bool {
	return target == ErrInvalidSortSpec
}

type FieldKey int

const (
	FieldOrigin FieldKey = iota + 1
	FieldDestination
	FieldDepartureTime
	FieldLandingTime
	FieldDuration
	FieldPrice
	FieldRemainingSeats
)

var fieldNames = map[FieldKey]string{
	FieldOrigin:         "origin",
	FieldDestination:    "destination",
	FieldDepartureTime:  "departureTime",
	FieldLandingTime:    "landingTime",
	FieldDuration:       "duration",
	FieldPrice:          "price",
	FieldRemainingSeats: "remainingSeats",
}

var letterFields = map[rune]FieldKey{
	'f': FieldOrigin,
	't': FieldDestination,
	'd': FieldDepartureTime,
	'l': FieldLandingTime,
	'w': FieldDuration,
	'p': FieldPrice,
	'r': FieldRemainingSeats,
}

func (f FieldKey) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FieldKey(%d)", int(f))
}

func (f FieldKey) letter() rune {
	for r, key := range letterFields {
		if key == f {
			return r
		}
	}
	return '?'
}

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

type Key struct {
	Field     FieldKey
	Direction Direction
}

// Parse turns a spec such as "dpR" into its keys, highest priority first.
// The result has one key per letter in input order.
func Parse(spec string) ([]Key, error) {
	if spec == "" {
		return nil, &InvalidSortSpecError{Spec: spec, Position: -1}
	}

	keys := make([]Key, 0, len(spec))
	pos := 0
	for _, ch := range spec {
		field, ok := letterFields[unicode.ToLower(ch)]
		if ch > unicode.MaxASCII || !ok {
			return nil, &InvalidSortSpecError{Spec: spec, Char: ch, Position: pos}
		}
		dir := Ascending
		if unicode.IsUpper(ch) {
			dir = Descending
		}
		keys = append(keys, Key{Field: field, Direction: dir})
		pos++
	}
	return keys, nil
}

// Format renders keys back into letter form.
func Format(keys []Key) string {
	var b strings.Builder
	for _, k := range keys {
		ch := k.Field.letter()
		if k.Direction == Descending {
			ch = unicode.ToUpper(ch)
		}
		b.WriteRune(ch)
	}
	return b.String()
}
