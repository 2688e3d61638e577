package sortspec

import (
	"slices"
	"strings"
	"time"
)

// Sortable is implemented by records that can be ordered by a sort spec.
type Sortable interface {
	SortValue(field FieldKey) Value
}

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindTime
)

// Value is a field value with its natural ordering.
type Value struct {
	kind valueKind
	s    string
	n    int64
	t    time.Time
}

func String(s string) Value { return Value{kind: kindString, s: s} }
func Int(n int64) Value { return Value{kind: kindInt, n: n} }
func Time(t time.Time) Value { return Value{kind: kindTime, t: t} }

func (v Value) Compare(o Value) int {
	switch v.kind {
	case kindInt:
		switch {
		case v.n < o.n:
			return -1
		case v.n > o.n:
			return 1
		}
		return 0
	case kindTime:
		return v.t.Compare(o.t)
	default:
		return strings.Compare(v.s, o.s)
	}
}

// BuildComparator returns a three-way comparison over keys in priority order.
// A field repeated later in keys is ignored; its first occurrence decides.
func BuildComparator[T Sortable](keys []Key) func(a, b T) int {
	seen := make(map[FieldKey]bool, len(keys))
	effective := make([]Key, 0, len(keys))
	for _, k := range keys {
		if seen[k.Field] {
			continue
		}
		seen[k.Field] = true
		effective = append(effective, k)
	}

	return func(a, b T) int {
		for _, k := range effective {
			c := a.SortValue(k.Field).Compare(b.SortValue(k.Field))
			if c == 0 {
				continue
			}
			if k.Direction == Descending {
				return -c
			}
			return c
		}
		return 0
	}
}

// Sort returns a stably ordered copy of records; records itself is left untouched.
func Sort[T any](records []T, cmp func(a, b T) int) []T {
	out := make([]T, len(records))
	copy(out, records)
	slices.SortStableFunc(out, cmp)
	return out
}
