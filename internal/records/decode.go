// Package records decodes raw flight records, as exported by the console or
// bulk import files, into domain flights.
package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidField
}

// DecodeFlights decodes a JSON array of raw records. A bad record aborts the
// whole batch and the error names its index.
func DecodeFlights(data []byte) ([]domain.Flight, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	flights := make([]domain.Flight, 0, len(raw))
	for i, r := range raw {
		f, err := DecodeFlight(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		flights = append(flights, f)
	}
	return flights, nil
}

// DecodeFlight builds a flight from one raw record. Timestamps are accepted as
// epoch seconds or RFC 3339 strings; price is in currency units.
func DecodeFlight(raw map[string]any) (domain.Flight, error) {
	r := reader{raw: raw}

	f := domain.Flight{
		ID:            r.optionalInt("id"),
		FlightNo:      r.string("flightNo"),
		AirlineName:   r.string("airlineName"),
		DepartureTime: r.time("departureTime"),
		LandingTime:   r.time("landingTime"),
		Origin:        r.string("origin"),
		Destination:   r.string("destination"),
		Stops:         r.stringList("stops"),
		Layovers:      r.intList("layovers"),
		TotalCabin:    int(r.int("totalCabin")),
		RestCabin:     int(r.int("restCabin")),
		PriceCents:    r.cents("price"),
		State:         domain.FlightState(r.optionalString("state")),
	}
	if r.err != nil {
		return domain.Flight{}, r.err
	}

	if f.State == "" {
		f.State = domain.FlightStateBooking
	}
	if !f.State.Valid() {
		return domain.Flight{}, &InvalidFieldError{Field: "state", Reason: fmt.Sprintf("unknown state %q", f.State)}
	}
	if f.RestCabin > f.TotalCabin {
		return domain.Flight{}, &InvalidFieldError{Field: "restCabin", Reason: "exceeds totalCabin"}
	}
	if _, ok := raw["duration"]; ok {
		f.DurationSeconds = r.int("duration")
		if r.err != nil {
			return domain.Flight{}, r.err
		}
	} else {
		f.DurationSeconds = f.FlightSeconds()
	}
	if f.DurationSeconds < 0 {
		return domain.Flight{}, &InvalidFieldError{Field: "duration", Reason: "negative"}
	}
	return f, nil
}

// reader keeps the first error so a record can be decoded field by field.
type reader struct {
	raw map[string]any
	err error
}

func (r *reader) get(field string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.raw[field]
	if !ok || v == nil {
		r.err = &MissingFieldError{Field: field}
		return nil, false
	}
	return v, true
}

func (r *reader) fail(field, reason string) {
	if r.err == nil {
		r.err = &InvalidFieldError{Field: field, Reason: reason}
	}
}

func (r *reader) string(field string) string {
	v, ok := r.get(field)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(field, "expected string")
	}
	return s
}

func (r *reader) optionalString(field string) string {
	if _, ok := r.raw[field]; !ok {
		return ""
	}
	return r.string(field)
}

func (r *reader) number(field string) (float64, bool) {
	v, ok := r.get(field)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			r.fail(field, err.Error())
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	r.fail(field, "expected number")
	return 0, false
}

// int reads integral values exactly; only fractional or exponent forms go
// through float64.
func (r *reader) int(field string) int64 {
	v, ok := r.get(field)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	case int:
		return int64(n)
	case int64:
		return n
	}

	f, ok := r.number(field)
	if !ok {
		return 0
	}
	if f != math.Trunc(f) {
		r.fail(field, "expected integer")
		return 0
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		r.fail(field, "out of range")
		return 0
	}
	return int64(f)
}

func (r *reader) optionalInt(field string) int64 {
	if _, ok := r.raw[field]; !ok {
		return 0
	}
	return r.int(field)
}

func (r *reader) cents(field string) int64 {
	f, ok := r.number(field)
	if !ok {
		return 0
	}
	if f < 0 {
		r.fail(field, "negative")
		return 0
	}
	if f*100 >= math.MaxInt64 {
		r.fail(field, "out of range")
		return 0
	}
	return int64(math.Round(f * 100))
}

func (r *reader) time(field string) time.Time {
	v, ok := r.get(field)
	if !ok {
		return time.Time{}
	}
	if s, ok := v.(string); ok {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			r.fail(field, err.Error())
		}
		return t
	}
	secs := r.int(field)
	return time.Unix(secs, 0).UTC()
}

func (r *reader) stringList(field string) []string {
	v, ok := r.raw[field]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(field, "expected list")
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			r.fail(field, "expected list of strings")
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (r *reader) intList(field string) []int64 {
	v, ok := r.raw[field]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(field, "expected list")
		return nil
	}
	out := make([]int64, 0, len(items))
	for i, item := range items {
		elem := fmt.Sprintf("%s[%d]", field, i)
		sub := reader{raw: map[string]any{elem: item}}
		n := sub.int(elem)
		if sub.err != nil {
			if r.err == nil {
				r.err = sub.err
			}
			return nil
		}
		out = append(out, n)
	}
	return out
}
