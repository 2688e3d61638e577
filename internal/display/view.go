package display

import (
	"fmt"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/sortspec"
)

// FlightView is a flight annotated for rendering.
type FlightView struct {
	domain.Flight
	DurationHours string `json:"durationHours"`
}

func (v FlightView) SortValue(field sortspec.FieldKey) sortspec.Value {
	switch field {
	case sortspec.FieldOrigin:
		return sortspec.String(v.Origin)
	case sortspec.FieldDestination:
		return sortspec.String(v.Destination)
	case sortspec.FieldDepartureTime:
		return sortspec.Time(v.DepartureTime)
	case sortspec.FieldLandingTime:
		return sortspec.Time(v.LandingTime)
	case sortspec.FieldDuration:
		return sortspec.Int(v.DurationSeconds)
	case sortspec.FieldPrice:
		return sortspec.Int(v.PriceCents)
	case sortspec.FieldRemainingSeats:
		return sortspec.Int(int64(v.RestCabin))
	}
	panic(fmt.Sprintf("display: no sort value for %s", field))
}

// PlanView is an itinerary annotated for rendering.
type PlanView struct {
	Legs []FlightView `json:"flights"`
	Summary
}

func (v PlanView) SortValue(field sortspec.FieldKey) sortspec.Value {
	first, last := v.Legs[0], v.Legs[len(v.Legs)-1]
	switch field {
	case sortspec.FieldOrigin:
		return sortspec.String(first.Origin)
	case sortspec.FieldDestination:
		return sortspec.String(last.Destination)
	case sortspec.FieldDepartureTime:
		return sortspec.Time(first.DepartureTime)
	case sortspec.FieldLandingTime:
		return sortspec.Time(last.LandingTime)
	case sortspec.FieldDuration:
		return sortspec.Int(v.TotalDurationSeconds)
	case sortspec.FieldPrice:
		return sortspec.Int(v.TotalPriceCents)
	case sortspec.FieldRemainingSeats:
		seats := first.RestCabin
		for _, leg := range v.Legs[1:] {
			seats = min(seats, leg.RestCabin)
		}
		return sortspec.Int(int64(seats))
	}
	panic(fmt.Sprintf("display: no sort value for %s", field))
}

func AnnotateFlight(f domain.Flight) (FlightView, error) {
	hours, err := ToDisplayHours(f.DurationSeconds)
	if err != nil {
		return FlightView{}, fmt.Errorf("flight %s: %w", f.FlightNo, err)
	}
	return FlightView{Flight: f, DurationHours: hours}, nil
}

// AnnotateFlights annotates every flight; the first failure aborts the batch.
func AnnotateFlights(flights []domain.Flight) ([]FlightView, error) {
	views := make([]FlightView, 0, len(flights))
	for _, f := range flights {
		v, err := AnnotateFlight(f)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func AnnotatePlan(p domain.Plan) (PlanView, error) {
	summary, err := Aggregate(p.Legs)
	if err != nil {
		return PlanView{}, err
	}
	legs, err := AnnotateFlights(p.Legs)
	if err != nil {
		return PlanView{}, err
	}
	return PlanView{Legs: legs, Summary: summary}, nil
}

func AnnotatePlans(plans []domain.Plan) ([]PlanView, error) {
	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		v, err := AnnotatePlan(p)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// SortFlights orders annotated flights by an already parsed spec.
func SortFlights(views []FlightView, keys []sortspec.Key) []FlightView {
	return sortspec.Sort(views, sortspec.BuildComparator[FlightView](keys))
}

func SortPlans(views []PlanView, keys []sortspec.Key) []PlanView {
	return sortspec.Sort(views, sortspec.BuildComparator[PlanView](keys))
}
