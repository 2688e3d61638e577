package domain

// Plan is an ordered sequence of connecting legs.
type Plan struct {
	Legs []Flight `json:"flights"`
}

func (p Plan) Origin() string {
	if len(p.Legs) == 0 {
		return ""
	}
	return p.Legs[0].Origin
}

func (p Plan) Destination() string {
	if len(p.Legs) == 0 {
		return ""
	}
	return p.Legs[len(p.Legs)-1].Destination
}
