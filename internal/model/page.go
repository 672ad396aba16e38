package model

import "fmt"

// Direction selects the iteration order of a catalog enumeration.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// PageOptions describes one page of a catalog enumeration. It is parsed
// once per request and passed through unchanged; a zero Limit means the
// enumeration is unbounded.
type PageOptions struct {
	StartKey  string
	EndKey    string
	Direction Direction
	Limit     int
	Skip      int
}

// Validate checks the pagination invariants.
func (p PageOptions) Validate() error {
	switch p.Direction {
	case "", DirectionForward, DirectionReverse:
	default:
		return fmt.Errorf("invalid direction %q", p.Direction)
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", p.Limit)
	}
	if p.Skip < 0 {
		return fmt.Errorf("skip must be >= 0, got %d", p.Skip)
	}
	return nil
}

// Normalized returns a copy with the default direction filled in.
func (p PageOptions) Normalized() PageOptions {
	if p.Direction == "" {
		p.Direction = DirectionForward
	}
	return p
}
