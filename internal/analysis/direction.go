package analysis

import (
	"errors"
	"fmt"
)

// Direction is the derived travel direction of an arrival.
type Direction string

const (
	Northbound Direction = "N"
	Southbound Direction = "S"
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case Northbound:
		return "Northbound"
	case Southbound:
		return "Southbound"
	default:
		return string(d)
	}
}

// ErrMalformedStopID is returned when a stop id does not end in a recognized
// direction letter. Such records are excluded from all downstream computation
// and counted, never folded into a direction.
var ErrMalformedStopID = errors.New("malformed stop id")

// ResolveDirection derives the travel direction from the trailing letter of
// the stop id. The platform suffix is deliberately the only direction source:
// the direction_id field in the raw feed encodes direction per-route rather
// than geographically, while the suffix ("B06N"/"B06S") is stable across the
// whole dataset. If the upstream format ever changes, this function is the
// single place to revisit.
func (c Config) ResolveDirection(stopID string) (Direction, error) {
	if stopID == "" {
		return "", fmt.Errorf("%w: empty stop id", ErrMalformedStopID)
	}
	letter := stopID[len(stopID)-1:]
	dir, ok := c.DirectionLetters[letter]
	if !ok {
		return "", fmt.Errorf("%w: %q does not end in a recognized direction letter", ErrMalformedStopID, stopID)
	}
	return dir, nil
}
