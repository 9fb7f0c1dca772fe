package validate

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidSessionID   = errors.New("invalid session ID")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Session IDs are lowercase hex UUID strings, 36 characters with hyphens.
var sessionIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func SessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return ErrInvalidSessionID
	}
	return nil
}

// Coordinates checks that lat/lng were supplied and fall in range.
// Handlers bind them as pointers so a missing field is distinguishable
// from a literal zero.
func Coordinates(lat, lng *float64) error {
	if lat == nil || lng == nil {
		return ErrInvalidCoordinates
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
