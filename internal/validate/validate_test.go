package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"valid uuid", "123e4567-e89b-12d3-a456-426614174000", true},
		{"not a uuid", "not-a-uuid", false},
		{"empty", "", false},
		{"uppercase rejected", "123E4567-E89B-12D3-A456-426614174000", false},
		{"missing hyphens", "123e4567e89b12d3a456426614174000", false},
		{"too long", "123e4567-e89b-12d3-a456-426614174000x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SessionID(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSessionID)
			}
		})
	}
}

func TestCoordinates(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.NoError(t, Coordinates(f(40.7), f(-74.0)))
	assert.NoError(t, Coordinates(f(0), f(0)))

	assert.Error(t, Coordinates(nil, f(-74.0)))
	assert.Error(t, Coordinates(f(40.7), nil))
	assert.Error(t, Coordinates(f(91), f(0)))
	assert.Error(t, Coordinates(f(0), f(181)))
	assert.Error(t, Coordinates(f(-91), f(0)))
}
