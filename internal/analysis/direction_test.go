package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirection(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		stopID   string
		expected Direction
		wantErr  bool
	}{
		{
			name:     "Northbound platform",
			stopID:   "B06N",
			expected: Northbound,
		},
		{
			name:     "Southbound platform",
			stopID:   "B06S",
			expected: Southbound,
		},
		{
			name:     "Other station still resolves",
			stopID:   "F09N",
			expected: Northbound,
		},
		{
			name:    "Unrecognized trailing letter",
			stopID:  "B06X",
			wantErr: true,
		},
		{
			name:    "Numeric suffix",
			stopID:  "B061",
			wantErr: true,
		},
		{
			name:    "Empty stop id",
			stopID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := cfg.ResolveDirection(tt.stopID)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedStopID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dir)
		})
	}
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "Northbound", Northbound.String())
	assert.Equal(t, "Southbound", Southbound.String())
	assert.Equal(t, "E", Direction("E").String())
}
