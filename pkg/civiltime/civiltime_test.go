package civiltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantUTC time.Time
		wantErr bool
	}{
		{
			name:    "zoneless_is_nairobi",
			input:   "2024-03-01 18:30:00",
			wantUTC: time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC),
		},
		{
			name:    "explicit_offset_kept",
			input:   "2024-03-01T18:30:00Z",
			wantUTC: time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC),
		},
		{
			name:    "slash_layout",
			input:   "03/01/2024 18:30",
			wantUTC: time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC),
		},
		{
			name:    "far_future_accepted",
			input:   "2099-01-01 00:00:00",
			wantUTC: time.Date(2098, 12, 31, 21, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "not a time",
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := Parse(testCase.input)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, testCase.wantUTC.Equal(got), "got %s", got)
			assert.Equal(t, Zone, got.Location())
		})
	}
}
