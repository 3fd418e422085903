package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryBeforeSave_DerivesPeriodFromDate(t *testing.T) {
	tests := []struct {
		name         string
		date         time.Time
		presetPeriod string
		want         string
	}{
		{
			name: "empty period is filled in",
			date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			want: "202603",
		},
		{
			name:         "mismatching period is overwritten",
			date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			presetPeriod: "202512",
			want:         "202603",
		},
		{
			name: "single-digit month is zero padded",
			date: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			want: "202601",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Date:       tt.date,
				Period:     tt.presetPeriod,
				UserID:     1,
				CourtierID: 1,
				Minutes:    30,
				ActeType:   ActeProduction,
			}

			require.NoError(t, entry.BeforeSave(nil))
			assert.Equal(t, tt.want, entry.Period)
		})
	}
}

func TestActeTypeValid(t *testing.T) {
	for _, acte := range ActeTypes() {
		assert.True(t, acte.Valid(), "acte %q", acte)
	}
	assert.False(t, ActeType("Autre").Valid())
	assert.False(t, ActeType("").Valid())
}
