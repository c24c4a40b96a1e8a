package frequency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Accepted(t *testing.T) {
	cases := map[string]int{
		"every 6 hours":    6,
		"every 1 hour":     1,
		"every 8 h":        8,
		"every day":        24,
		"every hour":       1,
		"every 5h":         5,
		"every 2 days":     48,
		"every 365 days":   MaxHours,
		"every 8760 hours": MaxHours,
		"every 1 day":      24,
		"3 times a day":    8,
		"5 times a day":    4,
		"1 times per day":  24,
		"2 times each day": 12,
		"24 times a day":   1,
		"EVERY 6 HOURS":    6,
		"Every 12   HOURS": 12,
		"3 TIMES A DAY":    8,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			f, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, want, f.Hours)
			assert.Nil(t, f.StartTime)
		})
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	a, errA := Parse("EVERY 6 HOURS")
	b, errB := Parse("every 6 hours")
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, b, a)
}

func TestParse_Rejected(t *testing.T) {
	cases := map[string]error{
		"lol no way":        ErrUnrecognized,
		"":                  ErrUnrecognized,
		"every":             ErrUnrecognized,
		"every week":        ErrUnrecognized,
		"every h":           ErrUnrecognized,
		"every six hours":   ErrUnrecognized,
		"every 6 weeks":     ErrUnrecognized,
		"every 6 hours now": ErrUnrecognized,
		"3 times":           ErrUnrecognized,
		"3 times a week":    ErrUnrecognized,
		"3 a day":           ErrUnrecognized,
		"-3 times a day":    ErrUnrecognized,
		"every 0 hours":     ErrZeroInterval,
		"every 0h":          ErrZeroInterval,
		"0 times a day":     ErrZeroInterval,
		"25 times a day":    ErrZeroInterval,

		"every 366 days":                  ErrUnrecognized,
		"every 8761 hours":                ErrUnrecognized,
		"every 8761h":                     ErrUnrecognized,
		"every 3000000 hours":             ErrUnrecognized,
		"every 768614336404564651 days":   ErrUnrecognized,
		"every 99999999999999999999 days": ErrUnrecognized,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestFrequency_String(t *testing.T) {
	assert.Equal(t, "every hour", Every(1).String())
	assert.Equal(t, "every 6 hours", Every(6).String())
	assert.Equal(t, "every day", Every(24).String())
	assert.Equal(t, "every 3 days", Every(72).String())
	assert.Equal(t, "every 30 hours", Every(30).String())
}

func TestParse_IntervalNeverOverflows(t *testing.T) {
	for _, in := range []string{"every 365 days", "every 8760 hours", "every 8760h"} {
		f, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Duration(MaxHours)*time.Hour, f.Interval(), in)
		assert.Positive(t, f.Interval(), in)
	}
}
