package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/internal/domain/frequency"
	"medibot/internal/domain/medications"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func med(hours int, lastTaken *time.Time) medications.Medication {
	return medications.Medication{
		MedicineName: "Ibuprofen",
		Dosage:       "200mg",
		Frequency:    frequency.Every(hours),
		LastTaken:    lastTaken,
	}
}

func TestCanTake_NeverTaken(t *testing.T) {
	assert.True(t, CanTake(med(6, nil), t0))
	assert.Nil(t, NextDose(med(6, nil)))
}

func TestCanTake_BoundaryForEveryInterval(t *testing.T) {
	for _, h := range []int{1, 2, 4, 6, 8, 12, 24, 48, 72, frequency.MaxHours} {
		t.Run(fmt.Sprintf("%dh", h), func(t *testing.T) {
			last := t0
			m := med(h, &last)
			boundary := t0.Add(time.Duration(h) * time.Hour)

			assert.False(t, CanTake(m, boundary.Add(-time.Second)))
			assert.True(t, CanTake(m, boundary))
			assert.True(t, CanTake(m, boundary.Add(time.Second)))
		})
	}
}

func TestNextEligibleIn(t *testing.T) {
	last := t0
	m := med(6, &last)

	assert.Equal(t, "now", NextEligibleIn(med(6, nil), t0))
	assert.Equal(t, "now", NextEligibleIn(m, t0.Add(6*time.Hour)))
	assert.Equal(t, "in 5 hours and 30 minutes", NextEligibleIn(m, t0.Add(30*time.Minute)))
	assert.Equal(t, "in 1 hours and 0 minutes", NextEligibleIn(m, t0.Add(5*time.Hour)))
	assert.Equal(t, "in 45 minutes", NextEligibleIn(m, t0.Add(5*time.Hour+15*time.Minute)))
	assert.Equal(t, "in 0 minutes", NextEligibleIn(m, t0.Add(6*time.Hour-time.Second)))
}

func TestRenderLastTaken(t *testing.T) {
	last := t0
	m := med(6, &last)

	assert.Equal(t, "not yet", RenderLastTaken(med(6, nil), t0, time.UTC))
	assert.Equal(t, "just now", RenderLastTaken(m, t0.Add(30*time.Second), time.UTC))
	assert.Equal(t, "just now", RenderLastTaken(m, t0.Add(-time.Minute), time.UTC))
	assert.Equal(t, "12 minutes ago", RenderLastTaken(m, t0.Add(12*time.Minute), time.UTC))
	assert.Equal(t, "3 hours ago", RenderLastTaken(m, t0.Add(3*time.Hour+20*time.Minute), time.UTC))
	assert.Equal(t, "23 hours ago", RenderLastTaken(m, t0.Add(24*time.Hour-time.Second), time.UTC))
	assert.Equal(t, "2024-05-01 08:00 UTC", RenderLastTaken(m, t0.Add(24*time.Hour), time.UTC))
}

func TestRenderLastTaken_UsesTimezoneForAbsolute(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	last := t0
	assert.Equal(t, "2024-05-01 17:00 JST", RenderLastTaken(med(6, &last), t0.Add(48*time.Hour), loc))
	assert.Equal(t, "2024-05-01 08:00 UTC", RenderAbsolute(t0, nil))
}

func TestSummary(t *testing.T) {
	last := t0
	got := Summary(med(6, &last), t0.Add(2*time.Hour), time.UTC)
	assert.Equal(t, "Ibuprofen (200mg) - every 6 hours. Last taken: 2 hours ago. Can take next: in 4 hours and 0 minutes 🙅.", got)

	got = Summary(med(24, nil), t0, time.UTC)
	assert.Equal(t, "Ibuprofen (200mg) - every day. Last taken: not yet. Can take next: now ✅.", got)
}
