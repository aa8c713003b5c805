package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/domain"
)

func TestDailyProgress(t *testing.T) {
	p := DailyProgress([]domain.Protocol{
		{ID: 1, Completed: true},
		{ID: 2},
		{ID: 3},
		{ID: 4, Completed: true},
	})
	assert.Equal(t, Progress{Completed: 2, Total: 4, Percent: 50}, p)
}

func TestDailyProgressEmptyDay(t *testing.T) {
	assert.Equal(t, Progress{}, DailyProgress(nil))
}

func TestLatestMetricsNewestDateWins(t *testing.T) {
	latest := LatestMetrics([]domain.HealthMetric{
		{ID: 1, Type: domain.MetricSleep, Value: 6.5, Date: "2026-10-17"},
		{ID: 2, Type: domain.MetricSleep, Value: 7.9, Date: "2026-10-18"},
		{ID: 3, Type: domain.MetricHRV, Value: 61, Date: "2026-10-18"},
		{ID: 4, Type: domain.MetricSleep, Value: 8.2, Date: "2026-10-16"},
		{ID: 5, Type: domain.MetricHRV, Value: 70, Date: "2026-10-18"},
	})
	require.Len(t, latest, 2)
	assert.Equal(t, int64(2), latest[domain.MetricSleep].ID)
	assert.Equal(t, int64(3), latest[domain.MetricHRV].ID, "ties keep the first reading")
	assert.Equal(t, []domain.MetricType{domain.MetricHRV, domain.MetricSleep}, MetricTypes(latest))
}

func TestFilterBookings(t *testing.T) {
	bookings := []domain.Booking{
		{ID: 1, Type: domain.BookingTraining},
		{ID: 2, Type: domain.BookingRecovery},
		{ID: 3, Type: domain.BookingTraining},
	}
	got := FilterBookings(bookings, domain.BookingTraining)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Len(t, FilterBookings(bookings, ""), 3)
	assert.Empty(t, FilterBookings(bookings, domain.BookingSpecialist))
}
