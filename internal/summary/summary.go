// Package summary derives the small aggregates shown next to cached lists.
package summary

import (
	"slices"
	"time"

	"foundry/internal/domain"
)

const dateLayout = "2006-01-02"

type Progress struct {
	Completed int
	Total     int
	Percent   float64
}

// DailyProgress counts completed protocols. An empty day is 0%.
func DailyProgress(protocols []domain.Protocol) Progress {
	p := Progress{Total: len(protocols)}
	for _, pr := range protocols {
		if pr.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

// LatestMetrics keeps the newest reading per metric type. On equal dates the first
// reading seen wins.
func LatestMetrics(metrics []domain.HealthMetric) map[domain.MetricType]domain.HealthMetric {
	out := make(map[domain.MetricType]domain.HealthMetric)
	for _, m := range metrics {
		cur, ok := out[m.Type]
		if !ok || after(m.Date, cur.Date) {
			out[m.Type] = m
		}
	}
	return out
}

// MetricTypes returns the keys of latest in a stable order.
func MetricTypes(latest map[domain.MetricType]domain.HealthMetric) []domain.MetricType {
	types := make([]domain.MetricType, 0, len(latest))
	for t := range latest {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func after(a, b string) bool {
	ta, errA := time.Parse(dateLayout, a)
	tb, errB := time.Parse(dateLayout, b)
	if errA != nil || errB != nil {
		return a > b
	}
	return ta.After(tb)
}

// FilterBookings returns the bookings of type t, or all of them when t is empty.
func FilterBookings(bookings []domain.Booking, t domain.BookingType) []domain.Booking {
	if t == "" {
		return bookings
	}
	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Type == t {
			out = append(out, b)
		}
	}
	return out
}
