package app

import (
	"context"

	"foundry/internal/achievement"
	"foundry/internal/domain"
	"foundry/internal/query"
)

// Reads go through the cache. On failure the last good data is returned together with
// the error.

func (a *App) Protocols(ctx context.Context, date string) ([]domain.Protocol, error) {
	return query.Get(ctx, a.Cache, ProtocolsOn(date), a.protocolsFetcher(date))
}

// WatchProtocols subscribes fn to the protocols of date. The list is fetched right away
// when it is not cached, and again whenever it is invalidated while watched.
func (a *App) WatchProtocols(date string, fn query.Listener) (cancel func()) {
	fetch := a.protocolsFetcher(date)
	return a.Cache.Watch(ProtocolsOn(date), func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, fn)
}

func (a *App) protocolsFetcher(date string) func(context.Context) ([]domain.Protocol, error) {
	return func(ctx context.Context) ([]domain.Protocol, error) {
		return a.Resources.Protocols.ByDate(ctx, date)
	}
}

func (a *App) Bookings(ctx context.Context) ([]domain.Booking, error) {
	return query.Get(ctx, a.Cache, BookingsKey, a.Resources.Bookings.List)
}

func (a *App) MetricsRange(ctx context.Context, startDate, endDate string) ([]domain.HealthMetric, error) {
	return query.Get(ctx, a.Cache, MetricsRange(startDate, endDate), func(ctx context.Context) ([]domain.HealthMetric, error) {
		return a.Resources.Metrics.Range(ctx, startDate, endDate)
	})
}

func (a *App) MetricsOn(ctx context.Context, date string) ([]domain.HealthMetric, error) {
	return query.Get(ctx, a.Cache, MetricsOn(date), func(ctx context.Context) ([]domain.HealthMetric, error) {
		return a.Resources.Metrics.ByDate(ctx, date)
	})
}

func (a *App) RecentMetrics(ctx context.Context) ([]domain.HealthMetric, error) {
	return query.Get(ctx, a.Cache, RecentMetricsKey(), a.Resources.Metrics.Recent)
}

func (a *App) Biomarkers(ctx context.Context) ([]domain.Biomarker, error) {
	return query.Get(ctx, a.Cache, BiomarkersKey, a.Resources.Biomarkers.List)
}

func (a *App) Profile(ctx context.Context) (domain.Profile, error) {
	return query.Get(ctx, a.Cache, ProfileKey, a.Resources.Profile.Get)
}

func (a *App) CurrentUser(ctx context.Context) (domain.User, error) {
	return query.Get(ctx, a.Cache, UserKey, a.Resources.User.Current)
}

func (a *App) AchievementBoard(ctx context.Context) (achievement.Board, error) {
	return a.Achievements.Board(ctx)
}
