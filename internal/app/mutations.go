package app

import (
	"context"
	"errors"

	"foundry/internal/api"
	"foundry/internal/domain"
	"foundry/internal/mutation"
)

func (a *App) CreateProtocol(ctx context.Context, in domain.ProtocolInput) (domain.Protocol, error) {
	return mutation.Run(ctx, a.Mutations, "create protocol", func(ctx context.Context) (domain.Protocol, error) {
		return a.Resources.Protocols.Create(ctx, in)
	}, mutation.Invalidate[domain.Protocol](ProtocolsKey))
}

func (a *App) UpdateProtocol(ctx context.Context, id int64, patch domain.ProtocolPatch) (domain.Protocol, error) {
	return mutation.Run(ctx, a.Mutations, "update protocol", func(ctx context.Context) (domain.Protocol, error) {
		return a.Resources.Protocols.Update(ctx, id, patch)
	}, mutation.Invalidate[domain.Protocol](ProtocolsKey))
}

// ToggleProtocol flips the completion flag of p. The cached lists are refreshed from the
// service afterwards; nothing is patched locally.
func (a *App) ToggleProtocol(ctx context.Context, p domain.Protocol) (domain.Protocol, error) {
	completed := !p.Completed
	return a.UpdateProtocol(ctx, p.ID, domain.ProtocolPatch{Completed: &completed})
}

func (a *App) DeleteProtocol(ctx context.Context, id int64) error {
	return a.Mutations.Exec(ctx, "delete protocol", func(ctx context.Context) error {
		return a.Resources.Protocols.Delete(ctx, id)
	}, ProtocolsKey)
}

func (a *App) CreateBooking(ctx context.Context, in domain.BookingInput) (domain.Booking, error) {
	return mutation.Run(ctx, a.Mutations, "create booking", func(ctx context.Context) (domain.Booking, error) {
		return a.Resources.Bookings.Create(ctx, in)
	}, mutation.Invalidate[domain.Booking](BookingsKey))
}

func (a *App) UpdateBookingStatus(ctx context.Context, id int64, status domain.BookingStatus) (domain.Booking, error) {
	return mutation.Run(ctx, a.Mutations, "update booking", func(ctx context.Context) (domain.Booking, error) {
		return a.Resources.Bookings.UpdateStatus(ctx, id, status)
	}, mutation.Invalidate[domain.Booking](BookingsKey))
}

func (a *App) DeleteBooking(ctx context.Context, id int64) error {
	return a.Mutations.Exec(ctx, "delete booking", func(ctx context.Context) error {
		return a.Resources.Bookings.Delete(ctx, id)
	}, BookingsKey)
}

func (a *App) UpsertMetric(ctx context.Context, in domain.HealthMetricInput) (domain.HealthMetric, error) {
	return mutation.Run(ctx, a.Mutations, "upsert metric", func(ctx context.Context) (domain.HealthMetric, error) {
		return a.Resources.Metrics.Upsert(ctx, in)
	}, mutation.Invalidate[domain.HealthMetric](MetricsKey))
}

func (a *App) CreateBiomarker(ctx context.Context, in domain.BiomarkerInput) (domain.Biomarker, error) {
	return mutation.Run(ctx, a.Mutations, "create biomarker", func(ctx context.Context) (domain.Biomarker, error) {
		return a.Resources.Biomarkers.Create(ctx, in)
	}, mutation.Invalidate[domain.Biomarker](BiomarkersKey))
}

func (a *App) UpsertProfile(ctx context.Context, in domain.ProfileInput) (domain.Profile, error) {
	return mutation.Run(ctx, a.Mutations, "upsert profile", func(ctx context.Context) (domain.Profile, error) {
		return a.Resources.Profile.Upsert(ctx, in)
	}, mutation.Invalidate[domain.Profile](ProfileKey))
}

func (a *App) CheckAchievements(ctx context.Context) (domain.CheckAchievementsResponse, error) {
	return a.Achievements.CheckProgress(ctx)
}

// Login signs in against a development backend and stores the session cookie it sets.
// Any data cached for a previous user is dropped.
func (a *App) Login(ctx context.Context, email string) (domain.User, error) {
	return mutation.Run(ctx, a.Mutations, "login", func(ctx context.Context) (domain.User, error) {
		return a.Resources.User.Login(ctx, email)
	}, func(ctx context.Context, _ domain.User, _ mutation.Cache) error {
		cookie := a.API.SessionCookie()
		if cookie == "" {
			return errors.New("service set no session cookie")
		}
		return a.Session.Set(ctx, cookie)
	}, mutation.EvictAll[domain.User]())
}

// Logout ends the session on the service, then clears the stored credential and evicts
// every cache entry. A 401 from the service means the session is already gone and is
// treated as success.
func (a *App) Logout(ctx context.Context) error {
	_, err := mutation.Run(ctx, a.Mutations, "logout", func(ctx context.Context) (struct{}, error) {
		err := a.Resources.User.Logout(ctx)
		if api.IsUnauthorized(err) {
			a.log.Info("session already expired on the service")
			err = nil
		}
		return struct{}{}, err
	}, a.dropSession)
	return err
}

// dropSession evicts the cache even when removing the durable credential fails.
func (a *App) dropSession(ctx context.Context, _ struct{}, cache mutation.Cache) error {
	err := a.Session.Clear(ctx)
	n := cache.Clear()
	a.log.WithField("evicted", n).Info("session cleared")
	return err
}
