package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"foundry/internal/domain"
)

// Resources groups the remote operations by resource. It holds no state besides the
// pipeline and performs no caching or retries.
type Resources struct {
	Protocols    ProtocolService
	Bookings     BookingService
	Metrics      MetricService
	Biomarkers   BiomarkerService
	Achievements AchievementService
	Profile      ProfileService
	User         UserService
}

func NewResources(c *Client) *Resources {
	return &Resources{
		Protocols:    ProtocolService{c: c},
		Bookings:     BookingService{c: c},
		Metrics:      MetricService{c: c},
		Biomarkers:   BiomarkerService{c: c},
		Achievements: AchievementService{c: c},
		Profile:      ProfileService{c: c},
		User:         UserService{c: c},
	}
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

type ProtocolService struct{ c *Client }

func (s ProtocolService) ByDate(ctx context.Context, date string) ([]domain.Protocol, error) {
	return call[[]domain.Protocol](ctx, s.c, Request{Path: "/api/protocols/" + url.PathEscape(date)})
}

func (s ProtocolService) Create(ctx context.Context, in domain.ProtocolInput) (domain.Protocol, error) {
	return call[domain.Protocol](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/protocols", Body: in})
}

func (s ProtocolService) Update(ctx context.Context, id int64, patch domain.ProtocolPatch) (domain.Protocol, error) {
	return call[domain.Protocol](ctx, s.c, Request{Method: http.MethodPatch, Path: idPath("/api/protocols", id), Body: patch})
}

func (s ProtocolService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath("/api/protocols", id)}, nil)
}

type BookingService struct{ c *Client }

func (s BookingService) List(ctx context.Context) ([]domain.Booking, error) {
	return call[[]domain.Booking](ctx, s.c, Request{Path: "/api/bookings"})
}

func (s BookingService) Create(ctx context.Context, in domain.BookingInput) (domain.Booking, error) {
	return call[domain.Booking](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/bookings", Body: in})
}

func (s BookingService) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (domain.Booking, error) {
	body := map[string]domain.BookingStatus{"status": status}
	return call[domain.Booking](ctx, s.c, Request{Method: http.MethodPatch, Path: idPath("/api/bookings", id), Body: body})
}

func (s BookingService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath("/api/bookings", id)}, nil)
}

type MetricService struct{ c *Client }

func (s MetricService) Range(ctx context.Context, startDate, endDate string) ([]domain.HealthMetric, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	return call[[]domain.HealthMetric](ctx, s.c, Request{Path: "/api/metrics", Query: q})
}

func (s MetricService) ByDate(ctx context.Context, date string) ([]domain.HealthMetric, error) {
	return call[[]domain.HealthMetric](ctx, s.c, Request{Path: "/api/metrics/" + url.PathEscape(date)})
}

func (s MetricService) Recent(ctx context.Context) ([]domain.HealthMetric, error) {
	return call[[]domain.HealthMetric](ctx, s.c, Request{Path: "/api/metrics/recent"})
}

func (s MetricService) Upsert(ctx context.Context, in domain.HealthMetricInput) (domain.HealthMetric, error) {
	return call[domain.HealthMetric](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/metrics", Body: in})
}

type BiomarkerService struct{ c *Client }

func (s BiomarkerService) List(ctx context.Context) ([]domain.Biomarker, error) {
	return call[[]domain.Biomarker](ctx, s.c, Request{Path: "/api/biomarkers"})
}

func (s BiomarkerService) Create(ctx context.Context, in domain.BiomarkerInput) (domain.Biomarker, error) {
	return call[domain.Biomarker](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/biomarkers", Body: in})
}

type AchievementService struct{ c *Client }

// Unlocked lists the unlock records of the current user.
func (s AchievementService) Unlocked(ctx context.Context) ([]domain.Achievement, error) {
	return call[[]domain.Achievement](ctx, s.c, Request{Path: "/api/achievements"})
}

func (s AchievementService) Progress(ctx context.Context) ([]domain.AchievementProgress, error) {
	return call[[]domain.AchievementProgress](ctx, s.c, Request{Path: "/api/achievements/progress"})
}

func (s AchievementService) Definitions(ctx context.Context) ([]domain.AchievementDefinition, error) {
	return call[[]domain.AchievementDefinition](ctx, s.c, Request{Path: "/api/achievements/definitions"})
}

// Check asks the service to evaluate and record newly earned achievements.
func (s AchievementService) Check(ctx context.Context) (domain.CheckAchievementsResponse, error) {
	return call[domain.CheckAchievementsResponse](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/achievements/check"})
}

type ProfileService struct{ c *Client }

func (s ProfileService) Get(ctx context.Context) (domain.Profile, error) {
	return call[domain.Profile](ctx, s.c, Request{Path: "/api/profile"})
}

func (s ProfileService) Upsert(ctx context.Context, in domain.ProfileInput) (domain.Profile, error) {
	return call[domain.Profile](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/profile", Body: in})
}

type UserService struct{ c *Client }

func (s UserService) Current(ctx context.Context) (domain.User, error) {
	return call[domain.User](ctx, s.c, Request{Path: "/api/auth/user"})
}

func (s UserService) Logout(ctx context.Context) error {
	return s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/auth/logout"}, nil)
}

// Login is served by development backends only; production sign-in happens outside the client.
// The session cookie set by the service is available from Client.SessionCookie afterwards.
func (s UserService) Login(ctx context.Context, email string) (domain.User, error) {
	body := map[string]string{"email": email}
	return call[domain.User](ctx, s.c, Request{Method: http.MethodPost, Path: "/api/auth/login", Body: body})
}
