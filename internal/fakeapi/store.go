package fakeapi

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"foundry/internal/domain"
)

var ErrNotFound = errors.New("not found")

const recentMetricsLimit = 30

// Store keeps every user's data in memory. All records are scoped by user id.
type Store struct {
	mu sync.RWMutex

	now    func() time.Time
	nextID int64

	usersByEmail map[string]int64
	users        map[int64]domain.User
	sessions     map[string]int64

	protocols  map[int64]domain.Protocol
	bookings   map[int64]domain.Booking
	metrics    map[int64]domain.HealthMetric
	biomarkers map[int64]domain.Biomarker
	profiles   map[int64]domain.Profile
	unlocks    []domain.Achievement
}

func NewStore() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		usersByEmail: make(map[string]int64),
		users:        make(map[int64]domain.User),
		sessions:     make(map[string]int64),
		protocols:    make(map[int64]domain.Protocol),
		bookings:     make(map[int64]domain.Booking),
		metrics:      make(map[int64]domain.HealthMetric),
		biomarkers:   make(map[int64]domain.Biomarker),
		profiles:     make(map[int64]domain.Profile),
		unlocks:      make([]domain.Achievement, 0, 16),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SignIn returns the user registered under email, creating it on first use.
func (s *Store) SignIn(email string) domain.User {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.usersByEmail[email]; ok {
		return s.users[id]
	}
	u := domain.User{ID: s.id(), Email: email, CreatedAt: s.now()}
	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u
}

func (s *Store) User(id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

// OpenSession registers a new server-side session for userID and returns its id.
func (s *Store) OpenSession(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := uuid.NewString()
	s.sessions[sid] = userID
	return sid
}

func (s *Store) SessionUser(sid string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[sid]
	return id, ok
}

func (s *Store) CloseSession(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
}

func (s *Store) Protocols(userID int64, date string) []domain.Protocol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Protocol, 0)
	for _, p := range s.protocols {
		if p.UserID == userID && p.Date == date {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Protocol) int {
		if c := strings.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) CreateProtocol(userID int64, in domain.ProtocolInput) domain.Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Protocol{
		ID:        s.id(),
		UserID:    userID,
		Title:     in.Title,
		Date:      in.Date,
		Time:      in.Time,
		CreatedAt: s.now(),
	}
	s.protocols[p.ID] = p
	return p
}

func (s *Store) UpdateProtocol(userID, id int64, patch domain.ProtocolPatch) (domain.Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.protocols[id]
	if !ok || p.UserID != userID {
		return domain.Protocol{}, ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Time != nil {
		p.Time = *patch.Time
	}
	if patch.Completed != nil {
		p.Completed = *patch.Completed
	}
	s.protocols[id] = p
	return p, nil
}

func (s *Store) DeleteProtocol(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.protocols[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(s.protocols, id)
	return nil
}

func (s *Store) Bookings(userID int64) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Booking) int {
		return strings.Compare(a.Date+" "+a.Time, b.Date+" "+b.Time)
	})
	return out
}

func (s *Store) CreateBooking(userID int64, in domain.BookingInput) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := domain.Booking{
		ID:        s.id(),
		UserID:    userID,
		Title:     in.Title,
		Type:      in.Type,
		Date:      in.Date,
		Time:      in.Time,
		Status:    domain.BookingPending,
		Notes:     in.Notes,
		CreatedAt: s.now(),
	}
	s.bookings[b.ID] = b
	return b
}

func (s *Store) SetBookingStatus(userID, id int64, status domain.BookingStatus) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.UserID != userID {
		return domain.Booking{}, ErrNotFound
	}
	b.Status = status
	s.bookings[id] = b
	return b, nil
}

func (s *Store) DeleteBooking(userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// Metrics returns the readings of userID with from <= date <= to, oldest first.
func (s *Store) Metrics(userID int64, from, to string) []domain.HealthMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HealthMetric, 0)
	for _, m := range s.metrics {
		if m.UserID == userID && m.Date >= from && m.Date <= to {
			out = append(out, m)
		}
	}
	sortMetrics(out)
	return out
}

// RecentMetrics returns the newest readings of userID, newest first.
func (s *Store) RecentMetrics(userID int64) []domain.HealthMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HealthMetric, 0)
	for _, m := range s.metrics {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sortMetrics(out)
	slices.Reverse(out)
	if len(out) > recentMetricsLimit {
		out = out[:recentMetricsLimit]
	}
	return out
}

func sortMetrics(ms []domain.HealthMetric) {
	slices.SortFunc(ms, func(a, b domain.HealthMetric) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// UpsertMetric replaces the reading of the same type on the same date.
func (s *Store) UpsertMetric(userID int64, in domain.HealthMetricInput) domain.HealthMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.metrics {
		if m.UserID == userID && m.Type == in.Type && m.Date == in.Date {
			m.Value = in.Value
			s.metrics[id] = m
			return m
		}
	}
	m := domain.HealthMetric{
		ID:        s.id(),
		UserID:    userID,
		Type:      in.Type,
		Value:     in.Value,
		Date:      in.Date,
		CreatedAt: s.now(),
	}
	s.metrics[m.ID] = m
	return m
}

func (s *Store) Biomarkers(userID int64) []domain.Biomarker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Biomarker, 0)
	for _, b := range s.biomarkers {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Biomarker) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) CreateBiomarker(userID int64, in domain.BiomarkerInput) domain.Biomarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := domain.Biomarker{
		ID:        s.id(),
		UserID:    userID,
		Name:      in.Name,
		Value:     in.Value,
		Unit:      in.Unit,
		Date:      in.Date,
		CreatedAt: s.now(),
	}
	s.biomarkers[b.ID] = b
	return b
}

func (s *Store) Profile(userID int64) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(userID int64, in domain.ProfileInput) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = domain.Profile{ID: s.id(), UserID: userID}
	}
	if in.MembershipTier != "" {
		p.MembershipTier = in.MembershipTier
	}
	if in.MembershipName != "" {
		p.MembershipName = in.MembershipName
	}
	if in.DaysTracked != nil {
		p.DaysTracked = *in.DaysTracked
	}
	if in.LabTests != nil {
		p.LabTests = *in.LabTests
	}
	if in.DayStreak != nil {
		p.DayStreak = *in.DayStreak
	}
	p.UpdatedAt = s.now()
	s.profiles[userID] = p
	return p
}

func (s *Store) Unlocked(userID int64) []domain.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Achievement, 0)
	for _, a := range s.unlocks {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// counts returns the counters achievements are evaluated against.
func (s *Store) counts(userID int64) counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c counters
	for _, p := range s.protocols {
		if p.UserID != userID {
			continue
		}
		c.protocols++
		if p.Completed {
			c.completed++
		}
	}
	for _, b := range s.bookings {
		if b.UserID == userID {
			c.bookings++
		}
	}
	for _, m := range s.metrics {
		if m.UserID == userID {
			c.metrics++
		}
	}
	for _, b := range s.biomarkers {
		if b.UserID == userID {
			c.biomarkers++
		}
	}
	return c
}

// unlock records key for userID unless it is already unlocked.
func (s *Store) unlock(userID int64, key string) (domain.Achievement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.unlocks {
		if a.UserID == userID && a.AchievementKey == key {
			return a, false
		}
	}
	a := domain.Achievement{ID: s.id(), UserID: userID, AchievementKey: key, UnlockedAt: s.now()}
	s.unlocks = append(s.unlocks, a)
	return a, true
}
