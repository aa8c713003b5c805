package fakeapi

import "foundry/internal/domain"

type counters struct {
	protocols  int
	completed  int
	bookings   int
	metrics    int
	biomarkers int
}

type rule struct {
	def   domain.AchievementDefinition
	count func(counters) int
}

var catalog = []rule{
	{
		def:   domain.AchievementDefinition{Key: "first_protocol", Title: "First Step", Description: "Create your first protocol", Icon: "flag", Threshold: 1},
		count: func(c counters) int { return c.protocols },
	},
	{
		def:   domain.AchievementDefinition{Key: "protocols_completed_10", Title: "Consistent", Description: "Complete 10 protocols", Icon: "checkmark-done", Threshold: 10},
		count: func(c counters) int { return c.completed },
	},
	{
		def:   domain.AchievementDefinition{Key: "first_booking", Title: "Booked In", Description: "Book your first session", Icon: "calendar", Threshold: 1},
		count: func(c counters) int { return c.bookings },
	},
	{
		def:   domain.AchievementDefinition{Key: "metrics_logged_7", Title: "Tracker", Description: "Log 7 health metrics", Icon: "pulse", Threshold: 7},
		count: func(c counters) int { return c.metrics },
	},
	{
		def:   domain.AchievementDefinition{Key: "biomarkers_5", Title: "Lab Regular", Description: "Record 5 biomarker results", Icon: "flask", Threshold: 5},
		count: func(c counters) int { return c.biomarkers },
	},
}

// Definitions returns the static catalog.
func Definitions() []domain.AchievementDefinition {
	out := make([]domain.AchievementDefinition, len(catalog))
	for i, r := range catalog {
		out[i] = r.def
	}
	return out
}

// Progress reports the counters of every achievement userID has not unlocked yet.
func (s *Store) Progress(userID int64) []domain.AchievementProgress {
	unlocked := unlockedKeys(s.Unlocked(userID))
	c := s.counts(userID)
	out := make([]domain.AchievementProgress, 0, len(catalog))
	for _, r := range catalog {
		if unlocked[r.def.Key] {
			continue
		}
		out = append(out, domain.AchievementProgress{Key: r.def.Key, Current: r.count(c), Threshold: r.def.Threshold})
	}
	return out
}

// Check unlocks every achievement whose counter reached its threshold.
func (s *Store) Check(userID int64) domain.CheckAchievementsResponse {
	c := s.counts(userID)
	resp := domain.CheckAchievementsResponse{NewAchievements: make([]domain.Achievement, 0)}
	for _, r := range catalog {
		if r.count(c) < r.def.Threshold {
			continue
		}
		if a, created := s.unlock(userID, r.def.Key); created {
			resp.NewAchievements = append(resp.NewAchievements, a)
		}
	}
	resp.TotalNew = len(resp.NewAchievements)
	return resp
}

func unlockedKeys(as []domain.Achievement) map[string]bool {
	out := make(map[string]bool, len(as))
	for _, a := range as {
		out[a.AchievementKey] = true
	}
	return out
}
