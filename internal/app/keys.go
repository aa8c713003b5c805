package app

import (
	"foundry/internal/achievement"
	"foundry/internal/query"
)

// Roots of the query key space. Mutations invalidate by these prefixes.
var (
	ProtocolsKey    = query.NewKey("protocols")
	BookingsKey     = query.NewKey("bookings")
	MetricsKey      = query.NewKey("healthMetrics")
	BiomarkersKey   = query.NewKey("biomarkers")
	ProfileKey      = query.NewKey("profile")
	UserKey         = query.NewKey("user")
	AchievementsKey = query.NewKey("achievements")

	AchievementDefinitionsKey = achievement.DefinitionsKey
	AchievementProgressKey    = achievement.ProgressKey
	UnlockedAchievementsKey   = achievement.UnlockedKey
)

func ProtocolsOn(date string) query.Key { return ProtocolsKey.With(date) }

func MetricsRange(startDate, endDate string) query.Key {
	return MetricsKey.With("range", startDate, endDate)
}

func MetricsOn(date string) query.Key { return MetricsKey.With("date", date) }

func RecentMetricsKey() query.Key { return MetricsKey.With("recent") }
