package achievement

import (
	"slices"
	"time"

	"foundry/internal/domain"
)

// View is one achievement as presented to the user.
type View struct {
	Key         string
	Title       string
	Description string
	Icon        string
	Threshold   int
	Current     int
	IsUnlocked  bool
	UnlockedAt  time.Time
	// ProgressPercent is in [0,100]. Unlocked achievements report 100.
	ProgressPercent float64
}

type Board struct {
	Views    []View
	Unlocked int
	Total    int
}

// Derive combines the catalog, the progress counters and the unlock records into one view
// per definition, in catalog order. Progress and unlock records for unknown keys are ignored.
func Derive(defs []domain.AchievementDefinition, progress []domain.AchievementProgress, unlocked []domain.Achievement) []View {
	counters := make(map[string]domain.AchievementProgress, len(progress))
	for _, p := range progress {
		counters[p.Key] = p
	}
	unlockedAt := make(map[string]time.Time, len(unlocked))
	for _, a := range unlocked {
		if at, ok := unlockedAt[a.AchievementKey]; !ok || a.UnlockedAt.Before(at) {
			unlockedAt[a.AchievementKey] = a.UnlockedAt
		}
	}

	views := make([]View, 0, len(defs))
	for _, d := range defs {
		v := View{
			Key:         d.Key,
			Title:       d.Title,
			Description: d.Description,
			Icon:        d.Icon,
			Threshold:   d.Threshold,
		}
		if at, ok := unlockedAt[d.Key]; ok {
			v.IsUnlocked = true
			v.UnlockedAt = at
			v.ProgressPercent = 100
		} else if p, ok := counters[d.Key]; ok {
			if p.Threshold > 0 {
				v.Threshold = p.Threshold
			}
			v.Current = p.Current
			v.ProgressPercent = Percent(p.Current, v.Threshold)
		}
		views = append(views, v)
	}
	return views
}

// Percent is current/threshold as a percentage clamped to [0,100]. A non-positive
// threshold yields 0.
func Percent(current, threshold int) float64 {
	if threshold <= 0 {
		return 0
	}
	p := float64(current) / float64(threshold) * 100
	return min(max(p, 0), 100)
}

func NewBoard(views []View) Board {
	b := Board{Views: views, Total: len(views)}
	for _, v := range views {
		if v.IsUnlocked {
			b.Unlocked++
		}
	}
	return b
}

func (b Board) clone() Board {
	b.Views = slices.Clone(b.Views)
	return b
}
