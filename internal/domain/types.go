package domain

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Protocol struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Time      string    `json:"time,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProtocolInput is the create payload for a protocol.
type ProtocolInput struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time,omitempty"`
}

// ProtocolPatch carries the mutable fields of a protocol. Nil fields are left untouched.
type ProtocolPatch struct {
	Title     *string `json:"title,omitempty"`
	Time      *string `json:"time,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type BookingType string

const (
	BookingTraining   BookingType = "training"
	BookingRecovery   BookingType = "recovery"
	BookingBiomarker  BookingType = "biomarker"
	BookingSpecialist BookingType = "specialist"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"userId"`
	Title     string        `json:"title"`
	Type      BookingType   `json:"type"`
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	Status    BookingStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

type BookingInput struct {
	Title string      `json:"title"`
	Type  BookingType `json:"type"`
	Date  string      `json:"date"`
	Time  string      `json:"time"`
	Notes string      `json:"notes,omitempty"`
}

type MetricType string

const (
	MetricSleep    MetricType = "sleep"
	MetricRecovery MetricType = "recovery"
	MetricRHR      MetricType = "rhr"
	MetricHRV      MetricType = "hrv"
	MetricSteps    MetricType = "steps"
	MetricCalories MetricType = "calories"
)

type HealthMetric struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Type      MetricType `json:"type"`
	Value     float64    `json:"value"`
	Date      string     `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
}

type HealthMetricInput struct {
	Type  MetricType `json:"type"`
	Value float64    `json:"value"`
	Date  string     `json:"date"`
}

type Biomarker struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

type BiomarkerInput struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Date  string  `json:"date"`
}

// AchievementDefinition is an entry of the static achievement catalog.
type AchievementDefinition struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Threshold   int    `json:"threshold"`
}

// AchievementProgress is reported only for achievements that are not unlocked yet.
type AchievementProgress struct {
	Key       string `json:"key"`
	Current   int    `json:"current"`
	Threshold int    `json:"threshold"`
}

// Achievement is an unlock record. Records are append-only.
type Achievement struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	AchievementKey string    `json:"achievementKey"`
	UnlockedAt     time.Time `json:"unlockedAt"`
}

type CheckAchievementsResponse struct {
	NewAchievements []Achievement `json:"newAchievements"`
	TotalNew        int           `json:"totalNew"`
}

type Profile struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	MembershipTier string    `json:"membershipTier,omitempty"`
	MembershipName string    `json:"membershipName,omitempty"`
	DaysTracked    int       `json:"daysTracked"`
	LabTests       int       `json:"labTests"`
	DayStreak      int       `json:"dayStreak"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type ProfileInput struct {
	MembershipTier string `json:"membershipTier,omitempty"`
	MembershipName string `json:"membershipName,omitempty"`
	DaysTracked    *int   `json:"daysTracked,omitempty"`
	LabTests       *int   `json:"labTests,omitempty"`
	DayStreak      *int   `json:"dayStreak,omitempty"`
}
