package models

import "github.com/lib/pq"

// MarketplaceTeacherRow is the joined row the marketplace queries return.
type MarketplaceTeacherRow struct {
	ID                         string         `db:"id"`
	Name                       string         `db:"name"`
	AvatarURL                  *string        `db:"avatar_url"`
	HourlyRate                 *float64       `db:"hourly_rate"`
	Modality                   *string        `db:"modality"`
	City                       *string        `db:"city"`
	State                      *string        `db:"state"`
	MiniBio                    *string        `db:"mini_bio"`
	LessonDurationMinutes      *int           `db:"lesson_duration_minutes"`
	IsActiveTeacher            bool           `db:"is_active_teacher"`
	RequestExperienceAnonymity bool           `db:"request_experience_anonymity"`
	Specialties                pq.StringArray `db:"specialties"`
	ExperienceCount            int            `db:"experience_count"`
}

// MarketplaceTeacherSummary is one card on the public teacher listing.
// Rating and review count are deterministic placeholders derived from the
// teacher id, not a real review system.
type MarketplaceTeacherSummary struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AvatarURL        *string  `json:"avatar_url,omitempty"`
	Rating           float64  `json:"rating"`
	ReviewCount      int      `json:"review_count"`
	PricePerClass    float64  `json:"price_per_class"`
	Specialties      []string `json:"specialties"`
	IsVerified       bool     `json:"is_verified"`
	IsOnline         bool     `json:"is_online"`
	IsPresential     bool     `json:"is_presential"`
	NextAvailability *string  `json:"next_availability,omitempty"`
	ExperienceLabel  string   `json:"experience_label"`
	BioSnippet       *string  `json:"bio_snippet,omitempty"`
}

// MarketplaceTeacherDetail is the public detail view of an active teacher.
type MarketplaceTeacherDetail struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	AvatarURL             *string    `json:"avatar_url,omitempty"`
	Rating                float64    `json:"rating"`
	ReviewCount           int        `json:"review_count"`
	PricePerClass         float64    `json:"price_per_class"`
	Specialties           []string   `json:"specialties"`
	IsVerified            bool       `json:"is_verified"`
	IsOnline              bool       `json:"is_online"`
	IsPresential          bool       `json:"is_presential"`
	ExperienceLabel       string     `json:"experience_label"`
	Bio                   *string    `json:"bio,omitempty"`
	City                  *string    `json:"city,omitempty"`
	State                 *string    `json:"state,omitempty"`
	LessonDurationMinutes int        `json:"lesson_duration_minutes"`
	NextSlots             []DaySlots `json:"next_slots"`
}
