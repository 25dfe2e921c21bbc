package models

import "time"

// Role is the closed set of profile roles. A profile's role is fixed on the
// first authenticated write and never changes afterwards.
type Role string

const (
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleTeacher
}

// Profile is the base identity row shared by parents and teachers. Its id
// equals the auth subject identifier.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName *string   `db:"first_name" json:"first_name,omitempty"`
	LastName  *string   `db:"last_name" json:"last_name,omitempty"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Me is the projection returned by GET /profiles/me.
type Me struct {
	Profile              Profile `json:"profile"`
	ParentProfileExists  bool    `json:"parent_profile_exists"`
	TeacherProfileExists bool    `json:"teacher_profile_exists"`
}

// ParentProfile is the parent-specific extension row.
type ParentProfile struct {
	ProfileID string  `db:"profile_id" json:"profile_id"`
	Phone     *string `db:"phone" json:"phone,omitempty"`
	BirthDate *string `db:"birth_date" json:"birth_date,omitempty"`
	Address   *string `db:"address" json:"address,omitempty"`
	Bio       *string `db:"bio" json:"bio,omitempty"`
}

// Child belongs to exactly one parent profile.
type Child struct {
	ID             string  `db:"id" json:"id"`
	ProfileID      string  `db:"profile_id" json:"profile_id"`
	Name           string  `db:"name" json:"name"`
	Gender         *string `db:"gender" json:"gender,omitempty"`
	Age            *int    `db:"age" json:"age,omitempty"`
	CurrentGrade   *string `db:"current_grade" json:"current_grade,omitempty"`
	BirthMonthYear *string `db:"birth_month_year" json:"birth_month_year,omitempty"`
	School         *string `db:"school" json:"school,omitempty"`
	FocusPoints    *string `db:"focus_points" json:"focus_points,omitempty"`
}

// TeacherProfile is the teacher-specific extension row.
type TeacherProfile struct {
	ProfileID                  string   `db:"profile_id" json:"profile_id"`
	Phone                      *string  `db:"phone" json:"phone,omitempty"`
	CPF                        *string  `db:"cpf" json:"cpf,omitempty"`
	ProfessionalRegistration   *string  `db:"professional_registration" json:"professional_registration,omitempty"`
	City                       *string  `db:"city" json:"city,omitempty"`
	State                      *string  `db:"state" json:"state,omitempty"`
	Modality                   *string  `db:"modality" json:"modality,omitempty"`
	MiniBio                    *string  `db:"mini_bio" json:"mini_bio,omitempty"`
	HourlyRate                 *float64 `db:"hourly_rate" json:"hourly_rate,omitempty"`
	LessonDurationMinutes      *int     `db:"lesson_duration_minutes" json:"lesson_duration_minutes,omitempty"`
	ProfilePhotoFileName       *string  `db:"profile_photo_file_name" json:"profile_photo_file_name,omitempty"`
	RequestExperienceAnonymity bool     `db:"request_experience_anonymity" json:"request_experience_anonymity"`
	IsActiveTeacher            bool     `db:"is_active_teacher" json:"is_active_teacher"`
}

// TeacherFormation is one education record of a teacher.
type TeacherFormation struct {
	ID             string  `db:"id" json:"id"`
	ProfileID      string  `db:"profile_id" json:"profile_id"`
	DegreeType     string  `db:"degree_type" json:"degree_type"`
	CourseName     string  `db:"course_name" json:"course_name"`
	Institution    string  `db:"institution" json:"institution"`
	CompletionYear *string `db:"completion_year" json:"completion_year,omitempty"`
}

// TeacherExperience is one professional experience record of a teacher.
type TeacherExperience struct {
	ID               string  `db:"id" json:"id"`
	ProfileID        string  `db:"profile_id" json:"profile_id"`
	Institution      string  `db:"institution" json:"institution"`
	Role             string  `db:"role" json:"role"`
	Responsibilities string  `db:"responsibilities" json:"responsibilities"`
	PeriodFrom       string  `db:"period_from" json:"period_from"`
	PeriodTo         *string `db:"period_to" json:"period_to,omitempty"`
	CurrentPosition  bool    `db:"current_position" json:"current_position"`
}

// AvailabilityWindow is a weekly recurring availability range. DayOfWeek runs
// Monday=0 through Sunday=6; times are HH:MM strings.
type AvailabilityWindow struct {
	ID        string `db:"id" json:"id"`
	ProfileID string `db:"profile_id" json:"profile_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}
