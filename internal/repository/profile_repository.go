package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidario/kidario-api/internal/models"
)

// Sentinel errors surfaced from transactional patch operations so the service
// layer can translate them into the failure taxonomy.
var (
	ErrRoleMismatch   = errors.New("profile already registered under a different role")
	ErrEmailRequired  = errors.New("token does not include email")
	ErrNoChildren     = errors.New("parent profile must keep at least one child")
	ErrNoAvailability = errors.New("teacher profile must keep at least one availability window")
	ErrSlotTaken      = errors.New("slot already has an active booking")
)

// ParentPatchInput is the batch of changes applied by a parent profile patch.
type ParentPatchInput struct {
	ProfileID string
	Email     string
	FirstName *string
	LastName  *string

	Phone     *string
	BirthDate *string
	Address   *string
	Bio       *string

	HasChildrenOps bool
	ChildrenUpsert []models.Child
	ChildrenDelete []string
}

// TeacherPatchInput is the batch of changes applied by a teacher profile patch.
type TeacherPatchInput struct {
	ProfileID string
	Email     string
	FirstName *string
	LastName  *string

	// Extension fields; nil pointers preserve the stored value.
	Phone                      *string
	CPF                        *string
	ProfessionalRegistration   *string
	City                       *string
	State                      *string
	Modality                   *string
	MiniBio                    *string
	HourlyRate                 *float64
	LessonDurationMinutes      *int
	ProfilePhotoFileName       *string
	RequestExperienceAnonymity *bool

	SpecialtiesAdd    []string
	SpecialtiesRemove []string

	FormationsUpsert []models.TeacherFormation
	FormationsDelete []string

	ExperiencesUpsert []models.TeacherExperience
	ExperiencesDelete []string

	AvailabilityUpsert []models.AvailabilityWindow
	AvailabilityDelete []string
}

// ProfileRepository manages persistence for profiles and their sub-collections.
type ProfileRepository struct {
	db *sqlx.DB
	queryTimer
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB, obs QueryObserver) *ProfileRepository {
	return &ProfileRepository{db: db, queryTimer: queryTimer{obs: obs}}
}

// FindProfile fetches the base profile row.
func (r *ProfileRepository) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	defer r.observe("profiles.find", time.Now())
	const query = `SELECT id, email, first_name, last_name, role, created_at, updated_at FROM profiles WHERE id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileRole returns the stored role for a profile, or sql.ErrNoRows.
func (r *ProfileRepository) ProfileRole(ctx context.Context, id string) (models.Role, error) {
	defer r.observe("profiles.role", time.Now())
	var role models.Role
	if err := r.db.GetContext(ctx, &role, `SELECT role FROM profiles WHERE id = $1`, id); err != nil {
		return "", err
	}
	return role, nil
}

// ParentExtensionExists reports whether the parent extension row exists.
func (r *ProfileRepository) ParentExtensionExists(ctx context.Context, id string) (bool, error) {
	defer r.observe("profiles.parent_exists", time.Now())
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM parent_profiles WHERE profile_id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check parent extension: %w", err)
	}
	return exists, nil
}

// TeacherExtensionExists reports whether the teacher extension row exists.
func (r *ProfileRepository) TeacherExtensionExists(ctx context.Context, id string) (bool, error) {
	defer r.observe("profiles.teacher_exists", time.Now())
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM teacher_profiles WHERE profile_id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check teacher extension: %w", err)
	}
	return exists, nil
}

// TeacherHourlyRate returns the teacher's configured hourly rate, zero when
// unset.
func (r *ProfileRepository) TeacherHourlyRate(ctx context.Context, id string) (float64, error) {
	defer r.observe("profiles.hourly_rate", time.Now())
	var rate sql.NullFloat64
	err := r.db.GetContext(ctx, &rate,
		`SELECT hourly_rate FROM teacher_profiles WHERE profile_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return rate.Float64, nil
}

// ListChildren returns the parent's children ordered by creation time.
func (r *ProfileRepository) ListChildren(ctx context.Context, parentID string) ([]models.Child, error) {
	defer r.observe("profiles.children", time.Now())
	const query = `SELECT id, profile_id, name, gender, age, current_grade, birth_month_year, school, focus_points
		FROM parent_children WHERE profile_id = $1 ORDER BY created_at ASC`
	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// ChildBelongsToParent reports whether the child row exists under the parent.
func (r *ProfileRepository) ChildBelongsToParent(ctx context.Context, childID, parentID string) (bool, error) {
	defer r.observe("profiles.child_ownership", time.Now())
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM parent_children WHERE id = $1 AND profile_id = $2)`, childID, parentID)
	if err != nil {
		return false, fmt.Errorf("check child ownership: %w", err)
	}
	return exists, nil
}

// ApplyParentPatch runs the whole parent patch batch in one transaction:
// base profile upsert, extension upsert, children operations and the
// at-least-one-child post-condition. Any failure rolls everything back.
func (r *ProfileRepository) ApplyParentPatch(ctx context.Context, input ParentPatchInput) error {
	defer r.observe("profiles.parent_patch", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin parent patch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureProfileTx(ctx, tx, input.ProfileID, input.Email, models.RoleParent, input.FirstName, input.LastName); err != nil {
		return err
	}

	var existing models.ParentProfile
	hasExisting := true
	err = tx.GetContext(ctx, &existing,
		`SELECT profile_id, phone, birth_date::text AS birth_date, address, bio FROM parent_profiles WHERE profile_id = $1`,
		input.ProfileID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load parent extension: %w", err)
		}
		hasExisting = false
	}

	phone := coalesce(input.Phone, existing.Phone)
	birthDate := coalesce(input.BirthDate, existing.BirthDate)
	address := coalesce(input.Address, existing.Address)
	bio := coalesce(input.Bio, existing.Bio)

	if hasExisting {
		_, err = tx.ExecContext(ctx,
			`UPDATE parent_profiles SET phone = $2, birth_date = $3, address = $4, bio = $5, updated_at = now() WHERE profile_id = $1`,
			input.ProfileID, phone, birthDate, address, bio)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO parent_profiles (profile_id, phone, birth_date, address, bio) VALUES ($1, $2, $3, $4, $5)`,
			input.ProfileID, phone, birthDate, address, bio)
	}
	if err != nil {
		return fmt.Errorf("upsert parent extension: %w", err)
	}

	for _, childID := range input.ChildrenDelete {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM parent_children WHERE profile_id = $1 AND id = $2`, input.ProfileID, childID); err != nil {
			return fmt.Errorf("delete child: %w", err)
		}
	}

	for _, child := range input.ChildrenUpsert {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM parent_children WHERE id = $1 AND profile_id = $2)`,
			child.ID, input.ProfileID); err != nil {
			return fmt.Errorf("check child: %w", err)
		}
		if exists {
			_, err = tx.ExecContext(ctx,
				`UPDATE parent_children SET name = $3, gender = $4, age = $5, current_grade = $6,
					birth_month_year = $7, school = $8, focus_points = $9, updated_at = now()
				WHERE id = $1 AND profile_id = $2`,
				child.ID, input.ProfileID, child.Name, child.Gender, child.Age,
				child.CurrentGrade, child.BirthMonthYear, child.School, child.FocusPoints)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO parent_children (id, profile_id, name, gender, age, current_grade, birth_month_year, school, focus_points)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				child.ID, input.ProfileID, child.Name, child.Gender, child.Age,
				child.CurrentGrade, child.BirthMonthYear, child.School, child.FocusPoints)
		}
		if err != nil {
			return fmt.Errorf("upsert child: %w", err)
		}
	}

	var count int
	if err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM parent_children WHERE profile_id = $1`, input.ProfileID); err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if count < 1 {
		return ErrNoChildren
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit parent patch: %w", err)
	}
	return nil
}

// ApplyTeacherPatch mirrors ApplyParentPatch for the teacher side: extension
// upsert, specialties add/remove, formation/experience/availability upserts
// and deletes, then the at-least-one-window post-condition.
func (r *ProfileRepository) ApplyTeacherPatch(ctx context.Context, input TeacherPatchInput) error {
	defer r.observe("profiles.teacher_patch", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin teacher patch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureProfileTx(ctx, tx, input.ProfileID, input.Email, models.RoleTeacher, input.FirstName, input.LastName); err != nil {
		return err
	}

	var existing models.TeacherProfile
	hasExisting := true
	err = tx.GetContext(ctx, &existing,
		`SELECT profile_id, phone, cpf, professional_registration, city, state, modality, mini_bio,
			hourly_rate, lesson_duration_minutes, profile_photo_file_name, request_experience_anonymity, is_active_teacher
		FROM teacher_profiles WHERE profile_id = $1`, input.ProfileID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load teacher extension: %w", err)
		}
		hasExisting = false
	}

	merged := mergeTeacherExtension(input, existing)

	if hasExisting {
		_, err = tx.ExecContext(ctx,
			`UPDATE teacher_profiles SET phone = $2, cpf = $3, professional_registration = $4, city = $5,
				state = $6, modality = $7, mini_bio = $8, hourly_rate = $9, lesson_duration_minutes = $10,
				profile_photo_file_name = $11, request_experience_anonymity = $12, updated_at = now()
			WHERE profile_id = $1`,
			input.ProfileID, merged.Phone, merged.CPF, merged.ProfessionalRegistration, merged.City,
			merged.State, merged.Modality, merged.MiniBio, merged.HourlyRate, merged.LessonDurationMinutes,
			merged.ProfilePhotoFileName, merged.RequestExperienceAnonymity)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO teacher_profiles (profile_id, phone, cpf, professional_registration, city, state,
				modality, mini_bio, hourly_rate, lesson_duration_minutes, profile_photo_file_name, request_experience_anonymity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			input.ProfileID, merged.Phone, merged.CPF, merged.ProfessionalRegistration, merged.City,
			merged.State, merged.Modality, merged.MiniBio, merged.HourlyRate, merged.LessonDurationMinutes,
			merged.ProfilePhotoFileName, merged.RequestExperienceAnonymity)
	}
	if err != nil {
		return fmt.Errorf("upsert teacher extension: %w", err)
	}

	for _, specialty := range input.SpecialtiesAdd {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teacher_specialties (id, profile_id, specialty) VALUES ($1, $2, $3)
			ON CONFLICT (profile_id, specialty) DO NOTHING`,
			newID(), input.ProfileID, specialty); err != nil {
			return fmt.Errorf("add specialty: %w", err)
		}
	}
	for _, specialty := range input.SpecialtiesRemove {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM teacher_specialties WHERE profile_id = $1 AND specialty = $2`,
			input.ProfileID, specialty); err != nil {
			return fmt.Errorf("remove specialty: %w", err)
		}
	}

	for _, id := range input.FormationsDelete {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM teacher_formations WHERE profile_id = $1 AND id = $2`, input.ProfileID, id); err != nil {
			return fmt.Errorf("delete formation: %w", err)
		}
	}
	for _, formation := range input.FormationsUpsert {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM teacher_formations WHERE id = $1 AND profile_id = $2)`,
			formation.ID, input.ProfileID); err != nil {
			return fmt.Errorf("check formation: %w", err)
		}
		if exists {
			_, err = tx.ExecContext(ctx,
				`UPDATE teacher_formations SET degree_type = $3, course_name = $4, institution = $5, completion_year = $6
				WHERE id = $1 AND profile_id = $2`,
				formation.ID, input.ProfileID, formation.DegreeType, formation.CourseName,
				formation.Institution, formation.CompletionYear)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO teacher_formations (id, profile_id, degree_type, course_name, institution, completion_year)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				formation.ID, input.ProfileID, formation.DegreeType, formation.CourseName,
				formation.Institution, formation.CompletionYear)
		}
		if err != nil {
			return fmt.Errorf("upsert formation: %w", err)
		}
	}

	for _, id := range input.ExperiencesDelete {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM teacher_experiences WHERE profile_id = $1 AND id = $2`, input.ProfileID, id); err != nil {
			return fmt.Errorf("delete experience: %w", err)
		}
	}
	for _, experience := range input.ExperiencesUpsert {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM teacher_experiences WHERE id = $1 AND profile_id = $2)`,
			experience.ID, input.ProfileID); err != nil {
			return fmt.Errorf("check experience: %w", err)
		}
		if exists {
			_, err = tx.ExecContext(ctx,
				`UPDATE teacher_experiences SET institution = $3, role = $4, responsibilities = $5,
					period_from = $6, period_to = $7, current_position = $8
				WHERE id = $1 AND profile_id = $2`,
				experience.ID, input.ProfileID, experience.Institution, experience.Role,
				experience.Responsibilities, experience.PeriodFrom, experience.PeriodTo, experience.CurrentPosition)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO teacher_experiences (id, profile_id, institution, role, responsibilities, period_from, period_to, current_position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				experience.ID, input.ProfileID, experience.Institution, experience.Role,
				experience.Responsibilities, experience.PeriodFrom, experience.PeriodTo, experience.CurrentPosition)
		}
		if err != nil {
			return fmt.Errorf("upsert experience: %w", err)
		}
	}

	for _, id := range input.AvailabilityDelete {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM teacher_availability WHERE profile_id = $1 AND id = $2`, input.ProfileID, id); err != nil {
			return fmt.Errorf("delete availability window: %w", err)
		}
	}
	for _, window := range input.AvailabilityUpsert {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM teacher_availability WHERE id = $1 AND profile_id = $2)`,
			window.ID, input.ProfileID); err != nil {
			return fmt.Errorf("check availability window: %w", err)
		}
		if exists {
			_, err = tx.ExecContext(ctx,
				`UPDATE teacher_availability SET day_of_week = $3, start_time = $4, end_time = $5
				WHERE id = $1 AND profile_id = $2`,
				window.ID, input.ProfileID, window.DayOfWeek, window.StartTime, window.EndTime)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO teacher_availability (id, profile_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3, $4, $5)`,
				window.ID, input.ProfileID, window.DayOfWeek, window.StartTime, window.EndTime)
		}
		if err != nil {
			return fmt.Errorf("upsert availability window: %w", err)
		}
	}

	var count int
	if err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM teacher_availability WHERE profile_id = $1`, input.ProfileID); err != nil {
		return fmt.Errorf("count availability windows: %w", err)
	}
	if count < 1 {
		return ErrNoAvailability
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit teacher patch: %w", err)
	}
	return nil
}

// SetTeacherActivation flips the marketplace activation flag. Returns
// sql.ErrNoRows when the teacher extension row does not exist.
func (r *ProfileRepository) SetTeacherActivation(ctx context.Context, profileID string, active bool) (bool, error) {
	defer r.observe("profiles.activation", time.Now())
	var updated bool
	err := r.db.GetContext(ctx, &updated,
		`UPDATE teacher_profiles SET is_active_teacher = $2, updated_at = now()
		WHERE profile_id = $1 RETURNING is_active_teacher`, profileID, active)
	if err != nil {
		return false, err
	}
	return updated, nil
}

// ensureProfileTx creates the base profile on first write or verifies the
// stored role matches the patch target. The role is immutable once set.
func ensureProfileTx(ctx context.Context, tx *sqlx.Tx, profileID, email string, role models.Role, firstName, lastName *string) error {
	var existingRole models.Role
	err := tx.GetContext(ctx, &existingRole, `SELECT role FROM profiles WHERE id = $1`, profileID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load profile: %w", err)
		}
		if email == "" {
			return ErrEmailRequired
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (id, email, first_name, last_name, role, auth_email_confirmed)
			VALUES ($1, $2, $3, $4, $5, true)`,
			profileID, email, firstName, lastName, role)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	}

	if existingRole != role {
		return fmt.Errorf("%w: registered as %q", ErrRoleMismatch, existingRole)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE profiles SET first_name = COALESCE($2, first_name), last_name = COALESCE($3, last_name), updated_at = now()
		WHERE id = $1`, profileID, firstName, lastName)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func mergeTeacherExtension(input TeacherPatchInput, existing models.TeacherProfile) models.TeacherProfile {
	merged := existing
	merged.Phone = coalesce(input.Phone, existing.Phone)
	merged.CPF = coalesce(input.CPF, existing.CPF)
	merged.ProfessionalRegistration = coalesce(input.ProfessionalRegistration, existing.ProfessionalRegistration)
	merged.City = coalesce(input.City, existing.City)
	merged.State = coalesce(input.State, existing.State)
	merged.Modality = coalesce(input.Modality, existing.Modality)
	merged.MiniBio = coalesce(input.MiniBio, existing.MiniBio)
	if input.HourlyRate != nil {
		merged.HourlyRate = input.HourlyRate
	}
	if input.LessonDurationMinutes != nil {
		merged.LessonDurationMinutes = input.LessonDurationMinutes
	}
	merged.ProfilePhotoFileName = coalesce(input.ProfilePhotoFileName, existing.ProfilePhotoFileName)
	if input.RequestExperienceAnonymity != nil {
		merged.RequestExperienceAnonymity = *input.RequestExperienceAnonymity
	}
	return merged
}

func coalesce(patch, existing *string) *string {
	if patch != nil {
		return patch
	}
	return existing
}
