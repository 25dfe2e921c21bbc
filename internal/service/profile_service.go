package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kidario/kidario-api/internal/models"
	"github.com/kidario/kidario-api/internal/repository"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
)

// ProfileStore is the persistence surface the profile service needs.
type ProfileStore interface {
	FindProfile(ctx context.Context, id string) (*models.Profile, error)
	ParentExtensionExists(ctx context.Context, id string) (bool, error)
	TeacherExtensionExists(ctx context.Context, id string) (bool, error)
	ApplyParentPatch(ctx context.Context, input repository.ParentPatchInput) error
	ApplyTeacherPatch(ctx context.Context, input repository.TeacherPatchInput) error
	SetTeacherActivation(ctx context.Context, profileID string, active bool) (bool, error)
}

// ChildUpsert is one child create-or-update entry in a parent patch.
type ChildUpsert struct {
	ID             *string `json:"id" validate:"omitempty,uuid"`
	Name           string  `json:"name" validate:"required"`
	Gender         *string `json:"gender"`
	Age            *int    `json:"age" validate:"omitempty,gte=0,lte=18"`
	CurrentGrade   *string `json:"current_grade"`
	BirthMonthYear *string `json:"birth_month_year"`
	School         *string `json:"school"`
	FocusPoints    *string `json:"focus_points"`
}

// ChildrenOps carries nested child mutations of a parent patch.
type ChildrenOps struct {
	Upsert    []ChildUpsert `json:"upsert" validate:"dive"`
	DeleteIDs []string      `json:"delete_ids" validate:"dive,uuid"`
}

// ParentProfilePatch is the PATCH /profiles/parent request body.
type ParentProfilePatch struct {
	FirstName   *string      `json:"first_name"`
	LastName    *string      `json:"last_name"`
	Phone       *string      `json:"phone"`
	BirthDate   *string      `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Address     *string      `json:"address"`
	Bio         *string      `json:"bio"`
	ChildrenOps *ChildrenOps `json:"children_ops"`
}

// empty reports whether the patch carries nothing to apply. A present
// children_ops object counts as a field even when both of its lists are
// empty; such a patch degenerates to a bare extension upsert.
func (p ParentProfilePatch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.BirthDate == nil && p.Address == nil && p.Bio == nil && p.ChildrenOps == nil
}

// SpecialtiesOps adds or removes free-form specialty tags.
type SpecialtiesOps struct {
	Add    []string `json:"add" validate:"dive,required"`
	Remove []string `json:"remove" validate:"dive,required"`
}

// FormationUpsert is one education record entry in a teacher patch.
type FormationUpsert struct {
	ID             *string `json:"id" validate:"omitempty,uuid"`
	DegreeType     string  `json:"degree_type" validate:"required"`
	CourseName     string  `json:"course_name" validate:"required"`
	Institution    string  `json:"institution" validate:"required"`
	CompletionYear *string `json:"completion_year"`
}

// FormationsOps carries nested formation mutations of a teacher patch.
type FormationsOps struct {
	Upsert    []FormationUpsert `json:"upsert" validate:"dive"`
	DeleteIDs []string          `json:"delete_ids" validate:"dive,uuid"`
}

// ExperienceUpsert is one professional experience entry in a teacher patch.
type ExperienceUpsert struct {
	ID               *string `json:"id" validate:"omitempty,uuid"`
	Institution      string  `json:"institution" validate:"required"`
	Role             string  `json:"role" validate:"required"`
	Responsibilities string  `json:"responsibilities" validate:"required"`
	PeriodFrom       string  `json:"period_from" validate:"required"`
	PeriodTo         *string `json:"period_to"`
	CurrentPosition  bool    `json:"current_position"`
}

// ExperiencesOps carries nested experience mutations of a teacher patch.
type ExperiencesOps struct {
	Upsert    []ExperienceUpsert `json:"upsert" validate:"dive"`
	DeleteIDs []string           `json:"delete_ids" validate:"dive,uuid"`
}

// AvailabilityUpsert is one weekly window entry in a teacher patch.
type AvailabilityUpsert struct {
	ID        *string `json:"id" validate:"omitempty,uuid"`
	DayOfWeek int     `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
}

// AvailabilityOps carries nested availability mutations of a teacher patch.
type AvailabilityOps struct {
	Upsert    []AvailabilityUpsert `json:"upsert" validate:"dive"`
	DeleteIDs []string             `json:"delete_ids" validate:"dive,uuid"`
}

// TeacherProfilePatch is the PATCH /profiles/teacher request body.
type TeacherProfilePatch struct {
	FirstName                  *string  `json:"first_name"`
	LastName                   *string  `json:"last_name"`
	Phone                      *string  `json:"phone"`
	CPF                        *string  `json:"cpf"`
	ProfessionalRegistration   *string  `json:"professional_registration"`
	City                       *string  `json:"city"`
	State                      *string  `json:"state"`
	Modality                   *string  `json:"modality" validate:"omitempty,oneof=online presencial hibrido"`
	MiniBio                    *string  `json:"mini_bio"`
	HourlyRate                 *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	LessonDurationMinutes      *int     `json:"lesson_duration_minutes" validate:"omitempty,gte=15,lte=300"`
	ProfilePhotoFileName       *string  `json:"profile_photo_file_name"`
	RequestExperienceAnonymity *bool    `json:"request_experience_anonymity"`

	SpecialtiesOps  *SpecialtiesOps  `json:"specialties_ops"`
	FormationsOps   *FormationsOps   `json:"formations_ops"`
	ExperiencesOps  *ExperiencesOps  `json:"experiences_ops"`
	AvailabilityOps *AvailabilityOps `json:"availability_ops"`
}

func (p TeacherProfilePatch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.CPF == nil &&
		p.ProfessionalRegistration == nil && p.City == nil && p.State == nil &&
		p.Modality == nil && p.MiniBio == nil && p.HourlyRate == nil &&
		p.LessonDurationMinutes == nil && p.ProfilePhotoFileName == nil &&
		p.RequestExperienceAnonymity == nil && p.SpecialtiesOps == nil &&
		p.FormationsOps == nil && p.ExperiencesOps == nil && p.AvailabilityOps == nil
}

// ProfilePatchResult acknowledges a successful profile patch.
type ProfilePatchResult struct {
	Status    string      `json:"status"`
	ProfileID string      `json:"profile_id"`
	Role      models.Role `json:"role"`
}

// ActivationResult acknowledges a teacher activation toggle.
type ActivationResult struct {
	Status          string `json:"status"`
	ProfileID       string `json:"profile_id"`
	IsActiveTeacher bool   `json:"is_active_teacher"`
}

// ProfileService implements profile reads and the role-scoped patch batches.
type ProfileService struct {
	store    ProfileStore
	validate *validator.Validate
	logger   *zap.Logger
	verbose  bool
}

// NewProfileService constructs a ProfileService. The verbose flag controls
// whether database failure details leak into error messages; production
// deployments must pass false.
func NewProfileService(store ProfileStore, validate *validator.Validate, logger *zap.Logger, verbose bool) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: store, validate: validate, logger: logger, verbose: verbose}
}

// Me returns the caller's base profile with extension existence flags.
func (s *ProfileService) Me(ctx context.Context, claims *models.AuthClaims) (*models.Me, error) {
	profile, err := s.store.FindProfile(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Profile does not exist yet.")
		}
		return nil, appErrors.FromDB(err, s.verbose)
	}

	parentExists, err := s.store.ParentExtensionExists(ctx, claims.UserID())
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	teacherExists, err := s.store.TeacherExtensionExists(ctx, claims.UserID())
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	return &models.Me{
		Profile:              *profile,
		ParentProfileExists:  parentExists,
		TeacherProfileExists: teacherExists,
	}, nil
}

// PatchParent applies a parent profile patch batch.
func (s *ProfileService) PatchParent(ctx context.Context, claims *models.AuthClaims, patch ParentProfilePatch) (*ProfilePatchResult, error) {
	if patch.empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Patch must include at least one field.")
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	input := repository.ParentPatchInput{
		ProfileID: claims.UserID(),
		Email:     claims.Email,
		FirstName: patch.FirstName,
		LastName:  patch.LastName,
		Phone:     patch.Phone,
		BirthDate: patch.BirthDate,
		Address:   patch.Address,
		Bio:       patch.Bio,
	}
	if patch.ChildrenOps != nil {
		input.HasChildrenOps = true
		input.ChildrenDelete = patch.ChildrenOps.DeleteIDs
		for _, child := range patch.ChildrenOps.Upsert {
			if child.BirthMonthYear != nil && !validYearMonth(*child.BirthMonthYear) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "birth_month_year must have format YYYY-MM.")
			}
			id := ""
			if child.ID != nil {
				id = *child.ID
			}
			if id == "" {
				id = newRecordID()
			}
			input.ChildrenUpsert = append(input.ChildrenUpsert, models.Child{
				ID:             id,
				ProfileID:      claims.UserID(),
				Name:           child.Name,
				Gender:         child.Gender,
				Age:            child.Age,
				CurrentGrade:   child.CurrentGrade,
				BirthMonthYear: child.BirthMonthYear,
				School:         child.School,
				FocusPoints:    child.FocusPoints,
			})
		}
	}

	if err := s.store.ApplyParentPatch(ctx, input); err != nil {
		return nil, s.mapPatchError(err, "Parent profile must have at least one child.")
	}

	s.logger.Info("parent profile patched", zap.String("profile_id", claims.UserID()))
	return &ProfilePatchResult{Status: "ok", ProfileID: claims.UserID(), Role: models.RoleParent}, nil
}

// PatchTeacher applies a teacher profile patch batch.
func (s *ProfileService) PatchTeacher(ctx context.Context, claims *models.AuthClaims, patch TeacherProfilePatch) (*ProfilePatchResult, error) {
	if patch.empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Patch must include at least one field.")
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if patch.AvailabilityOps != nil {
		for _, window := range patch.AvailabilityOps.Upsert {
			if !validHHMM(window.StartTime) || !validHHMM(window.EndTime) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "Availability times must have format HH:mm.")
			}
		}
	}

	input := repository.TeacherPatchInput{
		ProfileID:                  claims.UserID(),
		Email:                      claims.Email,
		FirstName:                  patch.FirstName,
		LastName:                   patch.LastName,
		Phone:                      patch.Phone,
		CPF:                        patch.CPF,
		ProfessionalRegistration:   patch.ProfessionalRegistration,
		City:                       patch.City,
		State:                      patch.State,
		Modality:                   patch.Modality,
		MiniBio:                    patch.MiniBio,
		HourlyRate:                 patch.HourlyRate,
		LessonDurationMinutes:      patch.LessonDurationMinutes,
		ProfilePhotoFileName:       patch.ProfilePhotoFileName,
		RequestExperienceAnonymity: patch.RequestExperienceAnonymity,
	}
	if patch.SpecialtiesOps != nil {
		input.SpecialtiesAdd = patch.SpecialtiesOps.Add
		input.SpecialtiesRemove = patch.SpecialtiesOps.Remove
	}
	if patch.FormationsOps != nil {
		input.FormationsDelete = patch.FormationsOps.DeleteIDs
		for _, formation := range patch.FormationsOps.Upsert {
			id := ""
			if formation.ID != nil {
				id = *formation.ID
			}
			if id == "" {
				id = newRecordID()
			}
			input.FormationsUpsert = append(input.FormationsUpsert, models.TeacherFormation{
				ID:             id,
				ProfileID:      claims.UserID(),
				DegreeType:     formation.DegreeType,
				CourseName:     formation.CourseName,
				Institution:    formation.Institution,
				CompletionYear: formation.CompletionYear,
			})
		}
	}
	if patch.ExperiencesOps != nil {
		input.ExperiencesDelete = patch.ExperiencesOps.DeleteIDs
		for _, experience := range patch.ExperiencesOps.Upsert {
			id := ""
			if experience.ID != nil {
				id = *experience.ID
			}
			if id == "" {
				id = newRecordID()
			}
			input.ExperiencesUpsert = append(input.ExperiencesUpsert, models.TeacherExperience{
				ID:               id,
				ProfileID:        claims.UserID(),
				Institution:      experience.Institution,
				Role:             experience.Role,
				Responsibilities: experience.Responsibilities,
				PeriodFrom:       experience.PeriodFrom,
				PeriodTo:         experience.PeriodTo,
				CurrentPosition:  experience.CurrentPosition,
			})
		}
	}
	if patch.AvailabilityOps != nil {
		input.AvailabilityDelete = patch.AvailabilityOps.DeleteIDs
		for _, window := range patch.AvailabilityOps.Upsert {
			id := ""
			if window.ID != nil {
				id = *window.ID
			}
			if id == "" {
				id = newRecordID()
			}
			input.AvailabilityUpsert = append(input.AvailabilityUpsert, models.AvailabilityWindow{
				ID:        id,
				ProfileID: claims.UserID(),
				DayOfWeek: window.DayOfWeek,
				StartTime: window.StartTime,
				EndTime:   window.EndTime,
			})
		}
	}

	if err := s.store.ApplyTeacherPatch(ctx, input); err != nil {
		return nil, s.mapPatchError(err, "Teacher profile must have at least one availability slot.")
	}

	s.logger.Info("teacher profile patched", zap.String("profile_id", claims.UserID()))
	return &ProfilePatchResult{Status: "ok", ProfileID: claims.UserID(), Role: models.RoleTeacher}, nil
}

// SetTeacherActivation toggles the marketplace visibility of a teacher.
func (s *ProfileService) SetTeacherActivation(ctx context.Context, teacherProfileID string, active bool) (*ActivationResult, error) {
	updated, err := s.store.SetTeacherActivation(ctx, teacherProfileID, active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Teacher profile not found.")
		}
		return nil, appErrors.FromDB(err, s.verbose)
	}

	s.logger.Info("teacher activation updated",
		zap.String("profile_id", teacherProfileID), zap.Bool("is_active_teacher", updated))
	return &ActivationResult{Status: "ok", ProfileID: teacherProfileID, IsActiveTeacher: updated}, nil
}

// validYearMonth reports whether value is a well-formed YYYY-MM string.
func validYearMonth(value string) bool {
	if len(value) != 7 || value[4] != '-' {
		return false
	}
	_, err := time.Parse("2006-01", value)
	return err == nil
}

func (s *ProfileService) mapPatchError(err error, invariantMessage string) error {
	switch {
	case errors.Is(err, repository.ErrRoleMismatch):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	case errors.Is(err, repository.ErrEmailRequired):
		return appErrors.Clone(appErrors.ErrValidation, "Token does not include email.")
	case errors.Is(err, repository.ErrNoChildren), errors.Is(err, repository.ErrNoAvailability):
		return appErrors.Clone(appErrors.ErrValidation, invariantMessage)
	default:
		return appErrors.FromDB(err, s.verbose)
	}
}
