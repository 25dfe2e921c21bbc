package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidario/kidario-api/internal/models"
	"github.com/kidario/kidario-api/internal/repository"
)

type profileStoreMock struct {
	profile       *models.Profile
	profileErr    error
	parentExists  bool
	teacherExists bool
	parentErr     error
	teacherErr    error
	activation    bool
	activationErr error

	parentInput  *repository.ParentPatchInput
	teacherInput *repository.TeacherPatchInput
}

func (m *profileStoreMock) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *profileStoreMock) ParentExtensionExists(ctx context.Context, id string) (bool, error) {
	return m.parentExists, nil
}

func (m *profileStoreMock) TeacherExtensionExists(ctx context.Context, id string) (bool, error) {
	return m.teacherExists, nil
}

func (m *profileStoreMock) ApplyParentPatch(ctx context.Context, input repository.ParentPatchInput) error {
	m.parentInput = &input
	return m.parentErr
}

func (m *profileStoreMock) ApplyTeacherPatch(ctx context.Context, input repository.TeacherPatchInput) error {
	m.teacherInput = &input
	return m.teacherErr
}

func (m *profileStoreMock) SetTeacherActivation(ctx context.Context, profileID string, active bool) (bool, error) {
	if m.activationErr != nil {
		return false, m.activationErr
	}
	return m.activation, nil
}

func newProfileService(store *profileStoreMock) *ProfileService {
	return NewProfileService(store, validator.New(), nil, true)
}

func TestProfileMeNotFound(t *testing.T) {
	svc := newProfileService(&profileStoreMock{profileErr: sql.ErrNoRows})

	_, err := svc.Me(context.Background(), testClaims("ghost"))
	typed := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Profile does not exist yet.", typed.Message)
}

func TestProfileMeReturnsExtensionFlags(t *testing.T) {
	store := &profileStoreMock{
		profile:      &models.Profile{ID: "parent-1", Email: "p@example.com", Role: models.RoleParent},
		parentExists: true,
	}
	svc := newProfileService(store)

	me, err := svc.Me(context.Background(), testClaims("parent-1"))
	require.NoError(t, err)
	assert.True(t, me.ParentProfileExists)
	assert.False(t, me.TeacherProfileExists)
	assert.Equal(t, models.RoleParent, me.Profile.Role)
}

func TestPatchParentRejectsEmptyPatch(t *testing.T) {
	svc := newProfileService(&profileStoreMock{})

	_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), ParentProfilePatch{})
	typed := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Patch must include at least one field.", typed.Message)
}

func TestPatchParentRejectsBadBirthDate(t *testing.T) {
	svc := newProfileService(&profileStoreMock{})

	bad := "08/09/1990"
	_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), ParentProfilePatch{BirthDate: &bad})
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

func TestPatchParentRejectsBadBirthMonthYear(t *testing.T) {
	svc := newProfileService(&profileStoreMock{})

	for _, bad := range []string{"January 2020", "2020/01", "2020-13", "2020-1"} {
		patch := ParentProfilePatch{ChildrenOps: &ChildrenOps{
			Upsert: []ChildUpsert{{Name: "Ana", BirthMonthYear: strPtr(bad)}},
		}}
		_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), patch)
		typed := requireStatus(t, err, http.StatusUnprocessableEntity)
		assert.Equal(t, "birth_month_year must have format YYYY-MM.", typed.Message)
	}
}

func TestPatchParentAcceptsYearMonthBirth(t *testing.T) {
	store := &profileStoreMock{}
	svc := newProfileService(store)

	patch := ParentProfilePatch{ChildrenOps: &ChildrenOps{
		Upsert: []ChildUpsert{{Name: "Ana", BirthMonthYear: strPtr("2020-01")}},
	}}
	_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), patch)
	require.NoError(t, err)
	require.Len(t, store.parentInput.ChildrenUpsert, 1)
	require.NotNil(t, store.parentInput.ChildrenUpsert[0].BirthMonthYear)
	assert.Equal(t, "2020-01", *store.parentInput.ChildrenUpsert[0].BirthMonthYear)
}

func TestPatchParentGeneratesChildIDs(t *testing.T) {
	store := &profileStoreMock{}
	svc := newProfileService(store)

	patch := ParentProfilePatch{ChildrenOps: &ChildrenOps{
		Upsert: []ChildUpsert{{Name: "Ana"}},
	}}
	result, err := svc.PatchParent(context.Background(), testClaims("parent-1"), patch)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, models.RoleParent, result.Role)

	require.NotNil(t, store.parentInput)
	require.Len(t, store.parentInput.ChildrenUpsert, 1)
	assert.NotEmpty(t, store.parentInput.ChildrenUpsert[0].ID)
	assert.Equal(t, "parent-1", store.parentInput.ChildrenUpsert[0].ProfileID)
	assert.True(t, store.parentInput.HasChildrenOps)
}

func TestPatchParentRoleMismatchConflicts(t *testing.T) {
	store := &profileStoreMock{parentErr: repository.ErrRoleMismatch}
	svc := newProfileService(store)

	name := "Maria"
	_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), ParentProfilePatch{FirstName: &name})
	requireStatus(t, err, http.StatusConflict)
}

func TestPatchParentMissingEmail(t *testing.T) {
	store := &profileStoreMock{parentErr: repository.ErrEmailRequired}
	svc := newProfileService(store)

	name := "Maria"
	_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), ParentProfilePatch{FirstName: &name})
	typed := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Token does not include email.", typed.Message)
}

func TestPatchParentChildInvariant(t *testing.T) {
	store := &profileStoreMock{parentErr: repository.ErrNoChildren}
	svc := newProfileService(store)

	patch := ParentProfilePatch{ChildrenOps: &ChildrenOps{
		DeleteIDs: []string{"3f3e0a52-0000-4000-8000-000000000001"},
	}}
	_, err := svc.PatchParent(context.Background(), testClaims("parent-1"), patch)
	typed := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Parent profile must have at least one child.", typed.Message)
}

func TestPatchTeacherRejectsEmptyPatch(t *testing.T) {
	svc := newProfileService(&profileStoreMock{})

	_, err := svc.PatchTeacher(context.Background(), testClaims("teacher-1"), TeacherProfilePatch{})
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

func TestPatchTeacherRejectsUnknownModality(t *testing.T) {
	svc := newProfileService(&profileStoreMock{})

	modality := "domicilio"
	_, err := svc.PatchTeacher(context.Background(), testClaims("teacher-1"), TeacherProfilePatch{Modality: &modality})
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

func TestPatchTeacherRejectsMalformedAvailabilityTimes(t *testing.T) {
	svc := newProfileService(&profileStoreMock{})

	patch := TeacherProfilePatch{AvailabilityOps: &AvailabilityOps{
		Upsert: []AvailabilityUpsert{{DayOfWeek: 0, StartTime: "9am", EndTime: "11:00"}},
	}}
	_, err := svc.PatchTeacher(context.Background(), testClaims("teacher-1"), patch)
	typed := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Availability times must have format HH:mm.", typed.Message)
}

func TestPatchTeacherAvailabilityInvariant(t *testing.T) {
	store := &profileStoreMock{teacherErr: repository.ErrNoAvailability}
	svc := newProfileService(store)

	patch := TeacherProfilePatch{AvailabilityOps: &AvailabilityOps{
		DeleteIDs: []string{"3f3e0a52-0000-4000-8000-000000000001"},
	}}
	_, err := svc.PatchTeacher(context.Background(), testClaims("teacher-1"), patch)
	typed := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Teacher profile must have at least one availability slot.", typed.Message)
}

func TestPatchTeacherBuildsCollectionInput(t *testing.T) {
	store := &profileStoreMock{}
	svc := newProfileService(store)

	rate := 95.0
	patch := TeacherProfilePatch{
		HourlyRate: &rate,
		SpecialtiesOps: &SpecialtiesOps{
			Add:    []string{"Alfabetizacao"},
			Remove: []string{"Ingles"},
		},
		AvailabilityOps: &AvailabilityOps{
			Upsert: []AvailabilityUpsert{{DayOfWeek: 2, StartTime: "09:00", EndTime: "12:00"}},
		},
	}
	result, err := svc.PatchTeacher(context.Background(), testClaims("teacher-1"), patch)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, result.Role)

	require.NotNil(t, store.teacherInput)
	assert.Equal(t, []string{"Alfabetizacao"}, store.teacherInput.SpecialtiesAdd)
	assert.Equal(t, []string{"Ingles"}, store.teacherInput.SpecialtiesRemove)
	require.Len(t, store.teacherInput.AvailabilityUpsert, 1)
	assert.NotEmpty(t, store.teacherInput.AvailabilityUpsert[0].ID)
	assert.Equal(t, &rate, store.teacherInput.HourlyRate)
}

func TestSetTeacherActivationNotFound(t *testing.T) {
	svc := newProfileService(&profileStoreMock{activationErr: sql.ErrNoRows})

	_, err := svc.SetTeacherActivation(context.Background(), "missing", true)
	typed := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Teacher profile not found.", typed.Message)
}

func TestSetTeacherActivationEchoesStoredFlag(t *testing.T) {
	svc := newProfileService(&profileStoreMock{activation: true})

	result, err := svc.SetTeacherActivation(context.Background(), "teacher-1", true)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.True(t, result.IsActiveTeacher)
}
