package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidario/kidario-api/internal/models"
	"github.com/kidario/kidario-api/internal/repository"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
)

type bookingStoreMock struct {
	createErr     error
	created       *models.Booking
	detailRow     *models.BookingDetailRow
	detailErr     error
	followUp      *models.FollowUp
	followUpErr   error
	parentLessons []models.ParentAgendaLesson
	rescheduleErr error
	cancelErr     error
	completeErr   error
}

func (m *bookingStoreMock) CreateIfSlotFree(ctx context.Context, booking *models.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	booking.ID = "booking-1"
	m.created = booking
	return nil
}

func (m *bookingStoreMock) FindDetailRow(ctx context.Context, id string) (*models.BookingDetailRow, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detailRow, nil
}

func (m *bookingStoreMock) FindFollowUp(ctx context.Context, bookingID string) (*models.FollowUp, error) {
	if m.followUpErr != nil {
		return nil, m.followUpErr
	}
	return m.followUp, nil
}

func (m *bookingStoreMock) ParentAgenda(ctx context.Context, parentID, tab string, childID *string) ([]models.ParentAgendaLesson, error) {
	return m.parentLessons, nil
}

func (m *bookingStoreMock) TeacherAgenda(ctx context.Context, teacherID, tab string, status *models.BookingStatus) ([]models.TeacherAgendaLesson, error) {
	return nil, nil
}

func (m *bookingStoreMock) Reschedule(ctx context.Context, booking *models.Booking, dateISO, timeValue string) error {
	if m.rescheduleErr != nil {
		return m.rescheduleErr
	}
	booking.DateISO = dateISO
	booking.Time = timeValue
	booking.UpdatedAt = time.Now()
	return nil
}

func (m *bookingStoreMock) Cancel(ctx context.Context, booking *models.Booking, reason *string) error {
	if m.cancelErr != nil {
		return m.cancelErr
	}
	booking.Status = models.BookingStatusCancelled
	booking.CancellationReason = reason
	booking.UpdatedAt = time.Now()
	return nil
}

func (m *bookingStoreMock) CompleteWithFollowUp(ctx context.Context, booking *models.Booking, followUp *models.FollowUp) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	booking.Status = models.BookingStatusCompleted
	followUp.UpdatedAt = time.Now()
	return nil
}

type bookingProfilesMock struct {
	role          models.Role
	roleErr       error
	childOwned    bool
	children      []models.Child
	teacherExists bool
	hourlyRate    float64
	hourlyErr     error
}

func (m *bookingProfilesMock) ProfileRole(ctx context.Context, id string) (models.Role, error) {
	if m.roleErr != nil {
		return "", m.roleErr
	}
	return m.role, nil
}

func (m *bookingProfilesMock) ChildBelongsToParent(ctx context.Context, childID, parentID string) (bool, error) {
	return m.childOwned, nil
}

func (m *bookingProfilesMock) ListChildren(ctx context.Context, parentID string) ([]models.Child, error) {
	return m.children, nil
}

func (m *bookingProfilesMock) TeacherExtensionExists(ctx context.Context, id string) (bool, error) {
	return m.teacherExists, nil
}

func (m *bookingProfilesMock) TeacherHourlyRate(ctx context.Context, id string) (float64, error) {
	if m.hourlyErr != nil {
		return 0, m.hourlyErr
	}
	return m.hourlyRate, nil
}

func testClaims(subject string) *models.AuthClaims {
	return &models.AuthClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}
}

func newBookingService(store *bookingStoreMock, profiles *bookingProfilesMock) *BookingService {
	return NewBookingService(store, profiles, validator.New(), nil, true)
}

func requireStatus(t *testing.T, err error, status int) *appErrors.Error {
	t.Helper()
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, status, typed.Status)
	return typed
}

func validCreateRequest() BookingCreateRequest {
	return BookingCreateRequest{
		TeacherProfileID: "3f3e0a52-0000-4000-8000-000000000001",
		DateISO:          "2025-09-08",
		Time:             "10:00",
		DurationMinutes:  60,
		Modality:         models.ModalityOnline,
		PaymentMethod:    models.PaymentMethodCard,
	}
}

func TestBookingCreateCardConfirmsImmediately(t *testing.T) {
	store := &bookingStoreMock{}
	profiles := &bookingProfilesMock{
		role:          models.RoleParent,
		children:      []models.Child{{ID: "child-1"}},
		teacherExists: true,
		hourlyRate:    80,
	}
	svc := newBookingService(store, profiles)

	req := validCreateRequest()
	req.DurationMinutes = 90

	result, err := svc.Create(context.Background(), testClaims("parent-1"), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "booking-1", result.BookingID)
	assert.Equal(t, models.BookingStatusConfirmed, result.BookingStatus)
	assert.Equal(t, models.PaymentStatusPaid, result.PaymentStatus)

	require.NotNil(t, store.created)
	assert.Equal(t, 120.0, store.created.PriceTotal)
	assert.Equal(t, "BRL", store.created.Currency)
	assert.Equal(t, "child-1", store.created.ChildID)
	assert.Equal(t, "parent-1", store.created.ParentProfileID)
}

func TestBookingCreatePixStaysPending(t *testing.T) {
	store := &bookingStoreMock{}
	profiles := &bookingProfilesMock{
		role:          models.RoleParent,
		children:      []models.Child{{ID: "child-1"}},
		teacherExists: true,
		hourlyRate:    100,
	}
	svc := newBookingService(store, profiles)

	req := validCreateRequest()
	req.PaymentMethod = models.PaymentMethodPix

	result, err := svc.Create(context.Background(), testClaims("parent-1"), req)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, result.BookingStatus)
	assert.Equal(t, models.PaymentStatusPending, result.PaymentStatus)
	assert.Equal(t, 100.0, store.created.PriceTotal)
}

func TestBookingCreateSlotTaken(t *testing.T) {
	store := &bookingStoreMock{createErr: repository.ErrSlotTaken}
	profiles := &bookingProfilesMock{
		role:          models.RoleParent,
		children:      []models.Child{{ID: "child-1"}},
		teacherExists: true,
	}
	svc := newBookingService(store, profiles)

	_, err := svc.Create(context.Background(), testClaims("parent-1"), validCreateRequest())
	typed := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, "Selected slot is no longer available.", typed.Message)
}

func TestBookingCreateTeacherMissingIsValidation(t *testing.T) {
	store := &bookingStoreMock{}
	profiles := &bookingProfilesMock{
		role:     models.RoleParent,
		children: []models.Child{{ID: "child-1"}},
	}
	svc := newBookingService(store, profiles)

	_, err := svc.Create(context.Background(), testClaims("parent-1"), validCreateRequest())
	typed := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Teacher profile not found.", typed.Message)
}

func TestBookingCreateRequiresParentRole(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{role: models.RoleTeacher})

	_, err := svc.Create(context.Background(), testClaims("teacher-1"), validCreateRequest())
	typed := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "Only parent users can perform this action.", typed.Message)
}

func TestBookingCreateMissingProfileIsForbidden(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{roleErr: sql.ErrNoRows})

	_, err := svc.Create(context.Background(), testClaims("ghost"), validCreateRequest())
	requireStatus(t, err, http.StatusForbidden)
}

func TestBookingCreateParentProfileIDMismatch(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{role: models.RoleParent})

	other := "3f3e0a52-0000-4000-8000-000000000099"
	req := validCreateRequest()
	req.ParentProfileID = &other

	_, err := svc.Create(context.Background(), testClaims("parent-1"), req)
	typed := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "parent_profile_id does not match the authenticated user.", typed.Message)
}

func TestBookingCreateChildResolution(t *testing.T) {
	explicit := "3f3e0a52-0000-4000-8000-000000000042"

	tests := []struct {
		name     string
		childID  *string
		profiles *bookingProfilesMock
		wantErr  string
	}{
		{
			name:     "explicit child not owned",
			childID:  &explicit,
			profiles: &bookingProfilesMock{role: models.RoleParent, childOwned: false, teacherExists: true},
			wantErr:  "child_id does not belong to the authenticated parent.",
		},
		{
			name:     "no children",
			profiles: &bookingProfilesMock{role: models.RoleParent, teacherExists: true},
			wantErr:  "Parent profile does not have children yet.",
		},
		{
			name: "multiple children need explicit id",
			profiles: &bookingProfilesMock{
				role:          models.RoleParent,
				children:      []models.Child{{ID: "a"}, {ID: "b"}},
				teacherExists: true,
			},
			wantErr: "Multiple children found. child_id is required.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newBookingService(&bookingStoreMock{}, tt.profiles)
			req := validCreateRequest()
			req.ChildID = tt.childID

			_, err := svc.Create(context.Background(), testClaims("parent-1"), req)
			typed := requireStatus(t, err, http.StatusUnprocessableEntity)
			assert.Equal(t, tt.wantErr, typed.Message)
		})
	}
}

func TestBookingCreateRejectsMalformedDateAndTime(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{role: models.RoleParent})

	req := validCreateRequest()
	req.DateISO = "08/09/2025"
	_, err := svc.Create(context.Background(), testClaims("parent-1"), req)
	requireStatus(t, err, http.StatusUnprocessableEntity)

	req = validCreateRequest()
	req.Time = "10h00"
	_, err = svc.Create(context.Background(), testClaims("parent-1"), req)
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

func detailRowFixture(status models.BookingStatus) *models.BookingDetailRow {
	return &models.BookingDetailRow{
		Booking: models.Booking{
			ID:               "booking-1",
			ParentProfileID:  "parent-1",
			ChildID:          "child-1",
			TeacherProfileID: "teacher-1",
			DateISO:          "2025-09-08",
			Time:             "10:00",
			DurationMinutes:  60,
			Modality:         models.ModalityOnline,
			Status:           status,
			PriceTotal:       80,
			Currency:         "BRL",
		},
		ChildName: "Ana",
		Specialty: "Apoio pedagogico",
	}
}

func TestBookingDetailNotFound(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{detailErr: sql.ErrNoRows}, &bookingProfilesMock{})

	_, err := svc.Detail(context.Background(), testClaims("parent-1"), "missing")
	typed := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Booking not found.", typed.Message)
}

func TestBookingDetailStrangerForbidden(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusConfirmed)}
	svc := newBookingService(store, &bookingProfilesMock{})

	_, err := svc.Detail(context.Background(), testClaims("stranger"), "booking-1")
	typed := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "You do not have access to this booking.", typed.Message)
}

func TestBookingDetailActionsForParentOwner(t *testing.T) {
	store := &bookingStoreMock{
		detailRow:   detailRowFixture(models.BookingStatusConfirmed),
		followUpErr: sql.ErrNoRows,
	}
	svc := newBookingService(store, &bookingProfilesMock{})

	detail, err := svc.Detail(context.Background(), testClaims("parent-1"), "booking-1")
	require.NoError(t, err)
	assert.True(t, detail.Actions.CanReschedule)
	assert.True(t, detail.Actions.CanCancel)
	assert.False(t, detail.Actions.CanComplete)
	assert.Equal(t, "08/09/2025", detail.DateLabel)
	assert.Equal(t, "Professora Kidario", detail.TeacherName)
	assert.Nil(t, detail.LatestFollowUp)
}

func TestBookingDetailActionsForTeacherOwner(t *testing.T) {
	store := &bookingStoreMock{
		detailRow:   detailRowFixture(models.BookingStatusConfirmed),
		followUpErr: sql.ErrNoRows,
	}
	svc := newBookingService(store, &bookingProfilesMock{})

	detail, err := svc.Detail(context.Background(), testClaims("teacher-1"), "booking-1")
	require.NoError(t, err)
	assert.False(t, detail.Actions.CanReschedule)
	assert.False(t, detail.Actions.CanCancel)
	assert.True(t, detail.Actions.CanComplete)
}

func TestBookingRescheduleOnlyParentOwner(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusConfirmed)}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingReschedulePatch{NewDateISO: "2025-09-10", NewTime: "14:00"}
	_, err := svc.Reschedule(context.Background(), testClaims("teacher-1"), "booking-1", patch)
	typed := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "Only the parent owner can reschedule the booking.", typed.Message)
}

func TestBookingRescheduleTerminalStatusConflicts(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusCancelled)}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingReschedulePatch{NewDateISO: "2025-09-10", NewTime: "14:00"}
	_, err := svc.Reschedule(context.Background(), testClaims("parent-1"), "booking-1", patch)
	typed := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, "Booking cannot be rescheduled in the current status.", typed.Message)
}

func TestBookingRescheduleMovesSlot(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusPending)}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingReschedulePatch{NewDateISO: "2025-09-10", NewTime: "14:00"}
	result, err := svc.Reschedule(context.Background(), testClaims("parent-1"), "booking-1", patch)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "2025-09-10", result.DateISO)
	assert.Equal(t, "14:00", result.Time)
}

func TestBookingRescheduleTargetSlotTaken(t *testing.T) {
	store := &bookingStoreMock{
		detailRow:     detailRowFixture(models.BookingStatusPending),
		rescheduleErr: repository.ErrSlotTaken,
	}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingReschedulePatch{NewDateISO: "2025-09-10", NewTime: "14:00"}
	_, err := svc.Reschedule(context.Background(), testClaims("parent-1"), "booking-1", patch)
	requireStatus(t, err, http.StatusConflict)
}

func TestBookingCancelRequiresReason(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{})

	_, err := svc.Cancel(context.Background(), testClaims("parent-1"), "booking-1", BookingCancelPatch{})
	requireStatus(t, err, http.StatusUnprocessableEntity)
}

func TestBookingCancelCompletedConflicts(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusCompleted)}
	svc := newBookingService(store, &bookingProfilesMock{})

	_, err := svc.Cancel(context.Background(), testClaims("parent-1"), "booking-1",
		BookingCancelPatch{Reason: "mudanca de planos"})
	typed := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, "Booking cannot be cancelled in the current status.", typed.Message)
}

func TestBookingCancelHappyPath(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusPending)}
	svc := newBookingService(store, &bookingProfilesMock{})

	result, err := svc.Cancel(context.Background(), testClaims("parent-1"), "booking-1",
		BookingCancelPatch{Reason: "conflito de horario"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, result.BookingStatus)
	assert.Equal(t, "conflito de horario", result.CancellationReason)
}

func TestBookingCompleteOnlyTeacherOwner(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusConfirmed)}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingCompletePatch{FollowUp: BookingFollowUpPayload{Summary: "s", NextSteps: "n"}}
	_, err := svc.Complete(context.Background(), testClaims("parent-1"), "booking-1", patch)
	typed := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "Only the teacher owner can complete the booking.", typed.Message)
}

func TestBookingCompleteRequiresConfirmedStatus(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusPending)}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingCompletePatch{FollowUp: BookingFollowUpPayload{Summary: "s", NextSteps: "n"}}
	_, err := svc.Complete(context.Background(), testClaims("teacher-1"), "booking-1", patch)
	typed := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, "Only confirmed bookings can be completed.", typed.Message)
}

func TestBookingCompleteRecordsFollowUp(t *testing.T) {
	store := &bookingStoreMock{detailRow: detailRowFixture(models.BookingStatusConfirmed)}
	svc := newBookingService(store, &bookingProfilesMock{})

	patch := BookingCompletePatch{FollowUp: BookingFollowUpPayload{
		Summary:   "trabalhou leitura",
		NextSteps: "exercicios de fixacao",
	}}
	result, err := svc.Complete(context.Background(), testClaims("teacher-1"), "booking-1", patch)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, result.BookingStatus)
	require.NotNil(t, result.LatestFollowUp)
	assert.Equal(t, "trabalhou leitura", result.LatestFollowUp.Summary)
	assert.NotNil(t, result.LatestFollowUp.Tags)
	assert.NotNil(t, result.LatestFollowUp.AttentionPoints)
}

func TestParentAgendaFillsDateLabels(t *testing.T) {
	store := &bookingStoreMock{parentLessons: []models.ParentAgendaLesson{
		{ID: "b1", DateISO: "2025-09-08"},
	}}
	svc := newBookingService(store, &bookingProfilesMock{role: models.RoleParent})

	agenda, err := svc.ParentAgenda(context.Background(), testClaims("parent-1"), AgendaQuery{})
	require.NoError(t, err)
	require.Len(t, agenda.Lessons, 1)
	assert.Equal(t, "08/09/2025", agenda.Lessons[0].DateLabel)
}

func TestParentAgendaEmptyListIsNotNil(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{role: models.RoleParent})

	agenda, err := svc.ParentAgenda(context.Background(), testClaims("parent-1"), AgendaQuery{Tab: "past"})
	require.NoError(t, err)
	assert.NotNil(t, agenda.Lessons)
	assert.Empty(t, agenda.Lessons)
}

func TestTeacherAgendaRequiresTeacherRole(t *testing.T) {
	svc := newBookingService(&bookingStoreMock{}, &bookingProfilesMock{role: models.RoleParent})

	_, err := svc.TeacherAgenda(context.Background(), testClaims("parent-1"), AgendaQuery{})
	typed := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "Only teacher users can perform this action.", typed.Message)
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 66.67, roundPrice(200.0/3))
	assert.Equal(t, 120.0, roundPrice(80*90.0/60))
}

func TestNormalizeTab(t *testing.T) {
	assert.Equal(t, "upcoming", normalizeTab(""))
	assert.Equal(t, "upcoming", normalizeTab("upcoming"))
	assert.Equal(t, "past", normalizeTab("past"))
}
