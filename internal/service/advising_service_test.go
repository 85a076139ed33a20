package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sita-bi-api/internal/models"
	"github.com/noah-isme/sita-bi-api/pkg/config"
	appErrors "github.com/noah-isme/sita-bi-api/pkg/errors"
)

type stubAdvisingRepo struct {
	session   *models.AdvisingSession
	role      *models.ThesisRole
	scheduled []models.AdvisingSession

	created       *models.AdvisingSession
	rescheduled   bool
	statusUpdates []string
}

func (s *stubAdvisingRepo) FindByID(_ context.Context, id int64) (*models.AdvisingSession, error) {
	if s.session == nil || s.session.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.session, nil
}

func (s *stubAdvisingRepo) FindRole(_ context.Context, _, _ int64) (*models.ThesisRole, error) {
	if s.role == nil {
		return nil, sql.ErrNoRows
	}
	return s.role, nil
}

func (s *stubAdvisingRepo) ListScheduledOnDate(_ context.Context, _ int64, _ time.Time) ([]models.AdvisingSession, error) {
	return s.scheduled, nil
}

func (s *stubAdvisingRepo) Create(_ context.Context, session *models.AdvisingSession) error {
	session.ID = 55
	s.created = session
	return nil
}

func (s *stubAdvisingRepo) Reschedule(_ context.Context, id, _ int64, newDate time.Time, newTime, _ string) (*models.AdvisingSession, error) {
	if s.session == nil || s.session.ID != id {
		return nil, sql.ErrNoRows
	}
	s.rescheduled = true
	updated := *s.session
	updated.Date = newDate
	updated.Time = &newTime
	return &updated, nil
}

func (s *stubAdvisingRepo) UpdateStatus(_ context.Context, _ int64, status string) error {
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}

type stubDefenseReader struct {
	schedules []models.DefenseSchedule
}

func (s *stubDefenseReader) ListForDosenOnDate(_ context.Context, _ int64, _ time.Time) ([]models.DefenseSchedule, error) {
	return s.schedules, nil
}

type stubSlotCache struct {
	values   map[string][]string
	patterns []string
	sets     []string
}

func (s *stubSlotCache) Get(_ context.Context, key string, dest interface{}) error {
	cached, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*[]string)) = cached
	return nil
}

func (s *stubSlotCache) Set(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	s.sets = append(s.sets, key)
	return nil
}

func (s *stubSlotCache) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type stubActivityLog struct {
	actions []string
}

func (s *stubActivityLog) Record(_ context.Context, _ int64, action string) error {
	s.actions = append(s.actions, action)
	return nil
}

func schedulingConfig() config.SchedulingConfig {
	return config.SchedulingConfig{
		WorkdayStart:     "08:00",
		WorkdayEnd:       "16:00",
		SlotDuration:     time.Hour,
		AdvisingDuration: time.Hour,
		SlotCacheTTL:     2 * time.Minute,
	}
}

func newAdvisingService(sessions *stubAdvisingRepo, defenses *stubDefenseReader, cache *stubSlotCache, logs *stubActivityLog) *AdvisingService {
	return NewAdvisingService(sessions, defenses, cache, logs, schedulingConfig(), validator.New(), NewMetricsService(), zap.NewNop())
}

func timeRef(s string) *string { return &s }

func TestSuggestAvailableSlotsSkipsBusySlot(t *testing.T) {
	sessions := &stubAdvisingRepo{
		scheduled: []models.AdvisingSession{
			{ID: 1, DosenID: 7, Time: timeRef("08:00"), Status: models.AdvisingStatusScheduled},
		},
	}
	cache := &stubSlotCache{}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, cache, &stubActivityLog{})

	slots, err := svc.SuggestAvailableSlots(context.Background(), 7, "2026-01-12")

	require.NoError(t, err)
	assert.NotContains(t, slots, "08:00")
	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "15:00")
	// The computed result was cached for the supervisor and date.
	assert.Equal(t, []string{"advising:slots:7:2026-01-12"}, cache.sets)
}

func TestSuggestAvailableSlotsSubtractsDefenses(t *testing.T) {
	defenses := &stubDefenseReader{
		schedules: []models.DefenseSchedule{
			{StartTime: "10:30", EndTime: "11:30"},
		},
	}
	svc := newAdvisingService(&stubAdvisingRepo{}, defenses, &stubSlotCache{}, &stubActivityLog{})

	slots, err := svc.SuggestAvailableSlots(context.Background(), 7, "2026-01-12")

	require.NoError(t, err)
	// 10:30-11:30 blocks both the 10:00 and 11:00 starts; 11:30 fits.
	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "11:00")
	assert.Contains(t, slots, "11:30")
}

func TestSuggestAvailableSlotsCacheHit(t *testing.T) {
	cache := &stubSlotCache{
		values: map[string][]string{
			"advising:slots:7:2026-01-12": {"13:00"},
		},
	}
	sessions := &stubAdvisingRepo{
		scheduled: []models.AdvisingSession{
			{ID: 1, Time: timeRef("13:00"), Status: models.AdvisingStatusScheduled},
		},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, cache, &stubActivityLog{})

	slots, err := svc.SuggestAvailableSlots(context.Background(), 7, "2026-01-12")

	require.NoError(t, err)
	assert.Equal(t, []string{"13:00"}, slots)
	assert.Empty(t, cache.sets)
}

func TestDetectScheduleConflictsOverlap(t *testing.T) {
	sessions := &stubAdvisingRepo{
		scheduled: []models.AdvisingSession{
			{ID: 1, Time: timeRef("10:00"), Status: models.AdvisingStatusScheduled},
		},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	conflict, err := svc.DetectScheduleConflicts(context.Background(), 7, "2026-01-12", "10:30")
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = svc.DetectScheduleConflicts(context.Background(), 7, "2026-01-12", "11:00")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestSetScheduleRequiresSupervisorRole(t *testing.T) {
	sessions := &stubAdvisingRepo{
		role: &models.ThesisRole{DosenID: 7, Role: models.RoleExaminer1},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	_, err := svc.SetSchedule(context.Background(), 7, 9, SetScheduleRequest{
		TugasAkhirID: 10,
		Tanggal:      "2026-01-12",
		Jam:          "09:00",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotSupervisor.Code, appErrors.FromError(err).Code)
	assert.Nil(t, sessions.created)
}

func TestSetScheduleRejectsUnrelatedLecturer(t *testing.T) {
	svc := newAdvisingService(&stubAdvisingRepo{}, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	_, err := svc.SetSchedule(context.Background(), 7, 9, SetScheduleRequest{
		TugasAkhirID: 10,
		Tanggal:      "2026-01-12",
		Jam:          "09:00",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotSupervisor.Code, appErrors.FromError(err).Code)
}

func TestSetScheduleRejectsOverlap(t *testing.T) {
	sessions := &stubAdvisingRepo{
		role: &models.ThesisRole{DosenID: 7, Role: models.RoleSupervisor1},
		scheduled: []models.AdvisingSession{
			{ID: 1, Time: timeRef("09:00"), Status: models.AdvisingStatusScheduled},
		},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	_, err := svc.SetSchedule(context.Background(), 7, 9, SetScheduleRequest{
		TugasAkhirID: 10,
		Tanggal:      "2026-01-12",
		Jam:          "09:30",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, sessions.created)
}

func TestSetScheduleCreatesSession(t *testing.T) {
	sessions := &stubAdvisingRepo{
		role: &models.ThesisRole{DosenID: 7, Role: models.RoleSupervisor2},
	}
	cache := &stubSlotCache{}
	logs := &stubActivityLog{}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, cache, logs)

	session, err := svc.SetSchedule(context.Background(), 7, 9, SetScheduleRequest{
		TugasAkhirID: 10,
		Tanggal:      "2026-01-12",
		Jam:          "9:00",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), session.ID)
	assert.Equal(t, models.AdvisingStatusScheduled, session.Status)
	assert.Equal(t, models.RoleSupervisor2, session.Role)
	require.NotNil(t, session.Time)
	assert.Equal(t, "09:00", *session.Time)

	assert.Equal(t, []string{"advising:slots:7:*"}, cache.patterns)
	require.Len(t, logs.actions, 1)
	assert.Contains(t, logs.actions[0], "TA ID 10")
}

func TestRescheduleMovesSession(t *testing.T) {
	sessions := &stubAdvisingRepo{
		session: &models.AdvisingSession{ID: 3, DosenID: 7, ThesisID: 10, Time: timeRef("09:00")},
	}
	cache := &stubSlotCache{}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, cache, &stubActivityLog{})

	session, err := svc.Reschedule(context.Background(), 3, 21, 9, RescheduleRequest{
		Tanggal: "2026-01-13",
		Jam:     "14:00",
		Alasan:  "Bentrok dengan jadwal kuliah",
	})

	require.NoError(t, err)
	assert.True(t, sessions.rescheduled)
	require.NotNil(t, session.Time)
	assert.Equal(t, "14:00", *session.Time)
	assert.Equal(t, []string{"advising:slots:7:*"}, cache.patterns)
}

func TestRescheduleUnknownSession(t *testing.T) {
	svc := newAdvisingService(&stubAdvisingRepo{}, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	_, err := svc.Reschedule(context.Background(), 3, 21, 9, RescheduleRequest{
		Tanggal: "2026-01-13",
		Jam:     "14:00",
		Alasan:  "Bentrok",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCancelRequiresOwningSupervisor(t *testing.T) {
	sessions := &stubAdvisingRepo{
		session: &models.AdvisingSession{ID: 3, DosenID: 7, Status: models.AdvisingStatusScheduled},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	_, err := svc.Cancel(context.Background(), 3, 8, 9)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotSupervisor.Code, appErrors.FromError(err).Code)
	assert.Empty(t, sessions.statusUpdates)
}

func TestCancelSession(t *testing.T) {
	sessions := &stubAdvisingRepo{
		session: &models.AdvisingSession{ID: 3, DosenID: 7, Status: models.AdvisingStatusScheduled},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	cancelled, err := svc.Cancel(context.Background(), 3, 7, 9)

	require.NoError(t, err)
	assert.Equal(t, models.AdvisingStatusCancelled, cancelled.Status)
	assert.Equal(t, []string{models.AdvisingStatusCancelled}, sessions.statusUpdates)
}

func TestCompleteScheduledSession(t *testing.T) {
	sessions := &stubAdvisingRepo{
		session: &models.AdvisingSession{ID: 3, DosenID: 7, Status: models.AdvisingStatusScheduled},
	}
	svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

	completed, err := svc.Complete(context.Background(), 3, 7, 9)

	require.NoError(t, err)
	assert.Equal(t, models.AdvisingStatusCompleted, completed.Status)
	assert.Equal(t, []string{models.AdvisingStatusCompleted}, sessions.statusUpdates)
}

func TestCompleteRejectsNonScheduledSession(t *testing.T) {
	for _, status := range []string{models.AdvisingStatusCancelled, models.AdvisingStatusCompleted} {
		sessions := &stubAdvisingRepo{
			session: &models.AdvisingSession{ID: 3, DosenID: 7, Status: status},
		}
		svc := newAdvisingService(sessions, &stubDefenseReader{}, &stubSlotCache{}, &stubActivityLog{})

		_, err := svc.Complete(context.Background(), 3, 7, 9)

		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		assert.Empty(t, sessions.statusUpdates)
	}
}
