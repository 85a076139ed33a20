package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sita-bi-api/internal/models"
	"github.com/noah-isme/sita-bi-api/pkg/config"
	appErrors "github.com/noah-isme/sita-bi-api/pkg/errors"
	"github.com/noah-isme/sita-bi-api/pkg/timeslot"
)

type advisingRepository interface {
	FindByID(ctx context.Context, id int64) (*models.AdvisingSession, error)
	FindRole(ctx context.Context, thesisID, dosenID int64) (*models.ThesisRole, error)
	ListScheduledOnDate(ctx context.Context, dosenID int64, date time.Time) ([]models.AdvisingSession, error)
	Create(ctx context.Context, session *models.AdvisingSession) error
	Reschedule(ctx context.Context, id, mahasiswaID int64, newDate time.Time, newTime, reason string) (*models.AdvisingSession, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type defenseScheduleReader interface {
	ListForDosenOnDate(ctx context.Context, dosenID int64, date time.Time) ([]models.DefenseSchedule, error)
}

type slotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type activityRecorder interface {
	Record(ctx context.Context, userID int64, action string) error
}

// SetScheduleRequest creates an advising session. Only a supervisor of the
// thesis may schedule one.
type SetScheduleRequest struct {
	TugasAkhirID int64  `json:"tugasAkhirId" validate:"required"`
	Tanggal      string `json:"tanggal_bimbingan" validate:"required"`
	Jam          string `json:"jam_bimbingan" validate:"required"`
}

// RescheduleRequest proposes a new date/time for an existing session.
type RescheduleRequest struct {
	Tanggal string `json:"tanggal_bimbingan" validate:"required"`
	Jam     string `json:"jam_bimbingan" validate:"required"`
	Alasan  string `json:"alasan_perubahan" validate:"required"`
}

// AdvisingService manages advising sessions: scheduling against a
// supervisor's combined advising and defense commitments, slot suggestion,
// and session lifecycle.
type AdvisingService struct {
	sessions  advisingRepository
	defenses  defenseScheduleReader
	cache     slotCache
	logs      activityRecorder
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger

	workStart   int
	workEnd     int
	slotLen     int
	advisingLen int
	cacheTTL    time.Duration
}

// NewAdvisingService instantiates AdvisingService with the configured
// scheduling window.
func NewAdvisingService(sessions advisingRepository, defenses defenseScheduleReader, cache slotCache, logs activityRecorder, cfg config.SchedulingConfig, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AdvisingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	workStart, err := timeslot.ParseMinutes(cfg.WorkdayStart)
	if err != nil {
		workStart = 8 * 60
	}
	workEnd, err := timeslot.ParseMinutes(cfg.WorkdayEnd)
	if err != nil {
		workEnd = 16 * 60
	}
	slotLen := int(cfg.SlotDuration.Minutes())
	if slotLen <= 0 {
		slotLen = 60
	}
	advisingLen := int(cfg.AdvisingDuration.Minutes())
	if advisingLen <= 0 {
		advisingLen = 60
	}

	return &AdvisingService{
		sessions:    sessions,
		defenses:    defenses,
		cache:       cache,
		logs:        logs,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
		workStart:   workStart,
		workEnd:     workEnd,
		slotLen:     slotLen,
		advisingLen: advisingLen,
		cacheTTL:    cfg.SlotCacheTTL,
	}
}

// busyIntervals collects the supervisor's advising sessions and defense
// schedules on the date as minute-offset intervals. Rows with malformed
// times are skipped.
func (s *AdvisingService) busyIntervals(ctx context.Context, dosenID int64, date time.Time) ([]timeslot.Interval, error) {
	var busy []timeslot.Interval

	sessions, err := s.sessions.ListScheduledOnDate(ctx, dosenID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load advising sessions")
	}
	for _, session := range sessions {
		if session.Time == nil {
			continue
		}
		start, err := timeslot.ParseMinutes(*session.Time)
		if err != nil {
			s.logger.Warn("skipping advising session with malformed time",
				zap.Int64("bimbingan_id", session.ID), zap.String("jam", *session.Time))
			continue
		}
		busy = append(busy, timeslot.Interval{Start: start, End: start + s.advisingLen})
	}

	schedules, err := s.defenses.ListForDosenOnDate(ctx, dosenID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense schedules")
	}
	for _, schedule := range schedules {
		start, err := timeslot.ParseMinutes(schedule.StartTime)
		if err != nil {
			continue
		}
		end, err := timeslot.ParseMinutes(schedule.EndTime)
		if err != nil || end <= start {
			continue
		}
		busy = append(busy, timeslot.Interval{Start: start, End: end})
	}

	return busy, nil
}

// DetectScheduleConflicts reports whether a session starting at jam would
// overlap any of the supervisor's commitments on the date.
func (s *AdvisingService) DetectScheduleConflicts(ctx context.Context, dosenID int64, tanggal, jam string) (bool, error) {
	date, err := time.Parse(dateLayout, tanggal)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tanggal, expected YYYY-MM-DD")
	}
	start, err := timeslot.ParseMinutes(jam)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid jam, expected HH:mm")
	}
	end := start + s.advisingLen

	busy, err := s.busyIntervals(ctx, dosenID, date)
	if err != nil {
		return false, err
	}
	for _, iv := range busy {
		if timeslot.Overlap(start, end, iv.Start, iv.End) {
			return true, nil
		}
	}
	return false, nil
}

// SuggestAvailableSlots returns the free HH:mm start times in the workday
// window after subtracting the supervisor's commitments. Results are cached
// per supervisor and date.
func (s *AdvisingService) SuggestAvailableSlots(ctx context.Context, dosenID int64, tanggal string) ([]string, error) {
	date, err := time.Parse(dateLayout, tanggal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tanggal, expected YYYY-MM-DD")
	}

	key := fmt.Sprintf("advising:slots:%d:%s", dosenID, date.Format(dateLayout))
	if s.cache != nil {
		var cached []string
		cacheErr := s.cache.Get(ctx, key, &cached)
		if cacheErr == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		}
		if !errors.Is(cacheErr, appErrors.ErrCacheMiss) {
			s.logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(cacheErr))
		}
		s.metrics.RecordCacheLookup(false)
	}

	busy, err := s.busyIntervals(ctx, dosenID, date)
	if err != nil {
		return nil, err
	}
	slots := timeslot.FreeSlots(timeslot.Interval{Start: s.workStart, End: s.workEnd}, s.slotLen, busy)

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, slots, s.cacheTTL); cacheErr != nil {
			s.logger.Warn("slot cache write failed", zap.String("key", key), zap.Error(cacheErr))
		}
	}
	return slots, nil
}

// SetSchedule creates an advising session for one of the lecturer's
// supervised theses, rejecting overlaps with existing commitments.
func (s *AdvisingService) SetSchedule(ctx context.Context, dosenID, userID int64, req SetScheduleRequest) (*models.AdvisingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid advising payload")
	}
	date, err := time.Parse(dateLayout, req.Tanggal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tanggal_bimbingan, expected YYYY-MM-DD")
	}
	startMin, err := timeslot.ParseMinutes(req.Jam)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid jam_bimbingan, expected HH:mm")
	}
	jam := timeslot.FormatMinutes(startMin)

	role, err := s.sessions.FindRole(ctx, req.TugasAkhirID, dosenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotSupervisor, "you do not supervise this thesis")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis role")
	}
	if !role.IsSupervisor() {
		return nil, appErrors.Clone(appErrors.ErrNotSupervisor, "only a supervisor can schedule advising sessions")
	}

	conflict, err := s.DetectScheduleConflicts(ctx, dosenID, req.Tanggal, jam)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, appErrors.Clone(appErrors.ErrScheduleConflict, fmt.Sprintf("the %s slot on %s overlaps an existing commitment", jam, req.Tanggal))
	}

	session := &models.AdvisingSession{
		ThesisID: req.TugasAkhirID,
		DosenID:  dosenID,
		Role:     role.Role,
		Date:     date,
		Time:     &jam,
		Status:   models.AdvisingStatusScheduled,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create advising session")
	}

	s.invalidateSlots(ctx, dosenID)
	s.logActivity(ctx, userID, fmt.Sprintf("Menjadwalkan bimbingan baru untuk TA ID %d pada %s %s", req.TugasAkhirID, req.Tanggal, jam))
	return session, nil
}

// Reschedule records a student's change request and moves the session.
func (s *AdvisingService) Reschedule(ctx context.Context, sessionID, mahasiswaID, userID int64, req RescheduleRequest) (*models.AdvisingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	date, err := time.Parse(dateLayout, req.Tanggal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tanggal_bimbingan, expected YYYY-MM-DD")
	}
	startMin, err := timeslot.ParseMinutes(req.Jam)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid jam_bimbingan, expected HH:mm")
	}
	jam := timeslot.FormatMinutes(startMin)

	session, err := s.sessions.Reschedule(ctx, sessionID, mahasiswaID, date, jam, req.Alasan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("bimbingan %d not found", sessionID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule advising session")
	}

	s.invalidateSlots(ctx, session.DosenID)
	s.logActivity(ctx, userID, fmt.Sprintf("Mengajukan perubahan jadwal bimbingan ID %d ke %s %s", sessionID, req.Tanggal, jam))
	return session, nil
}

// Cancel marks a session cancelled. Only its supervisor may do so.
func (s *AdvisingService) Cancel(ctx context.Context, sessionID, dosenID, userID int64) (*models.AdvisingSession, error) {
	return s.setStatus(ctx, sessionID, dosenID, userID, models.AdvisingStatusCancelled,
		fmt.Sprintf("Membatalkan sesi bimbingan ID %d", sessionID))
}

// Complete marks a scheduled session finished. Only its supervisor may do so,
// and only from the scheduled state.
func (s *AdvisingService) Complete(ctx context.Context, sessionID, dosenID, userID int64) (*models.AdvisingSession, error) {
	return s.setStatus(ctx, sessionID, dosenID, userID, models.AdvisingStatusCompleted,
		fmt.Sprintf("Menyelesaikan sesi bimbingan ID %d", sessionID))
}

func (s *AdvisingService) setStatus(ctx context.Context, sessionID, dosenID, userID int64, status, action string) (*models.AdvisingSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("bimbingan %d not found", sessionID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load advising session")
	}
	if session.DosenID != dosenID {
		return nil, appErrors.Clone(appErrors.ErrNotSupervisor, "you do not supervise this advising session")
	}
	if status == models.AdvisingStatusCompleted && session.Status != models.AdvisingStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only a scheduled advising session can be completed")
	}

	if err := s.sessions.UpdateStatus(ctx, sessionID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update advising status")
	}
	session.Status = status

	s.invalidateSlots(ctx, dosenID)
	s.logActivity(ctx, userID, action)
	return session, nil
}

func (s *AdvisingService) invalidateSlots(ctx context.Context, dosenID int64) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("advising:slots:%d:*", dosenID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (s *AdvisingService) logActivity(ctx context.Context, userID int64, action string) {
	if s.logs == nil || userID == 0 {
		return
	}
	if err := s.logs.Record(ctx, userID, action); err != nil {
		s.logger.Warn("activity log write failed", zap.Error(err))
	}
}
