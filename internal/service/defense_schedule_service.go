package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sita-bi-api/internal/models"
	"github.com/noah-isme/sita-bi-api/internal/repository"
	appErrors "github.com/noah-isme/sita-bi-api/pkg/errors"
	"github.com/noah-isme/sita-bi-api/pkg/export"
	"github.com/noah-isme/sita-bi-api/pkg/timeslot"
)

const dateLayout = "2006-01-02"

type defenseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Defense, error)
	FindByRegistrationID(ctx context.Context, registrationID int64) (*models.Defense, error)
	ListRolesByThesis(ctx context.Context, thesisID int64) ([]models.ThesisRole, error)
	ListApprovedRegistrations(ctx context.Context, page, limit int) ([]models.ApprovedRegistration, int, error)
	ListForExaminer(ctx context.Context, dosenID int64, page, limit int) ([]models.DefenseListItem, int, error)
	ListForStudent(ctx context.Context, mahasiswaID int64) ([]models.DefenseListItem, error)
}

type defenseScheduleRepository interface {
	FindRoomConflicts(ctx context.Context, roomID int64, date time.Time, start, end string, ignoreDefenseID int64) ([]models.RoomConflict, error)
	FindParticipantConflicts(ctx context.Context, date time.Time, start, end string, dosenIDs []int64, ignoreDefenseID int64) ([]models.ParticipantConflict, error)
	ListByDate(ctx context.Context, date time.Time) ([]repository.ExportRow, error)
	Schedule(ctx context.Context, params repository.ScheduleParams) (*models.DefenseSchedule, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

// CheckConflictRequest is the dry-run conflict check payload. Field names
// follow the legacy wire contract.
type CheckConflictRequest struct {
	SidangID     int64   `json:"sidangId" validate:"required"`
	Tanggal      string  `json:"tanggal" validate:"required"`
	WaktuMulai   string  `json:"waktu_mulai" validate:"required"`
	WaktuSelesai string  `json:"waktu_selesai" validate:"required"`
	RuanganID    int64   `json:"ruangan_id" validate:"required"`
	PengujiIDs   []int64 `json:"pengujiIds" validate:"omitempty,max=4,dive,required"`
}

// CreateScheduleRequest binds an approved registration's defense to a
// date/time/room and assigns its examiner panel. At least two examiners are
// required; examiner roles are assigned in list order.
type CreateScheduleRequest struct {
	PendaftaranSidangID int64   `json:"pendaftaranSidangId" validate:"required"`
	Tanggal             string  `json:"tanggal" validate:"required"`
	WaktuMulai          string  `json:"waktu_mulai" validate:"required"`
	WaktuSelesai        string  `json:"waktu_selesai" validate:"required"`
	RuanganID           int64   `json:"ruangan_id" validate:"required"`
	PengujiIDs          []int64 `json:"pengujiIds" validate:"required,min=2,max=4,dive,required"`
}

// DefenseScheduleService coordinates defense scheduling: conflict checks,
// the transactional schedule write, and the supporting listings.
type DefenseScheduleService struct {
	defenses  defenseRepository
	schedules defenseScheduleRepository
	rooms     roomLister
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewDefenseScheduleService instantiates DefenseScheduleService.
func NewDefenseScheduleService(defenses defenseRepository, schedules defenseScheduleRepository, rooms roomLister, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *DefenseScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefenseScheduleService{
		defenses:  defenses,
		schedules: schedules,
		rooms:     rooms,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// scheduleWindow is a validated, normalised proposal window.
type scheduleWindow struct {
	date  time.Time
	start string
	end   string
}

// parseWindow validates the date and HH:mm bounds and re-renders the times
// zero-padded so that lexicographic SQL comparisons stay correct.
func parseWindow(tanggal, mulai, selesai string) (scheduleWindow, error) {
	date, err := time.Parse(dateLayout, tanggal)
	if err != nil {
		return scheduleWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tanggal, expected YYYY-MM-DD")
	}
	startMin, err := timeslot.ParseMinutes(mulai)
	if err != nil {
		return scheduleWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waktu_mulai")
	}
	endMin, err := timeslot.ParseMinutes(selesai)
	if err != nil {
		return scheduleWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waktu_selesai")
	}
	if startMin >= endMin {
		return scheduleWindow{}, appErrors.Clone(appErrors.ErrValidation, "waktu_mulai must be before waktu_selesai")
	}
	return scheduleWindow{
		date:  date,
		start: timeslot.FormatMinutes(startMin),
		end:   timeslot.FormatMinutes(endMin),
	}, nil
}

// CheckConflict reports whether the proposed binding would double-book the
// room or any committed lecturer of the defense's thesis plus the proposed
// examiners. The defense's own schedule is excluded so rescheduling does not
// conflict with itself.
func (s *DefenseScheduleService) CheckConflict(ctx context.Context, req CheckConflictRequest) (*models.ConflictCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	window, err := parseWindow(req.Tanggal, req.WaktuMulai, req.WaktuSelesai)
	if err != nil {
		return nil, err
	}

	defense, err := s.defenses.FindByID(ctx, req.SidangID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("sidang %d not found", req.SidangID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sidang")
	}

	dosenIDs, err := s.committedDosenIDs(ctx, defense.ThesisID, req.PengujiIDs)
	if err != nil {
		return nil, err
	}

	return s.checkScheduleConflict(ctx, window, req.RuanganID, dosenIDs, defense.ID)
}

// committedDosenIDs merges the thesis's supervisors with the proposed
// examiners, deduplicated, preserving order.
func (s *DefenseScheduleService) committedDosenIDs(ctx context.Context, thesisID int64, pengujiIDs []int64) ([]int64, error) {
	roles, err := s.defenses.ListRolesByThesis(ctx, thesisID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis roles")
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, role := range roles {
		if !role.IsSupervisor() {
			continue
		}
		if _, ok := seen[role.DosenID]; !ok {
			seen[role.DosenID] = struct{}{}
			ids = append(ids, role.DosenID)
		}
	}
	for _, id := range pengujiIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *DefenseScheduleService) checkScheduleConflict(ctx context.Context, window scheduleWindow, roomID int64, dosenIDs []int64, ignoreDefenseID int64) (*models.ConflictCheckResult, error) {
	var messages []string

	roomConflicts, err := s.schedules.FindRoomConflicts(ctx, roomID, window.date, window.start, window.end, ignoreDefenseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
	}
	for _, c := range roomConflicts {
		messages = append(messages, fmt.Sprintf("Room %s is already booked for the defense of %s (%s - %s).", c.RoomName, c.StudentName, c.StartTime, c.EndTime))
		s.metrics.RecordConflict("room")
	}

	participantConflicts, err := s.schedules.FindParticipantConflicts(ctx, window.date, window.start, window.end, dosenIDs, ignoreDefenseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecturer availability")
	}

	// Group per conflicting schedule so one message names every lecturer
	// clashing with that defense.
	var order []int64
	names := make(map[int64][]string)
	thesisOf := make(map[int64]int64)
	for _, c := range participantConflicts {
		if _, ok := names[c.ScheduleID]; !ok {
			order = append(order, c.ScheduleID)
		}
		names[c.ScheduleID] = append(names[c.ScheduleID], c.DosenName)
		thesisOf[c.ScheduleID] = c.ThesisID
	}
	for _, scheduleID := range order {
		messages = append(messages, fmt.Sprintf("The following examiners have another defense at the same time: %s (thesis ID %d).", strings.Join(names[scheduleID], ", "), thesisOf[scheduleID]))
		s.metrics.RecordConflict("examiner")
	}

	if messages == nil {
		messages = []string{}
	}
	return &models.ConflictCheckResult{HasConflict: len(messages) > 0, Messages: messages}, nil
}

// Create schedules an approved registration's defense. The conflict rules
// from CheckConflict run first; the write itself is all-or-nothing.
func (s *DefenseScheduleService) Create(ctx context.Context, req CreateScheduleRequest, userID *int64) (*models.Defense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	window, err := parseWindow(req.Tanggal, req.WaktuMulai, req.WaktuSelesai)
	if err != nil {
		return nil, err
	}

	defense, err := s.defenses.FindByRegistrationID(ctx, req.PendaftaranSidangID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no sidang found for pendaftaran %d", req.PendaftaranSidangID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sidang")
	}

	dosenIDs, err := s.committedDosenIDs(ctx, defense.ThesisID, req.PengujiIDs)
	if err != nil {
		return nil, err
	}

	result, err := s.checkScheduleConflict(ctx, window, req.RuanganID, dosenIDs, defense.ID)
	if err != nil {
		return nil, err
	}
	if result.HasConflict {
		conflictErr := &models.ScheduleConflictError{Messages: result.Messages}
		return nil, appErrors.Wrap(conflictErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, "schedule conflict: "+strings.Join(result.Messages, " "))
	}

	schedule, err := s.schedules.Schedule(ctx, repository.ScheduleParams{
		DefenseID:   defense.ID,
		ThesisID:    defense.ThesisID,
		Date:        window.date,
		StartTime:   window.start,
		EndTime:     window.end,
		RoomID:      req.RuanganID,
		ExaminerIDs: req.PengujiIDs,
		UserID:      userID,
	})
	if err != nil {
		var conflictErr *models.ScheduleConflictError
		if errors.As(err, &conflictErr) {
			s.metrics.RecordConflict("room")
			return nil, appErrors.Wrap(conflictErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, "schedule conflict: "+strings.Join(conflictErr.Messages, " "))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create defense schedule")
	}

	s.logger.Info("defense scheduled",
		zap.Int64("sidang_id", defense.ID),
		zap.Int64("jadwal_id", schedule.ID),
		zap.String("tanggal", window.date.Format(dateLayout)),
		zap.String("waktu", window.start+"-"+window.end),
	)

	defense.Status = models.DefenseStatusScheduled
	return defense, nil
}

// ListApprovedRegistrations returns registrations ready for scheduling.
func (s *DefenseScheduleService) ListApprovedRegistrations(ctx context.Context, page, limit int) ([]models.ApprovedRegistration, *models.Pagination, error) {
	registrations, total, err := s.defenses.ListApprovedRegistrations(ctx, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved registrations")
	}
	return registrations, listPagination(page, limit, total), nil
}

// ListForExaminer returns defenses assigned to an examiner.
func (s *DefenseScheduleService) ListForExaminer(ctx context.Context, dosenID int64, page, limit int) ([]models.DefenseListItem, *models.Pagination, error) {
	items, total, err := s.defenses.ListForExaminer(ctx, dosenID, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defenses for examiner")
	}
	return items, listPagination(page, limit, total), nil
}

// ListForStudent returns a student's defenses.
func (s *DefenseScheduleService) ListForStudent(ctx context.Context, mahasiswaID int64) ([]models.DefenseListItem, error) {
	items, err := s.defenses.ListForStudent(ctx, mahasiswaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defenses for student")
	}
	return items, nil
}

// ListRooms returns the examination rooms.
func (s *DefenseScheduleService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// ExportDay renders the day's timetable as CSV or PDF.
func (s *DefenseScheduleService) ExportDay(ctx context.Context, tanggal, format string) ([]byte, string, string, error) {
	date, err := time.Parse(dateLayout, tanggal)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tanggal, expected YYYY-MM-DD")
	}

	rows, err := s.schedules.ListByDate(ctx, date)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}

	dataset := export.Dataset{Headers: []string{"Time", "Room", "Student", "Thesis"}}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Time":    row.StartTime + " - " + row.EndTime,
			"Room":    row.RoomName,
			"Student": row.StudentName,
			"Thesis":  row.ThesisTitle,
		})
	}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", fmt.Sprintf("jadwal-sidang-%s.csv", tanggal), nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Jadwal Sidang "+tanggal)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", fmt.Sprintf("jadwal-sidang-%s.pdf", tanggal), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func listPagination(page, limit, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return &models.Pagination{Page: page, PageSize: limit, TotalCount: total}
}
