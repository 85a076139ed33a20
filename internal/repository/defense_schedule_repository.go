package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sita-bi-api/internal/models"
)

// DefenseScheduleRepository provides persistence for defense schedules
// (jadwal_sidang) and the examiner roster bound to them.
type DefenseScheduleRepository struct {
	db *sqlx.DB
}

// NewDefenseScheduleRepository creates a new defense schedule repository.
func NewDefenseScheduleRepository(db *sqlx.DB) *DefenseScheduleRepository {
	return &DefenseScheduleRepository{db: db}
}

// FindRoomConflicts returns schedules occupying the room on the date with an
// interval overlapping [start, end). ignoreDefenseID excludes the defense's
// own schedule when rescheduling; pass 0 to check against everything.
func (r *DefenseScheduleRepository) FindRoomConflicts(ctx context.Context, roomID int64, date time.Time, start, end string, ignoreDefenseID int64) ([]models.RoomConflict, error) {
	const query = `SELECT js.id, js.sidang_id, js.waktu_mulai, js.waktu_selesai, ru.nama_ruangan, u.name AS mahasiswa_name
		FROM jadwal_sidang js
		JOIN ruangan ru ON ru.id = js.ruangan_id
		JOIN sidang s ON s.id = js.sidang_id
		JOIN tugas_akhir ta ON ta.id = s.tugas_akhir_id
		JOIN mahasiswa m ON m.id = ta.mahasiswa_id
		JOIN users u ON u.id = m.user_id
		WHERE js.ruangan_id = $1
		  AND js.tanggal = $2
		  AND js.waktu_mulai < $3
		  AND js.waktu_selesai > $4
		  AND ($5 = 0 OR js.sidang_id <> $5)
		ORDER BY js.waktu_mulai ASC`
	var conflicts []models.RoomConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, roomID, date, end, start, ignoreDefenseID); err != nil {
		return nil, fmt.Errorf("find room conflicts: %w", err)
	}
	return conflicts, nil
}

// FindParticipantConflicts returns one row per (schedule, lecturer) pair
// where a lecturer from dosenIDs holds any role on a thesis whose defense
// overlaps [start, end) on the date.
func (r *DefenseScheduleRepository) FindParticipantConflicts(ctx context.Context, date time.Time, start, end string, dosenIDs []int64, ignoreDefenseID int64) ([]models.ParticipantConflict, error) {
	if len(dosenIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT js.id, js.sidang_id, s.tugas_akhir_id, pd.dosen_id, u.name AS dosen_name, js.waktu_mulai, js.waktu_selesai
		FROM jadwal_sidang js
		JOIN sidang s ON s.id = js.sidang_id
		JOIN peran_dosen_ta pd ON pd.tugas_akhir_id = s.tugas_akhir_id
		JOIN dosen d ON d.id = pd.dosen_id
		JOIN users u ON u.id = d.user_id
		WHERE js.tanggal = $1
		  AND js.waktu_mulai < $2
		  AND js.waktu_selesai > $3
		  AND pd.dosen_id = ANY($4)
		  AND ($5 = 0 OR js.sidang_id <> $5)
		ORDER BY js.id ASC, pd.dosen_id ASC`
	var conflicts []models.ParticipantConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, date, end, start, pq.Array(dosenIDs), ignoreDefenseID); err != nil {
		return nil, fmt.Errorf("find participant conflicts: %w", err)
	}
	return conflicts, nil
}

// ListForDosenOnDate returns schedules on the date for theses in which the
// lecturer holds any role. Used for advising availability.
func (r *DefenseScheduleRepository) ListForDosenOnDate(ctx context.Context, dosenID int64, date time.Time) ([]models.DefenseSchedule, error) {
	const query = `SELECT js.id, js.sidang_id, js.tanggal, js.waktu_mulai, js.waktu_selesai, js.ruangan_id, js.created_at, js.updated_at
		FROM jadwal_sidang js
		JOIN sidang s ON s.id = js.sidang_id
		WHERE js.tanggal = $1
		  AND EXISTS (
			SELECT 1 FROM peran_dosen_ta pd
			WHERE pd.tugas_akhir_id = s.tugas_akhir_id AND pd.dosen_id = $2
		  )
		ORDER BY js.waktu_mulai ASC`
	var schedules []models.DefenseSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, date, dosenID); err != nil {
		return nil, fmt.Errorf("list defense schedules for dosen: %w", err)
	}
	return schedules, nil
}

// ExportRow is a flattened schedule row for the day timetable export.
type ExportRow struct {
	StartTime   string `db:"waktu_mulai"`
	EndTime     string `db:"waktu_selesai"`
	RoomName    string `db:"nama_ruangan"`
	StudentName string `db:"mahasiswa_name"`
	ThesisTitle string `db:"judul"`
}

// ListByDate returns the full timetable for a date ordered by room and time.
func (r *DefenseScheduleRepository) ListByDate(ctx context.Context, date time.Time) ([]ExportRow, error) {
	const query = `SELECT js.waktu_mulai, js.waktu_selesai, ru.nama_ruangan, u.name AS mahasiswa_name, ta.judul
		FROM jadwal_sidang js
		JOIN ruangan ru ON ru.id = js.ruangan_id
		JOIN sidang s ON s.id = js.sidang_id
		JOIN tugas_akhir ta ON ta.id = s.tugas_akhir_id
		JOIN mahasiswa m ON m.id = ta.mahasiswa_id
		JOIN users u ON u.id = m.user_id
		WHERE js.tanggal = $1
		ORDER BY ru.nama_ruangan ASC, js.waktu_mulai ASC`
	var rows []ExportRow
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("list schedules by date: %w", err)
	}
	return rows, nil
}

// ScheduleParams describes the atomic schedule-creation write.
type ScheduleParams struct {
	DefenseID   int64
	ThesisID    int64
	Date        time.Time
	StartTime   string
	EndTime     string
	RoomID      int64
	ExaminerIDs []int64
	UserID      *int64
	Reason      string
}

type scheduleChange struct {
	Action    string  `json:"action"`
	Tanggal   string  `json:"tanggal"`
	Waktu     string  `json:"waktu"`
	Ruangan   string  `json:"ruangan"`
	PengujiID []int64 `json:"penguji"`
}

// Schedule binds a defense to a date/time/room and replaces its examiner
// roster in a single transaction: the room-overlap guard, the jadwal_sidang
// insert, the penguji role replacement (role order follows ExaminerIDs
// order), the change-history row, and the status update either all commit or
// all roll back. A room taken between the service-level check and this write
// surfaces as *models.ScheduleConflictError.
func (r *DefenseScheduleRepository) Schedule(ctx context.Context, params ScheduleParams) (*models.DefenseSchedule, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin schedule defense: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var busyScheduleID int64
	rcErr := tx.GetContext(ctx, &busyScheduleID,
		`SELECT id FROM jadwal_sidang
		 WHERE ruangan_id = $1 AND tanggal = $2 AND waktu_mulai < $3 AND waktu_selesai > $4 AND sidang_id <> $5
		 LIMIT 1`,
		params.RoomID, params.Date, params.EndTime, params.StartTime, params.DefenseID)
	if rcErr == nil {
		err = &models.ScheduleConflictError{Messages: []string{
			fmt.Sprintf("Room is already booked by schedule %d at the requested time.", busyScheduleID),
		}}
		return nil, err
	}
	if !errors.Is(rcErr, sql.ErrNoRows) {
		err = fmt.Errorf("recheck room availability: %w", rcErr)
		return nil, err
	}

	var roomName string
	if err = tx.GetContext(ctx, &roomName, `SELECT nama_ruangan FROM ruangan WHERE id = $1`, params.RoomID); err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}

	now := time.Now().UTC()
	schedule := models.DefenseSchedule{
		DefenseID: params.DefenseID,
		Date:      params.Date,
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
		RoomID:    params.RoomID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = tx.GetContext(ctx, &schedule.ID,
		`INSERT INTO jadwal_sidang (sidang_id, tanggal, waktu_mulai, waktu_selesai, ruangan_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		schedule.DefenseID, schedule.Date, schedule.StartTime, schedule.EndTime, schedule.RoomID, schedule.CreatedAt, schedule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert defense schedule: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM peran_dosen_ta WHERE tugas_akhir_id = $1 AND peran = ANY($2)`,
		params.ThesisID, pq.Array(models.ExaminerRoles)); err != nil {
		return nil, fmt.Errorf("clear examiner roles: %w", err)
	}

	for i, dosenID := range params.ExaminerIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO peran_dosen_ta (tugas_akhir_id, dosen_id, peran) VALUES ($1, $2, $3)`,
			params.ThesisID, dosenID, models.ExaminerRoles[i]); err != nil {
			return nil, fmt.Errorf("insert examiner role: %w", err)
		}
	}

	change, err := json.Marshal(scheduleChange{
		Action:    "CREATE_SCHEDULE",
		Tanggal:   params.Date.Format("2006-01-02"),
		Waktu:     fmt.Sprintf("%s-%s", params.StartTime, params.EndTime),
		Ruangan:   roomName,
		PengujiID: params.ExaminerIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal schedule change: %w", err)
	}

	reason := params.Reason
	if reason == "" {
		reason = "Penjadwalan awal sidang"
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO history_perubahan_sidang (sidang_id, user_id, perubahan, alasan_perubahan, created_at) VALUES ($1, $2, $3, $4, $5)`,
		params.DefenseID, params.UserID, string(change), reason, now); err != nil {
		return nil, fmt.Errorf("insert schedule history: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE sidang SET status_hasil = $1, updated_at = $2 WHERE id = $3`,
		models.DefenseStatusScheduled, now, params.DefenseID); err != nil {
		return nil, fmt.Errorf("update defense status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit schedule defense: %w", err)
	}
	return &schedule, nil
}
