package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sita-bi-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFindRoomConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefenseScheduleRepository(db)
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM jadwal_sidang js")).
		WithArgs(int64(3), date, "13:00", "11:00", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sidang_id", "waktu_mulai", "waktu_selesai", "nama_ruangan", "mahasiswa_name"}).
			AddRow(int64(7), int64(2), "10:00", "12:00", "Room 101", "Student B"))

	conflicts, err := repo.FindRoomConflicts(context.Background(), 3, date, "11:00", "13:00", 1)

	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Room 101", conflicts[0].RoomName)
	assert.Equal(t, "Student B", conflicts[0].StudentName)
	assert.Equal(t, "10:00", conflicts[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindParticipantConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefenseScheduleRepository(db)
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN peran_dosen_ta pd")).
		WithArgs(date, "11:00", "10:00", sqlmock.AnyArg(), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sidang_id", "tugas_akhir_id", "dosen_id", "dosen_name", "waktu_mulai", "waktu_selesai"}).
			AddRow(int64(7), int64(2), int64(42), int64(201), "Prof A", "10:00", "11:00"))

	conflicts, err := repo.FindParticipantConflicts(context.Background(), date, "10:00", "11:00", []int64{201, 202}, 0)

	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Prof A", conflicts[0].DosenName)
	assert.Equal(t, int64(42), conflicts[0].ThesisID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindParticipantConflictsNoLecturers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefenseScheduleRepository(db)

	conflicts, err := repo.FindParticipantConflicts(context.Background(), time.Now(), "10:00", "11:00", nil, 0)

	require.NoError(t, err)
	assert.Nil(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCommitsAllWrites(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefenseScheduleRepository(db)
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	userID := int64(9)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM jadwal_sidang")).
		WithArgs(int64(3), date, "10:30", "09:00", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nama_ruangan FROM ruangan")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"nama_ruangan"}).AddRow("Room 101"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO jadwal_sidang")).
		WithArgs(int64(1), date, "09:00", "10:30", int64(3), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(99)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM peran_dosen_ta")).
		WithArgs(int64(10), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO peran_dosen_ta")).
		WithArgs(int64(10), int64(201), models.RoleExaminer1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO peran_dosen_ta")).
		WithArgs(int64(10), int64(202), models.RoleExaminer2).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO history_perubahan_sidang")).
		WithArgs(int64(1), &userID, sqlmock.AnyArg(), "Penjadwalan awal sidang", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sidang SET status_hasil")).
		WithArgs(models.DefenseStatusScheduled, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	schedule, err := repo.Schedule(context.Background(), ScheduleParams{
		DefenseID:   1,
		ThesisID:    10,
		Date:        date,
		StartTime:   "09:00",
		EndTime:     "10:30",
		RoomID:      3,
		ExaminerIDs: []int64{201, 202},
		UserID:      &userID,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(99), schedule.ID)
	assert.Equal(t, "09:00", schedule.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRollsBackWhenRoomTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefenseScheduleRepository(db)
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM jadwal_sidang")).
		WithArgs(int64(3), date, "10:30", "09:00", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectRollback()

	_, err := repo.Schedule(context.Background(), ScheduleParams{
		DefenseID:   1,
		ThesisID:    10,
		Date:        date,
		StartTime:   "09:00",
		EndTime:     "10:30",
		RoomID:      3,
		ExaminerIDs: []int64{201, 202},
	})

	require.Error(t, err)
	var conflictErr *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Contains(t, conflictErr.Messages[0], "schedule 7")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefenseScheduleRepository(db)
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY ru.nama_ruangan ASC")).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"waktu_mulai", "waktu_selesai", "nama_ruangan", "mahasiswa_name", "judul"}).
			AddRow("09:00", "10:30", "Room 101", "Student B", "Sistem Informasi Tugas Akhir"))

	rows, err := repo.ListByDate(context.Background(), date)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Room 101", rows[0].RoomName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
