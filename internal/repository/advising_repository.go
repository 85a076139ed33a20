package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sita-bi-api/internal/models"
)

// AdvisingRepository provides persistence for advising sessions
// (bimbingan_ta) and their reschedule history.
type AdvisingRepository struct {
	db *sqlx.DB
}

// NewAdvisingRepository creates a new advising repository.
func NewAdvisingRepository(db *sqlx.DB) *AdvisingRepository {
	return &AdvisingRepository{db: db}
}

// FindByID loads an advising session by id.
func (r *AdvisingRepository) FindByID(ctx context.Context, id int64) (*models.AdvisingSession, error) {
	const query = `SELECT id, tugas_akhir_id, dosen_id, peran, tanggal_bimbingan, jam_bimbingan, status_bimbingan, created_at, updated_at FROM bimbingan_ta WHERE id = $1`
	var session models.AdvisingSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindRole returns the lecturer's role row on the thesis, or sql.ErrNoRows.
func (r *AdvisingRepository) FindRole(ctx context.Context, thesisID, dosenID int64) (*models.ThesisRole, error) {
	const query = `SELECT id, tugas_akhir_id, dosen_id, peran FROM peran_dosen_ta WHERE tugas_akhir_id = $1 AND dosen_id = $2 LIMIT 1`
	var role models.ThesisRole
	if err := r.db.GetContext(ctx, &role, query, thesisID, dosenID); err != nil {
		return nil, err
	}
	return &role, nil
}

// ListScheduledOnDate returns the supervisor's scheduled sessions on a date.
// Cancelled and completed sessions do not block availability.
func (r *AdvisingRepository) ListScheduledOnDate(ctx context.Context, dosenID int64, date time.Time) ([]models.AdvisingSession, error) {
	const query = `SELECT id, tugas_akhir_id, dosen_id, peran, tanggal_bimbingan, jam_bimbingan, status_bimbingan, created_at, updated_at
		FROM bimbingan_ta
		WHERE dosen_id = $1 AND tanggal_bimbingan = $2 AND status_bimbingan = $3
		ORDER BY jam_bimbingan ASC`
	var sessions []models.AdvisingSession
	if err := r.db.SelectContext(ctx, &sessions, query, dosenID, date, models.AdvisingStatusScheduled); err != nil {
		return nil, fmt.Errorf("list scheduled advising: %w", err)
	}
	return sessions, nil
}

// Create stores a new advising session.
func (r *AdvisingRepository) Create(ctx context.Context, session *models.AdvisingSession) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO bimbingan_ta (tugas_akhir_id, dosen_id, peran, tanggal_bimbingan, jam_bimbingan, status_bimbingan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &session.ID, query,
		session.ThesisID, session.DosenID, session.Role, session.Date, session.Time, session.Status, session.CreatedAt, session.UpdatedAt); err != nil {
		return fmt.Errorf("create advising session: %w", err)
	}
	return nil
}

// Reschedule records the change request in history_perubahan_jadwal and moves
// the session to the new date/time in one transaction.
func (r *AdvisingRepository) Reschedule(ctx context.Context, id, mahasiswaID int64, newDate time.Time, newTime, reason string) (*models.AdvisingSession, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule advising: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var session models.AdvisingSession
	err = tx.GetContext(ctx, &session,
		`SELECT id, tugas_akhir_id, dosen_id, peran, tanggal_bimbingan, jam_bimbingan, status_bimbingan, created_at, updated_at FROM bimbingan_ta WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO history_perubahan_jadwal (bimbingan_ta_id, mahasiswa_id, tanggal_lama, jam_lama, tanggal_baru, jam_baru, alasan_perubahan, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, mahasiswaID, session.Date, session.Time, newDate, newTime, reason, models.RescheduleStatusProposed, now); err != nil {
		return nil, fmt.Errorf("insert reschedule history: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bimbingan_ta SET tanggal_bimbingan = $1, jam_bimbingan = $2, status_bimbingan = $3, updated_at = $4 WHERE id = $5`,
		newDate, newTime, models.AdvisingStatusScheduled, now, session.ID); err != nil {
		return nil, fmt.Errorf("update advising schedule: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reschedule advising: %w", err)
	}

	session.Date = newDate
	session.Time = &newTime
	session.Status = models.AdvisingStatusScheduled
	session.UpdatedAt = now
	return &session, nil
}

// UpdateStatus moves a session to the given status.
func (r *AdvisingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE bimbingan_ta SET status_bimbingan = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update advising status: %w", err)
	}
	return nil
}
