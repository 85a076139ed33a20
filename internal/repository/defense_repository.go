package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sita-bi-api/internal/models"
)

// DefenseRepository reads defenses (sidang) and their thesis role rows.
type DefenseRepository struct {
	db *sqlx.DB
}

// NewDefenseRepository creates a new defense repository.
func NewDefenseRepository(db *sqlx.DB) *DefenseRepository {
	return &DefenseRepository{db: db}
}

// FindByID loads a defense by id.
func (r *DefenseRepository) FindByID(ctx context.Context, id int64) (*models.Defense, error) {
	const query = `SELECT id, tugas_akhir_id, pendaftaran_sidang_id, status_hasil, created_at, updated_at FROM sidang WHERE id = $1`
	var defense models.Defense
	if err := r.db.GetContext(ctx, &defense, query, id); err != nil {
		return nil, err
	}
	return &defense, nil
}

// FindByRegistrationID loads the defense created for a registration.
func (r *DefenseRepository) FindByRegistrationID(ctx context.Context, registrationID int64) (*models.Defense, error) {
	const query = `SELECT id, tugas_akhir_id, pendaftaran_sidang_id, status_hasil, created_at, updated_at FROM sidang WHERE pendaftaran_sidang_id = $1`
	var defense models.Defense
	if err := r.db.GetContext(ctx, &defense, query, registrationID); err != nil {
		return nil, err
	}
	return &defense, nil
}

// ListRolesByThesis returns all lecturer role rows for a thesis.
func (r *DefenseRepository) ListRolesByThesis(ctx context.Context, thesisID int64) ([]models.ThesisRole, error) {
	const query = `SELECT id, tugas_akhir_id, dosen_id, peran FROM peran_dosen_ta WHERE tugas_akhir_id = $1 ORDER BY peran ASC`
	var roles []models.ThesisRole
	if err := r.db.SelectContext(ctx, &roles, query, thesisID); err != nil {
		return nil, fmt.Errorf("list thesis roles: %w", err)
	}
	return roles, nil
}

// ListApprovedRegistrations returns registrations approved by both
// supervisors and verification with no defense scheduled yet.
func (r *DefenseRepository) ListApprovedRegistrations(ctx context.Context, page, limit int) ([]models.ApprovedRegistration, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	const base = `FROM pendaftaran_sidang ps
		JOIN tugas_akhir ta ON ta.id = ps.tugas_akhir_id
		JOIN mahasiswa m ON m.id = ta.mahasiswa_id
		JOIN users u ON u.id = m.user_id
		WHERE ps.status_pembimbing_1 = $1
		  AND ps.status_pembimbing_2 = $1
		  AND ps.status_verifikasi = $1
		  AND NOT EXISTS (SELECT 1 FROM sidang s WHERE s.pendaftaran_sidang_id = ps.id)`

	query := fmt.Sprintf(`SELECT ps.id, ps.tugas_akhir_id, ta.judul, u.name AS mahasiswa_name, ps.created_at %s ORDER BY ps.created_at ASC LIMIT %d OFFSET %d`, base, limit, offset)
	var registrations []models.ApprovedRegistration
	if err := r.db.SelectContext(ctx, &registrations, query, models.ApprovalApproved); err != nil {
		return nil, 0, fmt.Errorf("list approved registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, models.ApprovalApproved); err != nil {
		return nil, 0, fmt.Errorf("count approved registrations: %w", err)
	}

	return registrations, total, nil
}

// latestScheduleJoin picks one jadwal_sidang row per defense. Reschedules can
// leave several rows; the newest one is the effective schedule.
const latestScheduleJoin = `LEFT JOIN LATERAL (
		SELECT tanggal, waktu_mulai, waktu_selesai, ruangan_id
		FROM jadwal_sidang
		WHERE sidang_id = s.id
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	) js ON TRUE
	LEFT JOIN ruangan r ON r.id = js.ruangan_id`

// ListForExaminer returns defenses where the lecturer holds an examiner role,
// each joined with its latest schedule.
func (r *DefenseRepository) ListForExaminer(ctx context.Context, dosenID int64, page, limit int) ([]models.DefenseListItem, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	const filter = `WHERE EXISTS (
		SELECT 1 FROM peran_dosen_ta pd
		WHERE pd.tugas_akhir_id = s.tugas_akhir_id
		  AND pd.dosen_id = $1
		  AND pd.peran = ANY($2)
	)`

	query := fmt.Sprintf(`SELECT s.id AS sidang_id, s.tugas_akhir_id, ta.judul, u.name AS mahasiswa_name, s.status_hasil,
		js.tanggal, js.waktu_mulai, js.waktu_selesai, r.nama_ruangan
		FROM sidang s
		JOIN tugas_akhir ta ON ta.id = s.tugas_akhir_id
		JOIN mahasiswa m ON m.id = ta.mahasiswa_id
		JOIN users u ON u.id = m.user_id
		%s
		%s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`, latestScheduleJoin, filter, limit, offset)
	var items []models.DefenseListItem
	if err := r.db.SelectContext(ctx, &items, query, dosenID, pq.Array(models.ExaminerRoles)); err != nil {
		return nil, 0, fmt.Errorf("list defenses for examiner: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sidang s %s", filter)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, dosenID, pq.Array(models.ExaminerRoles)); err != nil {
		return nil, 0, fmt.Errorf("count defenses for examiner: %w", err)
	}

	return items, total, nil
}

// ListForStudent returns all defenses of a student's theses, each joined with
// its latest schedule.
func (r *DefenseRepository) ListForStudent(ctx context.Context, mahasiswaID int64) ([]models.DefenseListItem, error) {
	query := fmt.Sprintf(`SELECT s.id AS sidang_id, s.tugas_akhir_id, ta.judul, u.name AS mahasiswa_name, s.status_hasil,
		js.tanggal, js.waktu_mulai, js.waktu_selesai, r.nama_ruangan
		FROM sidang s
		JOIN tugas_akhir ta ON ta.id = s.tugas_akhir_id
		JOIN mahasiswa m ON m.id = ta.mahasiswa_id
		JOIN users u ON u.id = m.user_id
		%s
		WHERE ta.mahasiswa_id = $1
		ORDER BY s.created_at DESC`, latestScheduleJoin)
	var items []models.DefenseListItem
	if err := r.db.SelectContext(ctx, &items, query, mahasiswaID); err != nil {
		return nil, fmt.Errorf("list defenses for student: %w", err)
	}
	return items, nil
}
