package models

import "time"

// Legacy advising status literals (bimbingan_ta.status_bimbingan).
const (
	AdvisingStatusScheduled = "dijadwalkan"
	AdvisingStatusCancelled = "dibatalkan"
	AdvisingStatusCompleted = "selesai"

	RescheduleStatusProposed = "diajukan"
)

// AdvisingSession is a scheduled meeting between a supervisor and the
// student's thesis. Time is an HH:mm start; the session length defaults to
// the configured advising duration.
type AdvisingSession struct {
	ID        int64     `db:"id" json:"id"`
	ThesisID  int64     `db:"tugas_akhir_id" json:"tugas_akhir_id"`
	DosenID   int64     `db:"dosen_id" json:"dosen_id"`
	Role      string    `db:"peran" json:"peran"`
	Date      time.Time `db:"tanggal_bimbingan" json:"tanggal_bimbingan"`
	Time      *string   `db:"jam_bimbingan" json:"jam_bimbingan,omitempty"`
	Status    string    `db:"status_bimbingan" json:"status_bimbingan"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
