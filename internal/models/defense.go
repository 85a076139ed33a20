package models

import "time"

// Legacy status literals.
const (
	DefenseStatusScheduled = "dijadwalkan"
	ApprovalApproved       = "disetujui"
)

// Defense represents one thesis defense event (sidang).
type Defense struct {
	ID             int64     `db:"id" json:"id"`
	ThesisID       int64     `db:"tugas_akhir_id" json:"tugas_akhir_id"`
	RegistrationID int64     `db:"pendaftaran_sidang_id" json:"pendaftaran_sidang_id"`
	Status         string    `db:"status_hasil" json:"status_hasil"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// DefenseSchedule is the concrete date/time/room binding for a defense.
// Times are zero-padded HH:mm strings on the same day, as stored by the
// legacy schema.
type DefenseSchedule struct {
	ID        int64     `db:"id" json:"id"`
	DefenseID int64     `db:"sidang_id" json:"sidang_id"`
	Date      time.Time `db:"tanggal" json:"tanggal"`
	StartTime string    `db:"waktu_mulai" json:"waktu_mulai"`
	EndTime   string    `db:"waktu_selesai" json:"waktu_selesai"`
	RoomID    int64     `db:"ruangan_id" json:"ruangan_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Room is an examination room.
type Room struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"nama_ruangan" json:"nama_ruangan"`
}

// RoomConflict is an existing schedule occupying the requested room, joined
// with the occupying student's name for the conflict message.
type RoomConflict struct {
	ScheduleID  int64  `db:"id"`
	DefenseID   int64  `db:"sidang_id"`
	StartTime   string `db:"waktu_mulai"`
	EndTime     string `db:"waktu_selesai"`
	RoomName    string `db:"nama_ruangan"`
	StudentName string `db:"mahasiswa_name"`
}

// ParticipantConflict is one (schedule, lecturer) pair where the lecturer is
// already committed to an overlapping defense.
type ParticipantConflict struct {
	ScheduleID int64  `db:"id"`
	DefenseID  int64  `db:"sidang_id"`
	ThesisID   int64  `db:"tugas_akhir_id"`
	DosenID    int64  `db:"dosen_id"`
	DosenName  string `db:"dosen_name"`
	StartTime  string `db:"waktu_mulai"`
	EndTime    string `db:"waktu_selesai"`
}

// ConflictCheckResult is the outcome of a dry-run conflict check.
type ConflictCheckResult struct {
	HasConflict bool     `json:"hasConflict"`
	Messages    []string `json:"messages"`
}

// ScheduleConflictError is returned when a proposed defense binding collides
// with existing room bookings or lecturer commitments.
type ScheduleConflictError struct {
	Messages []string `json:"messages"`
}

// Error implements the error interface.
func (e *ScheduleConflictError) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return "schedule conflict"
	}
	return e.Messages[0]
}

// ApprovedRegistration is a defense registration approved by both supervisors
// and verification, with no defense scheduled yet.
type ApprovedRegistration struct {
	ID          int64     `db:"id" json:"id"`
	ThesisID    int64     `db:"tugas_akhir_id" json:"tugas_akhir_id"`
	ThesisTitle string    `db:"judul" json:"judul"`
	StudentName string    `db:"mahasiswa_name" json:"mahasiswa_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DefenseListItem is a defense joined with its schedule for examiner and
// student listings. Schedule fields are nil until the defense is scheduled.
type DefenseListItem struct {
	DefenseID   int64      `db:"sidang_id" json:"sidang_id"`
	ThesisID    int64      `db:"tugas_akhir_id" json:"tugas_akhir_id"`
	ThesisTitle string     `db:"judul" json:"judul"`
	StudentName string     `db:"mahasiswa_name" json:"mahasiswa_name"`
	Status      string     `db:"status_hasil" json:"status_hasil"`
	Date        *time.Time `db:"tanggal" json:"tanggal,omitempty"`
	StartTime   *string    `db:"waktu_mulai" json:"waktu_mulai,omitempty"`
	EndTime     *string    `db:"waktu_selesai" json:"waktu_selesai,omitempty"`
	RoomName    *string    `db:"nama_ruangan" json:"nama_ruangan,omitempty"`
}
