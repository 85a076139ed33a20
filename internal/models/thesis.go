package models

// Role tags stored in peran_dosen_ta.peran. Values are the legacy enum
// literals and must not be translated.
const (
	RoleSupervisor1 = "pembimbing1"
	RoleSupervisor2 = "pembimbing2"
	RoleExaminer1   = "penguji1"
	RoleExaminer2   = "penguji2"
	RoleExaminer3   = "penguji3"
	RoleExaminer4   = "penguji4"
)

// SupervisorRoles and ExaminerRoles partition the role tags.
var (
	SupervisorRoles = []string{RoleSupervisor1, RoleSupervisor2}
	ExaminerRoles   = []string{RoleExaminer1, RoleExaminer2, RoleExaminer3, RoleExaminer4}
)

// ThesisRole links a lecturer to a final project with a role tag.
type ThesisRole struct {
	ID       int64  `db:"id" json:"id"`
	ThesisID int64  `db:"tugas_akhir_id" json:"tugas_akhir_id"`
	DosenID  int64  `db:"dosen_id" json:"dosen_id"`
	Role     string `db:"peran" json:"peran"`
}

// IsSupervisor reports whether the role is one of the two supervisor slots.
func (r ThesisRole) IsSupervisor() bool {
	return r.Role == RoleSupervisor1 || r.Role == RoleSupervisor2
}
