package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sita-bi-api/internal/models"
	"github.com/noah-isme/sita-bi-api/internal/repository"
	"github.com/noah-isme/sita-bi-api/internal/service"
	"github.com/noah-isme/sita-bi-api/pkg/response"
)

type defenseRepoMock struct {
	defense *models.Defense
	roles   []models.ThesisRole
}

func (m *defenseRepoMock) FindByID(_ context.Context, id int64) (*models.Defense, error) {
	if m.defense == nil || m.defense.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.defense, nil
}

func (m *defenseRepoMock) FindByRegistrationID(_ context.Context, registrationID int64) (*models.Defense, error) {
	if m.defense == nil || m.defense.RegistrationID != registrationID {
		return nil, sql.ErrNoRows
	}
	return m.defense, nil
}

func (m *defenseRepoMock) ListRolesByThesis(_ context.Context, _ int64) ([]models.ThesisRole, error) {
	return m.roles, nil
}

func (m *defenseRepoMock) ListApprovedRegistrations(_ context.Context, _, _ int) ([]models.ApprovedRegistration, int, error) {
	return []models.ApprovedRegistration{{ID: 5, ThesisID: 10, StudentName: "Student B"}}, 1, nil
}

func (m *defenseRepoMock) ListForExaminer(_ context.Context, _ int64, _, _ int) ([]models.DefenseListItem, int, error) {
	return []models.DefenseListItem{{DefenseID: 1, StudentName: "Student B"}}, 1, nil
}

func (m *defenseRepoMock) ListForStudent(_ context.Context, _ int64) ([]models.DefenseListItem, error) {
	return nil, nil
}

type scheduleRepoMock struct {
	roomConflicts []models.RoomConflict
}

func (m *scheduleRepoMock) FindRoomConflicts(_ context.Context, _ int64, _ time.Time, _, _ string, _ int64) ([]models.RoomConflict, error) {
	return m.roomConflicts, nil
}

func (m *scheduleRepoMock) FindParticipantConflicts(_ context.Context, _ time.Time, _, _ string, _ []int64, _ int64) ([]models.ParticipantConflict, error) {
	return nil, nil
}

func (m *scheduleRepoMock) ListForDosenOnDate(_ context.Context, _ int64, _ time.Time) ([]models.DefenseSchedule, error) {
	return nil, nil
}

func (m *scheduleRepoMock) ListByDate(_ context.Context, _ time.Time) ([]repository.ExportRow, error) {
	return nil, nil
}

func (m *scheduleRepoMock) Schedule(_ context.Context, params repository.ScheduleParams) (*models.DefenseSchedule, error) {
	return &models.DefenseSchedule{ID: 99, DefenseID: params.DefenseID}, nil
}

type roomRepoMock struct{}

func (m *roomRepoMock) List(_ context.Context) ([]models.Room, error) {
	return []models.Room{{ID: 3, Name: "Room 101"}}, nil
}

func newScheduleHandler(defenses *defenseRepoMock, schedules *scheduleRepoMock, exportEnabled bool) *DefenseScheduleHandler {
	svc := service.NewDefenseScheduleService(defenses, schedules, &roomRepoMock{}, validator.New(), service.NewMetricsService(), zap.NewNop())
	return NewDefenseScheduleHandler(svc, exportEnabled)
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func TestCheckConflictEndpointReturnsMessages(t *testing.T) {
	defenses := &defenseRepoMock{defense: &models.Defense{ID: 1, ThesisID: 10, RegistrationID: 5}}
	schedules := &scheduleRepoMock{
		roomConflicts: []models.RoomConflict{
			{StartTime: "10:00", EndTime: "12:00", RoomName: "Room 101", StudentName: "Student B"},
		},
	}
	handler := newScheduleHandler(defenses, schedules, true)

	body, _ := json.Marshal(service.CheckConflictRequest{
		SidangID:     1,
		Tanggal:      "2026-01-12",
		WaktuMulai:   "11:00",
		WaktuSelesai: "13:00",
		RuanganID:    3,
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/jadwal-sidang/check-conflict", body)

	handler.CheckConflict(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.ConflictCheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.HasConflict)
	require.Len(t, envelope.Data.Messages, 1)
	assert.Contains(t, envelope.Data.Messages[0], "Room 101")
}

func TestCreateEndpointRejectsInvalidBody(t *testing.T) {
	handler := newScheduleHandler(&defenseRepoMock{}, &scheduleRepoMock{}, true)
	c, w := testContext(t, http.MethodPost, "/api/v1/jadwal-sidang", []byte(`not-json`))

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEndpointConflictStatus(t *testing.T) {
	defenses := &defenseRepoMock{defense: &models.Defense{ID: 1, ThesisID: 10, RegistrationID: 5}}
	schedules := &scheduleRepoMock{
		roomConflicts: []models.RoomConflict{
			{StartTime: "10:00", EndTime: "12:00", RoomName: "Room 101", StudentName: "Student B"},
		},
	}
	handler := newScheduleHandler(defenses, schedules, true)

	body, _ := json.Marshal(service.CreateScheduleRequest{
		PendaftaranSidangID: 5,
		Tanggal:             "2026-01-12",
		WaktuMulai:          "10:00",
		WaktuSelesai:        "11:00",
		RuanganID:           3,
		PengujiIDs:          []int64{201, 202},
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/jadwal-sidang", body)

	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SCHEDULE_CONFLICT", envelope.Error.Code)
}

func TestCreateEndpointSchedulesDefense(t *testing.T) {
	defenses := &defenseRepoMock{defense: &models.Defense{ID: 1, ThesisID: 10, RegistrationID: 5}}
	handler := newScheduleHandler(defenses, &scheduleRepoMock{}, true)

	body, _ := json.Marshal(service.CreateScheduleRequest{
		PendaftaranSidangID: 5,
		Tanggal:             "2026-01-12",
		WaktuMulai:          "09:00",
		WaktuSelesai:        "10:30",
		RuanganID:           3,
		PengujiIDs:          []int64{201, 202},
	})
	c, w := testContext(t, http.MethodPost, "/api/v1/jadwal-sidang", body)
	c.Request.Header.Set(HeaderUserID, "9")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data models.Defense `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.DefenseStatusScheduled, envelope.Data.Status)
}

func TestListForExaminerRequiresIdentity(t *testing.T) {
	handler := newScheduleHandler(&defenseRepoMock{}, &scheduleRepoMock{}, true)
	c, w := testContext(t, http.MethodGet, "/api/v1/jadwal-sidang/for-penguji", nil)

	handler.ListForExaminer(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListForExaminerWithIdentity(t *testing.T) {
	handler := newScheduleHandler(&defenseRepoMock{}, &scheduleRepoMock{}, true)
	c, w := testContext(t, http.MethodGet, "/api/v1/jadwal-sidang/for-penguji", nil)
	c.Request.Header.Set(HeaderDosenID, "201")

	handler.ListForExaminer(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportDisabled(t *testing.T) {
	handler := newScheduleHandler(&defenseRepoMock{}, &scheduleRepoMock{}, false)
	c, w := testContext(t, http.MethodGet, "/api/v1/jadwal-sidang/export?tanggal=2026-01-12", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportReturnsCSV(t *testing.T) {
	handler := newScheduleHandler(&defenseRepoMock{}, &scheduleRepoMock{}, true)
	c, w := testContext(t, http.MethodGet, "/api/v1/jadwal-sidang/export?tanggal=2026-01-12&format=csv", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "jadwal-sidang-2026-01-12.csv")
}
