package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sita-bi-api/internal/service"
	appErrors "github.com/noah-isme/sita-bi-api/pkg/errors"
	"github.com/noah-isme/sita-bi-api/pkg/response"
)

// DefenseScheduleHandler manages defense scheduling endpoints.
type DefenseScheduleHandler struct {
	service       *service.DefenseScheduleService
	exportEnabled bool
}

// NewDefenseScheduleHandler constructs handler.
func NewDefenseScheduleHandler(svc *service.DefenseScheduleService, exportEnabled bool) *DefenseScheduleHandler {
	return &DefenseScheduleHandler{service: svc, exportEnabled: exportEnabled}
}

// ListRegistrations godoc
// @Summary List approved defense registrations awaiting a schedule
// @Tags JadwalSidang
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jadwal-sidang [get]
func (h *DefenseScheduleHandler) ListRegistrations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	registrations, pagination, err := h.service.ListApprovedRegistrations(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, pagination)
}

// Create godoc
// @Summary Schedule a defense
// @Tags JadwalSidang
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jadwal-sidang [post]
func (h *DefenseScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	defense, err := h.service.Create(c.Request.Context(), req, userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, defense)
}

// CheckConflict godoc
// @Summary Dry-run conflict check for a proposed defense slot
// @Tags JadwalSidang
// @Accept json
// @Produce json
// @Param payload body service.CheckConflictRequest true "Proposed slot"
// @Success 200 {object} response.Envelope
// @Router /jadwal-sidang/check-conflict [post]
func (h *DefenseScheduleHandler) CheckConflict(c *gin.Context) {
	var req service.CheckConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListForExaminer godoc
// @Summary List defenses assigned to the requesting examiner
// @Tags JadwalSidang
// @Produce json
// @Param X-Dosen-ID header int true "Lecturer ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jadwal-sidang/for-penguji [get]
func (h *DefenseScheduleHandler) ListForExaminer(c *gin.Context) {
	dosenID, ok := headerID(c, HeaderDosenID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing lecturer identity"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, pagination, err := h.service.ListForExaminer(c.Request.Context(), dosenID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListForStudent godoc
// @Summary List the requesting student's defenses
// @Tags JadwalSidang
// @Produce json
// @Param X-Mahasiswa-ID header int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /jadwal-sidang/for-mahasiswa [get]
func (h *DefenseScheduleHandler) ListForStudent(c *gin.Context) {
	mahasiswaID, ok := headerID(c, HeaderMahasiswaID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing student identity"))
		return
	}
	items, err := h.service.ListForStudent(c.Request.Context(), mahasiswaID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Export a day's defense timetable
// @Tags JadwalSidang
// @Produce text/csv
// @Param tanggal query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /jadwal-sidang/export [get]
func (h *DefenseScheduleHandler) Export(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "export is disabled"))
		return
	}
	payload, contentType, filename, err := h.service.ExportDay(c.Request.Context(), c.Query("tanggal"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// ListRooms godoc
// @Summary List examination rooms
// @Tags Ruangan
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ruangan [get]
func (h *DefenseScheduleHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
