package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sita-bi-api/internal/models"
	"github.com/noah-isme/sita-bi-api/internal/service"
	appErrors "github.com/noah-isme/sita-bi-api/pkg/errors"
	"github.com/noah-isme/sita-bi-api/pkg/response"
)

// AdvisingHandler manages advising session endpoints.
type AdvisingHandler struct {
	service *service.AdvisingService
}

// NewAdvisingHandler constructs handler.
func NewAdvisingHandler(svc *service.AdvisingService) *AdvisingHandler {
	return &AdvisingHandler{service: svc}
}

// AvailableSlots godoc
// @Summary Suggest free advising slots for a supervisor on a date
// @Tags Bimbingan
// @Produce json
// @Param dosenId query int true "Lecturer ID"
// @Param tanggal query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /bimbingan/available-slots [get]
func (h *AdvisingHandler) AvailableSlots(c *gin.Context) {
	dosenID, err := strconv.ParseInt(c.Query("dosenId"), 10, 64)
	if err != nil || dosenID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dosenId must be a positive integer"))
		return
	}
	slots, err := h.service.SuggestAvailableSlots(c.Request.Context(), dosenID, c.Query("tanggal"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"slots": slots}, nil)
}

// Conflicts godoc
// @Summary Check whether an advising slot clashes with existing commitments
// @Tags Bimbingan
// @Produce json
// @Param dosenId query int true "Lecturer ID"
// @Param tanggal query string true "Date (YYYY-MM-DD)"
// @Param jam query string true "Start time (HH:mm)"
// @Success 200 {object} response.Envelope
// @Router /bimbingan/conflicts [get]
func (h *AdvisingHandler) Conflicts(c *gin.Context) {
	dosenID, err := strconv.ParseInt(c.Query("dosenId"), 10, 64)
	if err != nil || dosenID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dosenId must be a positive integer"))
		return
	}
	conflict, err := h.service.DetectScheduleConflicts(c.Request.Context(), dosenID, c.Query("tanggal"), c.Query("jam"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"hasConflict": conflict}, nil)
}

// Create godoc
// @Summary Schedule an advising session
// @Tags Bimbingan
// @Accept json
// @Produce json
// @Param X-Dosen-ID header int true "Lecturer ID"
// @Param payload body service.SetScheduleRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bimbingan/jadwal [post]
func (h *AdvisingHandler) Create(c *gin.Context) {
	dosenID, ok := headerID(c, HeaderDosenID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing lecturer identity"))
		return
	}
	var req service.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.service.SetSchedule(c.Request.Context(), dosenID, contextUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Reschedule godoc
// @Summary Propose a new date/time for an advising session
// @Tags Bimbingan
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param X-Mahasiswa-ID header int true "Student ID"
// @Param payload body service.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Router /bimbingan/{id}/reschedule [patch]
func (h *AdvisingHandler) Reschedule(c *gin.Context) {
	mahasiswaID, ok := headerID(c, HeaderMahasiswaID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing student identity"))
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer"))
		return
	}
	var req service.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.service.Reschedule(c.Request.Context(), sessionID, mahasiswaID, contextUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Cancel godoc
// @Summary Cancel an advising session
// @Tags Bimbingan
// @Produce json
// @Param id path int true "Session ID"
// @Param X-Dosen-ID header int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /bimbingan/{id}/cancel [patch]
func (h *AdvisingHandler) Cancel(c *gin.Context) {
	h.updateStatus(c, h.service.Cancel)
}

// Complete godoc
// @Summary Mark an advising session as done
// @Tags Bimbingan
// @Produce json
// @Param id path int true "Session ID"
// @Param X-Dosen-ID header int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /bimbingan/{id}/selesai [patch]
func (h *AdvisingHandler) Complete(c *gin.Context) {
	h.updateStatus(c, h.service.Complete)
}

func (h *AdvisingHandler) updateStatus(c *gin.Context, apply func(ctx context.Context, sessionID, dosenID, userID int64) (*models.AdvisingSession, error)) {
	dosenID, ok := headerID(c, HeaderDosenID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing lecturer identity"))
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer"))
		return
	}
	session, err := apply(c.Request.Context(), sessionID, dosenID, contextUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
