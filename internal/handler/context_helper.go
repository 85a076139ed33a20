package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity headers forwarded by the gateway after authentication.
const (
	HeaderUserID      = "X-User-ID"
	HeaderDosenID     = "X-Dosen-ID"
	HeaderMahasiswaID = "X-Mahasiswa-ID"
)

func headerID(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader(name))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func userIDFromContext(c *gin.Context) *int64 {
	id, ok := headerID(c, HeaderUserID)
	if !ok {
		return nil
	}
	return &id
}

// contextUserID returns the acting user's id, or 0 when the gateway forwarded
// no identity. Zero skips best-effort activity logging.
func contextUserID(c *gin.Context) int64 {
	id, _ := headerID(c, HeaderUserID)
	return id
}
