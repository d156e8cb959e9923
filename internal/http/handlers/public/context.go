package public

import (
	"strconv"

	handlershared "github.com/canting-next/internal/http/handlers/shared"
	"github.com/canting-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

func parsePathID(c *gin.Context, key string) (uint, bool) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "路径参数无效", err)
		return 0, false
	}
	return uint(id), true
}

func parsePathIDFromQuery(c *gin.Context, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondError(c, response.CodeBadRequest, "查询参数无效", err)
		return 0, false
	}
	return uint(id), true
}
