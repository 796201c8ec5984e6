package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voyage/internal/http/middleware"
	"voyage/internal/modules/aiusage"
)

type UsageHandler struct {
	usage  *aiusage.Service
	logger *zap.Logger
}

func NewUsageHandler(svc *aiusage.Service, logger *zap.Logger) *UsageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageHandler{usage: svc, logger: logger.Named("usage_handler")}
}

// Report handles GET /api/user/usage.
func (h *UsageHandler) Report(c *gin.Context) {
	if h.usage == nil {
		writeError(c, http.StatusServiceUnavailable, "usage reporting requires a database")
		return
	}
	r, err := h.usage.Report(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		h.logger.Error("usage report", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, r)
}
