package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NovobRom/new-delivery-dashboard/internal/store"
)

func (h *Handler) settingsAvailable(c *gin.Context) bool {
	if h.opts.Settings == nil {
		errorResponse(c, codeSettingsDisabled, "设置存储不可用")
		return false
	}
	return true
}

// ListExcludedCouriers 快递员排除名单
// GET /api/settings/excluded-couriers
func (h *Handler) ListExcludedCouriers(c *gin.Context) {
	if !h.settingsAvailable(c) {
		return
	}
	names, err := h.opts.Settings.ExcludedCouriers(c.Request.Context())
	if err != nil {
		errorResponse(c, codeSettingsFailed, err.Error())
		return
	}
	success(c, names)
}

// AddExcludedCourier 添加排除快递员
// POST /api/settings/excluded-couriers  {"name": "..."}
func (h *Handler) AddExcludedCourier(c *gin.Context) {
	if !h.settingsAvailable(c) {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		errorResponse(c, codeBadRequest, "参数错误")
		return
	}
	names, err := h.opts.Settings.AddExcludedCourier(c.Request.Context(), req.Name)
	if err != nil {
		errorResponse(c, codeSettingsFailed, err.Error())
		return
	}
	success(c, names)
}

// RemoveExcludedCourier 移除排除快递员（不区分大小写）
// DELETE /api/settings/excluded-couriers/:name
func (h *Handler) RemoveExcludedCourier(c *gin.Context) {
	if !h.settingsAvailable(c) {
		return
	}
	names, err := h.opts.Settings.RemoveExcludedCourier(c.Request.Context(), c.Param("name"))
	if err != nil {
		errorResponse(c, codeSettingsFailed, err.Error())
		return
	}
	success(c, names)
}

// ListImportLogs 最近的导入日志
// GET /api/import-logs?limit=50
func (h *Handler) ListImportLogs(c *gin.Context) {
	if !h.settingsAvailable(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.opts.Settings.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, codeSettingsFailed, err.Error())
		return
	}
	if logs == nil {
		logs = []store.ImportLog{}
	}
	success(c, logs)
}
