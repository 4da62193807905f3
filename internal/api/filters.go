package api

import (
	"github.com/gin-gonic/gin"

	datastore "github.com/NovobRom/new-delivery-dashboard/internal/service/store"
)

// GetFilters 当前筛选条件
// GET /api/filters
func (h *Handler) GetFilters(c *gin.Context) {
	success(c, h.opts.Datasets.Filters())
}

// SetFilters 替换筛选条件
// PUT /api/filters
func (h *Handler) SetFilters(c *gin.Context) {
	var f datastore.Filters
	if err := c.ShouldBindJSON(&f); err != nil {
		errorResponse(c, codeBadRequest, "参数错误")
		return
	}
	for _, d := range []string{f.DateFrom, f.DateTo} {
		if d == "" {
			continue
		}
		if _, ok := datastore.ParseBound(d); !ok {
			errorResponse(c, codeBadRequest, "日期格式应为 dd.MM.yyyy 或 yyyy-MM-dd")
			return
		}
	}
	h.opts.Datasets.SetFilters(f)
	success(c, h.opts.Datasets.Filters())
}

// ResetFilters 清除筛选条件
// DELETE /api/filters
func (h *Handler) ResetFilters(c *gin.Context) {
	h.opts.Datasets.ResetFilters()
	success(c, h.opts.Datasets.Filters())
}
