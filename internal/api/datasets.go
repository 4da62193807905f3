package api

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NovobRom/new-delivery-dashboard/internal/analytics"
	"github.com/NovobRom/new-delivery-dashboard/internal/exporter"
	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// DatasetResponse 数据集查询结果（已应用当前筛选）
type DatasetResponse struct {
	Target      model.DatasetTarget     `json:"target"`
	Total       int                     `json:"total"`
	Filtered    int                     `json:"filtered"`
	Records     []model.CanonicalRecord `json:"records"`
	LastUpdated string                  `json:"lastUpdated,omitempty"`
}

func (h *Handler) target(c *gin.Context) (model.DatasetTarget, bool) {
	t, err := model.ParseTarget(c.Param("target"))
	if err != nil {
		errorResponse(c, codeUnknownTarget, err.Error())
		return "", false
	}
	return t, true
}

// ListRecords 查询数据集
// GET /api/datasets/:target
func (h *Handler) ListRecords(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	records := h.opts.Datasets.FilteredRecords(target)
	if records == nil {
		records = []model.CanonicalRecord{}
	}
	resp := DatasetResponse{
		Target:   target,
		Total:    h.opts.Datasets.Count(target),
		Filtered: len(records),
		Records:  records,
	}
	if ts := h.opts.Datasets.DatasetUpdated(target); !ts.IsZero() {
		resp.LastUpdated = ts.Format(time.RFC3339)
	}
	success(c, resp)
}

// ClearDataset 清空数据集
// DELETE /api/datasets/:target
func (h *Handler) ClearDataset(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	h.opts.Datasets.Clear(target)
	h.opts.Logger.Info().Str("target", string(target)).Msg("dataset cleared")
	success(c, nil)
}

// GetKPIs 计算当前筛选下的 KPI 与分组统计
// GET /api/datasets/:target/kpis
func (h *Handler) GetKPIs(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	records := h.opts.Datasets.FilteredRecords(target)
	success(c, gin.H{
		"kpis":         analytics.CalculateKPIs(records),
		"trend":        analytics.Trend(records),
		"byDepartment": analytics.ByDepartment(records),
		"byMethod":     analytics.ByMethod(records),
		"density":      analytics.Density(records),
		"heatmap":      analytics.CourierHeatmap(records),
		"dateBounds":   h.opts.Datasets.DateBounds(target),
		"couriers":     h.opts.Datasets.UniqueCouriers(target),
		"departments":  h.opts.Datasets.UniqueDepartments(target),
	})
}

// GetCourierRanking 快递员排行
// GET /api/datasets/:target/couriers
func (h *Handler) GetCourierRanking(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	ranking := analytics.CourierRanking(h.opts.Datasets.FilteredRecords(target))
	if ranking == nil {
		ranking = []analytics.CourierStat{}
	}
	success(c, ranking)
}

// Export 导出当前筛选下的数据集为 xlsx
// GET /api/datasets/:target/export?summary=true
func (h *Handler) Export(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	records := h.opts.Datasets.FilteredRecords(target)

	f, err := exporter.ExportRecords(records, target, exporter.Options{
		WithSummary: c.Query("summary") == "true",
	})
	if err != nil {
		h.opts.Logger.Error().Err(err).Str("target", string(target)).Msg("export failed")
		errorResponse(c, codeExportFailed, "导出失败")
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(target, time.Now()))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.opts.Logger.Error().Err(err).Msg("write export failed")
	}
}

func buildExportContentDisposition(target model.DatasetTarget, now time.Time) string {
	name := fmt.Sprintf("%s-%s.xlsx", target, now.Format("2006-01-02"))
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", name, url.PathEscape(name))
}
