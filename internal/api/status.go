package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
)

// StatusResponse 系统状态
type StatusResponse struct {
	Datasets       map[model.DatasetTarget]int `json:"datasets"`
	LastUpdated    string                      `json:"lastUpdated,omitempty"`
	ActiveSessions int                         `json:"activeSessions"`
	Coercion       parser.CoercionMode         `json:"coercion"`
	FuzzyThreshold float64                     `json:"fuzzyThreshold"`
	Database       string                      `json:"database,omitempty"`
	DatabaseOK     bool                        `json:"databaseOk"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Datasets:       make(map[model.DatasetTarget]int),
		ActiveSessions: h.sessions.len(),
		Coercion:       h.opts.Pipeline.Validator().Mode(),
		FuzzyThreshold: h.opts.Pipeline.Mapper().Threshold(),
	}
	for _, t := range model.Targets() {
		resp.Datasets[t] = h.opts.Datasets.Count(t)
	}
	if ts := h.opts.Datasets.LastUpdated(); !ts.IsZero() {
		resp.LastUpdated = ts.Format(time.RFC3339)
	}
	if h.opts.Settings != nil {
		resp.Database = h.opts.Settings.Driver()
		resp.DatabaseOK = h.opts.Settings.Ping(c.Request.Context()) == nil
	}
	success(c, resp)
}

// FieldInfo 统一口径字段说明
type FieldInfo struct {
	Name     model.CanonicalField `json:"name"`
	Numeric  bool                 `json:"numeric"`
	Synonyms []string             `json:"synonyms"`
}

// ListFields 统一口径字段列表（映射下拉选项）
// GET /api/fields
func (h *Handler) ListFields(c *gin.Context) {
	fields := model.AllFields()
	out := make([]FieldInfo, 0, len(fields))
	for _, f := range fields {
		syn := parser.Synonyms(f)
		if syn == nil {
			syn = []string{}
		}
		out = append(out, FieldInfo{Name: f, Numeric: f.IsNumeric(), Synonyms: syn})
	}
	success(c, out)
}
