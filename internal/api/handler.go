package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NovobRom/new-delivery-dashboard/internal/notify"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
	datastore "github.com/NovobRom/new-delivery-dashboard/internal/service/store"
	"github.com/NovobRom/new-delivery-dashboard/internal/store"
)

// 错误码：1xxx 请求参数，2xxx 导入会话，3xxx 解析/导出，5xxx 设置存储
const (
	codeBadRequest        = 1001
	codeUnsupportedFile   = 1002
	codeFileTooLarge      = 1003
	codeUnknownTarget     = 1004
	codeSessionNotFound   = 2001
	codeInvalidTransition = 2002
	codeImportFailed      = 3001
	codeExportFailed      = 3002
	codeSettingsDisabled  = 5001
	codeSettingsFailed    = 5002
)

// Options API 依赖与参数
type Options struct {
	Datasets *datastore.MemoryStore
	// Settings 为 nil 时排除名单与导入日志不可用
	Settings *store.Store
	Pipeline *parser.Pipeline
	Notifier notify.Notifier
	Logger   zerolog.Logger

	PaintDelay     time.Duration
	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// Handler HTTP API 处理器
type Handler struct {
	opts     Options
	sessions *sessionStore
}

// NewHandler 创建处理器
func NewHandler(opts Options) *Handler {
	if opts.Datasets == nil {
		opts.Datasets = datastore.NewMemoryStore()
	}
	if opts.Pipeline == nil {
		opts.Pipeline = parser.NewPipeline(nil, nil, nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	return &Handler{
		opts:     opts,
		sessions: newSessionStore(opts.SessionTTL),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/fields", h.ListFields)

	// 导入向导
	router.POST("/import", h.Upload)
	router.GET("/import/:sessionId", h.GetSession)
	router.POST("/import/:sessionId/confirm", h.ConfirmMapping)
	router.POST("/import/:sessionId/reset", h.ResetSession)
	router.DELETE("/import/:sessionId", h.DeleteSession)

	// 数据集
	router.GET("/datasets/:target", h.ListRecords)
	router.DELETE("/datasets/:target", h.ClearDataset)
	router.GET("/datasets/:target/kpis", h.GetKPIs)
	router.GET("/datasets/:target/couriers", h.GetCourierRanking)
	router.GET("/datasets/:target/export", h.Export)

	// 筛选
	router.GET("/filters", h.GetFilters)
	router.PUT("/filters", h.SetFilters)
	router.DELETE("/filters", h.ResetFilters)

	// 设置
	router.GET("/settings/excluded-couriers", h.ListExcludedCouriers)
	router.POST("/settings/excluded-couriers", h.AddExcludedCourier)
	router.DELETE("/settings/excluded-couriers/:name", h.RemoveExcludedCourier)
	router.GET("/import-logs", h.ListImportLogs)
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func errorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
