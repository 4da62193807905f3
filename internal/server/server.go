package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NovobRom/new-delivery-dashboard/internal/api"
	"github.com/NovobRom/new-delivery-dashboard/internal/config"
	"github.com/NovobRom/new-delivery-dashboard/internal/model"
	"github.com/NovobRom/new-delivery-dashboard/internal/notify"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
	datastore "github.com/NovobRom/new-delivery-dashboard/internal/service/store"
	"github.com/NovobRom/new-delivery-dashboard/internal/store"
)

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	store    *store.Store
	datasets *datastore.MemoryStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewServer 创建服务器：打开设置存储、构建解析流水线与通知器、注册路由
func NewServer(cfg *config.AppConfig, logger zerolog.Logger) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	pipeline, err := NewPipeline(cfg.Import)
	if err != nil {
		return nil, err
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("ensure data dir failed")
		dataDir = cfg.Data.DataDir
	}
	dsn := cfg.Data.DSN
	if dsn == "" {
		dsn = filepath.Join(dataDir, "dashboard.db")
	}
	st, err := store.Open(cfg.Data.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.AMQPURL != "" {
		n, err := notify.DialAMQP(cfg.Notify.AMQPURL, cfg.Notify.Queue, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("commit notifier disabled")
		} else {
			notifier = n
		}
	}

	datasets := datastore.NewMemoryStore()
	handler := api.NewHandler(api.Options{
		Datasets:       datasets,
		Settings:       st,
		Pipeline:       pipeline,
		Notifier:       notifier,
		Logger:         logger,
		PaintDelay:     cfg.Import.PaintDelay(),
		SessionTTL:     cfg.Import.SessionTTL(),
		MaxUploadBytes: cfg.Import.MaxUploadBytes(),
	})

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		router:   router,
		store:    st,
		datasets: datasets,
		notifier: notifier,
		logger:   logger,
	}
	s.setupRoutes(handler, devMode)
	s.httpSrv = &http.Server{Handler: router}
	return s, nil
}

// NewPipeline 按导入配置构建解析流水线
func NewPipeline(cfg config.ImportConfig) (*parser.Pipeline, error) {
	mode, err := parser.ParseCoercionMode(cfg.Coercion)
	if err != nil {
		return nil, err
	}
	required := make([]model.CanonicalField, 0, len(cfg.StrictRequired))
	for _, name := range cfg.StrictRequired {
		f, err := model.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("import.strict_required: %w", err)
		}
		if f != model.Unmapped {
			required = append(required, f)
		}
	}

	var detector parser.DetectorMode
	switch parser.DetectorMode(cfg.EncodingDetector) {
	case "", parser.DetectorHeuristic:
		detector = parser.DetectorHeuristic
	case parser.DetectorStatistical:
		detector = parser.DetectorStatistical
	default:
		return nil, fmt.Errorf("unknown encoding detector: %q", cfg.EncodingDetector)
	}

	return parser.NewPipeline(
		parser.NewEncodingDetector(detector),
		parser.NewFieldMapper(cfg.FuzzyThreshold),
		parser.NewValidator(mode, required...),
	), nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(handler *api.Handler, devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	{
		handler.RegisterRoutes(group)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Response{Code: 404, Message: "not found"})
	})
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	s.httpSrv.Addr = addr
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止服务并释放存储与通知连接
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	if cerr := s.notifier.Close(); cerr != nil {
		s.logger.Warn().Err(cerr).Msg("close notifier failed")
	}
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// GetStore 获取设置存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}

// Datasets 获取数据集存储（用于测试）
func (s *Server) Datasets() *datastore.MemoryStore {
	return s.datasets
}
