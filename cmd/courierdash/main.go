package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NovobRom/new-delivery-dashboard/internal/config"
	"github.com/NovobRom/new-delivery-dashboard/internal/logging"
	"github.com/NovobRom/new-delivery-dashboard/internal/server"
	"github.com/NovobRom/new-delivery-dashboard/internal/util"
)

var (
	port      = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode   = flag.Bool("dev", false, "开发模式")
	dataDir   = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	noBrowser = flag.Bool("no-browser", false, "不自动打开浏览器")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Delivery Dashboard - 配送数据看板")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		fmt.Printf("加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		fmt.Printf("创建数据目录失败: %v\n", err)
		dir = cfg.Data.DataDir
	}

	logPath := cfg.Log.File
	if logPath != "" && !filepath.IsAbs(logPath) {
		logPath = filepath.Join(dir, logPath)
	}
	logger, closer, err := logging.New(logPath, cfg.Log.Console)
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	logger.Info().Str("dataDir", dir).Str("config", info.Path).Bool("configFound", info.FileFound).Msg("starting")

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("create server failed")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("listening")
		if err := srv.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// 打开浏览器
	if cfg.Server.OpenBrowser && !cfg.Server.DevMode && !*noBrowser {
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
