package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
	Notify NotifyConfig `toml:"notify"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	// Driver sqlite3 或 mysql
	Driver string `toml:"driver"`
	// DSN 为空时使用 data_dir 下的 dashboard.db
	DSN string `toml:"dsn"`
}

// ImportConfig 导入流水线配置
type ImportConfig struct {
	Coercion         string   `toml:"coercion"` // permissive | strict
	StrictRequired   []string `toml:"strict_required"`
	FuzzyThreshold   float64  `toml:"fuzzy_threshold"`
	EncodingDetector string   `toml:"encoding_detector"` // heuristic | statistical
	PaintDelayMs     int      `toml:"paint_delay_ms"`
	MaxUploadMB      int      `toml:"max_upload_mb"`
	SessionTTLMin    int      `toml:"session_ttl_minutes"`
}

// LogConfig 日志配置
type LogConfig struct {
	File    string `toml:"file"`
	Console bool   `toml:"console"`
}

// NotifyConfig 提交通知配置；amqp_url 为空时不发送
type NotifyConfig struct {
	AMQPURL string `toml:"amqp_url"`
	Queue   string `toml:"queue"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			OpenBrowser: true,
		},
		Data: DataConfig{
			DataDir: "data",
			Driver:  "sqlite3",
		},
		Import: ImportConfig{
			Coercion:         "permissive",
			StrictRequired:   []string{"date", "status"},
			FuzzyThreshold:   0.40,
			EncodingDetector: "heuristic",
			PaintDelayMs:     100,
			MaxUploadMB:      50,
			SessionTTLMin:    60,
		},
		Log: LogConfig{
			File:    "logs/courierdash.log",
			Console: true,
		},
		Notify: NotifyConfig{
			Queue: "delivery.dataset.committed",
		},
	}
}

// PaintDelay 全量解析前的等待时长
func (c ImportConfig) PaintDelay() time.Duration {
	return time.Duration(c.PaintDelayMs) * time.Millisecond
}

// SessionTTL 导入会话空闲过期时长
func (c ImportConfig) SessionTTL() time.Duration {
	if c.SessionTTLMin <= 0 {
		return time.Hour
	}
	return time.Duration(c.SessionTTLMin) * time.Minute
}

// MaxUploadBytes 上传大小上限
func (c ImportConfig) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	// .env 可选，已存在的环境变量优先
	_ = godotenv.Load(filepath.Join(exeDir, ".env"))

	return LoadFile(filepath.Join(exeDir, "config.toml"))
}

// LoadFile 从指定路径加载配置，文件不存在时使用默认值；之后应用环境变量覆盖
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if applyEnv(config) {
		info.PortSpecified = true
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行），返回端口是否被覆盖
func applyEnv(config *AppConfig) bool {
	portSet := false
	if v := os.Getenv("COURIERDASH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			config.Server.Port = p
			portSet = true
		}
	}
	if v := os.Getenv("COURIERDASH_DB_DRIVER"); v != "" {
		config.Data.Driver = v
	}
	if v := os.Getenv("COURIERDASH_DB_DSN"); v != "" {
		config.Data.DSN = v
	}
	if v := os.Getenv("COURIERDASH_AMQP_URL"); v != "" {
		config.Notify.AMQPURL = v
	}
	if v := os.Getenv("COURIERDASH_COERCION"); v != "" {
		config.Import.Coercion = v
	}
	return portSet
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir 确保数据目录存在，相对路径以可执行文件目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	for _, subdir := range []string{"exports", "logs"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
