package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql schema_mysql.sql
var schemaFS embed.FS

// 支持的数据库驱动
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Store 设置与导入日志的 SQL 存储层
type Store struct {
	db      *sql.DB
	dialect dialect
}

// New 创建 SQLite Store（默认驱动）
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open 按驱动创建 Store；sqlite3 的 dsn 为文件路径，mysql 的 dsn 为标准 DSN
func Open(driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite:
		// 确保 data 目录存在
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1) // SQLite 建议单连接
		db.SetMaxIdleConns(1)
	case DriverMySQL:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{db: db, dialect: d}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema 逐条执行建表语句（MySQL 默认不支持多语句）
func (s *Store) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile(s.dialect.schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.dialect.schemaFile, err)
	}
	for _, stmt := range strings.Split(string(schemaSQL), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// Driver 当前驱动名
func (s *Store) Driver() string {
	return s.dialect.driver
}

// Ping 健康检查
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
