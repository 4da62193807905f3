package store

import "fmt"

type dialect struct {
	driver     string
	schemaFile string
	upsertConf string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver:     DriverSQLite,
		schemaFile: "schema_sqlite.sql",
		upsertConf: `INSERT INTO app_config (cfg_key, cfg_value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(cfg_key) DO UPDATE SET cfg_value = excluded.cfg_value, updated_at = excluded.updated_at`,
	},
	DriverMySQL: {
		driver:     DriverMySQL,
		schemaFile: "schema_mysql.sql",
		upsertConf: `INSERT INTO app_config (cfg_key, cfg_value, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE cfg_value = VALUES(cfg_value), updated_at = VALUES(updated_at)`,
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver: %q", driver)
	}
	return d, nil
}
