package storage

import (
	"fmt"

	"storyblocks/internal/config"
)

// postgresDSN uses cfg.DSN verbatim when set, otherwise builds a keyword
// connection string from the discrete fields.
func postgresDSN(cfg config.StorageConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.Username, cfg.Password, cfg.Database, sslMode,
	)
}

// mysqlDSN builds user:password@tcp(host:port)/dbname with parseTime so
// DATETIME columns scan into time.Time. clientFoundRows makes an UPDATE that
// changes nothing still report the matched row.
func mysqlDSN(cfg config.StorageConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
		cfg.Username, cfg.Password, cfg.Host, port, cfg.Database,
	)
	if cfg.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
