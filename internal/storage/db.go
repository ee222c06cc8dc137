package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"storyblocks/internal/config"
)

// ErrNotFound is returned when a story does not exist.
var ErrNotFound = errors.New("storage: not found")

// DB wraps a SQL connection together with the dialect it speaks.
type DB struct {
	conn   *sql.DB
	driver string
}

// OpenSQL opens the relational store named by cfg.Storage.Driver and runs
// the migrations.
func OpenSQL(cfg *config.Config) (*DB, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.SQLitePath())
	case config.DriverPostgres:
		return open("postgres", config.DriverPostgres, postgresDSN(cfg.Storage))
	case config.DriverMySQL:
		return open("mysql", config.DriverMySQL, mysqlDSN(cfg.Storage))
	}
	return nil, fmt.Errorf("unsupported sql driver %q", cfg.Storage.Driver)
}

// OpenSQLite opens (or creates) the SQLite file at path.
func OpenSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := open("sqlite", config.DriverSQLite, path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY.
	db.conn.SetMaxOpenConns(1)
	return db, nil
}

func open(sqlDriver, dialect, dsn string) (*DB, error) {
	conn, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	db := &DB{conn: conn, driver: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (db *DB) timestampType() string {
	switch db.driver {
	case config.DriverPostgres:
		return "TIMESTAMPTZ"
	case config.DriverMySQL:
		return "DATETIME(6)"
	}
	return "DATETIME"
}

// longTextType holds image data URLs, which reach several megabytes. MySQL
// TEXT stops at 64 KiB.
func (db *DB) longTextType() string {
	if db.driver == config.DriverMySQL {
		return "LONGTEXT"
	}
	return "TEXT"
}

// schema returns the migrations for the connection's dialect, in order.
func (db *DB) schema() []string {
	ts := db.timestampType()
	long := db.longTextType()
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS stories (
			id VARCHAR(64) PRIMARY KEY,
			title TEXT NOT NULL,
			slug VARCHAR(191) NOT NULL UNIQUE,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		// Composite key doubles as the story_id index on every dialect.
		`CREATE TABLE IF NOT EXISTS content_blocks (
			story_id VARCHAR(64) NOT NULL REFERENCES stories(id),
			id VARCHAR(64) NOT NULL,
			type VARCHAR(32) NOT NULL,
			content ` + long + ` NOT NULL,
			sort_order INTEGER NOT NULL,
			heading_level INTEGER NULL,
			image_url ` + long + ` NULL,
			image_alt ` + long + ` NULL,
			PRIMARY KEY (story_id, id)
		)`,
	}
	if db.driver == config.DriverMySQL {
		// Widens tables created with TEXT columns; a no-op on new ones.
		migrations = append(migrations, `ALTER TABLE content_blocks
			MODIFY content LONGTEXT NOT NULL,
			MODIFY image_url LONGTEXT NULL,
			MODIFY image_alt LONGTEXT NULL`)
	}
	return migrations
}

func (db *DB) migrate() error {
	for _, m := range db.schema() {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", migrationTable(m), err)
		}
	}
	return nil
}

// migrationTable names the table a CREATE TABLE IF NOT EXISTS or ALTER TABLE
// statement touches.
func migrationTable(stmt string) string {
	f := strings.Fields(stmt)
	if f[0] == "ALTER" {
		return f[2]
	}
	return f[5]
}
