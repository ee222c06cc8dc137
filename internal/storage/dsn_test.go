package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyblocks/internal/config"
)

func TestRebind(t *testing.T) {
	pg := &DB{driver: config.DriverPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))

	lite := &DB{driver: config.DriverSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestPostgresDSN(t *testing.T) {
	got := postgresDSN(config.StorageConfig{Host: "db", Username: "u", Password: "p", Database: "stories"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=stories sslmode=disable", got)

	assert.Equal(t, "postgres://x", postgresDSN(config.StorageConfig{DSN: "postgres://x", Host: "ignored"}))
}

func TestMySQLDSN(t *testing.T) {
	got := mysqlDSN(config.StorageConfig{Host: "db", Port: 3307, Username: "u", Password: "p", Database: "stories", SSLMode: "require"})
	assert.Equal(t, "u:p@tcp(db:3307)/stories?parseTime=true&charset=utf8mb4&clientFoundRows=true&tls=true", got)
}

func TestSchema_LongTextColumns(t *testing.T) {
	mysql := (&DB{driver: config.DriverMySQL}).schema()
	require.Len(t, mysql, 3)
	for _, col := range []string{"content LONGTEXT NOT NULL", "image_url LONGTEXT NULL", "image_alt LONGTEXT NULL"} {
		assert.Contains(t, mysql[1], col)
		assert.Contains(t, mysql[2], "MODIFY "+col)
	}
	assert.Contains(t, mysql[0], "created_at DATETIME(6) NOT NULL")

	for _, driver := range []string{config.DriverSQLite, config.DriverPostgres} {
		ddl := (&DB{driver: driver}).schema()
		require.Len(t, ddl, 2, driver)
		assert.Contains(t, ddl[1], "content TEXT NOT NULL", driver)
		assert.Contains(t, ddl[1], "image_url TEXT NULL", driver)
		assert.NotContains(t, ddl[1], "LONGTEXT", driver)
	}
}

func TestMigrationTable(t *testing.T) {
	schema := (&DB{driver: config.DriverMySQL}).schema()
	assert.Equal(t, "stories", migrationTable(schema[0]))
	assert.Equal(t, "content_blocks", migrationTable(schema[1]))
	assert.Equal(t, "content_blocks", migrationTable(schema[2]))
}
