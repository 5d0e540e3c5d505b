package database

import (
	"path/filepath"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSNDefaults(t *testing.T) {
	dsn, err := postgresDSN(Config{User: "hoaxify", Name: "hoaxify"})
	require.NoError(t, err)
	require.Equal(t, "postgres://hoaxify@localhost:5432/hoaxify?sslmode=disable", dsn)

	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	require.Equal(t, "localhost", parsed.Host)
	require.Equal(t, uint16(5432), parsed.Port)
	require.Equal(t, "hoaxify", parsed.Database)
	require.Nil(t, parsed.TLSConfig)
}

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	dsn, err := postgresDSN(Config{
		User:     "hoax user",
		Password: "p@ss word",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Options:  map[string]string{"search_path": "public"},
	})
	require.NoError(t, err)

	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.example.com", parsed.Host)
	require.Equal(t, uint16(6543), parsed.Port)
	require.Equal(t, "hoax user", parsed.User)
	require.Equal(t, "p@ss word", parsed.Password)
	require.Equal(t, "public", parsed.RuntimeParams["search_path"])
}

func TestPostgresDSNOverride(t *testing.T) {
	dsn, err := postgresDSN(Config{DSN: "postgres://custom"})
	require.NoError(t, err)
	require.Equal(t, "postgres://custom", dsn)
}

func TestPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := postgresDSN(Config{})
	require.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify"},
	})
	require.NoError(t, err)

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "user", parsed.User)
	require.Equal(t, "secret", parsed.Passwd)
	require.Equal(t, "db.example.com:3307", parsed.Addr)
	require.Equal(t, "db", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.UTC, parsed.Loc)
	require.Equal(t, "skip-verify", parsed.TLSConfig)
	require.Contains(t, dsn, "charset=utf8mb4")
}

func TestMySQLDSNDefaults(t *testing.T) {
	dsn, err := mysqlDSN(Config{User: "hoaxify", Name: "hoaxify"})
	require.NoError(t, err)

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3306", parsed.Addr)
}

func TestMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := mysqlDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(Config{})
	require.NoError(t, err)
	require.Equal(t, sqliteMemoryDSN, dsn)

	dsn, err = sqliteDSN(Config{Path: ":MEMORY:"})
	require.NoError(t, err)
	require.Equal(t, sqliteMemoryDSN, dsn)

	path := filepath.Join(t.TempDir(), "nested", "hoaxify.sqlite")
	dsn, err = sqliteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, "_foreign_keys=1")
	require.DirExists(t, filepath.Dir(path))
}

func TestNormaliseDriver(t *testing.T) {
	cases := map[string]string{
		"":           "sqlite",
		"SQLite3":    "sqlite",
		"postgresql": "postgres",
		"MariaDB":    "mysql",
		"oracle":     "oracle",
	}
	for input, expected := range cases {
		require.Equal(t, expected, normaliseDriver(input), input)
	}
}
