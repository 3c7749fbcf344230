package jareth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnString(t *testing.T) {
	table := []struct {
		In, Driver, DSN string
	}{
		{"postgres://jeff:pw@localhost:5432/jareth?sslmode=disable", "postgres", "postgres://jeff:pw@localhost:5432/jareth?sslmode=disable"},
		{"postgresql://localhost/jareth", "postgres", "postgresql://localhost/jareth"},
		{"sqlite:///tmp/jareth.db", "sqlite3", "file:/tmp/jareth.db"},
		{"sqlite3://:memory:", "sqlite3", "file::memory:?cache=shared"},
		{"sqlite://data/jareth.db?_fk=1", "sqlite3", "file:data/jareth.db?_fk=1"},
		{"file:jareth.db?cache=shared", "sqlite3", "file:jareth.db?cache=shared"},
	}
	for _, test := range table {
		driver, dsn, err := parseConnString(test.In, "")
		require.NoError(t, err, test.In)
		assert.Equal(t, test.Driver, driver, test.In)
		assert.Equal(t, test.DSN, dsn, test.In)
	}
}

func TestParseConnStringMysql(t *testing.T) {
	table := []struct {
		In, User, Passwd, Addr, DBName string
	}{
		{"mysql://jeff:pw@db:3306/jareth", "jeff", "pw", "db:3306", "jareth"},
		{"mysql:///jareth", "", "", "127.0.0.1:3306", "jareth"},
	}
	for _, test := range table {
		driver, dsn, err := parseConnString(test.In, "")
		require.NoError(t, err, test.In)
		assert.Equal(t, "mysql", driver)
		cfg, err := mysql.ParseDSN(dsn)
		require.NoError(t, err, dsn)
		assert.Equal(t, test.User, cfg.User)
		assert.Equal(t, test.Passwd, cfg.Passwd)
		assert.Equal(t, "tcp", cfg.Net)
		assert.Equal(t, test.Addr, cfg.Addr)
		assert.Equal(t, test.DBName, cfg.DBName)
		assert.True(t, cfg.ParseTime)
	}
}

func TestParseConnStringMysqlParams(t *testing.T) {
	_, dsn, err := parseConnString("mysql://jeff@db/jareth?charset=utf8mb4", "")
	require.NoError(t, err)
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")

	_, _, err = parseConnString("mysql://jeff@db/jareth?timeout=forever", "")
	assert.Error(t, err)
}

func TestParseConnStringExplicitDriver(t *testing.T) {
	driver, dsn, err := parseConnString("user=jeff dbname=jareth", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "user=jeff dbname=jareth", dsn)
}

func TestParseConnStringUnsupported(t *testing.T) {
	_, _, err := parseConnString("redis://localhost", "")
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))

	_, err = New("redis://localhost")
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))
}

func TestSqliteMemorySharedAcrossConnections(t *testing.T) {
	j, err := New("sqlite3://:memory:", WithLogger(DisableLogger{}))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	err = j.WithHandle(ctx, func(h *Handle) error {
		if err := h.CreateQuery(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`).None(ctx, nil); err != nil {
			return err
		}
		// h keeps its connection, so the transaction runs on another one.
		err := j.WithTransaction(ctx, func(tx *Handle) error {
			return tx.CreateQuery(`INSERT INTO users (id, name) VALUES (${id}, ${name})`).
				None(ctx, Params{"id": 1, "name": "jeff"})
		})
		if err != nil {
			return err
		}
		name, err := One(ctx, h.CreateQuery(`SELECT name FROM users WHERE id = 1`), nil, MapColumn[string]("name"))
		if err != nil {
			return err
		}
		assert.Equal(t, "jeff", name)
		return nil
	})
	require.NoError(t, err)
}
