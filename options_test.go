package jareth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	assert.True(t, cfg.ping)
	assert.Equal(t, 5*time.Second, cfg.pingTimeout)

	for _, opt := range []Option{
		WithDriver("postgres"),
		WithMaxOpenConns(8),
		WithMaxIdleConns(2),
		WithConnMaxLifetime(time.Minute),
		WithTxOptions(sql.TxOptions{Isolation: sql.LevelSerializable}),
		WithLogger(nil),
		WithoutPing(),
		WithPingTimeout(time.Second),
	} {
		opt(cfg)
	}
	assert.Equal(t, "postgres", cfg.driverName)
	assert.Equal(t, 8, cfg.maxOpenConns)
	assert.Equal(t, 2, cfg.maxIdleConns)
	assert.True(t, cfg.maxIdleSet)
	assert.Equal(t, time.Minute, cfg.connMaxLifetime)
	assert.Equal(t, sql.LevelSerializable, cfg.txOptions.Isolation)
	assert.Equal(t, DisableLogger{}, cfg.logger)
	assert.False(t, cfg.ping)
	assert.Equal(t, time.Second, cfg.pingTimeout)
}

func TestNewAppliesPoolOptions(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "opts.db")
	j, err := New(dsn, WithMaxOpenConns(3), WithLogger(DisableLogger{}))
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, "sqlite3", j.DriverName())
	assert.Equal(t, 3, j.DB().Stats().MaxOpenConnections)
	assert.NoError(t, j.DB().PingContext(context.Background()))
}

func TestLogrusLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	log := NewLogger(logger.WithField("component", "jareth"))
	traceQuery(context.Background(), log, "sqlite3", "SELECT 1", 0, 1, time.Now(), nil)
	traceQuery(context.Background(), log, "sqlite3", "SELECT", 0, 0, time.Now(), sql.ErrNoRows)
	warn(context.Background(), log, "rollback", sql.ErrConnDone)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.TraceLevel, entries[0].Level)
	assert.Equal(t, "jareth", entries[0].Data["component"])
	assert.Equal(t, 1, entries[0].Data["rows"])
	assert.Equal(t, logrus.DebugLevel, entries[1].Level)
	assert.Equal(t, sql.ErrNoRows, entries[1].Data[logrus.ErrorKey])
	assert.Equal(t, logrus.WarnLevel, entries[2].Level)

	hook.Reset()
	traceQuery(context.Background(), DisableLogger{}, "sqlite3", "SELECT 1", 0, 1, time.Now(), nil)
	assert.Empty(t, hook.AllEntries())
}
