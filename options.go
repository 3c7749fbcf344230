package jareth

import (
	"database/sql"
	"time"
)

// Option configures a Jareth instance.
type Option func(*config)

type config struct {
	driverName      string
	maxOpenConns    int
	maxIdleConns    int
	maxIdleSet      bool
	connMaxLifetime time.Duration
	txOptions       *sql.TxOptions
	logger          Logger
	ping            bool
	pingTimeout     time.Duration
}

func defaultConfig() *config {
	return &config{
		logger:      defaultLogger(),
		ping:        true,
		pingTimeout: 5 * time.Second,
	}
}

// WithDriver names the database/sql driver explicitly.  The connection string
// is then handed to that driver unchanged.
func WithDriver(name string) Option {
	return func(c *config) {
		c.driverName = name
	}
}

// WithMaxOpenConns bounds the pool size.  Zero means unlimited.
func WithMaxOpenConns(n int) Option {
	return func(c *config) {
		c.maxOpenConns = n
	}
}

// WithMaxIdleConns sets how many idle connections the pool keeps.
func WithMaxIdleConns(n int) Option {
	return func(c *config) {
		c.maxIdleConns = n
		c.maxIdleSet = true
	}
}

// WithConnMaxLifetime closes pooled connections older than d.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(c *config) {
		c.connMaxLifetime = d
	}
}

// WithTxOptions sets the isolation level and read-only flag used by every
// top-level transaction.
func WithTxOptions(opts sql.TxOptions) Option {
	return func(c *config) {
		c.txOptions = &opts
	}
}

// WithLogger replaces the default logrus standard logger.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l == nil {
			l = DisableLogger{}
		}
		c.logger = l
	}
}

// WithoutPing skips the connectivity check in New.
func WithoutPing() Option {
	return func(c *config) {
		c.ping = false
	}
}

// WithPingTimeout bounds the connectivity check in New.
func WithPingTimeout(d time.Duration) Option {
	return func(c *config) {
		c.pingTimeout = d
	}
}
