package jareth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Jareth owns a connection pool and hands out scoped Handles on it.
type Jareth struct {
	db         *sqlx.DB
	driverName string
	txOptions  *sql.TxOptions
	log        Logger
}

// New opens a pool for connString.  The driver is chosen from the scheme
// (postgres://, mysql://, sqlite://, file:) unless WithDriver is given.
// Unless WithoutPing is given the database is contacted once before New
// returns.
func New(connString string, opts ...Option) (*Jareth, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	driverName, dsn, err := parseConnString(connString, cfg.driverName)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("jareth: open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	if cfg.maxIdleSet {
		db.SetMaxIdleConns(cfg.maxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.connMaxLifetime)

	if cfg.ping {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.pingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("jareth: connect %s: %w", driverName, err)
		}
	}
	return &Jareth{db: db, driverName: driverName, txOptions: cfg.txOptions, log: cfg.logger}, nil
}

// DB returns the underlying pool.
func (j *Jareth) DB() *sqlx.DB {
	return j.db
}

// DriverName is the database/sql driver of the pool.
func (j *Jareth) DriverName() string {
	return j.driverName
}

// Close closes the pool.  Handles in use keep their connections until their
// callbacks return.
func (j *Jareth) Close() error {
	return j.db.Close()
}

// WithHandle runs fn with a Handle on a connection taken from the pool.  The
// connection goes back to the pool when fn returns, whatever the outcome, and
// fn's error is returned unchanged.
func (j *Jareth) WithHandle(ctx context.Context, fn func(*Handle) error) error {
	conn, err := j.db.Connx(ctx)
	if err != nil {
		return &QueryError{Err: err}
	}
	h := &Handle{j: j, driverName: j.driverName, conn: conn}
	defer func() {
		h.release()
		if err := conn.Close(); err != nil {
			warn(ctx, j.log, "close connection", err)
		}
	}()
	return fn(h)
}

// WithTransaction runs fn with a Handle on a new transaction.  The transaction
// is committed when fn returns nil and rolled back when fn returns an error
// or panics.
func (j *Jareth) WithTransaction(ctx context.Context, fn func(*Handle) error) error {
	tx, err := j.db.BeginTxx(ctx, j.txOptions)
	if err != nil {
		return &QueryError{Query: "BEGIN", Err: err}
	}
	h := &Handle{j: j, driverName: j.driverName, tx: tx}
	return j.transact(ctx, h, tx.Commit, tx.Rollback, fn)
}

// transact runs fn on h, then commits or rolls back.  h is released on every
// path.
func (j *Jareth) transact(ctx context.Context, h *Handle, commit, rollback func() error, fn func(*Handle) error) (err error) {
	defer h.release()
	defer func() {
		if p := recover(); p != nil {
			j.rollback(ctx, rollback)
			panic(p)
		}
	}()

	if err = fn(h); err != nil {
		j.rollback(ctx, rollback)
		return err
	}
	if err = commit(); err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			return err
		}
		return &QueryError{Query: "COMMIT", Err: err}
	}
	return nil
}

func (j *Jareth) rollback(ctx context.Context, rollback func() error) {
	if err := rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		warn(ctx, j.log, "rollback", err)
	}
}

// WithHandleResult is Jareth.WithHandle for callbacks returning a value.  The
// zero T is returned alongside any error.
func WithHandleResult[T any](ctx context.Context, j *Jareth, fn func(*Handle) (T, error)) (T, error) {
	var out T
	err := j.WithHandle(ctx, func(h *Handle) error {
		var err error
		out, err = fn(h)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// WithTransactionResult is Jareth.WithTransaction for callbacks returning a
// value.
func WithTransactionResult[T any](ctx context.Context, j *Jareth, fn func(*Handle) (T, error)) (T, error) {
	var out T
	err := j.WithTransaction(ctx, func(h *Handle) error {
		var err error
		out, err = fn(h)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
