package jareth

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Session is the driver-native context a Handle issues statements on: a
// *sqlx.Conn outside of a transaction and a *sqlx.Tx inside one.
type Session interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

var (
	_ Session = (*sqlx.Conn)(nil)
	_ Session = (*sqlx.Tx)(nil)
)

// Handle is a scoped reference to one connection or transaction.  It is only
// valid inside the callback that received it; afterwards every query made
// through it fails with ErrHandleReleased.
//
// A Handle must not be used by two goroutines at once.
type Handle struct {
	j          *Jareth
	driverName string
	conn       *sqlx.Conn
	tx         *sqlx.Tx
	depth      int // savepoint nesting, 0 for a top-level transaction
	released   bool
}

// CreateQuery binds a query template to the handle.  No I/O takes place until
// one of the Query's execution methods is called.
func (h *Handle) CreateQuery(template string) *Query {
	return &Query{handle: h, template: template}
}

// WithTransaction runs fn with a Handle for a transaction nested in h.  On a
// plain connection it begins a transaction; inside a transaction it sets a
// savepoint.  The work is committed (or the savepoint released) when fn
// returns nil, and rolled back when fn fails or panics.
func (h *Handle) WithTransaction(ctx context.Context, fn func(*Handle) error) error {
	if err := h.check(); err != nil {
		return &QueryError{Err: err}
	}
	if h.tx == nil {
		tx, err := h.conn.BeginTxx(ctx, h.j.txOptions)
		if err != nil {
			return &QueryError{Query: "BEGIN", Err: err}
		}
		child := &Handle{j: h.j, driverName: h.driverName, conn: h.conn, tx: tx}
		return h.j.transact(ctx, child, tx.Commit, tx.Rollback, fn)
	}

	child := &Handle{j: h.j, driverName: h.driverName, conn: h.conn, tx: h.tx, depth: h.depth + 1}
	name := fmt.Sprintf("jareth_sp_%d", child.depth)
	if err := h.exec(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	commit := func() error { return h.exec(ctx, "RELEASE SAVEPOINT "+name) }
	rollback := func() error { return h.exec(ctx, "ROLLBACK TO SAVEPOINT "+name) }
	return h.j.transact(ctx, child, commit, rollback, fn)
}

// NestedTransactionResult is Handle.WithTransaction for callbacks returning a
// value.  The zero T is returned alongside any error.
func NestedTransactionResult[T any](ctx context.Context, h *Handle, fn func(*Handle) (T, error)) (T, error) {
	var out T
	err := h.WithTransaction(ctx, func(tx *Handle) error {
		var err error
		out, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Session returns the driver-native connection or transaction behind the
// handle.  It is only valid while the handle is.
func (h *Handle) Session() Session {
	return h.session()
}

// DriverName is the database/sql driver the handle's statements go to.
func (h *Handle) DriverName() string {
	return h.driverName
}

// InTransaction reports whether statements run inside a transaction.
func (h *Handle) InTransaction() bool {
	return h.tx != nil
}

func (h *Handle) session() Session {
	if h.tx != nil {
		return h.tx
	}
	return h.conn
}

func (h *Handle) check() error {
	if h.released {
		return ErrHandleReleased
	}
	return nil
}

func (h *Handle) release() {
	h.released = true
}

// exec runs a control statement, such as a savepoint, on the session.
func (h *Handle) exec(ctx context.Context, stmt string) error {
	started := time.Now()
	_, err := h.session().ExecContext(ctx, stmt)
	traceQuery(ctx, h.j.log, h.driverName, stmt, 0, 0, started, err)
	if err != nil {
		return &QueryError{Query: stmt, Err: err}
	}
	return nil
}
