package jareth

import (
	"context"
	"database/sql"
	"time"
)

// Query is a parameterized query template bound to a Handle.  It can be run
// any number of times, with different parameters, while the Handle is live.
type Query struct {
	handle   *Handle
	template string
}

// Template returns the unformatted query text.
func (q *Query) Template() string {
	return q.template
}

// compile formats the template for the handle's driver.  Formatting errors
// carry the template itself as the failed query.
func (q *Query) compile(params interface{}) (string, []interface{}, error) {
	if err := q.handle.check(); err != nil {
		return "", nil, &QueryError{Query: q.template, Err: err}
	}
	query, args, err := compileTemplate(q.template, params, q.handle.driverName)
	if err != nil {
		return "", nil, &QueryError{Query: q.template, Err: err}
	}
	return query, args, nil
}

// fetch runs the query and reads up to max rows; max < 0 reads them all.
func (q *Query) fetch(ctx context.Context, params interface{}, max int) ([]Row, error) {
	query, args, err := q.compile(params)
	if err != nil {
		return nil, err
	}
	h := q.handle
	started := time.Now()
	rows, err := h.session().QueryxContext(ctx, query, args...)
	if err != nil {
		traceQuery(ctx, h.j.log, h.driverName, query, len(args), 0, started, err)
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	out, err := scanRows(rows, max)
	traceQuery(ctx, h.j.log, h.driverName, query, len(args), len(out), started, err)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return out, nil
}

// One returns the only row of the result.  Zero rows fail with ErrNoData
// and several rows with ErrMultipleRows, both wrapped in a *QueryError.
func (q *Query) One(ctx context.Context, params interface{}) (Row, error) {
	rows, err := q.fetch(ctx, params, 2)
	if err != nil {
		return Row{}, err
	}
	switch len(rows) {
	case 0:
		return Row{}, &QueryError{Query: q.template, Err: ErrNoData}
	case 1:
		return rows[0], nil
	}
	return Row{}, &QueryError{Query: q.template, Err: ErrMultipleRows}
}

// OneOrNone returns the only row of the result, or nil when there is none.
func (q *Query) OneOrNone(ctx context.Context, params interface{}) (*Row, error) {
	rows, err := q.fetch(ctx, params, 2)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	}
	return nil, &QueryError{Query: q.template, Err: ErrMultipleRows}
}

// Many returns every row of the result, which must not be empty.
func (q *Query) Many(ctx context.Context, params interface{}) ([]Row, error) {
	rows, err := q.fetch(ctx, params, -1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &QueryError{Query: q.template, Err: ErrNoData}
	}
	return rows, nil
}

// ManyOrNone returns every row of the result, possibly none.
func (q *Query) ManyOrNone(ctx context.Context, params interface{}) ([]Row, error) {
	return q.fetch(ctx, params, -1)
}

// None runs a statement that must not return rows.
func (q *Query) None(ctx context.Context, params interface{}) error {
	rows, err := q.fetch(ctx, params, 1)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return &QueryError{Query: q.template, Err: ErrNoReturnExpected}
	}
	return nil
}

// Result executes a statement and returns the driver's result, for callers
// that need affected row counts or insert ids.
func (q *Query) Result(ctx context.Context, params interface{}) (sql.Result, error) {
	query, args, err := q.compile(params)
	if err != nil {
		return nil, err
	}
	h := q.handle
	started := time.Now()
	res, err := h.session().ExecContext(ctx, query, args...)
	if err != nil {
		traceQuery(ctx, h.j.log, h.driverName, query, len(args), 0, started, err)
		return nil, &QueryError{Query: query, Err: err}
	}
	n, _ := res.RowsAffected()
	traceQuery(ctx, h.j.log, h.driverName, query, len(args), int(n), started, nil)
	return res, nil
}

// One runs q and maps its only row.  Mapper errors are returned as-is.
func One[T any](ctx context.Context, q *Query, params interface{}, mapper RowMapper[T]) (T, error) {
	var zero T
	row, err := q.One(ctx, params)
	if err != nil {
		return zero, err
	}
	return mapper(row)
}

// OneOrNone runs q and maps its only row, returning nil when there is none.
func OneOrNone[T any](ctx context.Context, q *Query, params interface{}, mapper RowMapper[T]) (*T, error) {
	row, err := q.OneOrNone(ctx, params)
	if err != nil || row == nil {
		return nil, err
	}
	v, err := mapper(*row)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Many runs q and maps every row; an empty result fails with ErrNoData.
func Many[T any](ctx context.Context, q *Query, params interface{}, mapper RowMapper[T]) ([]T, error) {
	rows, err := q.Many(ctx, params)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, mapper)
}

// ManyOrNone runs q and maps every row.
func ManyOrNone[T any](ctx context.Context, q *Query, params interface{}, mapper RowMapper[T]) ([]T, error) {
	rows, err := q.ManyOrNone(ctx, params)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, mapper)
}

func mapRows[T any](rows []Row, mapper RowMapper[T]) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := mapper(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
