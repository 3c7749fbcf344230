// Package jareth is a thin typed layer over database/sql and sqlx.
//
// A Jareth owns a connection pool.  WithHandle and WithTransaction lend a
// Handle to a callback for the duration of the call: the connection is
// returned to the pool on every exit path, and a transaction is committed
// when the callback succeeds and rolled back when it fails or panics.
//
// Queries are templates with named placeholders:
//
//	q := h.CreateQuery(`SELECT id, name FROM users WHERE name = ${name}`)
//	user, err := jareth.One(ctx, q, jareth.Params{"name": "jeff"}, jareth.MapDecode(userCodec))
//
// Placeholder values are always sent as bound arguments, in the bindvar style
// of the driver.  The :raw, :name, :json and :csv modifiers change how a
// value is spliced in; see Params.
//
// Row mappers turn a Row into a value.  MapCamelCase renames snake_case
// columns, and MapDecode additionally validates the row against a schema
// codec, failing with a *DecodeError whose message is the first failing path:
//
//	Invalid value undefined supplied to : {| id: number, whoops: string |}/whoops: string
//
// Any failure while formatting or executing a query is a *QueryError.
package jareth
