package jareth

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jjjachyty/jareth/types"
)

// Kind tags the dynamic type of a column value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindBytes
	KindTime
	KindJSON
	KindOther
)

var kindNames = [...]string{"null", "int", "float", "string", "bool", "bytes", "time", "json", "other"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed column value.  Integers are widened to int64
// and floats to float64 so that Kind has a single Go type per variant.
type Value struct {
	v interface{}
}

// ValueOf wraps v, widening sized integers and floats.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case int:
		return Value{int64(t)}
	case int8:
		return Value{int64(t)}
	case int16:
		return Value{int64(t)}
	case int32:
		return Value{int64(t)}
	case uint8:
		return Value{int64(t)}
	case uint16:
		return Value{int64(t)}
	case uint32:
		return Value{int64(t)}
	case float32:
		return Value{float64(t)}
	case types.BitBool:
		return Value{bool(t)}
	}
	return Value{v}
}

// Kind reports the variant held.
func (v Value) Kind() Kind {
	switch v.v.(type) {
	case nil:
		return KindNull
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case bool:
		return KindBool
	case []byte:
		return KindBytes
	case time.Time:
		return KindTime
	case types.JSONText:
		return KindJSON
	}
	return KindOther
}

// IsNull reports whether the column was SQL NULL.
func (v Value) IsNull() bool { return v.v == nil }

// Interface returns the held Go value.
func (v Value) Interface() interface{} { return v.v }

// Row is one result row: an ordered mapping of column name to Value.
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow builds a Row from parallel column and value slices.  A repeated
// column keeps its first position and its last value.
func NewRow(columns []string, values []interface{}) Row {
	r := Row{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]Value, len(columns)),
	}
	for i, c := range columns {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		r.set(c, ValueOf(v))
	}
	return r
}

func (r *Row) set(column string, v Value) {
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = v
}

// Columns returns the column names in result order.
func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Len is the number of distinct columns.
func (r Row) Len() int { return len(r.columns) }

// Get returns the value of a column and whether the column exists.
func (r Row) Get(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Field returns the Go value of a column, or nil when absent.
func (r Row) Field(column string) interface{} {
	return r.values[column].v
}

// Map returns a new map of column name to Go value.
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.columns))
	for _, c := range r.columns {
		m[c] = r.values[c].v
	}
	return m
}

// Rename returns a new Row whose column names are passed through f.  Values
// are shared, not copied.
func (r Row) Rename(f func(string) string) Row {
	out := Row{
		columns: make([]string, 0, len(r.columns)),
		values:  make(map[string]Value, len(r.columns)),
	}
	for _, c := range r.columns {
		out.set(f(c), r.values[c])
	}
	return out
}

// scanRows reads up to max rows (all rows when max < 0) from rows.
func scanRows(rows *sqlx.Rows, max int) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := []Row{}
	for (max < 0 || len(out) < max) && rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		out = append(out, newDriverRow(columns, colTypes, vals))
	}
	return out, rows.Err()
}

func newDriverRow(columns []string, colTypes []*sql.ColumnType, vals []interface{}) Row {
	for i := range vals {
		if i < len(colTypes) && colTypes[i] != nil {
			vals[i] = normalize(colTypes[i].DatabaseTypeName(), vals[i])
		}
	}
	return NewRow(columns, vals)
}

// column type families, keyed by DatabaseTypeName as reported by pq, mysql
// and sqlite3.
var (
	intTypes = map[string]bool{
		"INT": true, "INTEGER": true, "BIGINT": true, "SMALLINT": true, "TINYINT": true,
		"MEDIUMINT": true, "INT2": true, "INT4": true, "INT8": true, "SERIAL": true,
		"BIGSERIAL": true, "YEAR": true,
	}
	floatTypes = map[string]bool{
		"FLOAT": true, "FLOAT4": true, "FLOAT8": true, "DOUBLE": true, "REAL": true,
		"DECIMAL": true, "NUMERIC": true,
	}
	textTypes = map[string]bool{
		"CHAR": true, "VARCHAR": true, "TEXT": true, "TINYTEXT": true, "MEDIUMTEXT": true,
		"LONGTEXT": true, "BPCHAR": true, "NAME": true, "UUID": true, "CITEXT": true,
		"ENUM": true, "SET": true, "NCHAR": true, "NVARCHAR": true, "CLOB": true,
		"INET": true, "CIDR": true, "MACADDR": true, "XML": true,
	}
	boolTypes = map[string]bool{"BOOL": true, "BOOLEAN": true}
	jsonTypes = map[string]bool{"JSON": true, "JSONB": true}
)

// normalize converts the raw []byte some drivers return for textual
// protocols into the Go type matching the declared column type.  Values that
// cannot be parsed are left as bytes.
func normalize(dbType string, v interface{}) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	t := strings.TrimPrefix(strings.ToUpper(dbType), "UNSIGNED ")
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch {
	case intTypes[t]:
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return n
		}
	case floatTypes[t]:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	case textTypes[t]:
		return string(b)
	case boolTypes[t]:
		if p, err := strconv.ParseBool(string(b)); err == nil {
			return p
		}
	case jsonTypes[t]:
		return types.JSONText(b)
	case t == "BIT" && len(b) == 1:
		var bit types.BitBool
		if err := bit.Scan(b); err == nil {
			return bool(bit)
		}
	}
	return b
}
