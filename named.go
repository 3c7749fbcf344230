package jareth

// Template formatting
//
//  * compileTemplate - turn a ${name} template plus parameters into a query
//    using the driver's positional bindvars and its argument list
//  * toParams - accept maps or structs as parameters
//  * lookup - resolve dotted names against nested maps
//
// Values are never spliced into the SQL text except through the explicit
// :raw modifier; everything else is sent to the driver as a bound argument.

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Params are the named parameters of a query template.  A placeholder is
// written ${name}, $(name), $<name>, $[name] or $/name/, where name may be a
// dotted path into nested maps or structs.  A modifier after the name changes
// how the value is used:
//
//	${v}                 bound argument (slices become arrays on postgres)
//	${v^}, ${v:raw}      inserted verbatim
//	${v~}, ${v:name}     quoted identifier, or a list of them
//	${v:json}            JSON text, bound
//	${v:csv}, ${v:list}  one bound argument per element, comma separated
type Params map[string]interface{}

// compileTemplate formats tmpl for driverName.  A placeholder whose name is
// missing from params fails with a *PropertyError.
func compileTemplate(tmpl string, arg interface{}, driverName string) (string, []interface{}, error) {
	params, err := toParams(arg)
	if err != nil {
		return "", nil, err
	}
	bindType := sqlx.BindType(driverName)
	var (
		out  strings.Builder
		args []interface{}
	)
	out.Grow(len(tmpl))
	bind := func(v interface{}) {
		args = append(args, v)
		out.WriteString(bindvar(bindType, len(args)))
	}

	for _, it := range lexTemplate(tmpl) {
		if it.typ != itemPlaceholder {
			out.WriteString(it.val)
			continue
		}
		v, ok := lookup(params, it.name)
		if !ok {
			return "", nil, &PropertyError{Name: it.name}
		}
		switch modifiers[it.modifier] {
		case "":
			if it.modifier != "" {
				return "", nil, fmt.Errorf("jareth: unknown modifier %q for property '%s'", it.modifier, it.name)
			}
			bind(bindValue(driverName, v))
		case "raw":
			if v != nil {
				out.WriteString(fmt.Sprint(v))
			}
		case "name":
			names, err := identifiers(v)
			if err != nil {
				return "", nil, fmt.Errorf("jareth: property '%s': %w", it.name, err)
			}
			for i, n := range names {
				if i > 0 {
					out.WriteString(", ")
				}
				out.WriteString(quoteIdentifier(driverName, n))
			}
		case "json":
			b, err := json.Marshal(v)
			if err != nil {
				return "", nil, fmt.Errorf("jareth: property '%s': %w", it.name, err)
			}
			bind(string(b))
		case "csv":
			elems := expand(v)
			if len(elems) == 0 {
				// an empty list matches nothing in IN (...) on every engine.
				out.WriteString("NULL")
			}
			for i, e := range elems {
				if i > 0 {
					out.WriteString(", ")
				}
				bind(e)
			}
		}
	}
	return out.String(), args, nil
}

// toParams normalizes the parameter argument.  Structs are converted with
// mapstructure, honouring `db` tags.
func toParams(arg interface{}) (map[string]interface{}, error) {
	switch p := arg.(type) {
	case nil:
		return nil, nil
	case Params:
		return p, nil
	case map[string]interface{}:
		return p, nil
	}
	v := reflect.Indirect(reflect.ValueOf(arg))
	if v.Kind() != reflect.Struct && v.Kind() != reflect.Map {
		return nil, fmt.Errorf("jareth: parameters must be a map or struct, not %T", arg)
	}
	out := map[string]interface{}{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "db",
		Result:  &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return nil, fmt.Errorf("jareth: parameters: %w", err)
	}
	return out, nil
}

// lookup resolves a possibly dotted name.
func lookup(params map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := params[name]; ok {
		return v, true
	}
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return nil, false
	}
	var cur interface{} = params
	for _, part := range parts {
		m, err := toParams(cur)
		if err != nil || m == nil {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// bindValue adapts v for the driver.  Postgres receives Go slices as arrays.
func bindValue(driverName string, v interface{}) interface{} {
	if driverName != "postgres" || v == nil {
		return v
	}
	if _, ok := v.(driver.Valuer); ok {
		return v
	}
	if _, ok := v.([]byte); ok {
		return v
	}
	if k := reflect.TypeOf(v).Kind(); k == reflect.Slice || k == reflect.Array {
		return pq.Array(v)
	}
	return v
}

// expand returns the elements of a slice or array, or v alone.
func expand(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if _, ok := v.([]byte); ok {
		return []interface{}{v}
	}
	if _, ok := v.(driver.Valuer); ok {
		return []interface{}{v}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{v}
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func identifiers(v interface{}) ([]string, error) {
	switch n := v.(type) {
	case string:
		return []string{n}, nil
	case []string:
		if len(n) == 0 {
			return nil, fmt.Errorf("empty identifier list")
		}
		return n, nil
	}
	return nil, fmt.Errorf("identifiers must be a string or []string, not %T", v)
}
