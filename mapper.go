package jareth

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/iancoleman/strcase"

	"github.com/jjjachyty/jareth/schema"
)

// RowMapper turns one result row into a caller-defined value.  Mappers are
// expected to be pure functions of the row.
type RowMapper[T any] func(Row) (T, error)

// MapRow returns the row itself.
func MapRow(r Row) (Row, error) {
	return r, nil
}

// MapMap returns the row as a plain map of column name to value.
func MapMap(r Row) (map[string]interface{}, error) {
	return r.Map(), nil
}

// MapColumn projects a single column, converting it to T.  A NULL column
// yields the zero T; a missing column is an error.
func MapColumn[T any](name string) RowMapper[T] {
	return func(r Row) (T, error) {
		var out T
		v, ok := r.Get(name)
		if !ok {
			return out, fmt.Errorf("jareth: column %q not in result", name)
		}
		if v.IsNull() {
			return out, nil
		}
		if t, ok := v.Interface().(T); ok {
			return t, nil
		}
		if err := mapstructure.Decode(v.Interface(), &out); err != nil {
			return out, fmt.Errorf("jareth: column %q: %w", name, err)
		}
		return out, nil
	}
}

// MapCamelCase renames the row's columns to lowerCamelCase, so that
// maniaplanet_name becomes maniaplanetName.  Only column names change:
// values, including decoded JSON objects, are left as they are.
// Leading and trailing separators are dropped, so _id becomes id.
func MapCamelCase(r Row) (Row, error) {
	return r.Rename(camelKey), nil
}

func camelKey(column string) string {
	trimmed := strings.Trim(column, "_-. ")
	if trimmed == "" {
		return column
	}
	return strcase.ToLowerCamel(trimmed)
}

// exact makes object codecs reject undeclared keys.
func exact(codec schema.Type) schema.Type {
	if o, ok := codec.(*schema.ObjectType); ok {
		return schema.Exact(o)
	}
	return codec
}

// DecodeRow validates the row against codec.  An object codec is always
// applied exactly: columns it does not declare are failures, even when it was
// built with schema.Object rather than schema.Exact.  Failures are returned
// as a *DecodeError.
func DecodeRow(codec schema.Type, r Row) (map[string]interface{}, error) {
	out, err := schema.Decode(exact(codec), r.Map())
	if err != nil {
		errs, _ := err.(schema.Errors)
		return nil, &DecodeError{Errors: errs}
	}
	m, _ := out.(map[string]interface{})
	return m, nil
}

// MapDecode camel-cases the row's columns and validates the result against
// codec.  As with DecodeRow, undeclared columns are rejected.
func MapDecode(codec schema.Type) RowMapper[map[string]interface{}] {
	return func(r Row) (map[string]interface{}, error) {
		camel, _ := MapCamelCase(r)
		return DecodeRow(codec, camel)
	}
}

// MapDecodeInto is MapDecode followed by a conversion into T.  Struct fields
// are matched by their `json` tags, so a field tagged `json:"maniaplanetName"`
// receives the maniaplanet_name column.
func MapDecodeInto[T any](codec schema.Type) RowMapper[T] {
	decode := MapDecode(codec)
	return func(r Row) (T, error) {
		var out T
		m, err := decode(r)
		if err != nil {
			return out, err
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: "json",
			Result:  &out,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeHookFunc(time.RFC3339),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		})
		if err != nil {
			return out, err
		}
		if err := dec.Decode(m); err != nil {
			return out, fmt.Errorf("jareth: decode into %T: %w", out, err)
		}
		return out, nil
	}
}
