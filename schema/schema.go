// Package schema implements structural codecs for validating decoded rows.
//
// A codec describes the expected shape of a value: primitives (String,
// Number, Int, Boolean, Null, Time, Unknown) and the combinators Array,
// Nullable and Object.  Exact wraps an Object so that keys not declared by the
// object are rejected instead of ignored.
//
// Decode validates a value against a codec and returns the validated value or
// an Errors report.  Each ValidationError renders as
//
//	Invalid value <value> supplied to <path>
//
// where value is `undefined` for a missing key or the JSON form of the value,
// and path joins "key: TypeName" entries with a slash, starting from the
// (unnamed) root, eg.
//
//	Invalid value undefined supplied to : {| id: number, whoops: string |}/whoops: string
package schema

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jjjachyty/jareth/types"
)

// Type is a codec: a named description of a value shape which can validate
// a dynamic value.
type Type interface {
	// Name is the type description used in error paths.
	Name() string
	// Validate checks in against the type.  c is the context leading to
	// in; implementations append to it when descending.
	Validate(in interface{}, c Context) (interface{}, Errors)
}

// ContextEntry is one step of a path through a value.
type ContextEntry struct {
	Key    string
	Type   Type
	Actual interface{}
}

// Context is the path from the root value to the value being validated.
type Context []ContextEntry

func (c Context) with(key string, t Type, actual interface{}) Context {
	out := make(Context, len(c), len(c)+1)
	copy(out, c)
	return append(out, ContextEntry{Key: key, Type: t, Actual: actual})
}

// Path renders the context as "key: Type/key: Type".
func (c Context) Path() string {
	parts := make([]string, len(c))
	for i, e := range c {
		parts[i] = e.Key + ": " + e.Type.Name()
	}
	return strings.Join(parts, "/")
}

type undefined struct{}

// Undefined stands in for a key that is absent from an object.
var Undefined interface{} = undefined{}

// ValidationError is a single validation failure.
type ValidationError struct {
	Value   interface{}
	Context Context
}

func (e ValidationError) Error() string {
	return "Invalid value " + stringify(e.Value) + " supplied to " + e.Context.Path()
}

// Errors is the list of failures of one Decode, in discovery order.
type Errors []ValidationError

// Error joins every failure, one per line.
func (es Errors) Error() string {
	return strings.Join(es.Report(), "\n")
}

// Report returns one message per failure.
func (es Errors) Report() []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Error()
	}
	return out
}

func failure(v interface{}, c Context) Errors {
	return Errors{{Value: v, Context: c}}
}

func stringify(v interface{}) string {
	if _, ok := v.(undefined); ok {
		return "undefined"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "<" + reflect.TypeOf(v).String() + ">"
	}
	return string(b)
}

// Decode validates v against t.  On failure the error is of type Errors.
func Decode(t Type, v interface{}) (interface{}, error) {
	out, errs := t.Validate(v, Context{{Key: "", Type: t, Actual: v}})
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// primitive types

type primitive struct {
	name string
	is   func(interface{}) bool
}

func (p primitive) Name() string { return p.name }

func (p primitive) Validate(in interface{}, c Context) (interface{}, Errors) {
	if p.is(in) {
		return in, nil
	}
	return nil, failure(in, c)
}

var (
	// String accepts Go strings.
	String Type = primitive{"string", func(v interface{}) bool {
		_, ok := v.(string)
		return ok
	}}
	// Number accepts any integer or floating point value.
	Number Type = primitive{"number", isNumber}
	// Int accepts numbers without a fractional part.
	Int Type = primitive{"Int", isInt}
	// Boolean accepts bools.
	Boolean Type = primitive{"boolean", func(v interface{}) bool {
		_, ok := v.(bool)
		return ok
	}}
	// Null accepts only nil.
	Null Type = primitive{"null", func(v interface{}) bool { return v == nil }}
	// Time accepts time.Time values.
	Time Type = primitive{"Date", func(v interface{}) bool {
		_, ok := v.(time.Time)
		return ok
	}}
	// Unknown accepts anything but a missing key.
	Unknown Type = primitive{"unknown", func(v interface{}) bool {
		_, missing := v.(undefined)
		return !missing
	}}
	// Never rejects everything; it names keys an exact object does not allow.
	Never Type = primitive{"never", func(interface{}) bool { return false }}
)

func isNumber(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isInt(v interface{}) bool {
	if !isNumber(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	}
	return true
}

// Array validates every element of a slice against elem.
func Array(elem Type) Type {
	return arrayType{elem: elem}
}

type arrayType struct {
	elem Type
}

func (a arrayType) Name() string { return "Array<" + a.elem.Name() + ">" }

func (a arrayType) Validate(in interface{}, c Context) (interface{}, Errors) {
	v, ok := unwrapJSON(in)
	if !ok {
		return nil, failure(in, c)
	}
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, failure(in, c)
	}
	if b, isBytes := v.([]byte); isBytes {
		return nil, failure(b, c)
	}
	out := make([]interface{}, rv.Len())
	var errs Errors
	for i := 0; i < rv.Len(); i++ {
		ev := rv.Index(i).Interface()
		dv, es := a.elem.Validate(ev, c.with(strconv.Itoa(i), a.elem, ev))
		errs = append(errs, es...)
		out[i] = dv
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// Nullable accepts nil or a value of t.
func Nullable(t Type) Type {
	return nullable{t: t}
}

type nullable struct {
	t Type
}

func (n nullable) Name() string { return "(" + n.t.Name() + " | null)" }

func (n nullable) Validate(in interface{}, c Context) (interface{}, Errors) {
	if in == nil {
		return nil, nil
	}
	if _, missing := in.(undefined); missing {
		return nil, failure(in, c)
	}
	return n.t.Validate(in, c.with("0", n.t, in))
}

// Prop is one declared key of an Object.
type Prop struct {
	Key  string
	Type Type
}

// Field declares a key of an Object.
func Field(key string, t Type) Prop {
	return Prop{Key: key, Type: t}
}

// ObjectType is a codec for string-keyed maps with declared keys.
type ObjectType struct {
	props []Prop
	exact bool
}

// Object returns a codec requiring each declared key.  Undeclared keys are
// ignored and dropped from the decoded value.
func Object(props ...Prop) *ObjectType {
	return &ObjectType{props: props}
}

// Exact returns a copy of o which additionally rejects undeclared keys.
func Exact(o *ObjectType) *ObjectType {
	return &ObjectType{props: o.props, exact: true}
}

// Props returns the declared keys in declaration order.
func (o *ObjectType) Props() []Prop {
	return append([]Prop(nil), o.props...)
}

// Name renders as `{ a: T, b: U }`, or `{| a: T, b: U |}` when exact.
func (o *ObjectType) Name() string {
	parts := make([]string, len(o.props))
	for i, p := range o.props {
		parts[i] = p.Key + ": " + p.Type.Name()
	}
	if o.exact {
		return "{| " + strings.Join(parts, ", ") + " |}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Validate checks declared keys in declaration order, then (when exact)
// undeclared keys in sorted order.
func (o *ObjectType) Validate(in interface{}, c Context) (interface{}, Errors) {
	v, ok := unwrapJSON(in)
	if !ok {
		return nil, failure(in, c)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, failure(in, c)
	}
	out := make(map[string]interface{}, len(o.props))
	declared := make(map[string]struct{}, len(o.props))
	var errs Errors
	for _, p := range o.props {
		declared[p.Key] = struct{}{}
		pv, present := m[p.Key]
		if !present {
			pv = Undefined
		}
		dv, es := p.Type.Validate(pv, c.with(p.Key, p.Type, pv))
		if len(es) > 0 {
			errs = append(errs, es...)
			continue
		}
		if present {
			out[p.Key] = dv
		}
	}
	if o.exact {
		var extra []string
		for k := range m {
			if _, ok := declared[k]; !ok {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			errs = append(errs, failure(m[k], c.with(k, Never, m[k]))...)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// unwrapJSON decodes JSON column values so that Object and Array codecs can
// validate their contents.  It reports false for malformed documents.
func unwrapJSON(in interface{}) (interface{}, bool) {
	j, ok := in.(types.JSONText)
	if !ok {
		return in, true
	}
	v, err := j.Decode()
	if err != nil {
		return nil, false
	}
	return v, true
}
