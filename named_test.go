package jareth

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lib/pq"
)

func TestCompileTemplate(t *testing.T) {
	table := []struct {
		Q, R, D string
		P       Params
		A       []interface{}
	}{
		// basic test for named parameters, invalid char ',' terminating
		{
			Q: `INSERT INTO foo (a,b,c,d) VALUES (${name}, ${age}, ${first}, ${last})`,
			R: `INSERT INTO foo (a,b,c,d) VALUES (?, ?, ?, ?)`,
			D: `INSERT INTO foo (a,b,c,d) VALUES ($1, $2, $3, $4)`,
			P: Params{"name": "n", "age": 3, "first": "f", "last": "l"},
			A: []interface{}{"n", 3, "f", "l"},
		},
		// a placeholder ending the string, bracket variants and spacing
		{
			Q: `SELECT * FROM a WHERE first_name=$(name1) AND last_name=$<name2> OR x=$[ x ] OR y=$/y/`,
			R: `SELECT * FROM a WHERE first_name=? AND last_name=? OR x=? OR y=?`,
			D: `SELECT * FROM a WHERE first_name=$1 AND last_name=$2 OR x=$3 OR y=$4`,
			P: Params{"name1": "a", "name2": "b", "x": 1, "y": 2},
			A: []interface{}{"a", "b", 1, 2},
		},
		// a repeated name binds twice
		{
			Q: `SELECT ${id}, ${id}`,
			R: `SELECT ?, ?`,
			D: `SELECT $1, $2`,
			P: Params{"id": 7},
			A: []interface{}{7, 7},
		},
		// placeholders inside literals, quoted identifiers and comments are left alone
		{
			Q: "SELECT '${a}', \"${a}\", `${a}` -- ${a}\n/* ${a} /* ${a} */ */ ${a}",
			R: "SELECT '${a}', \"${a}\", `${a}` -- ${a}\n/* ${a} /* ${a} */ */ ?",
			D: "SELECT '${a}', \"${a}\", `${a}` -- ${a}\n/* ${a} /* ${a} */ */ $1",
			P: Params{"a": 1},
			A: []interface{}{1},
		},
		// escaped quotes and dollar quoting
		{
			Q: `SELECT 'it''s ${a}', $$ ${a} $$, $fn$ ${a} $fn$, ${a}`,
			R: `SELECT 'it''s ${a}', $$ ${a} $$, $fn$ ${a} $fn$, ?`,
			D: `SELECT 'it''s ${a}', $$ ${a} $$, $fn$ ${a} $fn$, $1`,
			P: Params{"a": 1},
			A: []interface{}{1},
		},
		// positional parameters and malformed bodies are not placeholders
		{
			Q: `SELECT $1, ${not valid}, ${}, ${open`,
			R: `SELECT $1, ${not valid}, ${}, ${open`,
			D: `SELECT $1, ${not valid}, ${}, ${open`,
			P: nil,
			A: nil,
		},
		// dotted names walk nested maps
		{
			Q: `SELECT ${user.name}`,
			R: `SELECT ?`,
			D: `SELECT $1`,
			P: Params{"user": map[string]interface{}{"name": "jeff"}},
			A: []interface{}{"jeff"},
		},
	}

	for _, test := range table {
		qq, args, err := compileTemplate(test.Q, test.P, "sqlite3")
		if err != nil {
			t.Error(err)
			continue
		}
		if qq != test.R {
			t.Errorf("expected %s, got %s", test.R, qq)
		}
		if !reflect.DeepEqual(args, test.A) {
			t.Errorf("expected %#v, got %#v", test.A, args)
		}
		qd, _, _ := compileTemplate(test.Q, test.P, "postgres")
		if qd != test.D {
			t.Errorf("expected %s, got %s", test.D, qd)
		}
	}
}

func TestCompileTemplateMissingProperty(t *testing.T) {
	_, _, err := compileTemplate(`SELECT id, name FROM users WHERE name=${name}`, Params{}, "postgres")
	var pe *PropertyError
	if !errors.As(err, &pe) {
		t.Fatalf("expected a *PropertyError, got %v", err)
	}
	if err.Error() != "Property 'name' doesn't exist." {
		t.Errorf("unexpected message %q", err.Error())
	}

	_, _, err = compileTemplate(`SELECT ${user.age}`, Params{"user": Params{"name": "x"}}, "postgres")
	if err == nil || err.Error() != "Property 'user.age' doesn't exist." {
		t.Errorf("unexpected error %v", err)
	}
}

func TestCompileTemplateModifiers(t *testing.T) {
	table := []struct {
		Driver, Q, R string
		P            Params
		A            []interface{}
	}{
		{"postgres", `SELECT * FROM ${table~} ORDER BY ${col:name}`, `SELECT * FROM "users" ORDER BY "id"`,
			Params{"table": "users", "col": "id"}, nil},
		{"mysql", `SELECT ${cols:name} FROM t`, "SELECT `a`, `b` FROM t",
			Params{"cols": []string{"a", "b"}}, nil},
		{"sqlite3", `SELECT * FROM t ORDER BY id ${dir^} LIMIT ${n:raw}`, `SELECT * FROM t ORDER BY id DESC LIMIT 10`,
			Params{"dir": "DESC", "n": 10}, nil},
		{"postgres", `SELECT * FROM t WHERE id IN (${ids:csv}) AND x = ${x}`, `SELECT * FROM t WHERE id IN ($1, $2, $3) AND x = $4`,
			Params{"ids": []int{1, 2, 3}, "x": "y"}, []interface{}{1, 2, 3, "y"}},
		{"sqlite3", `SELECT * FROM t WHERE id IN (${ids:list})`, `SELECT * FROM t WHERE id IN (NULL)`,
			Params{"ids": []int{}}, nil},
		{"sqlite3", `INSERT INTO t (doc) VALUES (${doc:json})`, `INSERT INTO t (doc) VALUES (?)`,
			Params{"doc": map[string]interface{}{"a": 1}}, []interface{}{`{"a":1}`}},
	}
	for _, test := range table {
		q, args, err := compileTemplate(test.Q, test.P, test.Driver)
		if err != nil {
			t.Errorf("%s: %v", test.Q, err)
			continue
		}
		if q != test.R {
			t.Errorf("expected %s, got %s", test.R, q)
		}
		if !reflect.DeepEqual(args, test.A) {
			t.Errorf("expected %#v, got %#v", test.A, args)
		}
	}

	if _, _, err := compileTemplate(`SELECT ${a:value}`, Params{"a": 1}, "postgres"); err == nil {
		t.Error("expected an unknown modifier to fail")
	}
	if _, _, err := compileTemplate(`SELECT ${a:name}`, Params{"a": 1}, "postgres"); err == nil {
		t.Error("expected a non-string identifier to fail")
	}
}

func TestCompileTemplatePostgresArrays(t *testing.T) {
	_, args, err := compileTemplate(`SELECT * FROM t WHERE id = ANY(${ids})`, Params{"ids": []int64{1, 2}}, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(args, []interface{}{pq.Array([]int64{1, 2})}) {
		t.Errorf("expected a pq array, got %#v", args)
	}

	_, args, _ = compileTemplate(`SELECT ${b}`, Params{"b": []byte("x")}, "postgres")
	if !reflect.DeepEqual(args, []interface{}{[]byte("x")}) {
		t.Errorf("expected bytes to be bound as-is, got %#v", args)
	}
}

func TestCompileTemplateStructParams(t *testing.T) {
	type person struct {
		FirstName string `db:"first_name"`
		Age       int
	}
	q, args, err := compileTemplate(`SELECT ${first_name}, ${Age}`, &person{FirstName: "Jason", Age: 40}, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	if q != `SELECT $1, $2` {
		t.Errorf("unexpected query %s", q)
	}
	if !reflect.DeepEqual(args, []interface{}{"Jason", 40}) {
		t.Errorf("unexpected args %#v", args)
	}

	if _, _, err := compileTemplate(`SELECT 1`, 42, "postgres"); err == nil {
		t.Error("expected scalar parameters to fail")
	}
}

func TestLexTemplateRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"SELECT 1",
		"SELECT '${a}' -- c\n${b:json} /* x */ $tag$ y $tag$ `q` \"r\"",
		"unterminated 'literal ${a}",
		"unterminated /* comment",
		"trailing $",
	}
	for _, in := range inputs {
		var got string
		for _, it := range lexTemplate(in) {
			got += it.val
		}
		if got != in {
			t.Errorf("expected items of %q to reproduce it, got %q", in, got)
		}
	}
}
