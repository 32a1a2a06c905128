package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace", "  \n\t ", nil},
		{"single without semicolon", "SELECT 1", []string{"SELECT 1"}},
		{"single with semicolon", "SELECT 1;", []string{"SELECT 1"}},
		{"two", "SELECT 1; SELECT 2;", []string{"SELECT 1", "SELECT 2"}},
		{"empty statements dropped", ";;SELECT 1;;", []string{"SELECT 1"}},
		{"semicolon in string", "SELECT 'a;b'; SELECT 2", []string{"SELECT 'a;b'", "SELECT 2"}},
		{"escaped quote", "SELECT 'it''s;'", []string{"SELECT 'it''s;'"}},
		{"quoted identifier", `SELECT "a;b" FROM t`, []string{`SELECT "a;b" FROM t`}},
		{"line comment", "SELECT 1 -- a; b\n;", []string{"SELECT 1 -- a; b"}},
		{"trailing comment only", "SELECT 1; -- done", []string{"SELECT 1"}},
		{"block comment", "SELECT /* ; */ 1", []string{"SELECT /* ; */ 1"}},
		{
			"dollar quoted body",
			"CREATE FUNCTION f() RETURNS int AS $$ SELECT 1; $$ LANGUAGE sql; SELECT f()",
			[]string{"CREATE FUNCTION f() RETURNS int AS $$ SELECT 1; $$ LANGUAGE sql", "SELECT f()"},
		},
		{
			"tagged dollar quote",
			"DO $body$ BEGIN PERFORM 1; END $body$;",
			[]string{"DO $body$ BEGIN PERFORM 1; END $body$"},
		},
		{"positional parameter", "SELECT $1; SELECT $2", []string{"SELECT $1", "SELECT $2"}},
		{
			"dollar inside identifiers",
			"SELECT 1 AS a$b$; DELETE FROM users; SELECT 2 AS c$b$",
			[]string{"SELECT 1 AS a$b$", "DELETE FROM users", "SELECT 2 AS c$b$"},
		},
		{"dollar quote after operator", "SELECT 'x'||$q$;$q$", []string{"SELECT 'x'||$q$;$q$"}},
		{"escape string", `SELECT E'it\'s; fine'`, []string{`SELECT E'it\'s; fine'`}},
		{"lower escape string", `SELECT e'a\\'; SELECT 2`, []string{`SELECT e'a\\'`, "SELECT 2"}},
		{"identifier ending in e", `SELECT name'x;y' FROM t`, []string{`SELECT name'x;y' FROM t`}},
		{"backslash in plain string", `SELECT 'a\'; SELECT 2`, []string{`SELECT 'a\'`, "SELECT 2"}},
		{"unterminated string", "SELECT 'abc; SELECT 2", []string{"SELECT 'abc; SELECT 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.sql))
		})
	}
}

func TestCountStatements(t *testing.T) {
	assert.Equal(t, 0, CountStatements(""))
	assert.Equal(t, 1, CountStatements("DELETE FROM sessions WHERE expired"))
	assert.Equal(t, 3, CountStatements("BEGIN; UPDATE t SET a = 1; COMMIT;"))
	assert.Equal(t, 3, CountStatements("SELECT 1 AS a$b$; DELETE FROM users; SELECT 2 AS c$b$"))
	assert.Equal(t, 1, CountStatements(`SELECT E'it\'s; fine'`))
}
