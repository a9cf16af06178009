package main

import (
	"math"
	"slices"
	"testing"

	"github.com/ananthvk/simpleredis/internal/resp"
)

func TestFormatReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    resp.Frame
		expected string
	}{
		{"simple string", resp.OK(), "OK"},
		{"error", resp.SimpleError("ERR boom"), "(error) ERR boom"},
		{"integer", resp.Integer(-3), "(integer) -3"},
		{"double", resp.Double(1.5), "(double) 1.5"},
		{"infinite double", resp.Double(math.Inf(1)), "(double) +Inf"},
		{"true", resp.Boolean(true), "(true)"},
		{"false", resp.Boolean(false), "(false)"},
		{"null", resp.Null{}, "(nil)"},
		{"null bulk string", resp.NullBulkString(), "(nil)"},
		{"null array", resp.NullArray(), "(nil)"},
		{"bulk string", resp.NewBulkString([]byte("a \"b\"\n")), `"a \"b\"\n"`},
		{"empty bulk string", resp.NewBulkString([]byte{}), `""`},
		{"empty array", resp.NewArray(), "(empty array)"},
		{"empty set", resp.NewSet(), "(empty set)"},
		{"empty map", resp.NewMap(), "(empty map)"},
		{
			"flat array",
			resp.NewArray(resp.NewBulkString([]byte("a")), resp.Integer(1)),
			"1) \"a\"\n2) (integer) 1",
		},
		{
			"nested array",
			resp.NewArray(resp.NewBulkString([]byte("a")), resp.NewArray(resp.NewBulkString([]byte("x")), resp.NewBulkString([]byte("y")))),
			"1) \"a\"\n2) 1) \"x\"\n   2) \"y\"",
		},
		{
			"map sorted by key",
			resp.NewMap().Set("b", resp.Integer(2)).Set("a", resp.NewArray(resp.Integer(1), resp.Integer(2))),
			"1# \"a\" => 1) (integer) 1\n   2) (integer) 2\n2# \"b\" => (integer) 2",
		},
		{"set", resp.NewSet(resp.SimpleString("x")), "1) x"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := formatReply(test.reply); got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{"", nil},
		{"   ", nil},
		{"GET key", []string{"GET", "key"}},
		{"  SET  key\tvalue ", []string{"SET", "key", "value"}},
		{`SET key "hello world"`, []string{"SET", "key", "hello world"}},
		{`SET "a \"quoted\" key" "line\nbreak"`, []string{"SET", `a "quoted" key`, "line\nbreak"}},
		{`ECHO ""`, []string{"ECHO", ""}},
		{`SET k=v`, []string{"SET", "k=v"}},
	}
	for _, test := range tests {
		got, err := splitArgs(test.line)
		if err != nil {
			t.Errorf("%q: unexpected error %v", test.line, err)
			continue
		}
		if !slices.Equal(got, test.expected) {
			t.Errorf("%q: expected %q, got %q", test.line, test.expected, got)
		}
	}

	for _, line := range []string{`GET "key`, `GET "key\"`, `ECHO "bad \q"`} {
		if _, err := splitArgs(line); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}
}
