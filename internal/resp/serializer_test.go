package resp

import (
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		// Simple strings and errors
		{name: "simple string", frame: SimpleString("OK"), want: "+OK\r\n"},
		{name: "simple string - empty", frame: SimpleString(""), want: "+\r\n"},
		{name: "simple string - with CRLF", frame: SimpleString("a\r\nb"), want: "+a  b\r\n"},
		{name: "simple error", frame: SimpleError("ERR something went wrong"), want: "-ERR something went wrong\r\n"},
		// Integers
		{name: "integer - negative", frame: Integer(-42), want: ":-42\r\n"},
		{name: "integer - positive", frame: Integer(42), want: ":+42\r\n"},
		{name: "integer - zero", frame: Integer(0), want: ":+0\r\n"},
		{name: "integer - min", frame: Integer(math.MinInt64), want: ":-9223372036854775808\r\n"},
		{name: "integer - max", frame: Integer(math.MaxInt64), want: ":+9223372036854775807\r\n"},
		// Doubles
		{name: "double - positive", frame: Double(1.5), want: ",+1.5\r\n"},
		{name: "double - negative", frame: Double(-2.25), want: ",-2.25\r\n"},
		{name: "double - zero", frame: Double(0), want: ",+0\r\n"},
		{name: "double - integral", frame: Double(3), want: ",+3\r\n"},
		{name: "double - 1e8 stays decimal", frame: Double(1e8), want: ",+100000000\r\n"},
		{name: "double - large", frame: Double(123456789), want: ",+1.23456789e+08\r\n"},
		{name: "double - large negative", frame: Double(-1.5e10), want: ",-1.5e+10\r\n"},
		{name: "double - tiny", frame: Double(1e-9), want: ",+1e-09\r\n"},
		// Booleans and null
		{name: "boolean - true", frame: Boolean(true), want: "#t\r\n"},
		{name: "boolean - false", frame: Boolean(false), want: "#f\r\n"},
		{name: "null", frame: Null{}, want: "_\r\n"},
		// Bulk strings
		{name: "bulk string", frame: NewBulkString([]byte("hello")), want: "$5\r\nhello\r\n"},
		{name: "bulk string - empty", frame: NewBulkString([]byte{}), want: "$0\r\n\r\n"},
		{name: "bulk string - null", frame: NullBulkString(), want: "$-1\r\n"},
		{name: "bulk string - binary", frame: NewBulkString([]byte("a\r\nb\x00")), want: "$5\r\na\r\nb\x00\r\n"},
		// Aggregates
		{name: "array - null", frame: NullArray(), want: "*-1\r\n"},
		{name: "array - empty", frame: NewArray(), want: "*0\r\n"},
		{
			name:  "array - command",
			frame: NewArray(NewBulkString([]byte("get")), NewBulkString([]byte("hello"))),
			want:  "*2\r\n$3\r\nget\r\n$5\r\nhello\r\n",
		},
		{
			name:  "array - nested",
			frame: NewArray(Integer(1), NewArray(SimpleString("a"), Null{})),
			want:  "*2\r\n:+1\r\n*2\r\n+a\r\n_\r\n",
		},
		{name: "map - zero value", frame: &Map{}, want: "%0\r\n"},
		{
			name:  "map - keys in ascending order",
			frame: NewMap().Set("b", Integer(2)).Set("a", Integer(1)),
			want:  "%2\r\n+a\r\n:+1\r\n+b\r\n:+2\r\n",
		},
		{name: "set - empty", frame: NewSet(), want: "~0\r\n"},
		{name: "set - duplicates are kept", frame: NewSet(Integer(1), Integer(1)), want: "~2\r\n:+1\r\n:+1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Encode(tt.frame))
			if got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendRESPAppends(t *testing.T) {
	dst := []byte("prefix")
	got := string(Integer(7).AppendRESP(dst))
	if got != "prefix:+7\r\n" {
		t.Errorf("AppendRESP() = %q, want %q", got, "prefix:+7\r\n")
	}
}

func TestEncodeMapIsDeterministic(t *testing.T) {
	first := NewMap()
	for _, key := range []string{"zeta", "alpha", "mid"} {
		first.Set(key, NewBulkString([]byte(key)))
	}
	second := NewMap()
	for _, key := range []string{"mid", "zeta", "alpha"} {
		second.Set(key, NewBulkString([]byte(key)))
	}

	want := "%3\r\n+alpha\r\n$5\r\nalpha\r\n+mid\r\n$3\r\nmid\r\n+zeta\r\n$4\r\nzeta\r\n"
	if got := string(Encode(first)); got != want {
		t.Errorf("Encode(first) = %q, want %q", got, want)
	}
	if got := string(Encode(second)); got != want {
		t.Errorf("Encode(second) = %q, want %q", got, want)
	}
}
