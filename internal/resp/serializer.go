package resp

import (
	"math"
	"strconv"
)

const crlf = "\r\n"

// Encode returns the wire encoding of f.
func Encode(f Frame) []byte {
	return f.AppendRESP(nil)
}

func appendHeader(dst []byte, t Type, n int) []byte {
	dst = append(dst, byte(t))
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

// appendLine writes a single-line frame. CR and LF inside the text would end the line early,
// so they are replaced with a space.
func appendLine(dst []byte, t Type, text string) []byte {
	dst = append(dst, byte(t))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\r' || c == '\n' {
			c = ' '
		}
		dst = append(dst, c)
	}
	return append(dst, crlf...)
}

func (s SimpleString) AppendRESP(dst []byte) []byte {
	return appendLine(dst, TypeSimpleString, string(s))
}

func (e SimpleError) AppendRESP(dst []byte) []byte {
	return appendLine(dst, TypeSimpleError, string(e))
}

// AppendRESP always writes an explicit sign, e.g. `:+42\r\n` and `:-42\r\n`.
func (i Integer) AppendRESP(dst []byte) []byte {
	dst = append(dst, byte(TypeInteger))
	if i >= 0 {
		dst = append(dst, '+')
	}
	dst = strconv.AppendInt(dst, int64(i), 10)
	return append(dst, crlf...)
}

// AppendRESP uses scientific notation when the magnitude is above 1e8 or below 1e-8 (zero
// excluded) and plain decimal notation otherwise. Non-negative values carry an explicit '+'.
// Infinities and NaN are written as Go formats them and are rejected by the decoder.
func (d Double) AppendRESP(dst []byte) []byte {
	v := float64(d)
	dst = append(dst, byte(TypeDouble))
	if math.IsInf(v, 0) || math.IsNaN(v) {
		dst = strconv.AppendFloat(dst, v, 'g', -1, 64)
		return append(dst, crlf...)
	}
	if !math.Signbit(v) {
		dst = append(dst, '+')
	}
	abs := math.Abs(v)
	if abs > 1e8 || (abs < 1e-8 && abs != 0) {
		dst = strconv.AppendFloat(dst, v, 'e', -1, 64)
	} else {
		dst = strconv.AppendFloat(dst, v, 'f', -1, 64)
	}
	return append(dst, crlf...)
}

func (b Boolean) AppendRESP(dst []byte) []byte {
	if b {
		return append(dst, trueLiteral...)
	}
	return append(dst, falseLiteral...)
}

func (Null) AppendRESP(dst []byte) []byte {
	return append(dst, nullLiteral...)
}

func (s BulkString) AppendRESP(dst []byte) []byte {
	if s.IsNull {
		return append(dst, nullBulkStringLiteral...)
	}
	dst = appendHeader(dst, TypeBulkString, len(s.Data))
	dst = append(dst, s.Data...)
	return append(dst, crlf...)
}

func (a Array) AppendRESP(dst []byte) []byte {
	return appendNested(dst, a)
}

// AppendRESP writes the keys as simple strings, in ascending order.
func (m *Map) AppendRESP(dst []byte) []byte {
	return appendNested(dst, m)
}

func (s Set) AppendRESP(dst []byte) []byte {
	return appendNested(dst, s)
}

// appendNested encodes an aggregate with an explicit stack of frames still to be written, so
// deeply nested values do not grow the goroutine stack.
func appendNested(dst []byte, f Frame) []byte {
	stack := []Frame{f}
	pushReversed := func(elems []Frame) {
		for i := len(elems) - 1; i >= 0; i-- {
			stack = append(stack, elems[i])
		}
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := f.(type) {
		case Array:
			if v.IsNull {
				dst = append(dst, nullArrayLiteral...)
				continue
			}
			dst = appendHeader(dst, TypeArray, len(v.Elems))
			pushReversed(v.Elems)
		case Set:
			dst = appendHeader(dst, TypeSet, len(v.Elems))
			pushReversed(v.Elems)
		case *Map:
			dst = appendHeader(dst, TypeMap, v.Len())
			entries := make([]Frame, 0, 2*v.Len())
			v.Range(func(key string, value Frame) bool {
				entries = append(entries, SimpleString(key), value)
				return true
			})
			pushReversed(entries)
		default:
			dst = f.AppendRESP(dst)
		}
	}
	return dst
}
