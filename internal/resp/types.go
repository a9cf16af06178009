package resp

import (
	"bytes"
	"math"
)

// Type identifies the kind of a frame. The value of each constant is the tag byte that
// starts the frame on the wire.
type Type byte

const (
	TypeInvalid      Type = 0
	TypeSimpleString Type = '+'
	TypeSimpleError  Type = '-'
	TypeInteger      Type = ':'
	TypeDouble       Type = ','
	TypeBoolean      Type = '#'
	TypeNull         Type = '_'
	TypeBulkString   Type = '$'
	TypeArray        Type = '*'
	TypeMap          Type = '%'
	TypeSet          Type = '~'
)

func (t Type) String() string {
	switch t {
	case TypeSimpleString:
		return "simple-string"
	case TypeSimpleError:
		return "simple-error"
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	case TypeBoolean:
		return "boolean"
	case TypeNull:
		return "null"
	case TypeBulkString:
		return "bulk-string"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeSet:
		return "set"
	}
	return "invalid"
}

// Frame is one RESP value. The set of implementations is closed: SimpleString, SimpleError,
// Integer, Double, Boolean, Null, BulkString, Array, *Map and Set.
type Frame interface {
	Type() Type
	// AppendRESP appends the wire encoding of the frame to dst and returns the extended slice.
	AppendRESP(dst []byte) []byte

	frame()
}

type SimpleString string

type SimpleError string

type Integer int64

type Double float64

type Boolean bool

// Null is the scalar null (`_\r\n`). It is distinct from a null BulkString or a null Array.
type Null struct{}

// BulkString holds binary safe data. A null bulk string and an empty one are different values.
type BulkString struct {
	Data   []byte
	IsNull bool
}

type Array struct {
	Elems  []Frame
	IsNull bool
}

// Set is an unordered collection on the wire. Elements are not deduplicated.
type Set struct {
	Elems []Frame
}

func (SimpleString) Type() Type { return TypeSimpleString }
func (SimpleError) Type() Type  { return TypeSimpleError }
func (Integer) Type() Type      { return TypeInteger }
func (Double) Type() Type       { return TypeDouble }
func (Boolean) Type() Type      { return TypeBoolean }
func (Null) Type() Type         { return TypeNull }
func (BulkString) Type() Type   { return TypeBulkString }
func (Array) Type() Type        { return TypeArray }
func (Set) Type() Type          { return TypeSet }

func (SimpleString) frame() {}
func (SimpleError) frame()  {}
func (Integer) frame()      {}
func (Double) frame()       {}
func (Boolean) frame()      {}
func (Null) frame()         {}
func (BulkString) frame()   {}
func (Array) frame()        {}
func (Set) frame()          {}

func NewBulkString(data []byte) BulkString {
	return BulkString{Data: data}
}

func NullBulkString() BulkString {
	return BulkString{IsNull: true}
}

func NewArray(elems ...Frame) Array {
	return Array{Elems: elems}
}

func NullArray() Array {
	return Array{IsNull: true}
}

func NewSet(elems ...Frame) Set {
	return Set{Elems: elems}
}

// OK returns the status reply shared by commands that only acknowledge.
func OK() Frame {
	return SimpleString("OK")
}

// Equal reports whether two frames hold the same value. Maps are compared entry by entry,
// so the order in which their keys were inserted does not matter. Nested frames are compared
// with an explicit stack.
func Equal(a, b Frame) bool {
	type pair struct{ a, b Frame }
	stack := []pair{{a, b}}
	push := func(a, b []Frame) {
		for i := range a {
			stack = append(stack, pair{a[i], b[i]})
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a == nil || p.b == nil {
			if p.a != nil || p.b != nil {
				return false
			}
			continue
		}
		if p.a.Type() != p.b.Type() {
			return false
		}
		switch x := p.a.(type) {
		case Double:
			y := p.b.(Double)
			if x != y && !(math.IsNaN(float64(x)) && math.IsNaN(float64(y))) {
				return false
			}
		case BulkString:
			y := p.b.(BulkString)
			if x.IsNull != y.IsNull || !bytes.Equal(x.Data, y.Data) {
				return false
			}
		case Array:
			y := p.b.(Array)
			if x.IsNull != y.IsNull || len(x.Elems) != len(y.Elems) {
				return false
			}
			push(x.Elems, y.Elems)
		case Set:
			y := p.b.(Set)
			if len(x.Elems) != len(y.Elems) {
				return false
			}
			push(x.Elems, y.Elems)
		case *Map:
			y := p.b.(*Map)
			if x.Len() != y.Len() {
				return false
			}
			same := true
			x.Range(func(key string, value Frame) bool {
				other, ok := y.Get(key)
				if !ok {
					same = false
					return false
				}
				stack = append(stack, pair{value, other})
				return true
			})
			if !same {
				return false
			}
		default:
			if p.a != p.b {
				return false
			}
		}
	}
	return true
}
