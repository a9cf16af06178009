package resp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Every decode function follows the same contract: on success exactly the bytes of one frame
// are removed from the front of buf; on any error buf is left untouched. ErrNotComplete means
// more input is needed, any error wrapping ErrInvalidFrameType is fatal.

// Decoder decodes frames from a buffer that is filled incrementally, such as a connection's
// receive buffer. While a frame is incomplete the Decoder remembers how far it has been
// measured, so each call only looks at the bytes appended since the previous one. Between
// calls that return ErrNotComplete the buffer may only grow at the end.
//
// The zero value is ready to use.
type Decoder struct {
	scanner lengthScanner
	// total is the measured length of the pending frame, 0 while it is unknown.
	total int
	// buffered is the buffer length seen by the last call.
	buffered int
}

// Decode decodes the next frame of buf.
func (d *Decoder) Decode(buf *bytes.Buffer) (Frame, error) {
	b := buf.Bytes()
	d.buffered = len(b)
	if d.total == 0 {
		total, err := d.scanner.scan(b)
		if err != nil {
			if !errors.Is(err, ErrNotComplete) {
				d.Reset()
			}
			return nil, err
		}
		d.total = total
	}
	if len(b) < d.total {
		return nil, ErrNotComplete
	}

	total := d.total
	d.Reset()
	f, err := parseFrame(b[:total])
	if err != nil {
		return nil, err
	}
	buf.Next(total)
	return f, nil
}

// Need returns a lower bound of the length of the frame being received, or its exact length
// once the header information is complete. It is meaningful after Decode returned
// ErrNotComplete.
func (d *Decoder) Need() int {
	if d.total > 0 {
		return d.total
	}
	return d.scanner.lowerBound(d.buffered)
}

// Reset discards the progress on the pending frame. It must be called when the buffer is
// replaced or truncated.
func (d *Decoder) Reset() {
	d.scanner = lengthScanner{}
	d.total = 0
	d.buffered = 0
}

// Decode decodes one frame of any kind from buf.
func Decode(buf *bytes.Buffer) (Frame, error) {
	var d Decoder
	return d.Decode(buf)
}

// decodeScalar applies a parse function to the buffered bytes and consumes what it used.
func decodeScalar[F Frame](buf *bytes.Buffer, parse func([]byte) (F, int, error)) (F, error) {
	f, n, err := parse(buf.Bytes())
	if err != nil {
		var zero F
		return zero, err
	}
	buf.Next(n)
	return f, nil
}

// decodeAggregate checks the tag and header of an aggregate of type t before decoding it.
func decodeAggregate(buf *bytes.Buffer, t Type) (Frame, error) {
	if _, _, err := aggregateHeader(buf.Bytes(), t); err != nil {
		return nil, err
	}
	return Decode(buf)
}

func DecodeSimpleString(buf *bytes.Buffer) (SimpleString, error) {
	return decodeScalar(buf, parseSimpleString)
}

func DecodeSimpleError(buf *bytes.Buffer) (SimpleError, error) {
	return decodeScalar(buf, parseSimpleError)
}

// DecodeInteger accepts an optional sign, so both `:42\r\n` and `:+42\r\n` are valid.
func DecodeInteger(buf *bytes.Buffer) (Integer, error) {
	return decodeScalar(buf, parseInteger)
}

// DecodeDouble does not support the inf and nan forms yet.
func DecodeDouble(buf *bytes.Buffer) (Double, error) {
	return decodeScalar(buf, parseDouble)
}

func DecodeBoolean(buf *bytes.Buffer) (Boolean, error) {
	return decodeScalar(buf, parseBoolean)
}

func DecodeNull(buf *bytes.Buffer) (Null, error) {
	return decodeScalar(buf, parseNull)
}

// DecodeBulkString returns the null variant as soon as the `$-1\r\n` header is seen.
func DecodeBulkString(buf *bytes.Buffer) (BulkString, error) {
	return decodeScalar(buf, parseBulkString)
}

// DecodeArray measures the whole array before consuming anything, then decodes the elements
// from the measured span.
func DecodeArray(buf *bytes.Buffer) (Array, error) {
	f, err := decodeAggregate(buf, TypeArray)
	if err != nil {
		return Array{}, err
	}
	return f.(Array), nil
}

func DecodeSet(buf *bytes.Buffer) (Set, error) {
	f, err := decodeAggregate(buf, TypeSet)
	if err != nil {
		return Set{}, err
	}
	return f.(Set), nil
}

// DecodeMap keeps the last value when a key appears more than once.
func DecodeMap(buf *bytes.Buffer) (*Map, error) {
	f, err := decodeAggregate(buf, TypeMap)
	if err != nil {
		return nil, err
	}
	return f.(*Map), nil
}

// decodeLine returns the text of a single-line frame of type t and the total number of bytes
// it occupies.
func decodeLine(b []byte, t Type) ([]byte, int, error) {
	end, err := lineEnd(b, t)
	if err != nil {
		return nil, 0, err
	}
	return b[1:end], end + crlfLength, nil
}

func parseSimpleString(b []byte) (SimpleString, int, error) {
	text, n, err := decodeLine(b, TypeSimpleString)
	return SimpleString(text), n, err
}

func parseSimpleError(b []byte) (SimpleError, int, error) {
	text, n, err := decodeLine(b, TypeSimpleError)
	return SimpleError(text), n, err
}

func parseInteger(b []byte) (Integer, int, error) {
	text, n, err := decodeLine(b, TypeInteger)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidInteger, text)
	}
	return Integer(v), n, nil
}

func parseDouble(b []byte) (Double, int, error) {
	text, n, err := decodeLine(b, TypeDouble)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDouble, text)
	}
	return Double(v), n, nil
}

func parseBoolean(b []byte) (Boolean, int, error) {
	err := matchLiteral(b, trueLiteral)
	if err == nil {
		return true, len(trueLiteral), nil
	}
	if errors.Is(err, ErrNotComplete) {
		return false, 0, err
	}
	if err := matchLiteral(b, falseLiteral); err != nil {
		if errors.Is(err, ErrNotComplete) {
			return false, 0, err
		}
		return false, 0, fmt.Errorf("%w: %v", ErrInvalidBoolean, err)
	}
	return false, len(falseLiteral), nil
}

func parseNull(b []byte) (Null, int, error) {
	if err := matchLiteral(b, nullLiteral); err != nil {
		return Null{}, 0, err
	}
	return Null{}, len(nullLiteral), nil
}

func parseBulkString(b []byte) (BulkString, int, error) {
	header, total, isNull, err := bulkStringSpan(b)
	if err != nil {
		return BulkString{}, 0, err
	}
	if isNull {
		return NullBulkString(), header, nil
	}
	if len(b) < total {
		return BulkString{}, 0, ErrNotComplete
	}
	if b[total-2] != '\r' || b[total-1] != '\n' {
		return BulkString{}, 0, fmt.Errorf("%w: bulk string is not terminated by CRLF", ErrInvalidFrameType)
	}
	data := make([]byte, total-header-crlfLength)
	copy(data, b[header:])
	return NewBulkString(data), total, nil
}

// pendingAggregate collects the children of an aggregate while it is being decoded.
type pendingAggregate struct {
	t         Type
	remaining int64
	elems     []Frame
	m         *Map
	key       string
	hasKey    bool
}

func (p *pendingAggregate) add(f Frame) {
	if p.t == TypeMap {
		p.m.Set(p.key, f)
		p.hasKey = false
	} else {
		p.elems = append(p.elems, f)
	}
	p.remaining--
}

func (p *pendingAggregate) frame() Frame {
	switch p.t {
	case TypeArray:
		return NewArray(p.elems...)
	case TypeSet:
		return NewSet(p.elems...)
	}
	return p.m
}

// parseHead decodes a scalar, a bulk string or an empty aggregate. For an aggregate with
// children it returns the pending aggregate instead of a frame.
func parseHead(b []byte) (Frame, int, *pendingAggregate, error) {
	switch t := Type(b[0]); t {
	case TypeSimpleString:
		return asFrame(parseSimpleString(b))
	case TypeSimpleError:
		return asFrame(parseSimpleError(b))
	case TypeInteger:
		return asFrame(parseInteger(b))
	case TypeDouble:
		return asFrame(parseDouble(b))
	case TypeBoolean:
		return asFrame(parseBoolean(b))
	case TypeNull:
		return asFrame(parseNull(b))
	case TypeBulkString:
		return asFrame(parseBulkString(b))
	case TypeArray, TypeSet, TypeMap:
		header, count, err := aggregateHeader(b, t)
		if err != nil {
			return nil, 0, nil, err
		}
		switch {
		case count == -1:
			return NullArray(), header, nil, nil
		case count == 0 && t == TypeArray:
			return NewArray(), header, nil, nil
		case count == 0 && t == TypeSet:
			return NewSet(), header, nil, nil
		case count == 0:
			return NewMap(), header, nil, nil
		}
		p := &pendingAggregate{t: t, remaining: count}
		if t == TypeMap {
			p.m = NewMap()
		} else {
			p.elems = make([]Frame, 0, count)
		}
		return nil, header, p, nil
	}
	return nil, 0, nil, unknownTypeError(b)
}

func asFrame[F Frame](f F, n int, err error) (Frame, int, *pendingAggregate, error) {
	if err != nil {
		return nil, 0, nil, err
	}
	return f, n, nil, nil
}

// parseFrame decodes the single frame that fills b, which has been measured with the
// length scanner. Aggregates are built with an explicit stack.
func parseFrame(b []byte) (Frame, error) {
	var stack []*pendingAggregate
	offset := 0
	for {
		if offset >= len(b) {
			return nil, fmt.Errorf("%w: frame shorter than measured", ErrInvalidFrameType)
		}
		rest := b[offset:]
		if depth := len(stack); depth > 0 && stack[depth-1].t == TypeMap && !stack[depth-1].hasKey {
			key, n, err := parseSimpleString(rest)
			if err != nil {
				return nil, err
			}
			top := stack[depth-1]
			top.key, top.hasKey = string(key), true
			offset += n
			continue
		}

		f, n, pending, err := parseHead(rest)
		if err != nil {
			return nil, err
		}
		offset += n
		if pending != nil {
			stack = append(stack, pending)
			continue
		}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			top.add(f)
			if top.remaining > 0 {
				break
			}
			f = top.frame()
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			if offset != len(b) {
				return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidFrameType, len(b)-offset)
			}
			return f, nil
		}
	}
}
