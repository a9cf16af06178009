package resp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	// MaxBulkLength is the largest bulk string payload accepted by the decoder (512 MiB).
	MaxBulkLength = 512 * 1024 * 1024

	// MaxLineLength bounds the text of a single line (simple strings, errors, numbers and
	// aggregate headers).
	MaxLineLength = 64 * 1024

	// MaxAggregateLength is the largest element count of an array, set or map header.
	MaxAggregateLength = math.MaxInt32

	crlfLength = len(crlf)

	// minFrameLength is the size of the shortest possible frame, e.g. `_\r\n` or `+\r\n`.
	minFrameLength = 3
)

var (
	trueLiteral           = []byte("#t\r\n")
	falseLiteral          = []byte("#f\r\n")
	nullLiteral           = []byte("_\r\n")
	nullBulkStringLiteral = []byte("$-1\r\n")
	nullArrayLiteral      = []byte("*-1\r\n")
)

// ExpectLength returns the number of bytes the frame at the start of b occupies, without
// modifying b. Aggregates are measured with an explicit stack, so any nesting depth that fits
// in b is handled. When b does not hold enough bytes to tell, ErrNotComplete is returned
// together with a lower bound of the frame length.
func ExpectLength(b []byte) (int, error) {
	var s lengthScanner
	total, err := s.scan(b)
	if errors.Is(err, ErrNotComplete) {
		return s.lowerBound(len(b)), err
	}
	return total, err
}

// openAggregate tracks an aggregate whose children are still being measured.
type openAggregate struct {
	remaining int64
	isMap     bool
}

// lengthScanner measures one frame and can resume after ErrNotComplete, as long as every
// later call passes the same bytes extended at the end.
type lengthScanner struct {
	// offset is where the next frame head starts.
	offset int
	open   []openAggregate
	// unstarted counts the frames whose head has not been read yet, including the one at
	// offset.
	unstarted int64
}

func (s *lengthScanner) scan(b []byte) (int, error) {
	if s.offset == 0 && len(s.open) == 0 {
		s.unstarted = 1
	}
	for {
		if s.offset >= len(b) {
			return 0, ErrNotComplete
		}
		keyExpected := false
		if n := len(s.open); n > 0 {
			top := s.open[n-1]
			keyExpected = top.isMap && top.remaining%2 == 0
		}
		n, children, isMap, err := frameHead(b[s.offset:], keyExpected)
		if err != nil {
			return 0, err
		}
		s.offset += n
		s.unstarted += children - 1
		if children > 0 {
			s.open = append(s.open, openAggregate{remaining: children, isMap: isMap})
			continue
		}

		// A frame ended, which may in turn complete its parents.
		for len(s.open) > 0 {
			top := &s.open[len(s.open)-1]
			top.remaining--
			if top.remaining > 0 {
				break
			}
			s.open = s.open[:len(s.open)-1]
		}
		if len(s.open) == 0 {
			return s.offset, nil
		}
	}
}

// lowerBound is valid after scan returned ErrNotComplete for a buffer of n bytes.
func (s *lengthScanner) lowerBound(n int) int {
	bound := int64(s.offset) + minFrameLength*s.unstarted
	if bound > math.MaxInt {
		return math.MaxInt
	}
	return max(n+1, int(bound))
}

// frameHead measures the part of the frame at the start of b that precedes its children:
// the whole frame for scalars and bulk strings, the header for aggregates. children is the
// number of frames that follow, counting map keys and values separately.
func frameHead(b []byte, keyExpected bool) (n int, children int64, isMap bool, err error) {
	if keyExpected {
		n, err := expectLine(b, TypeSimpleString)
		return n, 0, false, err
	}
	switch t := Type(b[0]); t {
	case TypeSimpleString, TypeSimpleError, TypeInteger, TypeDouble:
		n, err := expectLine(b, t)
		return n, 0, false, err
	case TypeBoolean:
		n, err := expectLiteral(b, trueLiteral, falseLiteral)
		return n, 0, false, err
	case TypeNull:
		n, err := expectLiteral(b, nullLiteral)
		return n, 0, false, err
	case TypeBulkString:
		_, total, _, err := bulkStringSpan(b)
		return total, 0, false, err
	case TypeArray, TypeSet, TypeMap:
		header, count, err := aggregateHeader(b, t)
		if err != nil || count < 0 {
			return header, 0, false, err
		}
		if t == TypeMap {
			return header, 2 * count, true, nil
		}
		return header, count, false, nil
	}
	return 0, 0, false, unknownTypeError(b)
}

func unknownTypeError(b []byte) error {
	const maxPreview = 32
	preview := b
	if len(preview) > maxPreview {
		preview = preview[:maxPreview]
	}
	return fmt.Errorf("%w: tag %q in %q", ErrUnknownType, b[0], preview)
}

// lineEnd checks that b starts with tag t and returns the index of the CR that terminates
// the first line.
func lineEnd(b []byte, t Type) (int, error) {
	if len(b) == 0 {
		return 0, ErrNotComplete
	}
	if b[0] != byte(t) {
		return 0, fmt.Errorf("%w: expected %s (%q), got %q", ErrInvalidFrameType, t, byte(t), b[0])
	}
	limit := 1 + MaxLineLength + crlfLength
	window := b
	if len(window) > limit {
		window = window[:limit]
	}
	end := bytes.Index(window[1:], []byte(crlf))
	if end < 0 {
		if len(window) == limit {
			return 0, ErrLineTooLong
		}
		return 0, ErrNotComplete
	}
	return end + 1, nil
}

func expectLine(b []byte, t Type) (int, error) {
	end, err := lineEnd(b, t)
	if err != nil {
		return 0, err
	}
	return end + crlfLength, nil
}

// matchLiteral compares the available prefix of b with lit.
func matchLiteral(b, lit []byte) error {
	n := min(len(b), len(lit))
	if !bytes.Equal(b[:n], lit[:n]) {
		return fmt.Errorf("%w: expected %q, got %q", ErrInvalidFrameType, lit, b[:n])
	}
	if n < len(lit) {
		return ErrNotComplete
	}
	return nil
}

// expectLiteral reports the fixed length of a literal frame as soon as the available bytes
// are consistent with one of the literals, which all share the same length.
func expectLiteral(b []byte, literals ...[]byte) (int, error) {
	if len(b) == 0 {
		return 0, ErrNotComplete
	}
	var err error
	for _, lit := range literals {
		if err = matchLiteral(b, lit); err == nil || errors.Is(err, ErrNotComplete) {
			return len(lit), nil
		}
	}
	return 0, err
}

// parseLength accepts only the canonical form of a length field: -1, 0, or digits without
// a sign or leading zeros.
func parseLength(text []byte) (int64, bool) {
	if string(text) == "-1" {
		return -1, true
	}
	if len(text) == 0 || (len(text) > 1 && text[0] == '0') {
		return 0, false
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(string(text), 10, 64)
	return n, err == nil
}

// parseHeader reads the length field of a length-prefixed or aggregate header and returns
// the number of bytes the header occupies including its CRLF.
func parseHeader(b []byte, t Type) (int, int64, error) {
	end, err := lineEnd(b, t)
	if err != nil {
		return 0, 0, err
	}
	n, ok := parseLength(b[1:end])
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s header %q", ErrInvalidLength, t, b[1:end])
	}
	return end + crlfLength, n, nil
}

// bulkStringSpan returns the header length and total length of the bulk string at the start
// of b. The payload itself does not need to be present.
func bulkStringSpan(b []byte) (header int, total int, isNull bool, err error) {
	header, n, err := parseHeader(b, TypeBulkString)
	if err != nil {
		return 0, 0, false, err
	}
	switch {
	case n == -1:
		return header, header, true, nil
	case n > MaxBulkLength:
		return 0, 0, false, fmt.Errorf("%w: %d bytes", ErrBulkTooLarge, n)
	}
	return header, header + int(n) + crlfLength, false, nil
}

// aggregateHeader parses the header of an array, set or map. Only arrays have a null form,
// reported as a count of -1.
func aggregateHeader(b []byte, t Type) (header int, count int64, err error) {
	header, n, err := parseHeader(b, t)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case n == -1 && t == TypeArray:
		return header, -1, nil
	case n < 0:
		return 0, 0, fmt.Errorf("%w: %s length %d", ErrInvalidLength, t, n)
	case n > MaxAggregateLength:
		return 0, 0, fmt.Errorf("%w: %s length %d", ErrInvalidLength, t, n)
	}
	return header, n, nil
}
