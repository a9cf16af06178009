package resp

import (
	"errors"
	"fmt"
)

// ErrNotComplete is returned when the buffer holds a valid but incomplete prefix of a frame.
// The buffer is never modified when it is returned.
var ErrNotComplete = errors.New("frame not complete")

// ErrInvalidFrameType is the root of every fatal decode error. The connection that produced
// it cannot be recovered.
var ErrInvalidFrameType = errors.New("invalid frame type")

var ErrUnknownType = fmt.Errorf("%w: unknown type", ErrInvalidFrameType)

var ErrInvalidInteger = fmt.Errorf("%w: invalid integer", ErrInvalidFrameType)

var ErrInvalidDouble = fmt.Errorf("%w: invalid double", ErrInvalidFrameType)

var ErrInvalidBoolean = fmt.Errorf("%w: invalid boolean", ErrInvalidFrameType)

var ErrInvalidLength = fmt.Errorf("%w: invalid length", ErrInvalidFrameType)

var ErrBulkTooLarge = fmt.Errorf("%w: bulk string length too large", ErrInvalidFrameType)

var ErrLineTooLong = fmt.Errorf("%w: line too long", ErrInvalidFrameType)
