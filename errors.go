package simpleredis

import "errors"

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrFieldNotFound = errors.New("field not found")
)
