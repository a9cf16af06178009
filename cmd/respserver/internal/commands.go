package internal

import (
	"errors"
	"fmt"
	"path"

	"github.com/ananthvk/simpleredis"
	"github.com/ananthvk/simpleredis/internal/resp"
)

// stringArg returns the i-th argument, which must be a non-null bulk string.
func stringArg(args []resp.Frame, i int, command string) (string, error) {
	arg, ok := args[i].(resp.BulkString)
	if !ok || arg.IsNull {
		return "", fmt.Errorf("%w for '%s' command", ErrInvalidArgument, command)
	}
	return string(arg.Data), nil
}

func stringArgs(args []resp.Frame, command string) ([]string, error) {
	values := make([]string, len(args))
	for i := range args {
		value, err := stringArg(args, i, command)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func handlePing(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	if len(args) == 0 {
		return resp.SimpleString("PONG"), nil
	}
	message, err := stringArg(args, 0, "ping")
	if err != nil {
		return nil, err
	}
	return resp.NewBulkString([]byte(message)), nil
}

func handleEcho(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	message, err := stringArg(args, 0, "echo")
	if err != nil {
		return nil, err
	}
	return resp.NewBulkString([]byte(message)), nil
}

func handleGet(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	key, err := stringArg(args, 0, "get")
	if err != nil {
		return nil, err
	}
	value, err := backend.Get(key)
	if errors.Is(err, simpleredis.ErrKeyNotFound) {
		return resp.Null{}, nil
	}
	return value, err
}

// handleSet stores the value frame as it was received.
func handleSet(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	key, err := stringArg(args, 0, "set")
	if err != nil {
		return nil, err
	}
	backend.Set(key, args[1])
	return resp.OK(), nil
}

func handleDel(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	keys, err := stringArgs(args, "del")
	if err != nil {
		return nil, err
	}
	return resp.Integer(backend.Delete(keys...)), nil
}

// handleKeys returns the matching keys sorted. The pattern uses path.Match glob syntax.
func handleKeys(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	pattern, err := stringArg(args, 0, "keys")
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w for 'keys' command: malformed pattern %q", ErrInvalidArgument, pattern)
	}

	values := []resp.Frame{}
	for _, key := range backend.Keys() {
		if matched, _ := path.Match(pattern, key); matched {
			values = append(values, resp.NewBulkString([]byte(key)))
		}
	}
	return resp.NewArray(values...), nil
}

func handleHGet(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	names, err := stringArgs(args, "hget")
	if err != nil {
		return nil, err
	}
	value, err := backend.HGet(names[0], names[1])
	if errors.Is(err, simpleredis.ErrKeyNotFound) || errors.Is(err, simpleredis.ErrFieldNotFound) {
		return resp.Null{}, nil
	}
	return value, err
}

func handleHSet(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	names, err := stringArgs(args[:2], "hset")
	if err != nil {
		return nil, err
	}
	backend.HSet(names[0], names[1], args[2])
	return resp.OK(), nil
}

// handleHGetAll replies with field, value pairs flattened into one array, sorted by field.
func handleHGetAll(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	key, err := stringArg(args, 0, "hgetall")
	if err != nil {
		return nil, err
	}
	pairs := backend.HGetAll(key)
	values := make([]resp.Frame, 0, 2*len(pairs))
	for _, pair := range pairs {
		values = append(values, resp.NewBulkString([]byte(pair.Field)), pair.Value)
	}
	return resp.NewArray(values...), nil
}

func handleHDel(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error) {
	names, err := stringArgs(args, "hdel")
	if err != nil {
		return nil, err
	}
	return resp.Integer(backend.HDel(names[0], names[1:]...)), nil
}
