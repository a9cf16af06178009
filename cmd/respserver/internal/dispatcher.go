package internal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ananthvk/simpleredis"
	"github.com/ananthvk/simpleredis/internal/resp"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrWrongArity      = errors.New("wrong number of arguments")
	ErrInvalidArgument = errors.New("invalid argument type")
)

type CommandFunc func(args []resp.Frame, backend *simpleredis.Backend) (resp.Frame, error)

// Command describes one entry of the dispatch table. MaxArgs of -1 means no upper bound.
// Argument counts exclude the command name.
type Command struct {
	Name    string
	MinArgs int
	MaxArgs int
	Handler CommandFunc
}

var Commands = map[string]Command{
	"PING":    {Name: "ping", MinArgs: 0, MaxArgs: 1, Handler: handlePing},
	"ECHO":    {Name: "echo", MinArgs: 1, MaxArgs: 1, Handler: handleEcho},
	"GET":     {Name: "get", MinArgs: 1, MaxArgs: 1, Handler: handleGet},
	"SET":     {Name: "set", MinArgs: 2, MaxArgs: 2, Handler: handleSet},
	"DEL":     {Name: "del", MinArgs: 1, MaxArgs: -1, Handler: handleDel},
	"KEYS":    {Name: "keys", MinArgs: 1, MaxArgs: 1, Handler: handleKeys},
	"HGET":    {Name: "hget", MinArgs: 2, MaxArgs: 2, Handler: handleHGet},
	"HSET":    {Name: "hset", MinArgs: 3, MaxArgs: 3, Handler: handleHSet},
	"HGETALL": {Name: "hgetall", MinArgs: 1, MaxArgs: 1, Handler: handleHGetAll},
	"HDEL":    {Name: "hdel", MinArgs: 2, MaxArgs: -1, Handler: handleHDel},
}

// parseRequest splits a request into the command name and its arguments. A request must be
// a non-null array whose first element is a bulk string.
func parseRequest(req resp.Frame) (string, []resp.Frame, error) {
	array, ok := req.(resp.Array)
	if !ok || array.IsNull || len(array.Elems) == 0 {
		return "", nil, fmt.Errorf("%w: request must be a non-empty array", ErrInvalidRequest)
	}
	name, ok := array.Elems[0].(resp.BulkString)
	if !ok || name.IsNull {
		return "", nil, fmt.Errorf("%w: command name must be a bulk string", ErrInvalidRequest)
	}
	return string(name.Data), array.Elems[1:], nil
}

// lookupCommand matches name case-insensitively.
func lookupCommand(name string) (Command, bool) {
	command, ok := Commands[strings.ToUpper(name)]
	return command, ok
}

func (c Command) checkArity(args []resp.Frame) error {
	if len(args) < c.MinArgs || (c.MaxArgs >= 0 && len(args) > c.MaxArgs) {
		return fmt.Errorf("%w for '%s' command", ErrWrongArity, c.Name)
	}
	return nil
}

// errorReply converts a command error into the reply sent to the client.
func errorReply(err error) resp.Frame {
	return resp.SimpleError("ERR " + err.Error())
}

// unknownCommand is the metrics label shared by every unrecognized command name.
const unknownCommand = "unknown"

// Execute runs one request against backend and returns the reply together with the command
// name as sent by the client. The name is empty when the request itself is malformed.
// Unrecognized commands are acknowledged with OK.
func Execute(req resp.Frame, backend *simpleredis.Backend) (resp.Frame, string) {
	name, args, err := parseRequest(req)
	if err != nil {
		return errorReply(err), ""
	}
	command, ok := lookupCommand(name)
	if !ok {
		return resp.OK(), name
	}
	if err := command.checkArity(args); err != nil {
		return errorReply(err), name
	}
	reply, err := command.Handler(args, backend)
	if err != nil {
		return errorReply(err), name
	}
	return reply, name
}
