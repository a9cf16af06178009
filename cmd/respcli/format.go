package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ananthvk/simpleredis/internal/resp"
)

var errUnterminatedQuote = errors.New("unterminated quoted argument")

// formatReply renders a reply the way redis-cli does. Nested containers are indented under
// their index.
func formatReply(f resp.Frame) string {
	switch v := f.(type) {
	case resp.SimpleString:
		return string(v)
	case resp.SimpleError:
		return "(error) " + string(v)
	case resp.Integer:
		return fmt.Sprintf("(integer) %d", int64(v))
	case resp.Double:
		return "(double) " + strconv.FormatFloat(float64(v), 'g', -1, 64)
	case resp.Boolean:
		if v {
			return "(true)"
		}
		return "(false)"
	case resp.Null:
		return "(nil)"
	case resp.BulkString:
		if v.IsNull {
			return "(nil)"
		}
		return strconv.Quote(string(v.Data))
	case resp.Array:
		if v.IsNull {
			return "(nil)"
		}
		return formatList(v.Elems, "(empty array)")
	case resp.Set:
		return formatList(v.Elems, "(empty set)")
	case *resp.Map:
		if v.Len() == 0 {
			return "(empty map)"
		}
		lines := make([]string, 0, v.Len())
		i := 0
		v.Range(func(key string, value resp.Frame) bool {
			i++
			lines = append(lines, indented(fmt.Sprintf("%d# ", i), strconv.Quote(key)+" => "+formatReply(value)))
			return true
		})
		return strings.Join(lines, "\n")
	}
	return fmt.Sprintf("(unknown) %v", f)
}

func formatList(elems []resp.Frame, empty string) string {
	if len(elems) == 0 {
		return empty
	}
	lines := make([]string, len(elems))
	for i, elem := range elems {
		lines[i] = indented(fmt.Sprintf("%d) ", i+1), formatReply(elem))
	}
	return strings.Join(lines, "\n")
}

// indented prefixes the first line of text with label and aligns the rest under it.
func indented(label, text string) string {
	padding := strings.Repeat(" ", len(label))
	return label + strings.ReplaceAll(text, "\n", "\n"+padding)
}

// splitArgs splits a command line on spaces. Double-quoted arguments may contain spaces and
// Go escape sequences.
func splitArgs(line string) ([]string, error) {
	var args []string
	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			return args, nil
		}
		if line[0] != '"' {
			end := strings.IndexAny(line, " \t")
			if end < 0 {
				end = len(line)
			}
			args = append(args, line[:end])
			line = line[end:]
			continue
		}

		end := 1
		for ; end < len(line) && line[end] != '"'; end++ {
			if line[end] == '\\' {
				end++
			}
		}
		if end >= len(line) {
			return nil, errUnterminatedQuote
		}
		arg, err := strconv.Unquote(line[:end+1])
		if err != nil {
			return nil, fmt.Errorf("invalid quoted argument %s: %w", line[:end+1], err)
		}
		args = append(args, arg)
		line = line[end+1:]
	}
}
