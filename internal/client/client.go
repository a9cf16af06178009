// Package client is a minimal synchronous RESP client. Requests are sent as arrays of bulk
// strings and replies are decoded with the same codec the server uses.
package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ananthvk/simpleredis/internal/resp"
)

var ErrClosed = errors.New("client closed")

// Client is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	writer  *bufio.Writer
	buffer  bytes.Buffer
	decoder resp.Decoder
	chunk   []byte
}

func Dial(ctx context.Context, address string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{
		conn:   conn,
		writer: bufio.NewWriter(conn),
		chunk:  make([]byte, 4096),
	}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return ErrClosed
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Request builds the wire frame for one command.
func Request(args ...string) resp.Array {
	elems := make([]resp.Frame, len(args))
	for i, arg := range args {
		elems[i] = resp.NewBulkString([]byte(arg))
	}
	return resp.NewArray(elems...)
}

// Do sends one command and waits for its reply. Error replies are returned as frames, not
// as errors.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	replies, err := c.Pipeline(ctx, args)
	if err != nil {
		return nil, err
	}
	return replies[0], nil
}

// Pipeline writes every command before reading the replies, which arrive in request order.
func (c *Client) Pipeline(ctx context.Context, commands ...[]string) ([]resp.Frame, error) {
	if c.conn == nil {
		return nil, ErrClosed
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	for _, args := range commands {
		if len(args) == 0 {
			return nil, errors.New("empty command")
		}
		if _, err := c.writer.Write(Request(args...).AppendRESP(c.writer.AvailableBuffer())); err != nil {
			return nil, err
		}
	}
	if err := c.writer.Flush(); err != nil {
		return nil, err
	}

	replies := make([]resp.Frame, 0, len(commands))
	for range commands {
		reply, err := c.readReply()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

func (c *Client) readReply() (resp.Frame, error) {
	for {
		reply, err := c.decoder.Decode(&c.buffer)
		if !errors.Is(err, resp.ErrNotComplete) {
			return reply, err
		}
		n, err := c.conn.Read(c.chunk)
		c.buffer.Write(c.chunk[:n])
		if err != nil {
			return nil, err
		}
	}
}
