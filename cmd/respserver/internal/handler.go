package internal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/ananthvk/simpleredis/internal/resp"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var errRequestTooLarge = errors.New("request too large")

func sendResponse(value resp.Frame, writer *bufio.Writer) error {
	if _, err := writer.Write(value.AppendRESP(writer.AvailableBuffer())); err != nil {
		return err
	}
	return writer.Flush()
}

func sendProtocolError(err error, writer *bufio.Writer) error {
	return sendResponse(resp.SimpleError("ERR protocol error: "+err.Error()), writer)
}

// Handle serves one client until it disconnects, sends an invalid frame or ctx is cancelled.
// The receive buffer belongs to this call only and never holds more than the pending request,
// which is limited to maxRequestSize bytes.
func (s *Server) Handle(ctx context.Context, conn net.Conn) {
	logger := s.logger.With("conn_id", uuid.NewString(), "remote_address", conn.RemoteAddr().String())
	logger.Info("client connected")
	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ConnectionsActive.Inc()
	defer func() {
		s.metrics.ConnectionsActive.Dec()
		logger.Info("client disconnected")
	}()
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	var limiter *rate.Limiter
	if s.maxCommandsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.maxCommandsPerSecond), s.maxCommandsPerSecond)
	}

	var buffer bytes.Buffer
	var decoder resp.Decoder
	chunk := make([]byte, s.readBufferSize)
	writer := bufio.NewWriter(conn)

	for {
		req, err := decoder.Decode(&buffer)
		if errors.Is(err, resp.ErrNotComplete) && decoder.Need() > s.maxRequestSize {
			err = errRequestTooLarge
		}
		if errors.Is(err, resp.ErrNotComplete) {
			n, err := conn.Read(chunk)
			buffer.Write(chunk[:n])
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					logger.Warn("read failed", "error", err)
				}
				return
			}
			continue
		}
		if err != nil {
			s.metrics.DecodeErrors.Inc()
			logger.Warn("invalid frame, closing connection", "error", err)
			if err := sendProtocolError(err, writer); err != nil {
				logger.Warn("write failed", "error", err)
			}
			return
		}
		logger.Debug("request received", "type", req.Type().String())

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		start := time.Now()
		reply, name := Execute(req, s.backend)
		if name != "" {
			label := unknownCommand
			if command, ok := lookupCommand(name); ok {
				label = command.Name
			} else {
				logger.Debug("unknown command acknowledged", "command", name)
			}
			s.metrics.ObserveCommand(label, time.Since(start).Seconds())
		}

		if err := sendResponse(reply, writer); err != nil {
			logger.Warn("write failed", "error", err)
			return
		}
		logger.Debug("response sent", "command", name, "type", reply.Type().String())
	}
}
