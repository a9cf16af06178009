package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ananthvk/simpleredis/internal/client"
	"github.com/ananthvk/simpleredis/internal/resp"
	"github.com/urfave/cli/v2"
)

// UserProfile mimics a real-world document
type UserProfile struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	IsActive bool              `json:"is_active"`
	Age      int               `json:"age"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
	// Payload is used to pad the record to a specific size
	Payload string `json:"payload,omitempty"`
}

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func generateJSON(targetSize int) (string, []byte, error) {
	key := fmt.Sprintf("user:%s", randomString(16))
	user := UserProfile{
		ID:       key,
		Username: randomString(8),
		Email:    fmt.Sprintf("%s@example.com", randomString(8)),
		IsActive: rand.Intn(2) == 1,
		Age:      rand.Intn(60) + 18,
		Tags:     []string{"developer", "golang", "resp", "benchmark"},
		Metadata: map[string]string{
			"login_ip": "192.168.1.1",
			"device":   "MacBook Pro",
		},
	}

	// Marshal once to see base size
	baseBytes, err := json.Marshal(user)
	if err != nil {
		return "", nil, fmt.Errorf("marshal profile: %w", err)
	}
	if targetSize > len(baseBytes) {
		user.Payload = randomString(targetSize - len(baseBytes))
	}
	finalBytes, err := json.Marshal(user)
	if err != nil {
		return "", nil, fmt.Errorf("marshal profile: %w", err)
	}
	return key, finalBytes, nil
}

// generateCommand returns one write. In hash mode it sets a single random field of targetSize
// bytes on one of the user:xxxx keys, so repeated calls grow a small set of hashes.
func generateCommand(mode string, targetSize int) ([]string, error) {
	switch mode {
	case "json":
		key, value, err := generateJSON(targetSize)
		if err != nil {
			return nil, err
		}
		return []string{"SET", key, string(value)}, nil
	case "hash":
		key := fmt.Sprintf("user:%s", randomString(4))
		return []string{"HSET", key, randomString(rand.Intn(10) + 5), randomString(targetSize)}, nil
	default:
		return []string{"SET", randomString(rand.Intn(30) + 15), randomString(rand.Intn(20) + 10)}, nil
	}
}

func main() {
	app := &cli.App{
		Name:  "respload",
		Usage: "write generated records to respserver and report throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 6379, Usage: "server port"},
			&cli.IntFlag{Name: "n", Value: 10000, Usage: "total number of records to write"},
			&cli.IntFlag{Name: "size", Value: 1024, Usage: "target value size in bytes for json and hash modes"},
			&cli.IntFlag{Name: "pipeline", Value: 16, Usage: "commands sent per round trip"},
			&cli.StringFlag{Name: "mode", Value: "random", Usage: "random, json or hash"},
		},
		Action: func(c *cli.Context) error {
			mode := c.String("mode")
			if mode != "random" && mode != "json" && mode != "hash" {
				return fmt.Errorf("unknown mode %q", mode)
			}
			if c.Int("pipeline") <= 0 {
				return fmt.Errorf("pipeline must be positive")
			}
			address := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
			conn, err := client.Dial(c.Context, address)
			if err != nil {
				return err
			}
			defer conn.Close()
			return load(c.Context, conn, mode, c.Int("n"), c.Int("size"), c.Int("pipeline"))
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func load(ctx context.Context, conn *client.Client, mode string, numOps, targetSize, pipeline int) error {
	fmt.Printf("Writing %d %s records (size: ~%d bytes each)...\n", numOps, mode, targetSize)
	start := time.Now()

	failed := 0
	for written := 0; written < numOps; {
		batch := make([][]string, 0, pipeline)
		for len(batch) < pipeline && written+len(batch) < numOps {
			args, err := generateCommand(mode, targetSize)
			if err != nil {
				return err
			}
			batch = append(batch, args)
		}
		replies, err := conn.Pipeline(ctx, batch...)
		if err != nil {
			return err
		}
		for _, reply := range replies {
			if reply.Type() == resp.TypeSimpleError {
				failed++
			}
		}
		written += len(batch)
		if written%1000 < len(batch) {
			fmt.Printf("\rWrote %d/%d records...", written, numOps)
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("\nDone! Wrote %d records in %s (%d failed)\n", numOps, elapsed, failed)
	fmt.Printf("Throughput: %.2f records/sec\n", float64(numOps)/elapsed.Seconds())
	return nil
}
