package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ananthvk/simpleredis/internal/client"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "respcli",
		Usage:     "interactive client for respserver",
		ArgsUsage: "[command [arg ...]]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 6379, Usage: "server port"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "per-command timeout"},
		},
		Action: func(c *cli.Context) error {
			address := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
			conn, err := client.Dial(c.Context, address)
			if err != nil {
				return err
			}
			defer conn.Close()

			timeout := c.Duration("timeout")
			if c.NArg() > 0 {
				return execute(c.Context, conn, c.Args().Slice(), timeout, os.Stdout)
			}
			return repl(c.Context, conn, address, timeout, os.Stdin, os.Stdout)
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "(error) %v\n", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, conn *client.Client, args []string, timeout time.Duration, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	reply, err := conn.Do(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatReply(reply))
	return nil
}

// repl reads one command per line until EOF or "exit". Parse errors are reported and the
// loop continues; connection errors end it.
func repl(ctx context.Context, conn *client.Client, address string, timeout time.Duration, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, `Connected to `+address+`, type "exit" to quit`)
	fmt.Fprint(out, address+"> ")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(out, "(error) %s\n", err)
		} else if len(args) > 0 {
			if err := execute(ctx, conn, args, timeout, out); err != nil {
				return err
			}
		}
		fmt.Fprint(out, address+"> ")
	}
	return scanner.Err()
}
