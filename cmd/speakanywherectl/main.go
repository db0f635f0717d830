// Package main provides the speak-anywhere command-line client: a
// short-lived process that forwards one command to the running daemon
// over its unix command socket and prints the response.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/cli"
	"github.com/speakanywhere/speakanywhere/internal/config"
	"github.com/speakanywhere/speakanywhere/internal/doctor"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/version"
)

const requestTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr *os.File) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		fmt.Fprint(stderr, cli.HelpText("speakanywherectl"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(stdout, cli.HelpText("speakanywherectl"))
		return 0
	}
	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	if parsed.Command == cli.CommandDoctor {
		return runDoctor(parsed.ConfigPath, stdout, stderr)
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	req := ipc.Request{Cmd: string(parsed.Command)}
	if parsed.Output != "" {
		req.Output = parsed.Output
	}
	if parsed.Limit != nil {
		req.Limit = parsed.Limit
	}

	resp, err := ipc.Send(ctx, socketPath, req, requestTimeout)
	if err != nil {
		if isNoDaemon(err) {
			fmt.Fprintln(stderr, "error: speak-anywhere daemon is not running")
			return 1
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	return printResponse(parsed.Command, resp, stdout, stderr)
}

func printResponse(cmd cli.Command, resp ipc.Response, stdout, stderr *os.File) int {
	if resp.Status == ipc.StatusError {
		fmt.Fprintf(stderr, "error: %s\n", resp.Message)
		return 1
	}

	switch cmd {
	case cli.CommandStatus:
		state := resp.State
		if state == "" {
			state = "idle"
		}
		fmt.Fprintln(stdout, state)
	case cli.CommandHistory:
		for _, entry := range resp.Entries {
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", entry.Timestamp, entry.AppContext, strings.TrimSpace(entry.Text))
		}
	default:
		if resp.Text != "" {
			fmt.Fprintln(stdout, resp.Text)
		} else if resp.Message != "" {
			fmt.Fprintln(stdout, resp.Message)
		}
	}
	return 0
}

// runDoctor loads config directly (the daemon need not be running) and
// prints the diagnostic report to stdout.
func runDoctor(configPath string, stdout, stderr *os.File) int {
	loaded, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	report := doctor.Run(loaded)
	fmt.Fprintln(stdout, report.String())
	if !report.OK() {
		return 1
	}
	return 0
}

func isNoDaemon(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(err.Error(), "no such file or directory")
}
