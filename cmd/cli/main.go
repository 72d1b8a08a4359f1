package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/app"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/cli"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hcl"
)

// main is the entrypoint for the sandboxstack provisioner.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors (unreadable plan, invalid
	// phase graph); recover them into a clean error and exit code.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	loader := hcl.NewLoader()
	sandboxApp := app.NewApp(outW, appConfig, loader)

	return sandboxApp.Run(context.Background())
}
