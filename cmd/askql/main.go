package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/askql/askql/internal/cli/askql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := askql.Run(ctx, os.Args[1:], askql.Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	stop()
	os.Exit(code)
}
