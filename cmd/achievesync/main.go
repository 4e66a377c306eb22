// Package main provides the entry point for the achievesync CLI tool.
package main

import (
	"context"
	"os"

	"github.com/agentstation/achievesync/cmd/achievesync/app"
	"github.com/agentstation/achievesync/pkg/constants"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		// The signal context may already be canceled
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := application.Shutdown(shutdownCtx); shutdownErr != nil {
			application.Logger().Error().Err(shutdownErr).Msg("Shutdown error during error handling")
		}
		app.ExitOnError(err)
	}
}
