package app

import (
	"context"
	"os/signal"
	"syscall"
)

// ContextWithSignals creates a context that is canceled when the application
// receives an interrupt or termination signal. An interrupted sync keeps
// every batch already delivered, because each one is saved on success.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
