package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	sweepInterval      = 5 * time.Minute
	sweepErrorInterval = 60 * time.Second
)

// StartSweeper runs a background goroutine that periodically evicts
// sessions whose conversation has ended. The loop runs until ctx is
// cancelled; a cycle failure only shortens the next wait, it never stops
// the sweeper.
func StartSweeper(ctx context.Context, reg *Registry) {
	go func() {
		slog.Info("Session sweeper started", "interval", sweepInterval)

		wait := sweepInterval
		for {
			select {
			case <-time.After(wait):
				if err := sweepOnce(reg); err != nil {
					slog.Error("Session sweep cycle failed", "error", err)
					wait = sweepErrorInterval
				} else {
					wait = sweepInterval
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(reg *Registry) (err error) {
	// A panic in a sweep cycle must not kill the loop.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep cycle panicked: %v", r)
		}
	}()

	for _, callSID := range reg.ended() {
		reg.Remove(callSID)
		slog.Info("Cleaned up inactive session", "call_sid", callSID)
	}
	return nil
}
