// Package agent runs the Bengali appointment conversation for one call.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banglavoice/appointment-agent/internal/config"
	"github.com/banglavoice/appointment-agent/internal/gemini"
	"github.com/banglavoice/appointment-agent/internal/n8n"
	"github.com/banglavoice/appointment-agent/internal/pipeline"
	"github.com/banglavoice/appointment-agent/internal/session"
	"github.com/banglavoice/appointment-agent/internal/twilio"
	"github.com/banglavoice/appointment-agent/internal/vad"
	"github.com/coder/websocket"
)

// Greeting opens every call before the caller says anything.
const Greeting = "Hello! Ami apnar appointment booking assistant. Apnake kibhabe help korte pari?"

// telephonySampleRate is the mu-law sample rate on Twilio media streams.
const telephonySampleRate = 8000

// Driver assembles and runs the per-call processing chain:
// media input -> voice activity detection -> webhook forwarding -> LLM ->
// media output.
type Driver struct {
	cfg      *config.Config
	registry *session.Registry
}

// NewDriver creates the conversation driver.
func NewDriver(cfg *config.Config, registry *session.Registry) *Driver {
	return &Driver{cfg: cfg, registry: registry}
}

// Run drives one call to completion. It returns when the caller hangs up,
// the stream stops, or a pipeline stage fails; the media handler owns the
// socket and the registry entry either way.
func (d *Driver) Run(ctx context.Context, conn *websocket.Conn, sess *session.Session) error {
	slog.Info("Starting appointment agent", "session_id", sess.SessionID, "caller_id", sess.CallerID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	llm := gemini.NewService(gemini.Config{APIKey: d.cfg.GeminiAPIKey})
	forwarder := n8n.NewForwarder(d.cfg.N8NWebhookURL, sess.SessionID, sess.CallerID)

	params := vad.DefaultParams()
	detector := vad.NewProcessor(vad.NewEnergyAnalyzer(telephonySampleRate, params.MinVolume), params)

	pipe := pipeline.New(
		detector,
		n8n.NewStep(forwarder),
		llm,
		twilio.NewOutput(conn, sess.StreamSID),
	)
	task := pipeline.NewTask(pipe)

	llm.SetEmit(task.Queue)
	if err := llm.Connect(ctx); err != nil {
		return fmt.Errorf("connect appointment service: %w", err)
	}
	defer llm.Close()

	go twilio.ReadLoop(ctx, conn, task)

	if err := task.Queue(&pipeline.TextFrame{Text: Greeting}, pipeline.Downstream); err != nil {
		return fmt.Errorf("queue greeting: %w", err)
	}
	slog.Info("Appointment greeting queued", "session_id", sess.SessionID)

	// The registry entry can vanish mid-call (sweeper, racing cleanup);
	// status updates on a missing entry are no-ops by design.
	d.registry.UpdateStatus(sess.CallSID, session.StatusRunning)

	err := task.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run conversation pipeline: %w", err)
	}

	slog.Info("Appointment agent ended", "session_id", sess.SessionID)
	return nil
}
