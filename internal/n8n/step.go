package n8n

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/banglavoice/appointment-agent/internal/pipeline"
)

// UtteranceForwarder is the narrow surface the chain step needs from the
// webhook client.
type UtteranceForwarder interface {
	Forward(ctx context.Context, text, messageType string) (string, error)
}

// Step is the webhook-forwarding stage of the call pipeline. It intercepts
// recognized user utterances travelling upstream, forwards them to the
// automation webhook, and appends any reply to the utterance as bracketed
// context for the speech generator. Every other event passes through
// untouched.
type Step struct {
	forwarder UtteranceForwarder
}

// NewStep creates the forwarding chain step.
func NewStep(forwarder UtteranceForwarder) *Step {
	return &Step{forwarder: forwarder}
}

func (s *Step) Name() string { return "n8n" }

// Process implements pipeline.Processor. Only upstream transcriptions are
// forwarded; audio, control frames and downstream events are not ours.
func (s *Step) Process(ctx context.Context, frame pipeline.Frame, dir pipeline.Direction) (pipeline.Frame, error) {
	if dir != pipeline.Upstream {
		return frame, nil
	}
	tr, ok := frame.(*pipeline.TranscriptionFrame)
	if !ok {
		return frame, nil
	}
	if strings.TrimSpace(tr.Text) == "" {
		return frame, nil
	}

	return &pipeline.TranscriptionFrame{Text: s.Enhance(ctx, tr.Text)}, nil
}

// Enhance forwards one utterance and returns the text the downstream
// speech generator should consume. Forwarding failures are logged and the
// original text is returned unmodified; no failure here ends the call.
func (s *Step) Enhance(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	slog.Info("User said", "text", text)

	response, err := s.forwarder.Forward(ctx, text, "user_message")
	if err != nil {
		slog.Error("Automation webhook forwarding failed", "error", err)
		return text
	}
	if response == "" {
		return text
	}

	slog.Info("Automation webhook reply received", "response", response)
	return fmt.Sprintf("%s\n\n[Appointment system response: %s]", text, response)
}
