// Package n8n forwards recognized utterances to the external appointment
// automation webhook and splices replies back into the conversation.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// forwardTimeout bounds one webhook round trip. Appointment processing on
// the automation side can be slow, hence the generous value.
const forwardTimeout = 15 * time.Second

// payload is the JSON body sent to the automation webhook for one
// utterance. It is constructed, sent, and discarded; nothing is persisted.
type payload struct {
	SessionID   string   `json:"session_id"`
	CallerID    string   `json:"caller_id"`
	Message     string   `json:"message"`
	MessageType string   `json:"message_type"`
	Timestamp   int64    `json:"timestamp"`
	ServiceType string   `json:"service_type"`
	Metadata    metadata `json:"metadata"`
}

type metadata struct {
	Language Language `json:"language"`
	Intent   Intent   `json:"intent"`
	Platform string   `json:"platform"`
}

// reply is the automation webhook's response body.
type reply struct {
	Response string `json:"response"`
}

// Forwarder sends utterances for one call session to the automation
// webhook.
type Forwarder struct {
	webhookURL string
	sessionID  string
	callerID   string
	client     *http.Client
	now        func() time.Time
}

// NewForwarder creates a forwarder bound to one session. The HTTP client
// carries the forwarding timeout; all other failure handling is the
// caller's concern.
func NewForwarder(webhookURL, sessionID, callerID string) *Forwarder {
	return &Forwarder{
		webhookURL: webhookURL,
		sessionID:  sessionID,
		callerID:   callerID,
		client:     &http.Client{Timeout: forwardTimeout},
		now:        time.Now,
	}
}

// Forward sends one utterance to the automation webhook and returns the
// reply text, which may be empty. Transport failures, non-200 statuses and
// malformed bodies are returned as errors; they are never fatal to the
// call, the caller proceeds without a reply.
func (f *Forwarder) Forward(ctx context.Context, text, messageType string) (string, error) {
	body, err := json.Marshal(payload{
		SessionID:   f.sessionID,
		CallerID:    f.callerID,
		Message:     text,
		MessageType: messageType,
		Timestamp:   f.now().Unix(),
		ServiceType: "appointment_booking",
		Metadata: metadata{
			Language: DetectLanguage(text),
			Intent:   DetectIntent(text),
			Platform: "twilio_voice",
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Info("Forwarding utterance to automation webhook",
		"session_id", f.sessionID,
		"message_type", messageType)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post to webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var r reply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode webhook response: %w", err)
	}

	return r.Response, nil
}
