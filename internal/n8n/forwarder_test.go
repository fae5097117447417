package n8n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banglavoice/appointment-agent/internal/pipeline"
)

func TestForwarder_Forward(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"response": "OK"}); err != nil {
			t.Errorf("Failed to encode response: %v", err)
		}
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, "sess-1", "+8801712345678")

	reply, err := f.Forward(context.Background(), "I want to book an appointment", "user_message")
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if reply != "OK" {
		t.Errorf("Expected reply OK, got %q", reply)
	}

	if got.SessionID != "sess-1" {
		t.Errorf("Expected session_id sess-1, got %q", got.SessionID)
	}
	if got.CallerID != "+8801712345678" {
		t.Errorf("Expected caller_id to be carried, got %q", got.CallerID)
	}
	if got.ServiceType != "appointment_booking" {
		t.Errorf("Expected service_type appointment_booking, got %q", got.ServiceType)
	}
	if got.Metadata.Language != LanguageEnglish {
		t.Errorf("Expected english, got %q", got.Metadata.Language)
	}
	if got.Metadata.Intent != IntentBookAppointment {
		t.Errorf("Expected book_appointment, got %q", got.Metadata.Intent)
	}
	if got.Metadata.Platform != "twilio_voice" {
		t.Errorf("Expected twilio_voice platform, got %q", got.Metadata.Platform)
	}
}

func TestForwarder_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, "sess-1", "unknown")

	if _, err := f.Forward(context.Background(), "hello", "user_message"); err == nil {
		t.Fatal("Expected error for HTTP 500")
	}
}

func TestForwarder_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, "sess-1", "unknown")

	if _, err := f.Forward(context.Background(), "hello", "user_message"); err == nil {
		t.Fatal("Expected error for malformed JSON body")
	}
}

func TestForwarder_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, "sess-1", "unknown")
	f.client.Timeout = 50 * time.Millisecond

	if _, err := f.Forward(context.Background(), "hello", "user_message"); err == nil {
		t.Fatal("Expected error on timeout")
	}
}

// stubForwarder lets step tests control the webhook outcome.
type stubForwarder struct {
	reply string
	err   error
	calls int
}

func (s *stubForwarder) Forward(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestStep_EnhancesUtterance(t *testing.T) {
	step := NewStep(&stubForwarder{reply: "OK"})

	out, err := step.Process(context.Background(), &pipeline.TranscriptionFrame{Text: "hello"}, pipeline.Upstream)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	tr, ok := out.(*pipeline.TranscriptionFrame)
	if !ok {
		t.Fatalf("Expected TranscriptionFrame, got %T", out)
	}
	want := "hello\n\n[Appointment system response: OK]"
	if tr.Text != want {
		t.Errorf("Expected %q, got %q", want, tr.Text)
	}
}

func TestStep_FailureLeavesUtteranceUnmodified(t *testing.T) {
	step := NewStep(&stubForwarder{err: context.DeadlineExceeded})

	out, err := step.Process(context.Background(), &pipeline.TranscriptionFrame{Text: "hello"}, pipeline.Upstream)
	if err != nil {
		t.Fatalf("Forwarding failure must not fail the chain: %v", err)
	}
	if tr := out.(*pipeline.TranscriptionFrame); tr.Text != "hello" {
		t.Errorf("Expected original text, got %q", tr.Text)
	}
}

func TestStep_EmptyReplyLeavesUtteranceUnmodified(t *testing.T) {
	step := NewStep(&stubForwarder{reply: ""})

	out, err := step.Process(context.Background(), &pipeline.TranscriptionFrame{Text: "hello"}, pipeline.Upstream)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if tr := out.(*pipeline.TranscriptionFrame); tr.Text != "hello" {
		t.Errorf("Expected original text, got %q", tr.Text)
	}
}

func TestStep_IgnoresOtherTraffic(t *testing.T) {
	stub := &stubForwarder{reply: "OK"}
	step := NewStep(stub)
	ctx := context.Background()

	// Downstream transcriptions and non-transcription frames never reach
	// the webhook.
	if _, err := step.Process(ctx, &pipeline.TranscriptionFrame{Text: "hi"}, pipeline.Downstream); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := step.Process(ctx, &pipeline.AudioFrame{}, pipeline.Upstream); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := step.Process(ctx, &pipeline.TranscriptionFrame{Text: "   "}, pipeline.Upstream); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if stub.calls != 0 {
		t.Errorf("Expected no webhook calls, got %d", stub.calls)
	}
}
