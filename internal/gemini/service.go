// Package gemini provides the Bengali appointment voice LLM over the
// Gemini Live WebSocket API. The rest of the system consumes it only as a
// pipeline step; the wire protocol stays inside this package.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banglavoice/appointment-agent/internal/audio"
	"github.com/banglavoice/appointment-agent/internal/pipeline"
	"github.com/coder/websocket"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Config tunes the live session.
type Config struct {
	APIKey string
	Model  string
	Voice  string
}

// Emit hands a frame produced by the AI backend to the call's pipeline
// task.
type Emit func(frame pipeline.Frame, dir pipeline.Direction) error

// Service is the speech/LLM step of the call pipeline. It streams caller
// audio to a Gemini Live session and emits recognized utterances upstream
// and synthesized reply audio downstream.
type Service struct {
	cfg      Config
	emit     Emit
	conn     *websocket.Conn
	endpoint string
}

// NewService creates the Bengali appointment service. Defaults match the
// deployed agent: the Puck voice and the flash live model.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = "models/gemini-2.0-flash-live-001"
	}
	if cfg.Voice == "" {
		cfg.Voice = "Puck"
	}
	return &Service{cfg: cfg, endpoint: liveEndpoint}
}

// SetEmit wires the service to the pipeline task. Must be called before
// Connect.
func (s *Service) SetEmit(emit Emit) {
	s.emit = emit
}

// Connect dials the live API, performs setup, and starts the receive loop.
func (s *Service) Connect(ctx context.Context) error {
	if s.emit == nil {
		return errors.New("gemini: emit not set")
	}

	conn, _, err := websocket.Dial(ctx, s.endpoint+"?key="+s.cfg.APIKey, nil)
	if err != nil {
		return fmt.Errorf("dial gemini live: %w", err)
	}
	// Audio messages are large; the default read limit is too small.
	conn.SetReadLimit(1 << 22)
	s.conn = conn

	if err := s.send(ctx, setupMessage{Setup: setup{
		Model: s.cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: s.cfg.Voice}},
			},
		},
		SystemInstruction:       content{Parts: []part{{Text: appointmentInstruction}}},
		InputAudioTranscription: &struct{}{},
	}}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "setup failed")
		return fmt.Errorf("send setup: %w", err)
	}

	// The first server message acknowledges setup.
	if _, _, err := conn.Read(ctx); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "setup not acknowledged")
		return fmt.Errorf("await setup ack: %w", err)
	}

	go s.receiveLoop(ctx)
	slog.Info("Bengali appointment service connected", "model", s.cfg.Model, "voice", s.cfg.Voice)
	return nil
}

// Close tears the live session down best-effort.
func (s *Service) Close() {
	if s.conn != nil {
		_ = s.conn.Close(websocket.StatusNormalClosure, "call ended")
	}
}

func (s *Service) Name() string { return "gemini" }

// Process implements pipeline.Processor.
//
// Upstream: caller audio is streamed into the live session; speech
// boundaries finalize the turn; enhanced transcriptions (after the webhook
// step) are spliced into the conversation context. All upstream traffic is
// consumed here. Downstream: text the system should speak is sent as a
// turn; audio produced by the receive loop passes through to the transport.
func (s *Service) Process(ctx context.Context, frame pipeline.Frame, dir pipeline.Direction) (pipeline.Frame, error) {
	if dir == pipeline.Downstream {
		switch f := frame.(type) {
		case *pipeline.TextFrame:
			if err := s.sendText(ctx, f.Text); err != nil {
				return nil, err
			}
			return nil, nil
		default:
			return frame, nil
		}
	}

	switch f := frame.(type) {
	case *pipeline.AudioFrame:
		return nil, s.sendAudio(ctx, f.Payload)
	case *pipeline.SpeechStartFrame:
		return nil, nil
	case *pipeline.SpeechStopFrame:
		return nil, s.send(ctx, realtimeMessage{RealtimeInput: realtimeInput{AudioStreamEnd: true}})
	case *pipeline.TranscriptionFrame:
		// The utterance, possibly carrying the appointment system's reply
		// as bracketed context. The live session already heard the audio;
		// this feeds the enhancement back in.
		return nil, s.sendText(ctx, f.Text)
	default:
		return frame, nil
	}
}

func (s *Service) sendAudio(ctx context.Context, mulaw []byte) error {
	pcm := audio.MulawToPCM16k(mulaw)
	return s.send(ctx, realtimeMessage{RealtimeInput: realtimeInput{
		Audio: &blob{
			MIMEType: "audio/pcm;rate=16000",
			Data:     base64.StdEncoding.EncodeToString(pcm),
		},
	}})
}

func (s *Service) sendText(ctx context.Context, text string) error {
	return s.send(ctx, clientContentMessage{ClientContent: clientContent{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}})
}

func (s *Service) send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal live message: %w", err)
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write live message: %w", err)
	}
	return nil
}

// receiveLoop turns live session traffic into pipeline frames until the
// socket closes or ctx is cancelled. Read failures just end the loop; the
// call's transport notices the session ending through its own socket.
func (s *Service) receiveLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				slog.Warn("Gemini live read error", "error", err)
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Skipping malformed live message", "error", err)
			continue
		}
		if msg.ServerContent == nil {
			continue
		}

		if tr := msg.ServerContent.InputTranscription; tr != nil && tr.Text != "" {
			if err := s.emit(&pipeline.TranscriptionFrame{Text: tr.Text}, pipeline.Upstream); err != nil {
				slog.Debug("Dropping transcription", "error", err)
			}
		}

		if turn := msg.ServerContent.ModelTurn; turn != nil {
			for _, p := range turn.Parts {
				if p.InlineData == nil || p.InlineData.Data == "" {
					continue
				}
				pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					slog.Warn("Skipping undecodable model audio", "error", err)
					continue
				}
				frame := &pipeline.AudioFrame{Payload: audio.PCM24kToMulaw8k(pcm)}
				if err := s.emit(frame, pipeline.Downstream); err != nil {
					slog.Debug("Dropping model audio", "error", err)
				}
			}
		}
	}
}
