package twilio

import (
	"encoding/json"
	"fmt"
)

// Media Streams event names.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
)

// StreamEvent is one JSON frame on the media socket.
type StreamEvent struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
}

// StartPayload is the body of the first real event on a stream.
type StartPayload struct {
	StreamSID        string            `json:"streamSid"`
	CallSID          string            `json:"callSid"`
	AccountSID       string            `json:"accountSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

// MediaPayload carries one chunk of base64-encoded mu-law audio.
type MediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// ParseStreamEvent decodes one socket frame.
func ParseStreamEvent(data []byte) (*StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("parse stream event: %w", err)
	}
	return &ev, nil
}

// mediaMessage is the outbound frame carrying synthesized audio to Twilio.
type mediaMessage struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     mediaContent `json:"media"`
}

type mediaContent struct {
	Payload string `json:"payload"`
}

func marshalMediaMessage(msg mediaMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal media message: %w", err)
	}
	return data, nil
}
