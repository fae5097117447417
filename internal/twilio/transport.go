package twilio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banglavoice/appointment-agent/internal/pipeline"
	"github.com/coder/websocket"
)

// ReadLoop pumps inbound socket frames into the pipeline task as upstream
// events. It returns when the stream stops, the socket closes, or ctx is
// cancelled; in every case it queues an EndFrame so the task terminates.
func ReadLoop(ctx context.Context, conn *websocket.Conn, task *pipeline.Task) {
	defer func() {
		if err := task.Queue(&pipeline.EndFrame{}, pipeline.Upstream); err != nil {
			slog.Warn("Failed to queue end frame", "error", err)
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Media socket closed", "error", err)
			} else {
				slog.Warn("Media socket read error", "error", err)
			}
			return
		}

		ev, err := ParseStreamEvent(data)
		if err != nil {
			slog.Warn("Skipping malformed media frame", "error", err)
			continue
		}

		switch ev.Event {
		case EventMedia:
			if ev.Media == nil {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				slog.Warn("Skipping undecodable media payload", "error", err)
				continue
			}
			if err := task.Queue(&pipeline.AudioFrame{Payload: audio}, pipeline.Upstream); err != nil {
				slog.Debug("Dropping audio frame", "error", err)
			}
		case EventStop:
			slog.Info("Media stream stopped", "stream_sid", ev.StreamSID)
			return
		case EventMark, EventConnected:
			// Control traffic owned by the transport; nothing to do.
		default:
			slog.Debug("Ignoring stream event", "event", ev.Event)
		}
	}
}

// Output is the final chain step: downstream audio is encoded as a media
// message and written back to the caller.
type Output struct {
	conn      *websocket.Conn
	streamSID string
}

// NewOutput creates the output step for one stream.
func NewOutput(conn *websocket.Conn, streamSID string) *Output {
	return &Output{conn: conn, streamSID: streamSID}
}

func (o *Output) Name() string { return "twilio-output" }

// Process writes downstream AudioFrames to the socket. Upstream events and
// non-audio frames end their journey here silently.
func (o *Output) Process(ctx context.Context, frame pipeline.Frame, dir pipeline.Direction) (pipeline.Frame, error) {
	if dir != pipeline.Downstream {
		return nil, nil
	}
	audio, ok := frame.(*pipeline.AudioFrame)
	if !ok {
		return nil, nil
	}

	msg := mediaMessage{
		Event:     EventMedia,
		StreamSID: o.streamSID,
		Media:     mediaContent{Payload: base64.StdEncoding.EncodeToString(audio.Payload)},
	}
	data, err := marshalMediaMessage(msg)
	if err != nil {
		return nil, err
	}
	if err := o.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return nil, fmt.Errorf("write media frame: %w", err)
	}
	return nil, nil
}
