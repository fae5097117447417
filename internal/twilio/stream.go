package twilio

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/banglavoice/appointment-agent/internal/session"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ConversationDriver runs the voice conversation for one accepted media
// stream until the call ends or fails.
type ConversationDriver interface {
	Run(ctx context.Context, conn *websocket.Conn, sess *session.Session) error
}

// StreamHandler accepts Twilio media stream sockets. One socket handshake
// maps to exactly one session attempt; there is no reconnection.
type StreamHandler struct {
	registry *session.Registry
	driver   ConversationDriver
}

// NewStreamHandler creates the media socket handler.
func NewStreamHandler(registry *session.Registry, driver ConversationDriver) *StreamHandler {
	return &StreamHandler{registry: registry, driver: driver}
}

// ServeHTTP upgrades /ws/{call_sid} and walks the session through
// connecting -> awaiting_start -> active -> ended.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	callSID := chi.URLParam(r, "call_sid")
	slog.Info("Media socket connection request", "call_sid", callSID, "ip", r.RemoteAddr)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Twilio does not send a browser Origin header.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept media socket", "error", err, "call_sid", callSID)
		return
	}
	defer func() {
		// Best-effort: the remote side is usually gone already.
		_ = conn.Close(websocket.StatusNormalClosure, "session ended")
	}()

	ctx := r.Context()

	// awaiting_start: the first frame must be a start event carrying the
	// stream SID. Anything else abandons the call, no retry.
	start, err := h.awaitStart(ctx, conn)
	if err != nil {
		slog.Error("Media stream did not start", "error", err, "call_sid", callSID)
		return
	}

	callerID := "unknown"
	if v, ok := start.CustomParameters["caller_id"]; ok && v != "" {
		callerID = v
	}

	slog.Info("Call started",
		"call_sid", callSID,
		"stream_sid", start.StreamSID,
		"caller_id", callerID)

	sessionID := uuid.NewString()
	if err := h.registry.Create(callSID, sessionID, start.StreamSID, callerID, conn); err != nil {
		slog.Error("Failed to register session", "error", err, "call_sid", callSID)
		return
	}
	defer h.registry.Remove(callSID)

	sess := h.registry.Get(callSID)
	if sess == nil {
		// The sweeper or a racing cleanup got there first; treat it as an
		// already-ended call.
		slog.Warn("Session vanished before the conversation started", "call_sid", callSID)
		return
	}
	if err := h.driver.Run(ctx, conn, sess); err != nil {
		slog.Error("Conversation failed", "error", err, "call_sid", callSID, "session_id", sessionID)
		h.registry.UpdateStatus(callSID, session.StatusError)
	} else {
		h.registry.UpdateStatus(callSID, session.StatusEnded)
	}

	slog.Info("Media socket disconnected", "call_sid", callSID, "session_id", sessionID)
}

// awaitStart reads the stream until Twilio's start event arrives. The
// optional connected event is tolerated first; any other frame is a
// protocol error.
func (h *StreamHandler) awaitStart(ctx context.Context, conn *websocket.Conn) (*StartPayload, error) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return nil, err
		}

		ev, err := ParseStreamEvent(data)
		if err != nil {
			return nil, err
		}

		switch ev.Event {
		case EventConnected:
			continue
		case EventStart:
			if ev.Start == nil || ev.Start.StreamSID == "" {
				return nil, errMissingStreamSID
			}
			return ev.Start, nil
		default:
			return nil, &unexpectedEventError{event: ev.Event}
		}
	}
}

var errMissingStreamSID = &unexpectedEventError{event: "start without streamSid"}

type unexpectedEventError struct {
	event string
}

func (e *unexpectedEventError) Error() string {
	return "unexpected first stream event: " + e.event
}
