// Package session provides in-memory tracking of active voice call sessions.
package session

import (
	"errors"

	"github.com/coder/websocket"
)

// Status describes the lifecycle of a call session. Transitions only move
// forward: active -> running -> (ended | error).
type Status string

const (
	StatusActive  Status = "active"
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"
	StatusError   Status = "error"
)

// rank orders statuses so that backward transitions can be rejected.
func (s Status) rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusRunning:
		return 1
	case StatusEnded, StatusError:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

// Session is the record kept for one inbound call. The socket handle is
// owned exclusively by the session for its duration.
type Session struct {
	SessionID string
	CallSID   string
	StreamSID string
	CallerID  string
	Socket    *websocket.Conn
	Status    Status
}

// Snapshot is a redacted view of a session for observability endpoints.
// The caller ID is truncated to its last four characters unless it was
// never known.
type Snapshot struct {
	CallSID   string `json:"call_sid"`
	SessionID string `json:"session_id"`
	CallerID  string `json:"caller_id"`
	Status    Status `json:"status"`
}

func redactCallerID(callerID string) string {
	if callerID == "unknown" {
		return callerID
	}
	if len(callerID) <= 4 {
		return callerID
	}
	return callerID[len(callerID)-4:]
}

// CloseSocket closes the session's socket best-effort. Close failures are
// expected when the remote side already disconnected and are ignored.
func (s *Session) CloseSocket() {
	if s.Socket == nil {
		return
	}
	_ = s.Socket.Close(websocket.StatusNormalClosure, "session ended")
}

// ErrDuplicateCall is returned when a registry entry already exists for a
// call SID.
var ErrDuplicateCall = errors.New("session already exists for call")
