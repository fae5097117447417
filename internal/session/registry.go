package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Registry tracks active call sessions keyed by the platform call SID.
// It is safe for concurrent use; every call handler runs on its own
// goroutine, so all mutations take the lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for a call. It fails if a session already
// exists for the call SID; one inbound call maps to exactly one session.
func (r *Registry) Create(callSID, sessionID, streamSID, callerID string, socket *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[callSID]; exists {
		return fmt.Errorf("create session %s: %w", callSID, ErrDuplicateCall)
	}

	r.sessions[callSID] = &Session{
		SessionID: sessionID,
		CallSID:   callSID,
		StreamSID: streamSID,
		CallerID:  callerID,
		Socket:    socket,
		Status:    StatusActive,
	}

	slog.Info("Session registered", "call_sid", callSID, "session_id", sessionID, "stream_sid", streamSID)
	return nil
}

// UpdateStatus advances the status of a call's session. It is a no-op if
// the call is not registered or if the transition would move backward.
func (r *Registry) UpdateStatus(callSID string, status Status) {
	if !status.Valid() {
		slog.Warn("Ignoring unknown session status", "call_sid", callSID, "status", status)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[callSID]
	if !ok {
		return
	}
	if status.rank() < sess.Status.rank() {
		slog.Warn("Ignoring backward status transition",
			"call_sid", callSID,
			"from", sess.Status,
			"to", status)
		return
	}
	sess.Status = status
}

// Remove deletes the session for a call. Removing an absent call is a no-op,
// so the media handler and the sweeper can both attempt cleanup safely.
func (r *Registry) Remove(callSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[callSID]; ok {
		delete(r.sessions, callSID)
		slog.Info("Session removed", "call_sid", callSID)
	}
}

// Get returns the session for a call, or nil if none is registered.
func (r *Registry) Get(callSID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[callSID]
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns redacted views of every registered session, keyed by
// call SID. Caller IDs are truncated for privacy.
func (r *Registry) Snapshot() map[string]Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Snapshot, len(r.sessions))
	for callSID, sess := range r.sessions {
		out[callSID] = Snapshot{
			CallSID:   callSID,
			SessionID: sess.SessionID,
			CallerID:  redactCallerID(sess.CallerID),
			Status:    sess.Status,
		}
	}
	return out
}

// ended returns the call SIDs of every session marked ended.
func (r *Registry) ended() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for callSID, sess := range r.sessions {
		if sess.Status == StatusEnded {
			out = append(out, callSID)
		}
	}
	return out
}
