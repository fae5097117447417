package twilio

import (
	"fmt"
	"log/slog"
	"net/http"
)

// CallInfo is the caller metadata extracted from an inbound call webhook.
// Missing form fields default to "unknown"; Twilio owns the schema and we
// never reject its webhooks.
type CallInfo struct {
	CallerID   string
	CallSID    string
	ToNumber   string
	CallStatus string
	Direction  string
	AccountSID string
}

// ExtractCallInfo pulls call metadata out of the webhook form.
func ExtractCallInfo(r *http.Request) CallInfo {
	return CallInfo{
		CallerID:   formValue(r, "From"),
		CallSID:    formValue(r, "CallSid"),
		ToNumber:   formValue(r, "To"),
		CallStatus: formValue(r, "CallStatus"),
		Direction:  formValue(r, "Direction"),
		AccountSID: formValue(r, "AccountSid"),
	}
}

func formValue(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return "unknown"
}

// InboundHandler answers the telephony webhook for every incoming call.
type InboundHandler struct {
	publicDomain string
}

// NewInboundHandler creates the handler. publicDomain is the externally
// reachable hostname Twilio connects back to for media.
func NewInboundHandler(publicDomain string) *InboundHandler {
	return &InboundHandler{publicDomain: publicDomain}
}

// ServeHTTP handles POST / from Twilio. It always answers with a
// well-formed TwiML document: on any internal failure the caller hears an
// apology rather than the call dropping.
func (h *InboundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info := ExtractCallInfo(r)
	slog.Info("Incoming call received",
		"caller_id", info.CallerID,
		"call_sid", info.CallSID,
		"direction", info.Direction,
		"call_status", info.CallStatus)

	socketURL := fmt.Sprintf("wss://%s/ws/%s", h.publicDomain, info.CallSID)
	slog.Info("Generated media socket URL", "url", socketURL)

	doc := StreamTwiML(socketURL, info)
	body, err := doc.Render()
	if err != nil {
		slog.Error("Failed to render TwiML, sending apology", "error", err, "call_sid", info.CallSID)
		body, err = ApologyTwiML().Render()
		if err != nil {
			// The apology document is static; this cannot happen, but the
			// webhook still must not return an empty body.
			body = []byte(`<?xml version="1.0" encoding="UTF-8"?><Response><Say>Sorry, system temporarily unavailable.</Say></Response>`)
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("Failed to write TwiML response", "error", err, "call_sid", info.CallSID)
	}
}
