package twilio

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func postForm(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestInboundHandler_ConnectsStream(t *testing.T) {
	h := NewInboundHandler("agent.example.railway.app")

	form := url.Values{}
	form.Set("From", "+8801712345678")
	form.Set("CallSid", "CA123")
	form.Set("To", "+15550001111")
	form.Set("CallStatus", "ringing")
	form.Set("Direction", "inbound")
	form.Set("AccountSid", "AC999")

	w := postForm(t, h, form)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Expected application/xml, got %q", ct)
	}

	var doc TwiML
	if err := xml.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Response is not well-formed XML: %v", err)
	}
	if doc.Connect == nil {
		t.Fatal("Expected a Connect verb")
	}
	wantURL := "wss://agent.example.railway.app/ws/CA123"
	if doc.Connect.Stream.URL != wantURL {
		t.Errorf("Expected stream URL %q, got %q", wantURL, doc.Connect.Stream.URL)
	}

	params := map[string]string{}
	for _, p := range doc.Connect.Stream.Parameters {
		params[p.Name] = p.Value
	}
	if params["caller_id"] != "+8801712345678" {
		t.Errorf("Expected caller_id parameter, got %q", params["caller_id"])
	}
	if params["call_sid"] != "CA123" {
		t.Errorf("Expected call_sid parameter, got %q", params["call_sid"])
	}
	if params["purpose"] != "appointment_booking" {
		t.Errorf("Expected purpose parameter, got %q", params["purpose"])
	}
}

func TestInboundHandler_MissingFieldsDefaultUnknown(t *testing.T) {
	h := NewInboundHandler("agent.example.railway.app")

	// No recognizable fields at all: the webhook must still answer with a
	// well-formed document, never a 500 or empty body.
	w := postForm(t, h, url.Values{})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("Expected a non-empty body")
	}

	var doc TwiML
	if err := xml.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Response is not well-formed XML: %v", err)
	}
	if doc.Connect == nil {
		t.Fatal("Expected a Connect verb")
	}
	if !strings.HasSuffix(doc.Connect.Stream.URL, "/ws/unknown") {
		t.Errorf("Expected unknown call SID in URL, got %q", doc.Connect.Stream.URL)
	}

	for _, p := range doc.Connect.Stream.Parameters {
		if p.Name == "caller_id" && p.Value != "unknown" {
			t.Errorf("Expected unknown caller_id, got %q", p.Value)
		}
	}
}

func TestExtractCallInfo(t *testing.T) {
	form := url.Values{}
	form.Set("From", "+8801712345678")
	form.Set("Direction", "inbound")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	info := ExtractCallInfo(req)
	if info.CallerID != "+8801712345678" {
		t.Errorf("Expected caller id, got %q", info.CallerID)
	}
	if info.Direction != "inbound" {
		t.Errorf("Expected inbound, got %q", info.Direction)
	}
	if info.CallSID != "unknown" || info.ToNumber != "unknown" || info.AccountSID != "unknown" {
		t.Errorf("Expected unknown defaults, got %+v", info)
	}
}

func TestApologyTwiML(t *testing.T) {
	body, err := ApologyTwiML().Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var doc TwiML
	if err := xml.Unmarshal(body, &doc); err != nil {
		t.Fatalf("Apology is not well-formed XML: %v", err)
	}
	if doc.Say == "" {
		t.Error("Expected a Say verb in the apology document")
	}
	if doc.Connect != nil {
		t.Error("Apology must not open a media stream")
	}
}
