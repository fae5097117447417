// Package twilio adapts the Twilio telephony platform: the inbound call
// webhook, TwiML generation, and the Media Streams socket protocol.
package twilio

import (
	"encoding/xml"
	"fmt"
)

// TwiML is the markup document returned to Twilio telling it how to handle
// a call.
type TwiML struct {
	XMLName xml.Name `xml:"Response"`
	Say     string   `xml:"Say,omitempty"`
	Connect *Connect `xml:"Connect,omitempty"`
}

// Connect instructs Twilio to open a bidirectional media stream.
type Connect struct {
	Stream Stream `xml:"Stream"`
}

// Stream names the socket URL Twilio should connect back to, with
// side-channel parameters delivered in the stream's start event.
type Stream struct {
	URL        string      `xml:"url,attr"`
	Parameters []Parameter `xml:"Parameter"`
}

// Parameter is one custom key/value carried into the media stream.
type Parameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Render serializes the document with an XML declaration.
func (t *TwiML) Render() ([]byte, error) {
	body, err := xml.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// StreamTwiML builds the document that connects an inbound call to the
// media socket for this service.
func StreamTwiML(socketURL string, info CallInfo) *TwiML {
	return &TwiML{
		Connect: &Connect{
			Stream: Stream{
				URL: socketURL,
				Parameters: []Parameter{
					{Name: "caller_id", Value: info.CallerID},
					{Name: "call_sid", Value: info.CallSID},
					{Name: "purpose", Value: "appointment_booking"},
				},
			},
		},
	}
}

// ApologyTwiML is the degraded document returned when webhook handling
// fails internally. The call announces an apology instead of hard-failing.
func ApologyTwiML() *TwiML {
	return &TwiML{Say: "Sorry, system temporarily unavailable."}
}
