// Package pipeline provides the per-call frame processing chain. Frames are
// a closed set of event variants; processors transform them in a fixed
// order, tagged with the direction the event is travelling.
package pipeline

// Direction tags which way an event is flowing through the chain.
type Direction int

const (
	// Upstream events originate from the caller (audio, recognized speech).
	Upstream Direction = iota
	// Downstream events originate from the system (greetings, AI replies).
	Downstream
)

func (d Direction) String() string {
	if d == Upstream {
		return "upstream"
	}
	return "downstream"
}

// Frame is one event moving through the chain.
type Frame interface {
	isFrame()
}

// AudioFrame carries raw audio. Upstream it is caller audio from the media
// socket; downstream it is synthesized speech headed back to the caller.
type AudioFrame struct {
	Payload []byte
}

// TranscriptionFrame carries a recognized user utterance.
type TranscriptionFrame struct {
	Text string
}

// TextFrame carries text the system should speak, such as the scripted
// greeting or an AI reply.
type TextFrame struct {
	Text string
}

// SpeechStartFrame marks the voice-activity detector hearing the caller
// begin to speak.
type SpeechStartFrame struct{}

// SpeechStopFrame marks the caller falling silent.
type SpeechStopFrame struct{}

// EndFrame terminates the chain; queued by the transport when the call ends.
type EndFrame struct{}

func (*AudioFrame) isFrame()         {}
func (*TranscriptionFrame) isFrame() {}
func (*TextFrame) isFrame()          {}
func (*SpeechStartFrame) isFrame()   {}
func (*SpeechStopFrame) isFrame()    {}
func (*EndFrame) isFrame()           {}
