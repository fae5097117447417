package gemini

// Wire types for the Gemini Live (BidiGenerateContent) WebSocket protocol.
// Only the fields this service uses are modeled.

type setupMessage struct {
	Setup setup `json:"setup"`
}

type setup struct {
	Model                   string           `json:"model"`
	GenerationConfig        generationConfig `json:"generationConfig"`
	SystemInstruction       content          `json:"systemInstruction"`
	InputAudioTranscription *struct{}        `json:"inputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	Audio          *blob `json:"audio,omitempty"`
	AudioStreamEnd bool  `json:"audioStreamEnd,omitempty"`
}

type clientContentMessage struct {
	ClientContent clientContent `json:"clientContent"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	ModelTurn          *content       `json:"modelTurn,omitempty"`
	InputTranscription *transcription `json:"inputTranscription,omitempty"`
	TurnComplete       bool           `json:"turnComplete,omitempty"`
}

type transcription struct {
	Text string `json:"text,omitempty"`
}
