// Package vad provides voice-activity detection for the call pipeline.
package vad

import (
	"context"
	"math"

	"github.com/banglavoice/appointment-agent/internal/audio"
	"github.com/banglavoice/appointment-agent/internal/pipeline"
)

// Params tunes the detector.
type Params struct {
	// Confidence is the voice confidence threshold (0.0-1.0).
	Confidence float64
	// StartSecs of continuous voice before speech is declared started.
	StartSecs float64
	// StopSecs of continuous silence before speech is declared stopped.
	StopSecs float64
	// MinVolume is the minimum normalized RMS volume to count as voice.
	MinVolume float64
}

// DefaultParams mirrors the tuning used for telephony audio.
func DefaultParams() Params {
	return Params{
		Confidence: 0.7,
		StartSecs:  0.2,
		StopSecs:   0.8,
		MinVolume:  0.6,
	}
}

// Analyzer scores one chunk of audio for voice activity. Implementations
// may be model-based; the default is a plain energy detector.
type Analyzer interface {
	// Analyze returns a voice confidence in [0, 1] for a chunk of
	// 8-bit mu-law audio.
	Analyze(sample []byte) float64
	SampleRate() int
}

// EnergyAnalyzer scores audio by normalized RMS energy.
type EnergyAnalyzer struct {
	sampleRate int
	minVolume  float64
}

// NewEnergyAnalyzer creates an analyzer for mu-law audio at the given
// sample rate.
func NewEnergyAnalyzer(sampleRate int, minVolume float64) *EnergyAnalyzer {
	return &EnergyAnalyzer{sampleRate: sampleRate, minVolume: minVolume}
}

func (a *EnergyAnalyzer) SampleRate() int { return a.sampleRate }

// Analyze returns confidence proportional to how far the chunk's RMS
// energy sits above the minimum volume floor.
func (a *EnergyAnalyzer) Analyze(sample []byte) float64 {
	if len(sample) == 0 {
		return 0
	}

	var sum float64
	for _, b := range sample {
		v := float64(audio.DecodeSample(b)) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(sample)))

	// Scale so that minVolume maps to zero confidence and roughly
	// conversational speech saturates at one.
	floor := a.minVolume * 0.05
	conf := (rms - floor) / 0.1
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

// Processor gates upstream audio through the chain: silence is dropped,
// speech passes through, and a SpeechStopFrame is emitted when the caller
// falls silent so the recognizer can finalize the turn.
type Processor struct {
	analyzer Analyzer
	params   Params

	speaking   bool
	voicedSecs float64
	silentSecs float64
}

// NewProcessor creates the VAD chain step.
func NewProcessor(analyzer Analyzer, params Params) *Processor {
	return &Processor{analyzer: analyzer, params: params}
}

func (p *Processor) Name() string { return "vad" }

// Process inspects upstream audio frames and leaves every other event
// untouched.
func (p *Processor) Process(_ context.Context, frame pipeline.Frame, dir pipeline.Direction) (pipeline.Frame, error) {
	if dir != pipeline.Upstream {
		return frame, nil
	}
	audio, ok := frame.(*pipeline.AudioFrame)
	if !ok {
		return frame, nil
	}

	secs := float64(len(audio.Payload)) / float64(p.analyzer.SampleRate())
	voiced := p.analyzer.Analyze(audio.Payload) >= p.params.Confidence

	if voiced {
		p.voicedSecs += secs
		p.silentSecs = 0
	} else {
		p.silentSecs += secs
		p.voicedSecs = 0
	}

	switch {
	case !p.speaking && voiced && p.voicedSecs >= p.params.StartSecs:
		p.speaking = true
		return &pipeline.SpeechStartFrame{}, nil
	case p.speaking && !voiced && p.silentSecs >= p.params.StopSecs:
		p.speaking = false
		return &pipeline.SpeechStopFrame{}, nil
	case p.speaking:
		return audio, nil
	default:
		// Silence before speech starts never reaches the recognizer.
		return nil, nil
	}
}
