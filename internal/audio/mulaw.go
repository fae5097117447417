// Package audio converts between the telephony codec (G.711 mu-law, 8kHz)
// and the linear PCM the AI backend speaks.
package audio

const (
	mulawBias = 0x84
	mulawClip = 32635
)

// DecodeSample decodes one mu-law byte to a 16-bit PCM sample.
func DecodeSample(b byte) int16 {
	b = ^b
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F

	magnitude := ((int32(mantissa) << 3) + mulawBias) << exponent
	magnitude -= mulawBias

	if sign != 0 {
		return int16(-magnitude)
	}
	return int16(magnitude)
}

// EncodeSample encodes one 16-bit PCM sample as a mu-law byte.
func EncodeSample(s int16) byte {
	var sign byte
	v := int32(s)
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > mulawClip {
		v = mulawClip
	}
	v += mulawBias

	exponent := byte(7)
	for mask := int32(0x4000); exponent > 0 && v&mask == 0; exponent-- {
		mask >>= 1
	}
	mantissa := byte((v >> (exponent + 3)) & 0x0F)

	return ^(sign | exponent<<4 | mantissa)
}

// MulawToPCM16k decodes 8kHz mu-law audio to little-endian 16-bit PCM and
// doubles samples up to 16kHz, the backend's expected input rate.
func MulawToPCM16k(in []byte) []byte {
	out := make([]byte, 0, len(in)*4)
	for _, b := range in {
		s := DecodeSample(b)
		lo, hi := byte(s), byte(uint16(s)>>8)
		out = append(out, lo, hi, lo, hi)
	}
	return out
}

// PCM24kToMulaw8k converts little-endian 16-bit PCM at 24kHz down to 8kHz
// mu-law by keeping every third sample. Telephony audio is narrowband, so
// decimation without filtering is acceptable here.
func PCM24kToMulaw8k(in []byte) []byte {
	samples := len(in) / 2
	out := make([]byte, 0, samples/3+1)
	for i := 0; i < samples; i += 3 {
		s := int16(uint16(in[2*i]) | uint16(in[2*i+1])<<8)
		out = append(out, EncodeSample(s))
	}
	return out
}
