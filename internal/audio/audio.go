// Package audio holds the sample buffer type shared by the synthesis,
// mixing, and encoding stages, plus the PCM conversion helpers used at
// the streaming edge.
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// Streaming constants: every live listener receives 20ms stereo
	// frames at 48kHz regardless of the rate a soundscape was rendered at.
	StreamRate     = 48000
	StreamChannels = 2
	FrameDuration  = 20 * time.Millisecond
	FrameSize      = 960                        // samples per channel per 20ms frame
	FrameSamples   = FrameSize * StreamChannels // total interleaved samples per frame
	FrameBytes     = FrameSamples * 2           // bytes per frame (int16 = 2 bytes)

	// DefaultRenderRate is the canonical offline render rate.
	DefaultRenderRate = 44100
)

// MaxBufferBytes caps a single render allocation. Requests above the cap
// fail with ErrBufferTooLarge instead of exhausting memory.
const MaxBufferBytes = 2 << 30

var (
	ErrInvalidDuration   = errors.New("audio: duration must be positive and finite")
	ErrInvalidSampleRate = errors.New("audio: sample rate must be positive")
	ErrBufferTooLarge    = errors.New("audio: buffer exceeds allocation limit")
	ErrChannelLayout     = errors.New("audio: channel layout must be mono or stereo")
)

// Buffer is a fully materialized multichannel sample buffer. Samples are
// normalized floats in [-1, 1]; each channel is a contiguous slice of the
// same length. A Buffer is produced whole by a renderer and never mutated
// by later stages.
type Buffer struct {
	Rate int
	Data [][]float64
}

// NewBuffer allocates a zero-filled buffer. It validates the channel
// layout and refuses allocations above MaxBufferBytes.
func NewBuffer(channels, frames, sampleRate int) (*Buffer, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrChannelLayout, channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if frames < 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrInvalidDuration, frames)
	}
	if int64(frames)*int64(channels)*8 > MaxBufferBytes {
		return nil, fmt.Errorf("%w: %d frames x %d channels", ErrBufferTooLarge, frames, channels)
	}
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}
	return &Buffer{Rate: sampleRate, Data: data}, nil
}

// Channels returns the channel count (1 or 2).
func (b *Buffer) Channels() int {
	return len(b.Data)
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.Rate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Rate)
}

// Clamp maps a sample into [-1, 1]. NaN and infinities become 0 so a
// rendered buffer can never carry non-finite values forward.
func Clamp(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// ToPCM16 converts a float sample to signed 16-bit using asymmetric
// scaling: the negative side spans the full -32768 while the positive
// side stops at 32767, so +1.0 never overflows. The mapping is part of
// the container contract; do not switch to a symmetric scale.
func ToPCM16(x float64) int16 {
	x = Clamp(x)
	if x < 0 {
		return int16(x * 32768)
	}
	return int16(x * 32767)
}

// FromPCM16 inverts ToPCM16 within 1 LSB.
func FromPCM16(s int16) float64 {
	if s < 0 {
		return float64(s) / 32768
	}
	return float64(s) / 32767
}

// Interleave converts a buffer to interleaved int16 samples. Mono buffers
// are duplicated into both output channels when stereo is requested.
func Interleave(b *Buffer, channels int) []int16 {
	frames := b.Frames()
	out := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			src := ch
			if src >= b.Channels() {
				src = 0
			}
			out[i*channels+ch] = ToPCM16(b.Data[src][i])
		}
	}
	return out
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(uint16(s))
		buf[i*2+1] = byte(uint16(s) >> 8)
	}
	return buf
}

// RMS returns the root-mean-square energy of a sample slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
