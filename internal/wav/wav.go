// Package wav serializes sample buffers to the canonical little-endian
// PCM16 RIFF container and reads the same layout back. This is the only
// wire format the engine speaks; everything else is somebody else's
// transcode.
package wav

import (
	"encoding/binary"
	"fmt"

	"github.com/lunareve/stillwave/internal/audio"
)

const headerBytes = 44

// Encode serializes a buffer as 16-bit PCM WAV. Floats are clamped to
// [-1, 1] and scaled asymmetrically (x32768 negative, x32767 positive)
// so +1.0 cannot overflow. A zero-frame buffer encodes to a minimal
// valid header with an empty data chunk.
func Encode(b *audio.Buffer) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil buffer", audio.ErrChannelLayout)
	}
	channels := b.Channels()
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", audio.ErrChannelLayout, channels)
	}
	if b.Rate <= 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidSampleRate, b.Rate)
	}

	frames := b.Frames()
	dataLen := frames * channels * 2
	out := make([]byte, headerBytes+dataLen)
	writeHeader(out, channels, b.Rate, uint32(dataLen))

	off := headerBytes
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			s := audio.ToPCM16(b.Data[ch][i])
			binary.LittleEndian.PutUint16(out[off:], uint16(s))
			off += 2
		}
	}
	return out, nil
}

// StreamHeader returns a WAV header with maximal chunk sizes, suitable
// for prepending to a live PCM stream whose length is unknown. Decoders
// read such files until EOF.
func StreamHeader(channels, sampleRate int) []byte {
	h := make([]byte, headerBytes)
	writeHeader(h, channels, sampleRate, 0xFFFFFFFF-headerBytes+8)
	return h
}

func writeHeader(out []byte, channels, sampleRate int, dataLen uint32) {
	byteRate := uint32(sampleRate) * uint32(channels) * 2
	blockAlign := uint16(channels) * 2

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(headerBytes)+dataLen-8)
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // integer PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], byteRate)
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataLen)
}

// Decode parses a PCM16 WAV byte sequence back into a float buffer. It
// accepts the minimal subset this package writes (and what the voice
// collaborator returns): RIFF/WAVE, integer PCM, 16-bit, mono or stereo.
// Extra chunks between "fmt " and "data" are skipped.
func Decode(data []byte) (*audio.Buffer, error) {
	if len(data) < headerBytes-8 {
		return nil, fmt.Errorf("wav: truncated header (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wav: missing RIFF/WAVE marker")
	}

	var (
		channels   int
		sampleRate int
		haveFmt    bool
	)

	// Walk chunks.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body // tolerate streamed files with open-ended sizes
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wav: short fmt chunk (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("wav: unsupported format %d (want integer PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != 16 {
				return nil, fmt.Errorf("wav: unsupported bit depth %d", bits)
			}
			if channels < 1 || channels > 2 {
				return nil, fmt.Errorf("%w: %d channels", audio.ErrChannelLayout, channels)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("wav: data chunk before fmt chunk")
			}
			return decodeData(data[body:body+size], channels, sampleRate)
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}
	return nil, fmt.Errorf("wav: no data chunk")
}

func decodeData(pcm []byte, channels, sampleRate int) (*audio.Buffer, error) {
	sampleCount := len(pcm) / 2
	frames := sampleCount / channels
	buf, err := audio.NewBuffer(channels, frames, sampleRate)
	if err != nil {
		return nil, err
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			s := int16(binary.LittleEndian.Uint16(pcm[(i*channels+ch)*2:]))
			buf.Data[ch][i] = audio.FromPCM16(s)
		}
	}
	return buf, nil
}
