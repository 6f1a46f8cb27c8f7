package wav

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/lunareve/stillwave/internal/audio"
)

func sineBuffer(t *testing.T, channels, frames, rate int) *audio.Buffer {
	t.Helper()
	b, err := audio.NewBuffer(channels, frames, rate)
	if err != nil {
		t.Fatalf("NewBuffer error: %v", err)
	}
	for ch := range b.Data {
		for i := range b.Data[ch] {
			b.Data[ch][i] = 0.6 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		}
	}
	return b
}

// --- Encode header ---

func TestEncodeHeaderLayout(t *testing.T) {
	b := sineBuffer(t, 2, 100, 44100)
	data, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	if len(data) != 44+100*2*2 {
		t.Fatalf("Encoded length = %d, want %d", len(data), 44+400)
	}
	if string(data[0:4]) != "RIFF" {
		t.Errorf("Missing RIFF marker: %q", data[0:4])
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(len(data)-8) {
		t.Errorf("RIFF size = %d, want %d", got, len(data)-8)
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("Missing WAVE marker: %q", data[8:12])
	}
	if string(data[12:16]) != "fmt " {
		t.Errorf("Missing fmt chunk: %q", data[12:16])
	}
	if got := binary.LittleEndian.Uint32(data[16:20]); got != 16 {
		t.Errorf("fmt chunk size = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint16(data[20:22]); got != 1 {
		t.Errorf("Format tag = %d, want 1 (integer PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
		t.Errorf("Channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 44100 {
		t.Errorf("Sample rate = %d, want 44100", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 44100*2*2 {
		t.Errorf("Byte rate = %d, want %d", got, 44100*4)
	}
	if got := binary.LittleEndian.Uint16(data[32:34]); got != 4 {
		t.Errorf("Block align = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != 16 {
		t.Errorf("Bits per sample = %d, want 16", got)
	}
	if string(data[36:40]) != "data" {
		t.Errorf("Missing data chunk: %q", data[36:40])
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 400 {
		t.Errorf("Data length = %d, want 400", got)
	}
}

func TestEncodeZeroFrames(t *testing.T) {
	b, _ := audio.NewBuffer(2, 0, 44100)
	data, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode of zero-frame buffer error: %v", err)
	}
	if len(data) != 44 {
		t.Errorf("Zero-frame encoding = %d bytes, want 44 (header only)", len(data))
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 0 {
		t.Errorf("Data length = %d, want 0", got)
	}
}

func TestEncodeInvalid(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("Encode(nil) should fail")
	}
	bad := &audio.Buffer{Rate: 44100, Data: [][]float64{{}, {}, {}}}
	if _, err := Encode(bad); err == nil {
		t.Error("Encode with 3 channels should fail")
	}
	bad2 := &audio.Buffer{Rate: 0, Data: [][]float64{{0}}}
	if _, err := Encode(bad2); err == nil {
		t.Error("Encode with zero rate should fail")
	}
}

// --- Round trip ---

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := sineBuffer(t, 2, 500, 44100)
	data, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if back.Rate != orig.Rate {
		t.Errorf("Rate = %d, want %d", back.Rate, orig.Rate)
	}
	if back.Channels() != orig.Channels() || back.Frames() != orig.Frames() {
		t.Fatalf("Shape = %dch x %d, want %dch x %d",
			back.Channels(), back.Frames(), orig.Channels(), orig.Frames())
	}
	for ch := range orig.Data {
		for i := range orig.Data[ch] {
			if diff := math.Abs(back.Data[ch][i] - orig.Data[ch][i]); diff > 1.0/32767 {
				t.Fatalf("ch%d[%d] diff %v exceeds 1 LSB", ch, i, diff)
			}
		}
	}
}

func TestRoundTripExtremes(t *testing.T) {
	b, _ := audio.NewBuffer(1, 4, 8000)
	b.Data[0] = []float64{1, -1, 0, 0.5}
	data, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if back.Data[0][0] != 1 {
		t.Errorf("+1.0 round trip = %v, want 1", back.Data[0][0])
	}
	if back.Data[0][1] != -1 {
		t.Errorf("-1.0 round trip = %v, want -1", back.Data[0][1])
	}
	if back.Data[0][2] != 0 {
		t.Errorf("0 round trip = %v, want 0", back.Data[0][2])
	}
}

// --- Decode robustness ---

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Error("Decode(nil) should fail")
	}
	if _, err := Decode([]byte("not a wav file at all, sorry")); err == nil {
		t.Error("Decode of non-WAV bytes should fail")
	}
}

func TestDecodeRejectsFloatFormat(t *testing.T) {
	b := sineBuffer(t, 1, 10, 8000)
	data, _ := Encode(b)
	binary.LittleEndian.PutUint16(data[20:22], 3) // IEEE float tag
	if _, err := Decode(data); err == nil {
		t.Error("Decode should reject non-integer PCM")
	}
}

func TestDecodeSkipsExtraChunks(t *testing.T) {
	b := sineBuffer(t, 1, 10, 8000)
	data, _ := Encode(b)

	// Splice a LIST chunk between fmt and data.
	list := make([]byte, 8+6)
	copy(list[0:4], "LIST")
	binary.LittleEndian.PutUint32(list[4:8], 6)
	spliced := append([]byte{}, data[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, data[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	back, err := Decode(spliced)
	if err != nil {
		t.Fatalf("Decode with extra chunk error: %v", err)
	}
	if back.Frames() != 10 {
		t.Errorf("Frames = %d, want 10", back.Frames())
	}
}

func TestDecodeStreamHeader(t *testing.T) {
	// A stream header followed by PCM decodes until the actual end of
	// data even though the declared size is open-ended.
	h := StreamHeader(2, 48000)
	pcm := audio.SamplesToBytes([]int16{100, -100, 200, -200})
	back, err := Decode(append(h, pcm...))
	if err != nil {
		t.Fatalf("Decode of stream layout error: %v", err)
	}
	if back.Frames() != 2 {
		t.Errorf("Frames = %d, want 2", back.Frames())
	}
	if back.Rate != 48000 || back.Channels() != 2 {
		t.Errorf("Shape = %dHz %dch, want 48000Hz 2ch", back.Rate, back.Channels())
	}
}

// --- StreamHeader ---

func TestStreamHeader(t *testing.T) {
	h := StreamHeader(2, 48000)
	if len(h) != 44 {
		t.Fatalf("StreamHeader length = %d, want 44", len(h))
	}
	if string(h[0:4]) != "RIFF" || string(h[36:40]) != "data" {
		t.Error("StreamHeader missing RIFF/data markers")
	}
	if got := binary.LittleEndian.Uint32(h[24:28]); got != 48000 {
		t.Errorf("Sample rate = %d, want 48000", got)
	}
	dataLen := binary.LittleEndian.Uint32(h[40:44])
	if dataLen < 0xFFFF0000 {
		t.Errorf("Stream data length = %d, should be near-maximal", dataLen)
	}
}
