package audio

import "math"

// Resample converts a buffer to a new sample rate with linear
// interpolation. Soundscapes render at 44.1kHz but the streaming edge
// speaks 48kHz (the Opus rates), so a rendered session is resampled once
// on enqueue. Linear interpolation is enough for slow ambient material;
// there is no content near Nyquist worth a polyphase kernel.
func Resample(b *Buffer, targetRate int) *Buffer {
	if b.Rate == targetRate || b.Frames() == 0 {
		return b
	}
	ratio := float64(b.Rate) / float64(targetRate)
	outFrames := int(math.Round(float64(b.Frames()) / ratio))
	out := &Buffer{Rate: targetRate, Data: make([][]float64, b.Channels())}
	for ch := range b.Data {
		src := b.Data[ch]
		dst := make([]float64, outFrames)
		for i := range dst {
			pos := float64(i) * ratio
			idx := int(pos)
			if idx >= len(src)-1 {
				dst[i] = src[len(src)-1]
				continue
			}
			frac := pos - float64(idx)
			dst[i] = src[idx]*(1-frac) + src[idx+1]*frac
		}
		out.Data[ch] = dst
	}
	return out
}
