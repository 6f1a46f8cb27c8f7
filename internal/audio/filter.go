package audio

import "math"

// Lowpass is a one-pole RC low-pass filter, the shared smoothing stage
// for synthesis voices and narration masking. Construct one per signal
// with NewLowpass; a zero-value Lowpass outputs silence.
type Lowpass struct {
	alpha float64
	y     float64
}

// NewLowpass returns a filter with the given cutoff at the given rate.
func NewLowpass(cutoffHz, sampleRate float64) Lowpass {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / sampleRate
	return Lowpass{alpha: dt / (rc + dt)}
}

// Process advances the filter by one sample.
func (f *Lowpass) Process(x float64) float64 {
	f.y += f.alpha * (x - f.y)
	return f.y
}
