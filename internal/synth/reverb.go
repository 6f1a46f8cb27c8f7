package synth

import (
	"math"

	"github.com/lunareve/stillwave/internal/audio"
)

// Reverb defaults used by the engine's master send.
const (
	defaultReverbTail  = 3.0
	defaultReverbDecay = 2.0
	defaultReverbSend  = 0.25
)

// BuildKernel generates a synthetic convolution impulse response:
// white noise with a polynomial decay envelope, filled independently per
// channel so the stereo tail decorrelates naturally.
func BuildKernel(rnd Rand, channels, sampleRate int, tailSeconds, decayExponent float64) (*audio.Buffer, error) {
	frames := int(float64(sampleRate) * tailSeconds)
	kernel, err := audio.NewBuffer(channels, frames, sampleRate)
	if err != nil {
		return nil, err
	}
	for ch := range kernel.Data {
		data := kernel.Data[ch]
		n := float64(len(data))
		for i := range data {
			env := math.Pow(1-float64(i)/n, decayExponent)
			data[i] = (rnd.Float64()*2 - 1) * env
		}
	}
	return kernel, nil
}
