package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lunareve/stillwave/internal/audio"
)

// Master bus constants: a 0.05Hz sine "breathing" LFO swings the master
// gain +-0.1 around a 0.5 base so the soundscape never sits still.
const (
	breathRateHz  = 0.05
	breathBase    = 0.5
	breathDepth   = 0.1
	sparkleGainHi = 0.02
	sparkleGainLo = 0.001
)

// Rand is the random source the engine draws from for detune jitter,
// noise fill, sparkle gating, and reverb kernels. Production engines use
// the process-global generator (renders are intentionally not
// reproducible); tests inject a seeded one.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Engine renders soundscape profiles offline. An Engine is safe for
// concurrent renders: every render allocates its own buffers and filter
// state, and the default random source is goroutine-safe.
type Engine struct {
	rnd        Rand
	reverbTail float64
	reverbSend float64
}

// NewEngine returns an engine with the unseeded process random source.
func NewEngine() *Engine {
	return NewEngineWithRand(globalRand{})
}

// NewEngineWithRand returns an engine drawing from rnd. Tests pass a
// seeded generator for deterministic fixtures.
func NewEngineWithRand(rnd Rand) *Engine {
	return &Engine{
		rnd:        rnd,
		reverbTail: defaultReverbTail,
		reverbSend: defaultReverbSend,
	}
}

// SetReverbTail overrides the reverb kernel length in seconds.
func (e *Engine) SetReverbTail(seconds float64) {
	if seconds > 0 {
		e.reverbTail = seconds
	}
}

// Render synthesizes a stereo soundscape for the given profile. The
// returned buffer has exactly round(sampleRate*durationSeconds) frames
// per channel, every sample finite and clamped to [-1, 1].
//
// Rendering is blocking, CPU-bound work proportional to duration and
// source count; callers wanting a future should use RenderAsync. ctx is
// checked between pipeline stages only (coarse cancellation) -- there is
// no partially written shared state to unwind, the in-flight buffer is
// simply dropped.
func (e *Engine) Render(ctx context.Context, p Profile, durationSeconds float64, sampleRate int) (*audio.Buffer, error) {
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return nil, fmt.Errorf("%w: %v", audio.ErrInvalidDuration, durationSeconds)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidSampleRate, sampleRate)
	}

	frames := int(math.Round(durationSeconds * float64(sampleRate)))
	master, err := audio.NewBuffer(2, frames, sampleRate)
	if err != nil {
		return nil, err
	}

	for _, src := range p.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.renderSource(src, master)
	}

	applyBreathing(master)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.applyReverb(master); err != nil {
		return nil, err
	}

	for ch := range master.Data {
		data := master.Data[ch]
		for i := range data {
			data[i] = audio.Clamp(data[i])
		}
	}
	return master, nil
}

// RenderResult carries the outcome of an asynchronous render.
type RenderResult struct {
	Buffer *audio.Buffer
	Err    error
}

// RenderAsync runs Render on its own goroutine and returns a buffered
// result channel. Abandoning the channel abandons the render's output;
// cancel ctx to stop the work itself.
func (e *Engine) RenderAsync(ctx context.Context, p Profile, durationSeconds float64, sampleRate int) <-chan RenderResult {
	out := make(chan RenderResult, 1)
	go func() {
		buf, err := e.Render(ctx, p, durationSeconds, sampleRate)
		out <- RenderResult{Buffer: buf, Err: err}
	}()
	return out
}

// renderSource synthesizes one voice and sums it into the master bus.
// This is the single generic interpreter for every profile: source kind,
// filter, detune, pan, and sparkle stages all come from Source fields.
func (e *Engine) renderSource(src Source, out *audio.Buffer) {
	sr := float64(out.Rate)
	frames := out.Frames()
	dt := 1 / sr

	// Per-render randomness, sampled once per source.
	freq := src.Freq
	if src.DetuneCents != 0 {
		cents := (e.rnd.Float64()*2 - 1) * src.DetuneCents
		freq *= math.Exp2(cents / 1200)
	}
	var panRate float64
	if src.PanLFOMaxHz > 0 {
		panRate = src.PanLFOMinHz + e.rnd.Float64()*(src.PanLFOMaxHz-src.PanLFOMinHz)
	}
	sparkle := src.Sparkle && e.rnd.Float64() < 0.5

	var lp audio.Lowpass
	if src.LowpassHz > 0 {
		lp = audio.NewLowpass(src.LowpassHz, sr)
	}
	var pink pinkFilter

	phase := 0.0
	harmPhase := 0.0
	stepFreq := 0.0
	stepLen := int(src.StepSeconds * sr)
	total := float64(frames)

	gl, gr := panGains(src.Pan)

	for i := 0; i < frames; i++ {
		var s float64
		switch src.Kind {
		case Osc:
			s = oscSample(src.Wave, phase) * src.Gain
			phase += freq * dt
		case StepOsc:
			if stepLen > 0 && i%stepLen == 0 {
				stepFreq = src.StepFreqs[e.intn(len(src.StepFreqs))]
			}
			s = oscSample(src.Wave, phase) * src.Gain
			phase += stepFreq * dt
		case Noise:
			w := e.rnd.Float64()*2 - 1
			if src.Pink {
				w = pink.next(w)
			}
			s = w * src.NoiseAmp * src.Gain
		}

		if sparkle {
			// Harmonic an octave up, fading from 0.02 to 0.001 over the
			// whole render.
			g := sparkleGainHi * math.Pow(sparkleGainLo/sparkleGainHi, float64(i)/total)
			s += math.Sin(2*math.Pi*harmPhase) * g
			harmPhase += 2 * freq * dt
		}

		if src.LowpassHz > 0 {
			s = lp.Process(s)
		}

		if panRate > 0 {
			gl, gr = panGains(math.Sin(2 * math.Pi * panRate * float64(i) * dt))
		}
		out.Data[0][i] += s * gl
		out.Data[1][i] += s * gr
	}
}

// applyBreathing modulates the master bus with the slow gain LFO.
func applyBreathing(b *audio.Buffer) {
	sr := float64(b.Rate)
	for i := 0; i < b.Frames(); i++ {
		g := breathBase + breathDepth*math.Sin(2*math.Pi*breathRateHz*float64(i)/sr)
		for ch := range b.Data {
			b.Data[ch][i] *= g
		}
	}
}

// applyReverb convolves the master with a fresh decaying-noise kernel and
// mixes the wet signal back into the bus. The kernel is energy-normalized
// before the send gain so tail length never changes loudness.
func (e *Engine) applyReverb(b *audio.Buffer) error {
	kernel, err := BuildKernel(e.rnd, b.Channels(), b.Rate, e.reverbTail, defaultReverbDecay)
	if err != nil {
		return err
	}
	for ch := range b.Data {
		h := kernel.Data[ch]
		var energy float64
		for _, v := range h {
			energy += v * v
		}
		if energy > 0 {
			scale := 1 / math.Sqrt(energy)
			for i := range h {
				h[i] *= scale
			}
		}
		wet := convolve(b.Data[ch], h, b.Frames())
		for i := range b.Data[ch] {
			b.Data[ch][i] += wet[i] * e.reverbSend
		}
	}
	return nil
}

func (e *Engine) intn(n int) int {
	i := int(e.rnd.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// oscSample evaluates a waveform at a phase expressed in cycles.
func oscSample(w Waveform, phase float64) float64 {
	frac := phase - math.Floor(phase)
	switch w {
	case Sine:
		return math.Sin(2 * math.Pi * frac)
	case Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*frac - 1
	case Triangle:
		return 1 - 4*math.Abs(frac-0.5)
	}
	return 0
}

// panGains maps a pan position in [-1, 1] to equal-power channel gains.
func panGains(pan float64) (left, right float64) {
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// pinkFilter is Kellet's economy pink-noise approximation: three leaky
// integrators over a white input, summed with a direct tap.
type pinkFilter struct {
	b0, b1, b2 float64
}

func (p *pinkFilter) next(white float64) float64 {
	p.b0 = 0.99765*p.b0 + white*0.0990460
	p.b1 = 0.96300*p.b1 + white*0.2965164
	p.b2 = 0.57000*p.b2 + white*1.0526913
	return (p.b0 + p.b1 + p.b2 + white*0.1848) * 0.2
}
