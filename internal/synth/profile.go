// Package synth renders procedural ambient soundscapes offline. Every
// sound is built from oscillators, noise, and filters; there are no
// sample assets anywhere in the engine.
package synth

import "strings"

// Waveform selects an oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

// SourceKind selects how a source produces its mono signal before the
// pan and filter stages.
type SourceKind int

const (
	// Osc is a fixed-frequency oscillator.
	Osc SourceKind = iota
	// StepOsc re-samples its frequency from StepFreqs every StepSeconds,
	// holding phase continuous across steps.
	StepOsc
	// Noise fills with a random signal of amplitude NoiseAmp.
	Noise
)

// Source describes one voice in a soundscape recipe. The zero value of
// every optional field means "stage bypassed": LowpassHz 0 skips the
// filter, DetuneCents 0 skips the jitter, PanLFOMaxHz 0 pins the pan.
type Source struct {
	Kind SourceKind
	Wave Waveform

	Freq        float64 // oscillator frequency, Hz
	Gain        float64
	Pan         float64 // -1 hard left .. +1 hard right
	DetuneCents float64 // random detune range, +-cents, sampled per render
	LowpassHz   float64 // one-pole low-pass cutoff, 0 = bypass

	// Slow auto-pan: the pan position follows a sine LFO whose rate is
	// sampled uniformly from [PanLFOMinHz, PanLFOMaxHz] per render.
	PanLFOMinHz float64
	PanLFOMaxHz float64

	// Sparkle adds, with 50% probability per render, a harmonic at twice
	// Freq whose gain decays exponentially from 0.02 to 0.001 over the
	// full duration.
	Sparkle bool

	NoiseAmp float64 // noise amplitude (Kind == Noise)
	Pink     bool    // pink-weighted noise instead of uniform white

	StepFreqs   []float64 // note set for StepOsc
	StepSeconds float64   // hold time per step
}

// Style tags the closed set of soundscape recipes.
type Style int

const (
	StyleWitch Style = iota
	StyleCrystal
	StyleAmbient
	StyleBinaural
	StyleEightbit
	StyleNoise
)

// Profile is an immutable soundscape recipe: a tagged style plus the
// full source topology. The constants below are contractual; the render
// interpreter in engine.go carries no per-style wiring of its own.
type Profile struct {
	Style   Style
	Name    string
	Sources []Source
}

func witchProfile() Profile {
	// Three detuned sawtooths an octave apart, darkened to 300Hz.
	src := func(freq float64) Source {
		return Source{
			Kind:        Osc,
			Wave:        Sawtooth,
			Freq:        freq,
			Gain:        0.15,
			DetuneCents: 5,
			LowpassHz:   300,
		}
	}
	return Profile{
		Style:   StyleWitch,
		Name:    "witch drone",
		Sources: []Source{src(55), src(110), src(164.81)},
	}
}

func crystalProfile() Profile {
	// C major arpeggio tones, alternating hard pan, optional sparkle
	// harmonic per tone.
	freqs := []float64{523.25, 659.25, 783.99, 1046.50}
	sources := make([]Source, len(freqs))
	for i, f := range freqs {
		pan := 0.5
		if i%2 == 1 {
			pan = -0.5
		}
		sources[i] = Source{
			Kind:    Osc,
			Wave:    Sine,
			Freq:    f,
			Gain:    0.04,
			Pan:     pan,
			Sparkle: true,
		}
	}
	return Profile{Style: StyleCrystal, Name: "crystal bells", Sources: sources}
}

func ambientProfile() Profile {
	src := func(freq float64) Source {
		return Source{
			Kind:        Osc,
			Wave:        Triangle,
			Freq:        freq,
			Gain:        0.08,
			LowpassHz:   600,
			PanLFOMinHz: 0.1,
			PanLFOMaxHz: 0.2,
		}
	}
	return Profile{
		Style: StyleAmbient,
		Name:  "ambient pad",
		Sources: []Source{
			src(110), src(130.81), src(164.81), src(196.00), src(220),
		},
	}
}

func binauralProfile() Profile {
	// 200/204Hz hard-panned sines give a 4Hz beat between the ears,
	// floated on a whisper of pink noise.
	return Profile{
		Style: StyleBinaural,
		Name:  "binaural theta",
		Sources: []Source{
			{Kind: Osc, Wave: Sine, Freq: 200, Gain: 0.15, Pan: -1},
			{Kind: Osc, Wave: Sine, Freq: 204, Gain: 0.15, Pan: 1},
			{Kind: Noise, NoiseAmp: 0.02, Pink: true, LowpassHz: 400, Gain: 1},
		},
	}
}

func eightbitProfile() Profile {
	return Profile{
		Style: StyleEightbit,
		Name:  "8bit arpeggio",
		Sources: []Source{
			{
				Kind:        StepOsc,
				Wave:        Square,
				Gain:        0.03,
				StepFreqs:   []float64{220, 261.63, 329.63, 392},
				StepSeconds: 0.4,
			},
		},
	}
}

func noiseProfile() Profile {
	return Profile{
		Style: StyleNoise,
		Name:  "soft noise",
		Sources: []Source{
			{Kind: Noise, NoiseAmp: 0.05, LowpassHz: 800, Gain: 1},
		},
	}
}

// styleMatchers is tested in order against the lowercased descriptor;
// the first keyword hit wins. A descriptor may legitimately satisfy
// several sets ("witch crystal dream"), so the ordering is contractual.
var styleMatchers = []struct {
	keywords []string
	build    func() Profile
}{
	{[]string{"witch", "女巫", "drone"}, witchProfile},
	{[]string{"crystal", "水晶", "bell"}, crystalProfile},
	{[]string{"ambient", "柔和", "pad"}, ambientProfile},
	{[]string{"binaural", "脑波", "theta"}, binauralProfile},
	{[]string{"8bit", "8-bit", "gameboy", "chiptune"}, eightbitProfile},
}

// Resolve matches a free-text style descriptor (any language, any case)
// against the recipe registry. Unmatched descriptors fall through to the
// soft-noise profile rather than failing.
func Resolve(descriptor string) Profile {
	d := strings.ToLower(descriptor)
	for _, m := range styleMatchers {
		for _, kw := range m.keywords {
			if strings.Contains(d, kw) {
				return m.build()
			}
		}
	}
	return noiseProfile()
}

// StyleNames returns the display names of all registry profiles, matcher
// order first, fallback last.
func StyleNames() []string {
	names := make([]string, 0, len(styleMatchers)+1)
	for _, m := range styleMatchers {
		names = append(names, m.build().Name)
	}
	return append(names, noiseProfile().Name)
}
