// Package mix blends a rendered soundscape with an optional narration
// track under three perceptibility regimes. The regime constants are
// contractual: downstream consumers assert the specific gain ratios, so
// they must never be retuned silently.
package mix

import (
	"fmt"
	"math"

	"github.com/lunareve/stillwave/internal/audio"
)

// Mode selects how audible the narration is against the soundscape.
type Mode int

const (
	// Conscious keeps narration clearly audible over quiet music.
	Conscious Mode = iota
	// Subliminal keeps narration technically present but below the
	// music's masking threshold: near-silent gain plus a gentle top-cut.
	Subliminal
	// Silent pushes narration almost entirely below 200Hz, destroying
	// intelligibility while preserving its spectral energy.
	Silent
)

// staging is a mode's gain and filter triple.
type staging struct {
	narrationGain float64
	narrationLP   float64 // low-pass cutoff in Hz, 0 = no filter
	musicGain     float64
}

var stagings = map[Mode]staging{
	Conscious:  {narrationGain: 0.5, narrationLP: 0, musicGain: 0.3},
	Subliminal: {narrationGain: 0.015, narrationLP: 8000, musicGain: 0.6},
	Silent:     {narrationGain: 0.01, narrationLP: 200, musicGain: 0.8},
}

func (m Mode) String() string {
	switch m {
	case Conscious:
		return "conscious"
	case Subliminal:
		return "subliminal"
	case Silent:
		return "silent"
	}
	return "unknown"
}

// ParseMode resolves a mode name. Unknown names fail rather than
// defaulting, since the modes are perceptually very different.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "conscious":
		return Conscious, nil
	case "subliminal":
		return Subliminal, nil
	case "silent":
		return Silent, nil
	}
	return Conscious, fmt.Errorf("mix: unknown mode %q", s)
}

// Mix loops music (and narration, when present) to the target duration
// and sums them under the mode's gain staging. Both inputs wrap
// sample-exact: index i of the music contribution equals index
// i+len(music), with no discontinuity introduced at the seam. Shorter
// inputs are looped, never padded, so the breathing ambience stays
// continuous.
//
// A nil narration yields the music scaled by the mode's music gain.
func Mix(music, narration *audio.Buffer, mode Mode, targetSeconds float64) (*audio.Buffer, error) {
	if targetSeconds <= 0 || math.IsNaN(targetSeconds) || math.IsInf(targetSeconds, 0) {
		return nil, fmt.Errorf("%w: %v", audio.ErrInvalidDuration, targetSeconds)
	}
	if music == nil || music.Frames() == 0 {
		return nil, fmt.Errorf("mix: empty music buffer")
	}
	st, ok := stagings[mode]
	if !ok {
		return nil, fmt.Errorf("mix: unknown mode %d", mode)
	}

	rate := music.Rate
	frames := int(math.Round(targetSeconds * float64(rate)))
	out, err := audio.NewBuffer(2, frames, rate)
	if err != nil {
		return nil, err
	}

	musicFrames := music.Frames()
	for i := 0; i < frames; i++ {
		mi := i % musicFrames
		for ch := 0; ch < 2; ch++ {
			src := ch
			if src >= music.Channels() {
				src = 0
			}
			out.Data[ch][i] = music.Data[src][mi] * st.musicGain
		}
	}

	if narration != nil && narration.Frames() > 0 {
		narr := prepareNarration(narration, rate, st)
		narrFrames := narr.Frames()
		for i := 0; i < frames; i++ {
			ni := i % narrFrames
			for ch := 0; ch < 2; ch++ {
				src := ch
				if src >= narr.Channels() {
					src = 0
				}
				out.Data[ch][i] += narr.Data[src][ni] * st.narrationGain
			}
		}
	}

	for ch := range out.Data {
		for i := range out.Data[ch] {
			out.Data[ch][i] = audio.Clamp(out.Data[ch][i])
		}
	}
	return out, nil
}

// prepareNarration resamples the narration to the music rate and applies
// the mode's low-pass masking filter. Filtering happens on the source
// before looping, so the loop point stays as continuous as the clip's
// own ends.
func prepareNarration(narration *audio.Buffer, rate int, st staging) *audio.Buffer {
	narr := audio.Resample(narration, rate)
	if st.narrationLP == 0 {
		return narr
	}
	filtered := &audio.Buffer{Rate: narr.Rate, Data: make([][]float64, narr.Channels())}
	for ch := range narr.Data {
		lp := audio.NewLowpass(st.narrationLP, float64(rate))
		dst := make([]float64, len(narr.Data[ch]))
		for i, x := range narr.Data[ch] {
			dst[i] = lp.Process(x)
		}
		filtered.Data[ch] = dst
	}
	return filtered
}
