package synth

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// fft computes an in-place radix-2 Cooley-Tukey transform. len(a) must
// be a power of two. invert selects the inverse transform (including the
// 1/n scaling).
func fft(a []complex128, invert bool) {
	n := len(a)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	shift := bits.UintSize - uint(bits.Len(uint(n-1)))
	for i := 1; i < n; i++ {
		j := int(bits.Reverse(uint(i)) >> shift)
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		angle := 2 * math.Pi / float64(length)
		if invert {
			angle = -angle
		}
		wl := cmplx.Exp(complex(0, angle))
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				u := a[start+k]
				v := a[start+k+half] * w
				a[start+k] = u + v
				a[start+k+half] = u - v
				w *= wl
			}
		}
	}

	if invert {
		inv := complex(1/float64(n), 0)
		for i := range a {
			a[i] *= inv
		}
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// convolve returns the first outLen samples of x convolved with kernel h,
// using FFT overlap-add so a multi-second reverb tail stays O(n log n).
// The naive form is quadratic and unusable at 44.1kHz with a 3s kernel.
func convolve(x, h []float64, outLen int) []float64 {
	out := make([]float64, outLen)
	if len(x) == 0 || len(h) == 0 || outLen == 0 {
		return out
	}

	fftSize := nextPow2(2 * len(h))
	blockLen := fftSize - len(h) + 1

	// Kernel spectrum, computed once.
	hf := make([]complex128, fftSize)
	for i, v := range h {
		hf[i] = complex(v, 0)
	}
	fft(hf, false)

	block := make([]complex128, fftSize)
	for start := 0; start < len(x) && start < outLen; start += blockLen {
		end := start + blockLen
		if end > len(x) {
			end = len(x)
		}
		for i := range block {
			block[i] = 0
		}
		for i, v := range x[start:end] {
			block[i] = complex(v, 0)
		}
		fft(block, false)
		for i := range block {
			block[i] *= hf[i]
		}
		fft(block, true)

		for i := 0; i < fftSize; i++ {
			idx := start + i
			if idx >= outLen {
				break
			}
			out[idx] += real(block[i])
		}
	}
	return out
}
