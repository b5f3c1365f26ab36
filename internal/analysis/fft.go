package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Pad zero-pads data to the next power of two.
func Pad(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)
	return padded
}

// PowerSpectrum pads data and returns the magnitudes of the lower half of
// its transform. Bin i is at frequency i / (len(Pad(data)) * dt).
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(Pad(data))
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}
