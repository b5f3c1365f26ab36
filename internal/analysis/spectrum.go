package analysis

import (
	"github.com/samber/lo"
)

// DominantFrequency returns the frequency in Hz of the strongest spectral
// bin above zero. The mean is removed first so a resting offset does not
// count. ok is false for flat or too-short series.
func DominantFrequency(values []float64, dt float64) (float64, bool) {
	if len(values) < 4 || dt <= 0 {
		return 0, false
	}
	mean := lo.Sum(values) / float64(len(values))
	centred := lo.Map(values, func(v float64, _ int) float64 { return v - mean })

	ps := PowerSpectrum(centred)
	best, bestIdx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, bestIdx = ps[i], i
		}
	}
	if bestIdx == 0 || best < 1e-12 {
		return 0, false
	}
	n := len(Pad(centred))
	return float64(bestIdx) / (float64(n) * dt), true
}
