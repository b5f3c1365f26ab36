// Package analysis inspects recorded runs.
//
// The package works on the rows stored by [storage.Store]:
//
//   - [PowerSpectrum]: magnitude spectrum of a uniformly sampled series
//   - [DominantFrequency]: strongest non-zero frequency of a series
//   - [PhasePortrait]: position against velocity for one object and axis
//
// # Oscillation
//
// A swinging body shows up as a clear spectral peak:
//
//	times, xs := storage.Series(rows, "link-3", 0)
//	hz, ok := analysis.DominantFrequency(xs, times[1]-times[0])
package analysis
