// Package analysis provides spectral tools for recorded run series.
//
//   - [PowerSpectrum]: magnitude spectrum of a mean-removed series
//   - [DominantFrequency]: strongest oscillation in a series
//
// # Example
//
//	times, energy, _ := store.LoadSeries(runID)
//	freq, _ := analysis.DominantFrequency(energy, times[1]-times[0])
package analysis
