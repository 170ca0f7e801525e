// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand defines the name and frequency range for an energy band.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands splits the spectrum into six bands, the top one ending at
// the Nyquist frequency for sampleRate.
func DefaultBands(sampleRate float64) []FrequencyBand {
	return []FrequencyBand{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: sampleRate / 2},
	}
}

// BandEnergies returns the RMS magnitude of each band, keyed by name, from
// the provider's latest spectrum. Bands with no bins report 0.
func BandEnergies(provider FFTResultProvider, bands []FrequencyBand) map[string]float64 {
	return bandEnergies(provider, provider.GetMagnitudes(), bands)
}

func bandEnergies(provider FFTResultProvider, magnitudes []float64, bands []FrequencyBand) map[string]float64 {
	energy := make([]float64, len(bands))
	count := make([]int, len(bands))

	for i, m := range magnitudes {
		freq := provider.GetFrequencyForBin(i)
		for b, band := range bands {
			if freq >= band.LowHz && freq < band.HighHz {
				energy[b] += m * m
				count[b]++
				break
			}
		}
	}

	out := make(map[string]float64, len(bands))
	for b, band := range bands {
		if count[b] > 0 {
			out[band.Name] = math.Sqrt(energy[b] / float64(count[b]))
		} else {
			out[band.Name] = 0
		}
	}
	return out
}
