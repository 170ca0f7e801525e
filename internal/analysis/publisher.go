// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"time"

	"pipeline/internal/transport"
)

// Frame is one spectrum update as sent to clients.
type Frame struct {
	Type       string             `json:"type"` // Always "spectrum".
	SampleRate float64            `json:"sample_rate"`
	BinWidth   float64            `json:"bin_width"`
	Magnitudes []float64          `json:"magnitudes"`
	Bands      map[string]float64 `json:"bands"`
	Level      float64            `json:"level"`
}

// Publisher periodically sends Frames built from a spectrum provider.
type Publisher struct {
	provider  FFTResultProvider
	meter     *BeatDetector // optional
	bands     []FrequencyBand
	transport transport.Transport
}

// NewPublisher creates a publisher. meter may be nil.
func NewPublisher(provider FFTResultProvider, meter *BeatDetector, t transport.Transport) *Publisher {
	return &Publisher{
		provider:  provider,
		meter:     meter,
		bands:     DefaultBands(provider.GetSampleRate()),
		transport: t,
	}
}

// Frame builds a frame from the latest analysis.
func (p *Publisher) Frame() Frame {
	mags := p.provider.GetMagnitudes()
	f := Frame{
		Type:       "spectrum",
		SampleRate: p.provider.GetSampleRate(),
		BinWidth:   p.provider.GetSampleRate() / float64(p.provider.GetFFTSize()),
		Magnitudes: mags,
		Bands:      bandEnergies(p.provider, mags, p.bands),
	}
	if p.meter != nil {
		f.Level = p.meter.Level()
	}
	return f
}

// Run sends a frame every interval until ctx is done.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("publishing spectrum every %v", interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.transport.Send(p.Frame()); err != nil {
				logger.Warnf("publisher: send failed: %v", err)
			}
		}
	}
}
