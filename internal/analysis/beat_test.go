// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"pipeline/pkg/utils"
)

func constBlock(v float64) []float64 {
	b := make([]float64, 128)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestBeatDetector(t *testing.T) {
	mock := &utils.MockTransport{}
	d := NewBeatDetector(0.1, 1.5, 2, mock)

	levels := []float64{0, 0.5, 0.5, 0.5, 0.5, 0, 0.05, 0.6, 0.9}
	for _, v := range levels {
		d.Process(constBlock(v))
	}

	// 0.5 after silence, then 0.6 after 0.05. 0.9 falls in the cooldown.
	if got := d.Beats(); got != 2 {
		t.Errorf("Beats() = %d, want 2", got)
	}
	sent := mock.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d events, want 2", len(sent))
	}
	ev, ok := sent[1].(Event)
	if !ok || ev.Name != "beat" || ev.Type != "event" || math.Abs(ev.Level-0.6) > 1e-12 {
		t.Errorf("second event = %#v", sent[1])
	}
	if got := d.Level(); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("Level() = %v, want 0.9", got)
	}
}

func TestBeatDetectorNilTransport(t *testing.T) {
	d := NewBeatDetector(0.1, 1.5, 0, nil)
	d.Process(constBlock(0.8))
	if d.Beats() != 1 {
		t.Errorf("Beats() = %d, want 1", d.Beats())
	}
}

func TestCalculateRMS(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"constant", constBlock(-0.5), 0.5},
		{"sine", utils.GenerateSineWave(8000, 8000, 100), 0.9 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateRMS(tt.in); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("calculateRMS() = %v, want %v", got, tt.want)
			}
		})
	}
}
