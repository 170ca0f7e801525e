// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"

	"pipeline/internal/graph"
)

var (
	// ErrInvalidPosition is returned when an index is outside the chain.
	ErrInvalidPosition = errors.New("invalid chain position")
	// ErrNoSource is returned by Control when nothing has been loaded.
	ErrNoSource = errors.New("no source loaded")
	// ErrNilNode is returned when a nil handle is inserted.
	ErrNilNode = errors.New("nil node")
)

// Engine is the audio engine a Pipeline edits. *graph.Graph implements it.
type Engine interface {
	Filter(kind graph.FilterType) (graph.Node, error)
	Gain(level float64) (graph.Node, error)
	Delay(seconds float64) (graph.Node, error)
	Oscillator(waveform graph.Waveform) (graph.Node, error)
	Panner() (graph.Node, error)
	Shaper() (graph.Node, error)
	PeriodicOscillator(re, im []float64, c graph.WaveConstraints) (graph.Node, error)
	Destination() graph.Node
	Connect(from, to graph.Node) error
	Disconnect(from, to graph.Node) error
	Decode(ctx context.Context, data []byte) (graph.Source, error)
}

// Batcher is implemented by engines that can apply several edits as one
// step relative to rendering.
type Batcher interface {
	Batch(fn func() error) error
}

// Inspector is implemented by engines that can report existing links.
// Without it, rollback of a connect may sever a link that predated the edit.
type Inspector interface {
	Connected(from, to graph.Node) bool
}

// ParamSetter is implemented by engines that expose node parameters.
type ParamSetter interface {
	SetParam(n graph.Node, name string, value float64) error
}

var (
	_ Engine      = (*graph.Graph)(nil)
	_ Batcher     = (*graph.Graph)(nil)
	_ Inspector   = (*graph.Graph)(nil)
	_ ParamSetter = (*graph.Graph)(nil)
)
