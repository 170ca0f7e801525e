// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"pipeline/internal/graph"
)

// fakeNode is a named handle owned by fakeEngine.
type fakeNode struct {
	name string
	kind graph.Kind
}

func (n *fakeNode) ID() string       { return n.name }
func (n *fakeNode) Kind() graph.Kind { return n.kind }

type fakeSource struct {
	fakeNode
	actions []string
}

func (s *fakeSource) Control(action string, args ...any) error {
	if action != "start" && action != "stop" {
		return fmt.Errorf("%w: %q", graph.ErrUnsupportedAction, action)
	}
	s.actions = append(s.actions, fmt.Sprint(action, args))
	return nil
}

func (s *fakeSource) Duration() time.Duration { return time.Second }
func (s *fakeSource) Playing() bool           { return false }

type link struct{ from, to string }

// fakeEngine records every connect and disconnect and tracks the links
// that currently exist.
type fakeEngine struct {
	links    map[link]bool
	calls    []string
	batches  int
	failOn   string
	created  int
	dest     *fakeNode
	params   map[string]float64
	decodeFn func([]byte) (graph.Source, error)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		links:  make(map[link]bool),
		dest:   &fakeNode{name: "dest", kind: graph.KindDestination},
		params: make(map[string]float64),
	}
}

func (e *fakeEngine) node(kind graph.Kind) *fakeNode {
	e.created++
	return &fakeNode{name: fmt.Sprintf("%s%d", kind, e.created), kind: kind}
}

func (e *fakeEngine) Filter(graph.FilterType) (graph.Node, error) {
	return e.node(graph.KindFilter), nil
}

func (e *fakeEngine) Gain(level float64) (graph.Node, error) {
	n := e.node(graph.KindGain)
	e.params[n.name+".gain"] = level
	return n, nil
}

func (e *fakeEngine) Delay(seconds float64) (graph.Node, error) {
	if seconds < 0 {
		return nil, graph.ErrParamRange
	}
	return e.node(graph.KindDelay), nil
}

func (e *fakeEngine) Oscillator(graph.Waveform) (graph.Node, error) {
	return e.node(graph.KindOscillator), nil
}

func (e *fakeEngine) Panner() (graph.Node, error) { return e.node(graph.KindPanner), nil }
func (e *fakeEngine) Shaper() (graph.Node, error) { return e.node(graph.KindShaper), nil }

func (e *fakeEngine) PeriodicOscillator(re, im []float64, _ graph.WaveConstraints) (graph.Node, error) {
	if len(re) != len(im) {
		return nil, graph.ErrWaveCoefficients
	}
	return e.node(graph.KindPeriodicOscillator), nil
}

func (e *fakeEngine) Destination() graph.Node { return e.dest }

func (e *fakeEngine) Connect(from, to graph.Node) error {
	call := "connect " + from.ID() + "->" + to.ID()
	if call == e.failOn {
		return errors.New("injected failure")
	}
	e.calls = append(e.calls, call)
	e.links[link{from.ID(), to.ID()}] = true
	return nil
}

func (e *fakeEngine) Disconnect(from, to graph.Node) error {
	call := "disconnect " + from.ID() + "->" + to.ID()
	if call == e.failOn {
		return errors.New("injected failure")
	}
	l := link{from.ID(), to.ID()}
	if !e.links[l] {
		return graph.ErrNotConnected
	}
	e.calls = append(e.calls, call)
	delete(e.links, l)
	return nil
}

func (e *fakeEngine) Connected(from, to graph.Node) bool {
	return e.links[link{from.ID(), to.ID()}]
}

func (e *fakeEngine) Batch(fn func() error) error {
	e.batches++
	return fn()
}

func (e *fakeEngine) SetParam(n graph.Node, name string, value float64) error {
	e.params[n.ID()+"."+name] = value
	return nil
}

func (e *fakeEngine) Decode(_ context.Context, data []byte) (graph.Source, error) {
	if e.decodeFn != nil {
		return e.decodeFn(data)
	}
	if string(data) != "audio" {
		return nil, fmt.Errorf("%w: bad payload", graph.ErrDecode)
	}
	return &fakeSource{fakeNode: fakeNode{name: "src", kind: graph.KindSource}}, nil
}

// linkSet returns the current links sorted, e.g. "a->b".
func (e *fakeEngine) linkSet() []string {
	var out []string
	for l := range e.links {
		out = append(out, l.from+"->"+l.to)
	}
	slices.Sort(out)
	return out
}

func (e *fakeEngine) reset() {
	e.calls = nil
	e.batches = 0
}

func names(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

// adjacency returns the links implied by the chain order, sorted.
func adjacency(nodes []graph.Node) []string {
	var out []string
	for i := 0; i+1 < len(nodes); i++ {
		out = append(out, nodes[i].ID()+"->"+nodes[i+1].ID())
	}
	slices.Sort(out)
	return out
}
