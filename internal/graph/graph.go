// SPDX-License-Identifier: MIT
/*
Package graph implements a pull-based stereo audio graph.

Nodes are created through the factory methods on Graph and linked with
Connect. Render pulls every ancestor of the destination node in
topological order, sums the outputs feeding each node, runs the node's
processor and returns the destination's buffers.

Thread Safety:
  - Topology, parameters and rendering share one mutex
  - Batch holds off Render for the duration of a multi-step edit
  - Render reuses per-node buffers, no allocation once buffers are sized
*/
package graph

import (
	"fmt"
	"sync"

	applog "pipeline/internal/log"
)

var logger = applog.New("graph")

// Graph is an audio engine: it owns nodes, their connections and the
// singleton destination.
type Graph struct {
	// batchMu serialises Render against Batch so that a multi-step edit
	// is never observed half applied.
	batchMu sync.Mutex
	mu      sync.Mutex

	sampleRate float64
	nodes      map[string]*node
	dest       *node

	pass  uint64
	order []*node
}

// New creates a Graph rendering at sampleRate.
func New(sampleRate float64) (*Graph, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	g := &Graph{
		sampleRate: sampleRate,
		nodes:      make(map[string]*node),
	}
	g.dest = g.add(newNode(KindDestination, "destination", &destinationProc{}))

	logger.Debugf("created graph at %.0f Hz", sampleRate)
	return g, nil
}

// SampleRate returns the rendering sample rate in Hz.
func (g *Graph) SampleRate() float64 {
	return g.sampleRate
}

// Destination returns the singleton output node.
func (g *Graph) Destination() Node {
	return g.dest
}

func (g *Graph) add(n *node) *node {
	g.mu.Lock()
	g.nodes[n.id] = n
	g.mu.Unlock()
	return n
}

// resolve maps a handle back to the graph's node. Callers hold g.mu.
func (g *Graph) resolve(n Node) (*node, error) {
	h, ok := n.(handle)
	if !ok || h == nil {
		return nil, ErrForeignNode
	}
	b := h.base()
	if b == nil || g.nodes[b.id] != b {
		return nil, ErrForeignNode
	}
	return b, nil
}

// Connect routes the output of from into to. Connecting an already
// connected pair is a no-op.
func (g *Graph) Connect(from, to Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, err := g.resolve(from)
	if err != nil {
		return err
	}
	dst, err := g.resolve(to)
	if err != nil {
		return err
	}

	if src == g.dest {
		return fmt.Errorf("connect %s -> %s: %w", src, dst, ErrNoOutputs)
	}
	if dst.isGenerator() {
		return fmt.Errorf("connect %s -> %s: %w", src, dst, ErrNoInputs)
	}
	if dst.hasInput(src) {
		return nil
	}
	if src == dst || dependsOn(src, dst) {
		return fmt.Errorf("connect %s -> %s: %w", src, dst, ErrCycle)
	}

	dst.inputs = append(dst.inputs, src)
	logger.Debugf("connected %s -> %s", src, dst)
	return nil
}

// Disconnect removes the link from -> to.
func (g *Graph) Disconnect(from, to Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, err := g.resolve(from)
	if err != nil {
		return err
	}
	dst, err := g.resolve(to)
	if err != nil {
		return err
	}

	if !dst.removeInput(src) {
		return fmt.Errorf("disconnect %s -> %s: %w", src, dst, ErrNotConnected)
	}
	logger.Debugf("disconnected %s -> %s", src, dst)
	return nil
}

// Connected reports whether from currently feeds to.
func (g *Graph) Connected(from, to Node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, err := g.resolve(from)
	if err != nil {
		return false
	}
	dst, err := g.resolve(to)
	if err != nil {
		return false
	}
	return dst.hasInput(src)
}

// Batch runs fn while Render is held off. Edits made by fn become audible
// together once fn returns.
func (g *Graph) Batch(fn func() error) error {
	g.batchMu.Lock()
	defer g.batchMu.Unlock()
	return fn()
}

// dependsOn reports whether n pulls audio, directly or not, from target.
func dependsOn(n, target *node) bool {
	seen := make(map[*node]bool)
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, cur.inputs...)
	}
	return false
}

// Params returns a snapshot of the node's parameters.
func (g *Graph) Params(n Node) (map[string]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, err := g.resolve(n)
	if err != nil {
		return nil, err
	}
	return b.proc.params(), nil
}

// SetParam changes one parameter of a node, e.g. "frequency" on a filter.
func (g *Graph) SetParam(n Node, name string, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, err := g.resolve(n)
	if err != nil {
		return err
	}
	if err := b.proc.setParam(name, value); err != nil {
		return fmt.Errorf("%s.%s: %w", b.label, name, err)
	}
	return nil
}

// Render produces frames of output from the destination. The returned
// buffers are owned by the graph and valid until the next Render call.
func (g *Graph) Render(frames int) Block {
	g.batchMu.Lock()
	defer g.batchMu.Unlock()
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pass++
	g.order = g.order[:0]
	g.visit(g.dest)

	for _, n := range g.order {
		n.resize(frames)
		for ch := range Channels {
			mix := n.mix[ch]
			clear(mix)
			for _, in := range n.inputs {
				src := in.out[ch]
				for i := range mix {
					mix[i] += src[i]
				}
			}
		}
		n.proc.process(n.mix, n.out)
	}

	return g.dest.out
}

// visit appends n and its ancestors to g.order, inputs first.
func (g *Graph) visit(n *node) {
	if n.pass == g.pass {
		return
	}
	n.pass = g.pass
	for _, in := range n.inputs {
		g.visit(in)
	}
	g.order = append(g.order, n)
}

// destinationProc passes its summed inputs through to the render output.
type destinationProc struct{}

func (destinationProc) process(in, out Block) {
	for ch := range Channels {
		copy(out[ch], in[ch])
	}
}

func (destinationProc) params() map[string]float64 { return map[string]float64{} }

func (destinationProc) setParam(name string, _ float64) error {
	return fmt.Errorf("%w: %q", ErrUnknownParam, name)
}
