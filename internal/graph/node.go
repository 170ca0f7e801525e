// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Channels is the fixed channel count of every buffer in the graph.
const Channels = 2

// Kind identifies what a node does.
type Kind int

const (
	KindFilter Kind = iota
	KindGain
	KindDelay
	KindOscillator
	KindPanner
	KindShaper
	KindPeriodicOscillator
	KindDestination
	KindSource
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindGain:
		return "gain"
	case KindDelay:
		return "delay"
	case KindOscillator:
		return "oscillator"
	case KindPanner:
		return "panner"
	case KindShaper:
		return "shaper"
	case KindPeriodicOscillator:
		return "periodic"
	case KindDestination:
		return "destination"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// Node is an opaque handle to a processing unit owned by a Graph.
type Node interface {
	ID() string
	Kind() Kind
}

// Block holds one buffer per channel.
type Block [Channels][]float64

// processor is the per-kind DSP behind a node. in holds the summed inputs
// and is never nil; out has the same length.
type processor interface {
	process(in, out Block)
	params() map[string]float64
	setParam(name string, value float64) error
}

// generator marks processors that produce sound without inputs.
type generator interface {
	generator()
}

// handle lets wrapper types such as *sourceNode resolve to the graph's node.
type handle interface {
	Node
	base() *node
}

type node struct {
	id     string
	kind   Kind
	label  string
	proc   processor
	inputs []*node

	mix  Block
	out  Block
	pass uint64
}

func newNode(kind Kind, label string, proc processor) *node {
	return &node{
		id:    uuid.NewString(),
		kind:  kind,
		label: label,
		proc:  proc,
	}
}

func (n *node) ID() string { return n.id }

func (n *node) Kind() Kind { return n.kind }

func (n *node) base() *node { return n }

func (n *node) String() string {
	return fmt.Sprintf("%s(%s)", n.label, n.id[:8])
}

func (n *node) isGenerator() bool {
	_, ok := n.proc.(generator)
	return ok
}

func (n *node) hasInput(from *node) bool {
	for _, in := range n.inputs {
		if in == from {
			return true
		}
	}
	return false
}

func (n *node) removeInput(from *node) bool {
	for i, in := range n.inputs {
		if in == from {
			n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
			return true
		}
	}
	return false
}

// resize grows the node's buffers to frames, reusing capacity.
func (n *node) resize(frames int) {
	for ch := range Channels {
		if cap(n.mix[ch]) < frames {
			n.mix[ch] = make([]float64, frames)
			n.out[ch] = make([]float64, frames)
		}
		n.mix[ch] = n.mix[ch][:frames]
		n.out[ch] = n.out[ch][:frames]
	}
}

// Label returns a short human readable description of n, e.g. "lowpass".
func Label(n Node) string {
	if h, ok := n.(handle); ok {
		return h.base().label
	}
	return strings.ToLower(n.Kind().String())
}
