// SPDX-License-Identifier: MIT
/*
Package pipeline manages an ordered chain of audio nodes.

A Pipeline keeps the links between its nodes consistent with their order.
Edits made with reconnect set re-wire the neighbours around the edit point
so a chain that is already carrying audio stays unbroken:

	insert at 2:   A -> B -> C      becomes   A -> B -> N -> C
	remove at 1:   A -> B -> C      becomes   A -> C

Without reconnect, edits only splice the chain and ConnectAll must be
called afterwards.

A Pipeline is not safe for concurrent use; internal/control serialises
access from several callers.
*/
package pipeline

import (
	"context"
	"fmt"
	"slices"

	"pipeline/internal/graph"
	applog "pipeline/internal/log"
)

var logger = applog.New("pipeline")

// Pipeline owns a chain of node handles and at most one source.
type Pipeline struct {
	engine Engine
	nodes  []graph.Node
	source graph.Source
}

// New creates an empty pipeline editing engine.
func New(engine Engine) *Pipeline {
	return &Pipeline{engine: engine}
}

// Engine returns the engine the pipeline edits.
func (p *Pipeline) Engine() Engine {
	return p.engine
}

// apply runs fn against a working copy of the chain. When the engine is a
// Batcher the whole edit is one batch. On error, link changes are undone
// and the chain is left as it was.
func (p *Pipeline) apply(fn func(e *edit) error) error {
	e := newEdit(p.engine, p.nodes)
	run := func() error {
		if err := fn(e); err != nil {
			e.rollback()
			return err
		}
		return nil
	}

	var err error
	if b, ok := p.engine.(Batcher); ok {
		err = b.Batch(run)
	} else {
		err = run()
	}
	if err != nil {
		return err
	}

	p.nodes = e.nodes
	return nil
}

// LoadSource decodes data and makes the result the current source. The call
// blocks until decoding finishes or ctx is done. On failure the previous
// source is kept.
func (p *Pipeline) LoadSource(ctx context.Context, data []byte) (graph.Source, error) {
	src, err := p.engine.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	if p.source != nil {
		logger.Debugf("replacing source %s", p.source.ID())
	}
	p.source = src
	return src, nil
}

// Source returns the current source, or nil.
func (p *Pipeline) Source() graph.Source {
	return p.source
}

// Control forwards a playback action such as "start" or "stop" to the
// current source.
func (p *Pipeline) Control(action string, args ...any) error {
	if p.source == nil {
		return fmt.Errorf("control %q: %w", action, ErrNoSource)
	}
	if err := p.source.Control(action, args...); err != nil {
		return fmt.Errorf("control %q: %w", action, err)
	}
	return nil
}

// ConnectAll links every adjacent pair in order. Pairs that are already
// linked are left alone, so it also repairs a partially linked chain.
func (p *Pipeline) ConnectAll() error {
	return p.apply(func(e *edit) error {
		for i := 0; i+1 < len(e.nodes); i++ {
			if err := e.connect(e.nodes[i], e.nodes[i+1]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DisconnectAll severs every adjacent pair. Unlinked pairs are skipped.
func (p *Pipeline) DisconnectAll() error {
	return p.apply(func(e *edit) error {
		for i := 0; i+1 < len(e.nodes); i++ {
			if err := e.disconnect(e.nodes[i], e.nodes[i+1]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Insert splices node in at position, clamped to [0, Len()], and returns
// a copy of the updated chain.
func (p *Pipeline) Insert(node graph.Node, position int, reconnect bool) ([]graph.Node, error) {
	if node == nil {
		return nil, ErrNilNode
	}
	position = max(0, min(position, len(p.nodes)))

	err := p.apply(func(e *edit) error {
		return e.insert(node, position, reconnect)
	})
	if err != nil {
		return nil, fmt.Errorf("insert at %d: %w", position, err)
	}

	logger.Debugf("inserted %s at %d (reconnect=%t)", graph.Label(node), position, reconnect)
	return p.Nodes(), nil
}

// Append inserts node at the tail.
func (p *Pipeline) Append(node graph.Node, reconnect bool) ([]graph.Node, error) {
	return p.Insert(node, len(p.nodes), reconnect)
}

// Remove splices out the node at position and returns it.
func (p *Pipeline) Remove(position int, reconnect bool) (graph.Node, error) {
	if position < 0 || position >= len(p.nodes) {
		return nil, fmt.Errorf("remove %d of %d: %w", position, len(p.nodes), ErrInvalidPosition)
	}

	var removed graph.Node
	err := p.apply(func(e *edit) error {
		var err error
		removed, err = e.remove(position, reconnect)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("remove %d: %w", position, err)
	}

	logger.Debugf("removed %s from %d (reconnect=%t)", graph.Label(removed), position, reconnect)
	return removed, nil
}

// Swap exchanges the nodes at from and to. Both nodes are removed, the
// higher index first, then re-inserted at each other's position, the lower
// index first, so every index stays valid along the way.
func (p *Pipeline) Swap(from, to int, reconnect bool) error {
	n := len(p.nodes)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("swap %d and %d of %d: %w", from, to, n, ErrInvalidPosition)
	}
	if from == to {
		return nil
	}
	lo, hi := min(from, to), max(from, to)

	err := p.apply(func(e *edit) error {
		high, err := e.remove(hi, reconnect)
		if err != nil {
			return err
		}
		low, err := e.remove(lo, reconnect)
		if err != nil {
			return err
		}
		if err := e.insert(high, lo, reconnect); err != nil {
			return err
		}
		return e.insert(low, hi, reconnect)
	})
	if err != nil {
		return fmt.Errorf("swap %d and %d: %w", from, to, err)
	}

	logger.Debugf("swapped %d and %d (reconnect=%t)", from, to, reconnect)
	return nil
}

// Get returns the node at position. Negative positions read the head;
// positions past the tail report false.
func (p *Pipeline) Get(position int) (graph.Node, bool) {
	position = max(position, 0)
	if position >= len(p.nodes) {
		return nil, false
	}
	return p.nodes[position], true
}

// Clear empties the chain. Links between the nodes are only severed when
// disconnect is set; otherwise they stay as they are.
func (p *Pipeline) Clear(disconnect bool) error {
	if disconnect {
		if err := p.DisconnectAll(); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	logger.Debugf("cleared %d nodes (disconnect=%t)", len(p.nodes), disconnect)
	p.nodes = nil
	return nil
}

// Len returns the number of nodes in the chain.
func (p *Pipeline) Len() int {
	return len(p.nodes)
}

// Nodes returns a copy of the chain.
func (p *Pipeline) Nodes() []graph.Node {
	return slices.Clone(p.nodes)
}
