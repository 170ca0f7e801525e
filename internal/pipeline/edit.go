// SPDX-License-Identifier: MIT
package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"pipeline/internal/graph"
)

// edit applies splices and link changes to a working copy of the chain.
// Link changes are recorded so a failed edit can be undone.
type edit struct {
	engine Engine
	nodes  []graph.Node
	undo   []func() error
}

func newEdit(engine Engine, nodes []graph.Node) *edit {
	return &edit{engine: engine, nodes: slices.Clone(nodes)}
}

func (e *edit) connect(from, to graph.Node) error {
	if in, ok := e.engine.(Inspector); ok && in.Connected(from, to) {
		return nil
	}
	if err := e.engine.Connect(from, to); err != nil {
		return fmt.Errorf("connect %s -> %s: %w", graph.Label(from), graph.Label(to), err)
	}
	e.undo = append(e.undo, func() error { return e.engine.Disconnect(from, to) })
	return nil
}

// disconnect severs from -> to. A missing link is not an error.
func (e *edit) disconnect(from, to graph.Node) error {
	err := e.engine.Disconnect(from, to)
	switch {
	case errors.Is(err, graph.ErrNotConnected):
		logger.Debugf("%s -> %s already disconnected", graph.Label(from), graph.Label(to))
		return nil
	case err != nil:
		return fmt.Errorf("disconnect %s -> %s: %w", graph.Label(from), graph.Label(to), err)
	}
	e.undo = append(e.undo, func() error { return e.engine.Connect(from, to) })
	return nil
}

// rollback reverts recorded link changes, newest first.
func (e *edit) rollback() {
	for i := len(e.undo) - 1; i >= 0; i-- {
		if err := e.undo[i](); err != nil {
			logger.Warnf("rollback step %d failed: %v", i, err)
		}
	}
	e.undo = nil
}

// insert splices node in at position, which must already be clamped.
func (e *edit) insert(node graph.Node, position int, reconnect bool) error {
	n := len(e.nodes)
	if reconnect && n > 0 {
		switch position {
		case 0:
			if err := e.connect(node, e.nodes[0]); err != nil {
				return err
			}
		case n:
			if err := e.connect(e.nodes[n-1], node); err != nil {
				return err
			}
		default:
			prev, next := e.nodes[position-1], e.nodes[position]
			if err := e.disconnect(prev, next); err != nil {
				return err
			}
			if err := e.connect(prev, node); err != nil {
				return err
			}
			if err := e.connect(node, next); err != nil {
				return err
			}
		}
	}
	e.nodes = slices.Insert(e.nodes, position, node)
	return nil
}

// remove splices out the node at a valid position and returns it.
func (e *edit) remove(position int, reconnect bool) (graph.Node, error) {
	n := len(e.nodes)
	node := e.nodes[position]
	if reconnect && n > 1 {
		switch position {
		case 0:
			if err := e.disconnect(node, e.nodes[1]); err != nil {
				return nil, err
			}
		case n - 1:
			if err := e.disconnect(e.nodes[position-1], node); err != nil {
				return nil, err
			}
		default:
			prev, next := e.nodes[position-1], e.nodes[position+1]
			if err := e.disconnect(node, next); err != nil {
				return nil, err
			}
			if err := e.disconnect(prev, node); err != nil {
				return nil, err
			}
			if err := e.connect(prev, next); err != nil {
				return nil, err
			}
		}
	}
	e.nodes = slices.Delete(e.nodes, position, position+1)
	return node, nil
}
