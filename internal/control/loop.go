// SPDX-License-Identifier: MIT
/*
Package control owns a pipeline on a single goroutine.

The TUI and websocket clients submit Commands to a Loop; the loop applies
them one at a time so chain edits never interleave. Node edits made while
the source is playing reconnect their neighbours, otherwise they only
splice the chain and a later connect command links it.
*/
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pipeline/internal/graph"
	applog "pipeline/internal/log"
	"pipeline/internal/pipeline"
)

var logger = applog.New("control")

type paramReader interface {
	Params(n graph.Node) (map[string]float64, error)
}

type request struct {
	cmd   Command
	reply chan Reply
}

// Loop serialises access to a Pipeline.
type Loop struct {
	p        *pipeline.Pipeline
	requests chan request
	done     chan struct{}

	mu        sync.Mutex
	listeners []func(Reply)

	// Owned by the Run goroutine.
	playing bool
}

// NewLoop creates a loop for p. Call Run to start processing.
func NewLoop(p *pipeline.Pipeline) *Loop {
	return &Loop{
		p:        p,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// OnChange registers fn to receive the reply of every successful edit.
// fn runs on the loop goroutine and must not call Submit.
func (l *Loop) OnChange(fn func(Reply)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Run applies commands until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	logger.Debugf("loop started")
	for {
		select {
		case <-ctx.Done():
			logger.Debugf("loop stopped: %v", ctx.Err())
			return ctx.Err()
		case req := <-l.requests:
			r := l.apply(ctx, req.cmd)
			if r.OK && req.cmd.Op != OpList {
				l.notify(r)
			}
			req.reply <- r
		}
	}
}

// Submit sends cmd to the loop and waits for its reply.
func (l *Loop) Submit(ctx context.Context, cmd Command) (Reply, error) {
	req := request{cmd: cmd, reply: make(chan Reply, 1)}
	select {
	case l.requests <- req:
	case <-l.done:
		return Reply{}, ErrStopped
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	// The loop always answers once it has taken the request.
	r := <-req.reply
	return r, r.err
}

func (l *Loop) notify(r Reply) {
	l.mu.Lock()
	fns := append([]func(Reply){}, l.listeners...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn(r)
	}
}

func (l *Loop) apply(ctx context.Context, cmd Command) Reply {
	err := l.exec(ctx, cmd)
	if err != nil {
		logger.Warnf("%s: %v", cmd.Op, err)
	}

	r := l.snapshot()
	r.OK = err == nil
	if err != nil {
		r.err = err
		r.Error = err.Error()
	}
	return r
}

func (l *Loop) reconnect(cmd Command) bool {
	if cmd.Reconnect != nil {
		return *cmd.Reconnect
	}
	return l.playing
}

func (l *Loop) exec(ctx context.Context, cmd Command) error {
	p := l.p
	switch cmd.Op {
	case OpLoad:
		prev := p.Source()
		if _, err := p.LoadSource(ctx, cmd.Data); err != nil {
			return err
		}
		// The replaced source can no longer be controlled, so silence it.
		if prev != nil && prev.Playing() {
			if err := prev.Control("stop"); err != nil {
				return fmt.Errorf("stop previous source: %w", err)
			}
		}
		// A new source starts stopped.
		l.playing = false
		return nil

	case OpAdd:
		spec, err := pipeline.ParseSpec(cmd.Spec)
		if err != nil {
			return err
		}
		n, err := p.Build(spec)
		if err != nil {
			return fmt.Errorf("build %s: %w", spec, err)
		}
		position := p.Len()
		if cmd.Position != nil {
			position = *cmd.Position
		}
		_, err = p.Insert(n, position, l.reconnect(cmd))
		return err

	case OpRemove:
		_, err := p.Remove(cmd.Index, l.reconnect(cmd))
		return err

	case OpSwap:
		return p.Swap(cmd.From, cmd.To, l.reconnect(cmd))

	case OpConnect:
		return p.ConnectAll()

	case OpDisconnect:
		return p.DisconnectAll()

	case OpClear:
		return p.Clear(cmd.Disconnect)

	case OpControl:
		if err := p.Control(cmd.Action, cmd.Args...); err != nil {
			return err
		}
		switch cmd.Action {
		case "start":
			l.playing = true
		case "stop":
			l.playing = false
		}
		return nil

	case OpParam:
		n, ok := p.Get(cmd.Index)
		if !ok || cmd.Index < 0 {
			return fmt.Errorf("param at %d: %w", cmd.Index, pipeline.ErrInvalidPosition)
		}
		ps, ok := p.Engine().(pipeline.ParamSetter)
		if !ok {
			return errors.New("engine does not expose parameters")
		}
		return ps.SetParam(n, cmd.Name, cmd.Value)

	case OpList:
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
}

func (l *Loop) snapshot() Reply {
	pr, _ := l.p.Engine().(paramReader)

	nodes := l.p.Nodes()
	r := Reply{Chain: make([]NodeInfo, 0, len(nodes))}
	for _, n := range nodes {
		var params map[string]float64
		if pr != nil {
			params, _ = pr.Params(n)
		}
		r.Chain = append(r.Chain, nodeInfo(n, params))
	}

	if src := l.p.Source(); src != nil {
		r.Source = src.ID()
		r.Playing = l.playing && src.Playing()
	}
	return r
}
