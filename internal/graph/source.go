// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"math"
	"time"
)

// Source is a node that plays a decoded buffer. Playback is driven by
// named actions so callers can forward them without knowing the node type.
//
// Supported actions:
//
//	start [offsetSeconds]  begin playback, optionally from an offset
//	stop                   halt playback and rewind
//	loop <bool>            repeat when the end is reached
//	seek <seconds>         move the play position
type Source interface {
	Node
	Control(action string, args ...any) error
	Duration() time.Duration
	Playing() bool
}

type sourceNode struct {
	*node
	g    *Graph
	proc *sourceProc
}

type sourceProc struct {
	data       Block
	sampleRate float64
	pos        int
	playing    bool
	loop       bool
}

func (*sourceProc) generator() {}

func (s *sourceProc) frames() int {
	return len(s.data[0])
}

func (s *sourceProc) process(_, out Block) {
	frames := len(out[0])
	written := 0
	for written < frames && s.playing {
		remaining := s.frames() - s.pos
		if remaining <= 0 {
			if s.loop && s.frames() > 0 {
				s.pos = 0
				continue
			}
			s.playing = false
			s.pos = 0
			break
		}
		n := min(remaining, frames-written)
		for ch := range Channels {
			copy(out[ch][written:written+n], s.data[ch][s.pos:s.pos+n])
		}
		s.pos += n
		written += n
	}
	for ch := range Channels {
		clear(out[ch][written:])
	}
}

func (s *sourceProc) params() map[string]float64 {
	loop := 0.0
	if s.loop {
		loop = 1
	}
	return map[string]float64{
		"position": float64(s.pos) / s.sampleRate,
		"loop":     loop,
	}
}

func (s *sourceProc) setParam(name string, _ float64) error {
	return fmt.Errorf("%w: %q (use Control)", ErrUnknownParam, name)
}

func (s *sourceProc) seek(seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) {
		return fmt.Errorf("%w: offset %.3f", ErrInvalidArgument, seconds)
	}
	pos := int(seconds * s.sampleRate)
	if pos > s.frames() {
		pos = s.frames()
	}
	s.pos = pos
	return nil
}

// Control applies a playback action. It is safe to call while the graph renders.
func (s *sourceNode) Control(action string, args ...any) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	p := s.proc
	switch action {
	case "start":
		if len(args) > 0 {
			offset, ok := toFloat(args[0])
			if !ok {
				return fmt.Errorf("%w: start offset %v (%T)", ErrInvalidArgument, args[0], args[0])
			}
			if err := p.seek(offset); err != nil {
				return err
			}
		}
		p.playing = true
	case "stop":
		p.playing = false
		p.pos = 0
	case "loop":
		if len(args) == 0 {
			return fmt.Errorf("%w: loop needs a bool", ErrInvalidArgument)
		}
		on, ok := args[0].(bool)
		if !ok {
			return fmt.Errorf("%w: loop %v (%T)", ErrInvalidArgument, args[0], args[0])
		}
		p.loop = on
	case "seek":
		if len(args) == 0 {
			return fmt.Errorf("%w: seek needs seconds", ErrInvalidArgument)
		}
		offset, ok := toFloat(args[0])
		if !ok {
			return fmt.Errorf("%w: seek %v (%T)", ErrInvalidArgument, args[0], args[0])
		}
		return p.seek(offset)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}

	logger.Debugf("%s: %s %v", s.node, action, args)
	return nil
}

// Duration returns the length of the decoded buffer.
func (s *sourceNode) Duration() time.Duration {
	return time.Duration(float64(s.proc.frames()) / s.proc.sampleRate * float64(time.Second))
}

// Playing reports whether the source is currently producing audio.
func (s *sourceNode) Playing() bool {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.proc.playing
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case time.Duration:
		return n.Seconds(), true
	default:
		return 0, false
	}
}
