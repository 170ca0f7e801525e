// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pipeline/internal/control"
	applog "pipeline/internal/log"
	"pipeline/internal/pipeline"
)

// Submitter is the command side of a control.Loop.
type Submitter interface {
	Submit(ctx context.Context, cmd control.Command) (control.Reply, error)
}

// SetupChain loads data (when not nil) as the source, adds every spec in
// chain and connects the result. With data it also starts playback,
// looping when loop is set. Without data, source entries are skipped.
func SetupChain(ctx context.Context, s Submitter, data []byte, chain []string, loop bool) (control.Reply, error) {
	if data != nil {
		if _, err := s.Submit(ctx, control.Command{Op: control.OpLoad, Data: data}); err != nil {
			return control.Reply{}, err
		}
	}

	for _, spec := range chain {
		_, err := s.Submit(ctx, control.Command{Op: control.OpAdd, Spec: spec})
		if errors.Is(err, pipeline.ErrNoSource) {
			applog.Warnf("chain: skipping %q until a file is loaded", spec)
			continue
		}
		if err != nil {
			return control.Reply{}, fmt.Errorf("chain entry %q: %w", spec, err)
		}
	}

	r, err := s.Submit(ctx, control.Command{Op: control.OpConnect})
	if err != nil || data == nil {
		return r, err
	}

	if loop {
		if _, err := s.Submit(ctx, control.Command{Op: control.OpControl, Action: "loop", Args: []any{true}}); err != nil {
			return control.Reply{}, err
		}
	}
	return s.Submit(ctx, control.Command{Op: control.OpControl, Action: "start"})
}

// WaitFinished polls until playback stops or ctx is done.
func WaitFinished(ctx context.Context, s Submitter, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r, err := s.Submit(ctx, control.Command{Op: control.OpList})
			if err != nil {
				return err
			}
			if !r.Playing {
				return nil
			}
		}
	}
}
