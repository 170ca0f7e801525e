// SPDX-License-Identifier: MIT
package graph

import "errors"

var (
	// ErrForeignNode is returned when a handle was not created by this graph.
	ErrForeignNode = errors.New("node does not belong to this graph")
	// ErrNotConnected is returned by Disconnect when no link exists between the pair.
	ErrNotConnected = errors.New("nodes are not connected")
	// ErrNoInputs is returned when connecting into a generator (source, oscillator).
	ErrNoInputs = errors.New("node has no inputs")
	// ErrNoOutputs is returned when connecting out of the destination.
	ErrNoOutputs = errors.New("node has no outputs")
	// ErrCycle is returned when a connection would create a feedback loop.
	ErrCycle = errors.New("connection would create a cycle")

	ErrUnknownParam = errors.New("unknown parameter")
	ErrParamRange   = errors.New("parameter out of range")

	// ErrWaveCoefficients is returned for mismatched or too short periodic wave coefficients.
	ErrWaveCoefficients = errors.New("invalid periodic wave coefficients")

	// ErrDecode wraps every failure to turn a byte payload into a playable buffer.
	ErrDecode = errors.New("unable to decode audio data")

	// ErrUnsupportedAction is returned by Source.Control for unknown action names.
	ErrUnsupportedAction = errors.New("unsupported source action")
	// ErrInvalidArgument is returned by Source.Control when an action's arguments have the wrong type.
	ErrInvalidArgument = errors.New("invalid action argument")
)
