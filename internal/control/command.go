// SPDX-License-Identifier: MIT
package control

import (
	"errors"

	"pipeline/internal/graph"
)

// Ops understood by the loop.
const (
	OpLoad       = "load"
	OpAdd        = "add"
	OpRemove     = "remove"
	OpSwap       = "swap"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpClear      = "clear"
	OpControl    = "control"
	OpParam      = "param"
	OpList       = "list"
)

var (
	ErrUnknownOp = errors.New("unknown op")
	ErrStopped   = errors.New("control loop stopped")
)

// Command is one edit request. The JSON form is what websocket clients send:
//
//	{"op":"add","spec":"lowpass:800","position":1}
//	{"op":"control","action":"start","args":[0]}
//	{"op":"param","index":2,"name":"gain","value":0.5}
type Command struct {
	Op string `json:"op"`

	// load
	Data []byte `json:"data,omitempty"`

	// add, remove, param
	Spec     string `json:"spec,omitempty"`
	Position *int   `json:"position,omitempty"`
	Index    int    `json:"index,omitempty"`

	// swap
	From int `json:"from,omitempty"`
	To   int `json:"to,omitempty"`

	// Reconnect overrides the loop's default, which is to reconnect
	// while playing.
	Reconnect *bool `json:"reconnect,omitempty"`

	// clear
	Disconnect bool `json:"disconnect,omitempty"`

	// control
	Action string `json:"action,omitempty"`
	Args   []any  `json:"args,omitempty"`

	// param
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// NodeInfo describes one chain entry in a Reply.
type NodeInfo struct {
	ID     string             `json:"id"`
	Kind   string             `json:"kind"`
	Label  string             `json:"label"`
	Params map[string]float64 `json:"params,omitempty"`
}

// Reply is the loop's answer to a Command. Chain is always the state after
// the command ran, including when it failed.
type Reply struct {
	OK      bool       `json:"ok"`
	Error   string     `json:"error,omitempty"`
	Chain   []NodeInfo `json:"chain"`
	Playing bool       `json:"playing"`
	Source  string     `json:"source,omitempty"`

	err error
}

// Err returns the command's error, if any.
func (r Reply) Err() error {
	return r.err
}

func nodeInfo(n graph.Node, params map[string]float64) NodeInfo {
	return NodeInfo{
		ID:     n.ID(),
		Kind:   n.Kind().String(),
		Label:  graph.Label(n),
		Params: params,
	}
}
