// SPDX-License-Identifier: MIT
/*
Package transport delivers analysis frames and chain updates to clients and
accepts control commands from them.
*/
package transport

import applog "pipeline/internal/log"

var logger = applog.New("transport")

// Transport defines a generic interface for sending processed data or events.
// Implementations must be thread-safe and must not block the caller.
type Transport interface {
	Send(data any) error
	Close() error
}
