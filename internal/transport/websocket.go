// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"pipeline/internal/control"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Controller is the command side of a control.Loop.
type Controller interface {
	Submit(ctx context.Context, cmd control.Command) (control.Reply, error)
	OnChange(fn func(control.Reply))
}

// ChainEvent is broadcast to subscribers after every successful edit.
type ChainEvent struct {
	Type string `json:"type"` // Always "chain".
	control.Reply
}

// WebSocketTransport serves two endpoints:
//
//	/control   JSON control.Command in, control.Reply out, one per message
//	/spectrum  receives every value passed to Send, as JSON
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	ctl       Controller
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
}

var _ Transport = (*WebSocketTransport)(nil)

// NewWebSocketTransport creates the transport and starts its broadcaster.
// ctl may be nil, in which case /control is not served. Call Start to
// listen on addr, or mount Handler elsewhere.
func NewWebSocketTransport(addr string, ctl Controller) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctl:       ctl,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
		done:      make(chan struct{}),
	}
	if ctl != nil {
		ctl.OnChange(func(r control.Reply) {
			wst.Send(ChainEvent{Type: "chain", Reply: r})
		})
	}
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler for both endpoints.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/spectrum", wst.handleSpectrum)
	if wst.ctl != nil {
		mux.HandleFunc("/control", wst.handleControl)
	}
	return mux
}

// Start listens on the configured address and serves in the background.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return err
	}
	wst.server = &http.Server{Handler: wst.Handler()}

	go func() {
		logger.Infof("WebSocket server listening on %s", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
		}
	}()
	return nil
}

func (wst *WebSocketTransport) handleSpectrum(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	logger.Infof("spectrum client connected, total: %d", total)

	// Reads only detect the close; subscribers send nothing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		logger.Infof("spectrum client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) handleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("upgrade error: %v", err)
		return
	}
	defer conn.Close()
	logger.Infof("control client connected from %s", r.RemoteAddr)

	for {
		var cmd control.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !isDecodeError(err) {
				logger.Infof("control client %s left: %v", r.RemoteAddr, err)
				return
			}
			// The connection stays usable after a malformed message.
			if err := wst.write(conn, control.Reply{Error: "bad command: " + err.Error()}); err != nil {
				return
			}
			continue
		}

		reply, err := wst.ctl.Submit(r.Context(), cmd)
		if err != nil && reply.Error == "" {
			reply.Error = err.Error()
		}
		if err := wst.write(conn, reply); err != nil {
			logger.Warnf("control write to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (wst *WebSocketTransport) write(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// handleBroadcasts sends queued values to all spectrum subscribers.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := wst.write(client, data); err != nil {
					logger.Warnf("error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send queues data for all subscribers. It drops data when the queue is
// full or the transport is closed.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return nil
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
		logger.Debugf("broadcast queue full, dropping %T", data)
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		logger.Infof("closing WebSocket server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		clear(wst.clients)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			err = wst.server.Shutdown(ctx)
		}
	})
	return err
}

// Clients returns the number of connected spectrum subscribers.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}
