// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pipeline/internal/control"
	"pipeline/internal/graph"
	"pipeline/internal/pipeline"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*WebSocketTransport, *httptest.Server) {
	t.Helper()
	g, err := graph.New(8000)
	if err != nil {
		t.Fatal(err)
	}
	loop := control.NewLoop(pipeline.New(g))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	wst := NewWebSocketTransport("", loop)
	srv := httptest.NewServer(wst.Handler())
	t.Cleanup(func() {
		srv.Close()
		wst.Close()
		cancel()
		wg.Wait()
	})
	return wst, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func waitClients(t *testing.T, wst *WebSocketTransport, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", wst.Clients(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestControlEndpoint(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv, "/control")

	send := func(cmd control.Command) control.Reply {
		t.Helper()
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatal(err)
		}
		var r control.Reply
		if err := conn.ReadJSON(&r); err != nil {
			t.Fatal(err)
		}
		return r
	}

	r := send(control.Command{Op: control.OpAdd, Spec: "gain:0.5"})
	if !r.OK || len(r.Chain) != 1 || r.Chain[0].Label != "gain" {
		t.Fatalf("add reply = %+v", r)
	}
	send(control.Command{Op: control.OpAdd, Spec: "destination"})
	r = send(control.Command{Op: control.OpList})
	if len(r.Chain) != 2 || r.Chain[1].Kind != "destination" {
		t.Errorf("list reply = %+v", r)
	}

	r = send(control.Command{Op: control.OpRemove, Index: 9})
	if r.OK || !strings.Contains(r.Error, "invalid chain position") {
		t.Errorf("remove reply = %+v", r)
	}
}

func TestControlEndpointBadJSON(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv, "/control")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"op":`)); err != nil {
		t.Fatal(err)
	}
	var r control.Reply
	if err := conn.ReadJSON(&r); err != nil {
		t.Fatal(err)
	}
	if r.OK || !strings.HasPrefix(r.Error, "bad command") {
		t.Errorf("reply = %+v", r)
	}

	// The connection survives.
	if err := conn.WriteJSON(control.Command{Op: control.OpList}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&r); err != nil || !r.OK {
		t.Errorf("list after bad message: %+v, %v", r, err)
	}
}

func TestSpectrumReceivesBroadcasts(t *testing.T) {
	wst, srv := newTestServer(t)
	sub := dial(t, srv, "/spectrum")
	waitClients(t, wst, 1)

	wst.Send(map[string]any{"type": "spectrum", "level": 0.5})
	var got map[string]any
	if err := sub.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "spectrum" || got["level"] != 0.5 {
		t.Errorf("broadcast = %v", got)
	}

	// Chain edits from a control client reach subscribers.
	ctl := dial(t, srv, "/control")
	if err := ctl.WriteJSON(control.Command{Op: control.OpAdd, Spec: "panner"}); err != nil {
		t.Fatal(err)
	}
	var ev ChainEvent
	if err := sub.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "chain" || !ev.OK || len(ev.Chain) != 1 || ev.Chain[0].Kind != "panner" {
		t.Errorf("chain event = %+v", ev)
	}
}

func TestSpectrumClientDisconnect(t *testing.T) {
	wst, srv := newTestServer(t)
	sub := dial(t, srv, "/spectrum")
	waitClients(t, wst, 1)

	sub.Close()
	waitClients(t, wst, 0)
}

func TestSendAfterClose(t *testing.T) {
	wst := NewWebSocketTransport("", nil)
	if err := wst.Close(); err != nil {
		t.Fatal(err)
	}
	if err := wst.Send("late"); err != nil {
		t.Errorf("Send after Close = %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestStartBindError(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:-1", nil)
	defer wst.Close()
	if err := wst.Start(); err == nil {
		t.Error("Start on an invalid address should fail")
	}
}

func TestStartAndServe(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0", nil)
	if err := wst.Start(); err != nil {
		t.Fatal(err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(map[string]int{"a": 1}); err != nil {
		t.Error(err)
	}
	if err := lt.Send(make(chan int)); err != nil {
		t.Error("unmarshalable data should still be accepted")
	}
	if err := lt.Close(); err != nil {
		t.Error(err)
	}
}
