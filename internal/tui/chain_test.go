// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"pipeline/internal/audio"
	"pipeline/internal/control"
	"pipeline/internal/graph"
	"pipeline/internal/pipeline"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, opts Options) (ChainModel, *control.Loop) {
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
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	m := NewChainModel(context.Background(), loop, opts)
	return step(m, m.Init()()), loop
}

// step feeds msg to m and runs any resulting command to completion.
func step(m ChainModel, msg tea.Msg) ChainModel {
	for msg != nil {
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
		next, cmd := m.Update(msg)
		m = next.(ChainModel)
		if cmd == nil {
			return m
		}
		msg = cmd()
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(m ChainModel, keys ...string) ChainModel {
	for _, k := range keys {
		m = step(m, keyMsg(k))
	}
	return m
}

func labels(m ChainModel) []string {
	var out []string
	for _, n := range m.chain {
		out = append(out, n.Label)
	}
	return out
}

func menuIndex(spec string) int {
	for i, s := range Menu {
		if s == spec {
			return i
		}
	}
	return -1
}

// addSpec moves the menu cursor to spec and adds it.
func addSpec(m ChainModel, spec string) ChainModel {
	for m.menuIndex > 0 {
		m = press(m, "up")
	}
	for range menuIndex(spec) {
		m = press(m, "down")
	}
	return press(m, "enter")
}

func TestAddDeleteAndMove(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	for _, spec := range []string{"lowpass", "gain", "delay"} {
		m = addSpec(m, spec)
	}
	if got := strings.Join(labels(m), ","); got != "lowpass,gain,delay" {
		t.Fatalf("chain = %s", got)
	}

	// Move lowpass to the end.
	m = press(m, "tab", "J", "J")
	if got := strings.Join(labels(m), ","); got != "gain,delay,lowpass" {
		t.Errorf("after J J: %s", got)
	}
	if m.chainIndex != 2 {
		t.Errorf("cursor = %d, want 2 following the moved node", m.chainIndex)
	}

	// K at the top is ignored.
	m = press(m, "up", "up", "K")
	if m.chainIndex != 0 || labels(m)[0] != "gain" {
		t.Errorf("K at top changed the chain: %v (cursor %d)", labels(m), m.chainIndex)
	}

	m = press(m, "x")
	if got := strings.Join(labels(m), ","); got != "delay,lowpass" {
		t.Errorf("after delete: %s", got)
	}
	m = press(m, "down", "x", "x")
	if len(m.chain) != 0 || m.chainIndex != 0 {
		t.Errorf("chain = %v, cursor %d", labels(m), m.chainIndex)
	}
	// Delete on an empty chain does nothing.
	m = press(m, "x")
	if m.err != nil {
		t.Errorf("unexpected error %v", m.err)
	}
}

func TestConnectAndErrors(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = addSpec(m, "gain")
	m = addSpec(m, "destination")
	m = press(m, "c")
	if m.status != "connect ok" {
		t.Errorf("status = %q", m.status)
	}

	// No source is loaded, so play fails and the view shows why.
	m = press(m, "p")
	if !errors.Is(m.err, pipeline.ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource", m.err)
	}
	if view := m.View(); !strings.Contains(view, "no source") {
		t.Errorf("view does not show the error:\n%s", view)
	}
	if m.playing {
		t.Error("playing after failed start")
	}
}

func TestViewShowsChainAndParams(t *testing.T) {
	m, _ := newTestModel(t, Options{Title: "Test chain"})
	m = addSpec(m, "lowpass")
	view := m.View()
	for _, want := range []string{"Test chain", "stopped", "Nodes", "Chain", "0 lowpass", "frequency=350"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDeviceScreen(t *testing.T) {
	devices := []audio.Device{
		{ID: 0, Name: "Mic", MaxInputChannels: 1, DefaultSampleRate: 48000},
		{ID: 1, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 44100},
	}
	m, _ := newTestModel(t, Options{Devices: func() ([]audio.Device, error) { return devices, nil }})

	m = press(m, "d")
	if !m.showDevices || len(m.devices) != 2 {
		t.Fatalf("device screen not shown: %+v", m.devices)
	}
	m = press(m, "down", "down")
	if m.deviceIndex != 1 {
		t.Errorf("device cursor = %d, want 1", m.deviceIndex)
	}
	if view := m.View(); !strings.Contains(view, "[1] Speakers (Output)") {
		t.Errorf("view:\n%s", view)
	}

	m = press(m, "esc")
	if m.showDevices {
		t.Error("esc did not close the device screen")
	}
}

func TestDeviceScreenError(t *testing.T) {
	m, _ := newTestModel(t, Options{Devices: func() ([]audio.Device, error) { return nil, errors.New("no host") }})
	m = press(m, "d")
	if view := m.View(); !strings.Contains(view, "no host") {
		t.Errorf("view:\n%s", view)
	}
}

func TestDevicesDisabled(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	if m = press(m, "d"); m.showDevices {
		t.Error("device screen shown without a device source")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestFormatParams(t *testing.T) {
	tests := []struct {
		in   map[string]float64
		want string
	}{
		{nil, ""},
		{map[string]float64{"gain": 0.5}, "gain=0.5"},
		{map[string]float64{"q": 1, "frequency": 350, "gain": 0}, "frequency=350 gain=0 q=1"},
	}
	for _, tt := range tests {
		if got := formatParams(tt.in); got != tt.want {
			t.Errorf("formatParams(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
