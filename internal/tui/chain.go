// SPDX-License-Identifier: MIT
/*
Package tui is a terminal chain editor. The left pane lists node kinds,
the right pane the current chain; every edit goes through a control loop.
*/
package tui

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"pipeline/internal/audio"
	"pipeline/internal/control"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E05252"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("#25A065"))
)

// Menu lists the node specs offered in the left pane.
var Menu = []string{
	"source", "destination",
	"lowpass", "highpass", "bandpass", "lowshelf", "highshelf", "peaking", "notch", "allpass",
	"gain", "delay", "osc", "panner", "shaper",
}

// Submitter is the command side of a control.Loop.
type Submitter interface {
	Submit(ctx context.Context, cmd control.Command) (control.Reply, error)
}

// Options configures the editor.
type Options struct {
	Title   string
	Devices func() ([]audio.Device, error) // nil disables the device screen
}

type pane int

const (
	menuPane pane = iota
	chainPane
)

type replyMsg struct {
	op    string
	reply control.Reply
	err   error
}

// ChainModel is the Bubble Tea model of the editor.
type ChainModel struct {
	ctx  context.Context
	ctl  Submitter
	opts Options
	keys keyMap
	help help.Model

	focus      pane
	menuIndex  int
	chainIndex int

	chain   []control.NodeInfo
	playing bool
	status  string
	err     error

	showDevices bool
	devices     []audio.Device
	deviceIndex int
}

// NewChainModel creates an editor that submits to ctl.
func NewChainModel(ctx context.Context, ctl Submitter, opts Options) ChainModel {
	if opts.Title == "" {
		opts.Title = "Pipeline"
	}
	return ChainModel{
		ctx:  ctx,
		ctl:  ctl,
		opts: opts,
		keys: defaultKeyMap(),
		help: help.New(),
	}
}

// Init loads the current chain.
func (m ChainModel) Init() tea.Cmd {
	return m.submit(control.Command{Op: control.OpList})
}

func (m ChainModel) submit(cmd control.Command) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		r, err := ctl.Submit(ctx, cmd)
		return replyMsg{op: cmd.Op, reply: r, err: err}
	}
}

func (m ChainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case replyMsg:
		m.applyReply(msg)

	case devicesMsg:
		m.devices = msg.devices
		m.err = nil

	case errMsg:
		m.err = msg.err
		m.status = msg.err.Error()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.showDevices {
			return m.updateDevices(msg)
		}
		return m.updateChain(msg)
	}
	return m, nil
}

func (m *ChainModel) applyReply(msg replyMsg) {
	if msg.err != nil {
		m.err = msg.err
		m.status = fmt.Sprintf("%s: %v", msg.op, msg.err)
	} else {
		m.err = nil
		if msg.op != control.OpList {
			m.status = msg.op + " ok"
		}
	}
	if msg.reply.Chain != nil {
		m.chain = msg.reply.Chain
		m.playing = msg.reply.Playing
	}
	m.chainIndex = min(m.chainIndex, max(len(m.chain)-1, 0))
}

func (m ChainModel) updateDevices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.showDevices = false
	case key.Matches(msg, m.keys.Up):
		m.deviceIndex = max(m.deviceIndex-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.deviceIndex = min(m.deviceIndex+1, max(len(m.devices)-1, 0))
	}
	return m, nil
}

func (m ChainModel) updateChain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Devices):
		if m.opts.Devices == nil {
			return m, nil
		}
		m.showDevices = true
		return m, fetchDevices(m.opts.Devices)

	case key.Matches(msg, m.keys.Focus):
		if m.focus == menuPane {
			m.focus = chainPane
		} else {
			m.focus = menuPane
		}

	case key.Matches(msg, m.keys.Up):
		if m.focus == menuPane {
			m.menuIndex = max(m.menuIndex-1, 0)
		} else {
			m.chainIndex = max(m.chainIndex-1, 0)
		}

	case key.Matches(msg, m.keys.Down):
		if m.focus == menuPane {
			m.menuIndex = min(m.menuIndex+1, len(Menu)-1)
		} else {
			m.chainIndex = min(m.chainIndex+1, max(len(m.chain)-1, 0))
		}

	case key.Matches(msg, m.keys.Add):
		if m.focus == menuPane {
			return m, m.submit(control.Command{Op: control.OpAdd, Spec: Menu[m.menuIndex]})
		}

	case key.Matches(msg, m.keys.Delete):
		if m.focus == chainPane && len(m.chain) > 0 {
			return m, m.submit(control.Command{Op: control.OpRemove, Index: m.chainIndex})
		}

	case key.Matches(msg, m.keys.MoveDown):
		if m.chainIndex+1 < len(m.chain) {
			from := m.chainIndex
			m.chainIndex++
			return m, m.submit(control.Command{Op: control.OpSwap, From: from, To: from + 1})
		}

	case key.Matches(msg, m.keys.MoveUp):
		if m.chainIndex > 0 && m.chainIndex < len(m.chain) {
			from := m.chainIndex
			m.chainIndex--
			return m, m.submit(control.Command{Op: control.OpSwap, From: from, To: from - 1})
		}

	case key.Matches(msg, m.keys.Connect):
		return m, m.submit(control.Command{Op: control.OpConnect})

	case key.Matches(msg, m.keys.Disconnect):
		return m, m.submit(control.Command{Op: control.OpDisconnect})

	case key.Matches(msg, m.keys.Play):
		return m, m.submit(control.Command{Op: control.OpControl, Action: "start"})

	case key.Matches(msg, m.keys.Stop):
		return m, m.submit(control.Command{Op: control.OpControl, Action: "stop"})
	}
	return m, nil
}

// View renders the UI
func (m ChainModel) View() string {
	if m.showDevices {
		title := titleStyle.Render("Audio Device List")
		help := infoStyle.Render("↑/↓: Navigate • Esc: Back • q: Quit")
		body := renderDevices(m.devices, m.deviceIndex)
		if m.err != nil {
			body = errorStyle.Render("Error: " + m.err.Error())
		}
		return fmt.Sprintf("%s\n\n%s\n%s", title, body, help)
	}

	state := "stopped"
	if m.playing {
		state = "playing"
	}
	title := titleStyle.Render(m.opts.Title) + " " + dimStyle.Render(state)

	menu := m.renderMenu()
	chain := m.renderChain()
	menuBox, chainBox := paneStyle, paneStyle
	if m.focus == menuPane {
		menuBox = focusedPaneStyle
	} else {
		chainBox = focusedPaneStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, menuBox.Render(menu), " ", chainBox.Render(chain))

	status := infoStyle.Render(m.status)
	if m.err != nil {
		status = errorStyle.Render(m.status)
	}
	return fmt.Sprintf("%s\n\n%s\n%s\n%s", title, body, status, m.help.View(m.keys))
}

func (m ChainModel) renderMenu() string {
	var sb strings.Builder
	sb.WriteString("Nodes\n")
	for i, spec := range Menu {
		line := "  " + spec
		if i == m.menuIndex {
			line = "▶ " + spec
			if m.focus == menuPane {
				line = highlightStyle.Render(line)
			}
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m ChainModel) renderChain() string {
	var sb strings.Builder
	sb.WriteString("Chain\n")
	if len(m.chain) == 0 {
		sb.WriteString(dimStyle.Render("(empty)"))
		return sb.String()
	}
	for i, n := range m.chain {
		line := fmt.Sprintf("%d %s", i, n.Label)
		if p := formatParams(n.Params); p != "" {
			line += " " + dimStyle.Render(p)
		}
		if i == m.chainIndex && m.focus == chainPane {
			line = highlightStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatParams(params map[string]float64) string {
	parts := make([]string, 0, len(params))
	for _, name := range slices.Sorted(maps.Keys(params)) {
		parts = append(parts, fmt.Sprintf("%s=%g", name, params[name]))
	}
	return strings.Join(parts, " ")
}

// Run starts the editor and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ctl Submitter, opts Options) error {
	p := tea.NewProgram(
		NewChainModel(ctx, ctl, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
