// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"pipeline/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

func fetchDevices(fn func() ([]audio.Device, error)) tea.Cmd {
	return func() tea.Msg {
		devices, err := fn()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

// renderDevices formats the device list, marking devices that can play
// the stereo output.
func renderDevices(devices []audio.Device, selected int) string {
	if len(devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, device.Type())
		info += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		switch {
		case i == selected:
			info = highlightStyle.Render(info)
		case !device.CanPlay():
			info = dimStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}
