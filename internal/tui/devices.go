// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eqscope/internal/audio"
)

var highlightStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#25A065")).
	Bold(true)

// pickerSampleRates are offered on the configuration screen.
var pickerSampleRates = []float64{44100, 48000, 88200, 96000}

// screen defines which picker screen is currently active
type screen int

const (
	listScreen screen = iota
	configScreen
)

// Selection is the device and rate chosen in the picker.
type Selection struct {
	DeviceID   int
	Name       string
	SampleRate float64
}

type pickerKeys struct {
	Up, Down, Enter, Back, Quit key.Binding
}

var defaultPickerKeys = pickerKeys{
	Up:    key.NewBinding(key.WithKeys("up", "k")),
	Down:  key.NewBinding(key.WithKeys("down", "j")),
	Enter: key.NewBinding(key.WithKeys("enter")),
	Back:  key.NewBinding(key.WithKeys("esc")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// DevicePicker lists the input devices and lets the user choose one and a
// sample rate.
type DevicePicker struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	active        screen
	rateIndex     int

	selection *Selection
}

// NewDevicePicker creates a picker over the devices that have inputs.
func NewDevicePicker(devices []audio.Device) DevicePicker {
	var inputs []audio.Device
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return DevicePicker{devices: inputs, active: listScreen}
}

// Selection returns the confirmed choice, if any.
func (m DevicePicker) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

// Init implements tea.Model.
func (m DevicePicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m DevicePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, defaultPickerKeys.Quit) {
			return m, tea.Quit
		}
		if m.active == listScreen {
			switch {
			case key.Matches(msg, defaultPickerKeys.Up):
				m.selectedIndex = max(m.selectedIndex-1, 0)
			case key.Matches(msg, defaultPickerKeys.Down):
				m.selectedIndex = min(m.selectedIndex+1, max(len(m.devices)-1, 0))
			case key.Matches(msg, defaultPickerKeys.Enter):
				if len(m.devices) > 0 {
					m.active = configScreen
					m.rateIndex = closestRate(m.devices[m.selectedIndex].DefaultSampleRate)
				}
			}
		} else {
			switch {
			case key.Matches(msg, defaultPickerKeys.Back):
				m.active = listScreen
			case key.Matches(msg, defaultPickerKeys.Up):
				m.rateIndex = max(m.rateIndex-1, 0)
			case key.Matches(msg, defaultPickerKeys.Down):
				m.rateIndex = min(m.rateIndex+1, len(pickerSampleRates)-1)
			case key.Matches(msg, defaultPickerKeys.Enter):
				d := m.devices[m.selectedIndex]
				m.selection = &Selection{DeviceID: d.ID, Name: d.Name, SampleRate: pickerSampleRates[m.rateIndex]}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DevicePicker) refresh() {
	if !m.ready {
		return
	}
	if m.active == listScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderDeviceConfig())
	}
}

// closestRate returns the index of the offered rate nearest to rate.
func closestRate(rate float64) int {
	best := 0
	for i, r := range pickerSampleRates {
		if math.Abs(r-rate) < math.Abs(pickerSampleRates[best]-rate) {
			best = i
		}
	}
	return best
}

// View implements tea.Model.
func (m DevicePicker) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.active == listScreen {
		title = titleStyle.Render("Select Input Device")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Start • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DevicePicker) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, device.Kind())
		info += fmt.Sprintf("    Input channels: %d, Host API: %s\n", device.MaxInputChannels, device.HostAPI)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DevicePicker) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	sb.WriteString("Sample Rate:\n")
	for i, rate := range pickerSampleRates {
		marker := " "
		if i == m.rateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.rateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// PickDevice runs the picker full screen. ok is false if the user quit
// without choosing.
func PickDevice(devices []audio.Device) (sel Selection, ok bool, err error) {
	p := tea.NewProgram(NewDevicePicker(devices), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok = final.(DevicePicker).Selection()
	return sel, ok, nil
}
