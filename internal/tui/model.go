// SPDX-License-Identifier: MIT

// Package tui draws the analyzer in a terminal with Bubble Tea and lets the
// user toggle the equalizer sections from the keyboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eqscope/internal/filter"
	"eqscope/internal/render"
)

// gainStep is the peak gain change per key press in dB.
const gainStep = 1.0

// Frequencies move a sixth of an octave per key press, Q a quarter octave
// of bandwidth ratio.
var (
	freqStep    = math.Pow(2, 1.0/6)
	qualityStep = math.Pow(2, 1.0/4)
)

// chromeRows are the rows not used by the plot: title, status and help.
const chromeRows = 3

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	bypassedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Strikethrough(true)
)

// Resizer is the part of the render driver the UI needs.
type Resizer interface {
	Resize(width, height int)
}

// Model is the Bubble Tea model for the analyzer screen.
type Model struct {
	title  string
	store  *filter.Store
	driver Resizer
	sink   *Sink

	keys keyMap
	help help.Model

	frame         *render.Frame
	width, height int
}

// NewModel builds the analyzer screen. Frames arrive through sink, which
// must be the driver's sink.
func NewModel(title string, store *filter.Store, driver Resizer, sink *Sink) Model {
	return Model{
		title:  title,
		store:  store,
		driver: driver,
		sink:   sink,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.sink.wait()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.driver.Resize(m.width*cellWidth, m.plotRows()*cellHeight)

	case frameMsg:
		m.frame = msg.frame
		return m, m.sink.wait()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.driver.Resize(m.width*cellWidth, m.plotRows()*cellHeight)
	case key.Matches(msg, m.keys.Analyzer):
		m.store.SetAnalyzerEnabled(!m.store.AnalyzerEnabled())
	case key.Matches(msg, m.keys.LowCut):
		m.store.Update(func(s *filter.ChainSettings) { s.LowCutBypassed = !s.LowCutBypassed })
	case key.Matches(msg, m.keys.Peak):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakBypassed = !s.PeakBypassed })
	case key.Matches(msg, m.keys.HighCut):
		m.store.Update(func(s *filter.ChainSettings) { s.HighCutBypassed = !s.HighCutBypassed })
	case key.Matches(msg, m.keys.LowSlope):
		m.store.Update(func(s *filter.ChainSettings) { s.LowCutSlope = s.LowCutSlope.Next() })
	case key.Matches(msg, m.keys.HighSlope):
		m.store.Update(func(s *filter.ChainSettings) { s.HighCutSlope = s.HighCutSlope.Next() })
	case key.Matches(msg, m.keys.GainUp):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakGainDB += gainStep })
	case key.Matches(msg, m.keys.GainDown):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakGainDB -= gainStep })
	case key.Matches(msg, m.keys.LowFreqDown):
		m.store.Update(func(s *filter.ChainSettings) { s.LowCutFreq /= freqStep })
	case key.Matches(msg, m.keys.LowFreqUp):
		m.store.Update(func(s *filter.ChainSettings) { s.LowCutFreq *= freqStep })
	case key.Matches(msg, m.keys.PeakFreqDown):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakFreq /= freqStep })
	case key.Matches(msg, m.keys.PeakFreqUp):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakFreq *= freqStep })
	case key.Matches(msg, m.keys.HighFreqDown):
		m.store.Update(func(s *filter.ChainSettings) { s.HighCutFreq /= freqStep })
	case key.Matches(msg, m.keys.HighFreqUp):
		m.store.Update(func(s *filter.ChainSettings) { s.HighCutFreq *= freqStep })
	case key.Matches(msg, m.keys.QualityDown):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakQuality /= qualityStep })
	case key.Matches(msg, m.keys.QualityUp):
		m.store.Update(func(s *filter.ChainSettings) { s.PeakQuality *= qualityStep })
	}
	return m, nil
}

func (m Model) plotRows() int {
	rows := m.height - chromeRows
	if m.help.ShowAll {
		tallest := 0
		for _, column := range m.keys.FullHelp() {
			tallest = max(tallest, len(column))
		}
		rows -= tallest - 1
	}
	return max(rows, 0)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteByte('\n')
	sb.WriteString(m.status())
	sb.WriteByte('\n')

	c := newCanvas(m.width, m.plotRows())
	if m.frame != nil {
		c.drawFrame(m.frame)
	}
	sb.WriteString(c.String())
	sb.WriteByte('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) status() string {
	s := m.store.Settings()
	section := func(text string, bypassed bool) string {
		if bypassed {
			return bypassedStyle.Render(text)
		}
		return infoStyle.Render(text)
	}

	parts := []string{
		section(fmt.Sprintf("LC %s %s", render.FrequencyLabel(s.LowCutFreq), s.LowCutSlope), s.LowCutBypassed),
		section(fmt.Sprintf("PK %s %sdB Q%.2f", render.FrequencyLabel(s.PeakFreq), render.GainLabel(s.PeakGainDB), s.PeakQuality), s.PeakBypassed),
		section(fmt.Sprintf("HC %s %s", render.FrequencyLabel(s.HighCutFreq), s.HighCutSlope), s.HighCutBypassed),
	}
	analyzer := "analyzer off"
	if m.store.AnalyzerEnabled() {
		analyzer = "analyzer on"
	}
	parts = append(parts, infoStyle.Render(analyzer))
	if m.frame != nil && m.frame.SampleRate > 0 {
		parts = append(parts, infoStyle.Render(fmt.Sprintf("%.0f Hz", m.frame.SampleRate)))
	}
	return strings.Join(parts, " │ ")
}

// Run shows the model until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.sink.Close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
