// SPDX-License-Identifier: MIT
package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Analyzer  key.Binding
	LowCut    key.Binding
	Peak      key.Binding
	HighCut   key.Binding
	LowSlope  key.Binding
	HighSlope key.Binding
	GainUp    key.Binding
	GainDown  key.Binding

	LowFreqDown  key.Binding
	LowFreqUp    key.Binding
	PeakFreqDown key.Binding
	PeakFreqUp   key.Binding
	HighFreqDown key.Binding
	HighFreqUp   key.Binding
	QualityDown  key.Binding
	QualityUp    key.Binding

	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Analyzer:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyzer")),
		LowCut:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "low cut")),
		Peak:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "peak")),
		HighCut:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "high cut")),
		LowSlope:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "low cut slope")),
		HighSlope: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "high cut slope")),
		GainUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "peak gain up")),
		GainDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "peak gain down")),

		LowFreqDown:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "low cut freq down")),
		LowFreqUp:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "low cut freq up")),
		PeakFreqDown: key.NewBinding(key.WithKeys(","), key.WithHelp(",", "peak freq down")),
		PeakFreqUp:   key.NewBinding(key.WithKeys("."), key.WithHelp(".", "peak freq up")),
		HighFreqDown: key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "high cut freq down")),
		HighFreqUp:   key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "high cut freq up")),
		QualityDown:  key.NewBinding(key.WithKeys("9"), key.WithHelp("9", "peak Q down")),
		QualityUp:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "peak Q up")),

		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Analyzer, k.GainUp, k.GainDown, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Analyzer, k.LowCut, k.Peak, k.HighCut},
		{k.LowSlope, k.HighSlope, k.GainUp, k.GainDown},
		{k.LowFreqDown, k.LowFreqUp, k.HighFreqDown, k.HighFreqUp},
		{k.PeakFreqDown, k.PeakFreqUp, k.QualityDown, k.QualityUp},
		{k.Help, k.Quit},
	}
}
