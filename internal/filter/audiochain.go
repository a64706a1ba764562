// SPDX-License-Identifier: MIT
package filter

import "sync/atomic"

type channelState struct {
	lowCut  [MaxCutStages]State
	peak    State
	highCut [MaxCutStages]State
}

// AudioChain is the chain instance used on the audio path. Coefficients
// arrive through Publish from any goroutine; the audio callback picks up
// the newest snapshot at the start of a block with a single atomic swap and
// then works on its private copy.
type AudioChain struct {
	pending atomic.Pointer[Chain]

	active   Chain // Owned by the audio callback.
	channels []channelState
}

// NewAudioChain creates a chain for the given channel count, starting from
// initial.
func NewAudioChain(channels int, initial Chain) *AudioChain {
	if channels < 1 {
		channels = 1
	}
	return &AudioChain{
		active:   initial,
		channels: make([]channelState, channels),
	}
}

// Publish hands a new coefficient set to the audio path. It allocates and
// must not be called from the audio callback.
func (ac *AudioChain) Publish(c Chain) {
	ac.pending.Store(&c)
}

// Prepare installs the latest published snapshot, if any. Call once per
// block from the audio callback before ProcessBlock.
func (ac *AudioChain) Prepare() {
	if next := ac.pending.Swap(nil); next != nil {
		ac.active = *next
	}
}

// Channels returns the number of channels with filter state.
func (ac *AudioChain) Channels() int {
	return len(ac.channels)
}

// Reset clears every channel's filter state.
func (ac *AudioChain) Reset() {
	for i := range ac.channels {
		ac.channels[i] = channelState{}
	}
}

// ProcessBlock filters buf in place with channel ch's state.
func (ac *AudioChain) ProcessBlock(ch int, buf []float32) {
	if ch < 0 || ch >= len(ac.channels) {
		return
	}
	st := &ac.channels[ch]
	c := &ac.active

	for i, s := range buf {
		x := float64(s)
		if !c.LowCut.Bypassed {
			for k := 0; k < c.LowCut.Active; k++ {
				if !c.LowCut.Stages[k].Bypassed {
					x = st.lowCut[k].Process(&c.LowCut.Stages[k].Coefficients, x)
				}
			}
		}
		if !c.Peak.Bypassed {
			x = st.peak.Process(&c.Peak.Coefficients, x)
		}
		if !c.HighCut.Bypassed {
			for k := 0; k < c.HighCut.Active; k++ {
				if !c.HighCut.Stages[k].Bypassed {
					x = st.highCut[k].Process(&c.HighCut.Stages[k].Coefficients, x)
				}
			}
		}
		buf[i] = float32(x)
	}
}
