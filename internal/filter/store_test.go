// SPDX-License-Identifier: MIT
package filter

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeFlagCoalesces(t *testing.T) {
	var f ChangeFlag
	assert.False(t, f.Consume())

	f.Mark()
	f.Mark()
	f.Mark()
	assert.True(t, f.Consume())
	assert.False(t, f.Consume())
}

func TestStoreUpdateNotifies(t *testing.T) {
	s := NewStore(DefaultChainSettings())

	var calls atomic.Int32
	unsubscribe := s.Subscribe(func() { calls.Add(1) })

	s.Update(func(cs *ChainSettings) { cs.PeakGainDB = 6 })
	assert.Equal(t, 6.0, s.Settings().PeakGainDB)
	assert.EqualValues(t, 1, calls.Load())

	unsubscribe()
	s.Update(func(cs *ChainSettings) { cs.PeakGainDB = 3 })
	assert.EqualValues(t, 1, calls.Load())
}

func TestStoreClampsWrites(t *testing.T) {
	s := NewStore(DefaultChainSettings())
	s.Set(ChainSettings{PeakGainDB: 90})
	assert.Equal(t, MaxGainDB, s.Settings().PeakGainDB)
}

func TestStoreAnalyzerToggle(t *testing.T) {
	s := NewStore(DefaultChainSettings())
	assert.True(t, s.AnalyzerEnabled())
	s.SetAnalyzerEnabled(false)
	assert.False(t, s.AnalyzerEnabled())
}

func TestStoreSubscribeFlag(t *testing.T) {
	s := NewStore(DefaultChainSettings())
	var f ChangeFlag
	s.SubscribeFlag(&f)

	for range 10 {
		s.Update(func(cs *ChainSettings) { cs.PeakFreq += 10 })
	}
	assert.True(t, f.Consume())
	assert.False(t, f.Consume())
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore(DefaultChainSettings())
	s.Set(ChainSettings{PeakFreq: 1000})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Update(func(cs *ChainSettings) { cs.PeakFreq++ })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1800.0, s.Settings().PeakFreq)
}
