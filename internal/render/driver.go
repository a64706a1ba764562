// SPDX-License-Identifier: MIT

// Package render drives the visualisation: a fixed-rate loop that pulls
// spectrum paths from the per-channel producers, rebuilds the visualisation
// filter chain when parameters change and hands a Frame to the drawing
// collaborator.
package render

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"eqscope/internal/analysis"
	"eqscope/internal/filter"
	"eqscope/internal/log"
	"eqscope/pkg/decibels"
)

var logger = log.Named("render")

// DefaultRefreshRate is the driver's tick rate in Hz.
const DefaultRefreshRate = 60

// Config sizes the driver.
type Config struct {
	RefreshRate float64 // Ticks per second.
	Width       int     // Initial component size in pixels or cells.
	Height      int
}

// SampleRateFunc reports the current audio sample rate, 0 when unknown.
type SampleRateFunc func() float64

// Driver is the periodic render task. A tick never waits for audio: it
// draws whatever the producers have ready, so a late tick only delays the
// picture.
type Driver struct {
	store      *filter.Store
	sampleRate SampleRateFunc
	sink       Sink
	producers  []analysis.SpectrumSource
	interval   time.Duration

	changed     filter.ChangeFlag
	unsubscribe func()

	// Owned by the ticking goroutine.
	chain    filter.Chain
	frame    Frame
	errored  bool
	snapshot atomic.Pointer[filter.Chain]
	sequence atomic.Uint64

	sizeMu        sync.Mutex
	width, height int

	ticker   *time.Ticker   // Ticker that triggers redraws.
	doneChan chan struct{}  // Signals the loop to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the loop during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.
	tickMu   sync.Mutex     // Serialises Tick between the loop and direct callers.
}

// NewDriver creates a driver. Producers are drawn in the order given, left
// channel first.
func NewDriver(cfg Config, store *filter.Store, sampleRate SampleRateFunc, sink Sink, producers ...analysis.SpectrumSource) (*Driver, error) {
	if store == nil {
		return nil, errors.New("render driver: parameter store cannot be nil")
	}
	if sampleRate == nil {
		return nil, errors.New("render driver: sample rate func cannot be nil")
	}
	if sink == nil {
		sink = SinkFunc(func(*Frame) error { return nil })
	}

	rate := cfg.RefreshRate
	if rate <= 0 || math.IsNaN(rate) {
		rate = DefaultRefreshRate
		logger.Warnf("invalid refresh rate %v, defaulting to %d Hz", cfg.RefreshRate, DefaultRefreshRate)
	}

	d := &Driver{
		store:      store,
		sampleRate: sampleRate,
		sink:       sink,
		producers:  producers,
		interval:   time.Duration(float64(time.Second) / rate),
		width:      max(cfg.Width, 0),
		height:     max(cfg.Height, 0),
	}
	d.frame.Spectrum = make([]analysis.Path, len(producers))
	d.rebuild(sampleRate())
	d.unsubscribe = store.SubscribeFlag(&d.changed)

	logger.Infof("driver ready (%d channels, interval %s)", len(producers), d.interval)
	return d, nil
}

// Resize changes the component size used from the next tick on.
func (d *Driver) Resize(width, height int) {
	d.sizeMu.Lock()
	d.width, d.height = max(width, 0), max(height, 0)
	d.sizeMu.Unlock()
}

// Size returns the current component size.
func (d *Driver) Size() (width, height int) {
	d.sizeMu.Lock()
	defer d.sizeMu.Unlock()
	return d.width, d.height
}

// Interval returns the time between ticks.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// MagnitudeDB evaluates the latest visualisation chain at freq. It is safe
// to call from any goroutine.
func (d *Driver) MagnitudeDB(freq float64) float64 {
	c := d.snapshot.Load()
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return c.MagnitudeDB(freq, c.SampleRate)
}

func (d *Driver) rebuild(sampleRate float64) {
	d.chain.Update(d.store.Settings(), sampleRate)
	snap := d.chain
	d.snapshot.Store(&snap)
}

// Tick runs one render cycle.
func (d *Driver) Tick() {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	width, height := d.Size()
	area := AnalysisArea(width, height)
	columns := int(area.Width)
	sampleRate := d.sampleRate()
	analyzer := d.store.AnalyzerEnabled()

	// 1. Advance the spectrum pipelines.
	if analyzer {
		for _, p := range d.producers {
			p.Process(columns, area.Height, sampleRate)
		}
	}

	// 2. Rebuild coefficients once per burst of parameter changes.
	if d.changed.Consume() || sampleRate != d.chain.SampleRate {
		d.rebuild(sampleRate)
	}

	// 3. Draw.
	f := &d.frame
	f.Sequence = d.sequence.Add(1)
	f.Timestamp = time.Now()
	f.Width, f.Height, f.Area = width, height, area
	f.SampleRate = sampleRate
	f.Analyzer = analyzer
	f.Settings = d.store.Settings()

	for i, p := range d.producers {
		if analyzer {
			f.Spectrum[i] = p.Path(f.Spectrum[i])
		} else {
			f.Spectrum[i] = f.Spectrum[i][:0]
		}
	}
	d.fillResponse(columns, area.Height, sampleRate)

	if err := d.sink.Draw(f); err != nil {
		if !d.errored {
			logger.Warnf("sink failed: %v", err)
		}
		d.errored = true
		return
	}
	d.errored = false
}

func (d *Driver) fillResponse(columns int, height, sampleRate float64) {
	f := &d.frame
	f.Response = f.Response[:0]
	if cap(f.ResponseDB) < columns {
		f.ResponseDB = make([]float64, columns)
	}
	f.ResponseDB = f.ResponseDB[:columns]
	if sampleRate <= 0 {
		f.ResponseDB = f.ResponseDB[:0]
		return
	}

	d.chain.ResponseCurve(f.ResponseDB, MinFrequency, MaxFrequency, sampleRate)
	for i, db := range f.ResponseDB {
		y := decibels.Map(db, ResponseMinDB, ResponseMaxDB, height, 0)
		y = math.Min(math.Max(y, 0), height)
		f.Response = append(f.Response, analysis.Point{X: float64(i), Y: y})
	}
}

// Start begins ticking at the configured rate. It is safe to call Start
// multiple times; subsequent calls are no-ops if already started.
func (d *Driver) Start() {
	d.mu.Lock()
	if d.ticker != nil {
		d.mu.Unlock()
		logger.Warnf("Start called but already running")
		return
	}

	d.ticker = time.NewTicker(d.interval)
	d.doneChan = make(chan struct{})
	d.stopOnce = sync.Once{}

	ticker := d.ticker
	doneChan := d.doneChan
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		logger.Debugf("render loop started")
		for {
			select {
			case <-ticker.C:
				d.Tick()
			case <-doneChan:
				logger.Debugf("render loop received stop signal")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight tick to finish. It is
// safe to call Stop multiple times.
func (d *Driver) Stop() error {
	d.mu.Lock()
	if d.ticker == nil {
		d.mu.Unlock()
		return nil
	}
	d.stopOnce.Do(func() {
		close(d.doneChan)
		d.ticker.Stop()
		d.ticker = nil
	})
	d.mu.Unlock()

	d.wg.Wait()
	logger.Debugf("render loop finished")
	return nil
}

// Close stops the loop and detaches from the parameter store.
func (d *Driver) Close() error {
	err := d.Stop()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	return err
}

var _ interface{ Close() error } = (*Driver)(nil)
