// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"

	"eqscope/internal/log"
	"eqscope/pkg/bitint"
	"eqscope/pkg/decibels"
)

var logger = log.Named("analysis")

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BlackmanHarris WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

func (w WindowFunc) String() string {
	switch w {
	case BlackmanHarris:
		return "blackmanharris"
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// FFTOrder is log2 of the FFT size.
type FFTOrder int

const (
	Order2048 FFTOrder = 11
	Order4096 FFTOrder = 12
	Order8192 FFTOrder = 13
)

// Size returns the number of points of an FFT of this order.
func (o FFTOrder) Size() int {
	return 1 << o
}

var ErrUnsupportedFFTSize = errors.New("fft size must be 2048, 4096 or 8192")

// OrderForSize maps an FFT size onto its order.
func OrderForSize(size int) (FFTOrder, error) {
	if !bitint.IsPowerOfTwo(size) {
		return 0, fmt.Errorf("%w, got %d", ErrUnsupportedFFTSize, size)
	}
	switch o := FFTOrder(bitint.Log2(size)); o {
	case Order2048, Order4096, Order8192:
		return o, nil
	}
	return 0, fmt.Errorf("%w, got %d", ErrUnsupportedFFTSize, size)
}

// FFTDataGenerator turns a window of mono samples into a frame of per-bin
// magnitudes in dB. Frames are queued until the caller pops them; when the
// queue is full the oldest frame is dropped.
//
// It is not safe for concurrent use. The render goroutine owns it.
type FFTDataGenerator struct {
	order  FFTOrder
	size   int
	fft    *fourier.FFT
	window []float64

	input     []float64    // Windowed input.
	fftOutput []complex128 // size/2+1 coefficients.
	magnitude []float64    // size/2 bins, reused for the dB frame.

	frames *queue[float64]
}

// NewFFTDataGenerator creates a generator for the given order and window,
// holding at most queueDepth unread frames.
func NewFFTDataGenerator(order FFTOrder, windowType WindowFunc, queueDepth int) (*FFTDataGenerator, error) {
	switch order {
	case Order2048, Order4096, Order8192:
	default:
		return nil, fmt.Errorf("%w, got order %d", ErrUnsupportedFFTSize, int(order))
	}
	if queueDepth < 1 {
		return nil, fmt.Errorf("frame queue depth must be positive, got %d", queueDepth)
	}

	size := order.Size()
	numBins := size / 2
	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	logger.Debugf("FFT generator (size %d, window %v, queue %d)", size, windowType, queueDepth)

	return &FFTDataGenerator{
		order:     order,
		size:      size,
		fft:       fourier.NewFFT(size),
		window:    coeffs,
		input:     make([]float64, size),
		fftOutput: make([]complex128, size/2+1),
		magnitude: make([]float64, numBins),
		frames:    newQueue[float64](queueDepth, numBins),
	}, nil
}

// Produce runs one FFT over the most recent FFTSize samples and queues the
// resulting frame. The window has unit mean and magnitudes are divided by
// the bin count, so a full scale sine on a bin centre reads 0 dB. Values
// are floored at negativeInfinity. It
// reports false, producing nothing, when fewer than FFTSize samples are
// given.
func (g *FFTDataGenerator) Produce(samples []float32, negativeInfinity float64) bool {
	if len(samples) < g.size {
		return false
	}
	samples = samples[len(samples)-g.size:]

	for i, s := range samples {
		g.input[i] = float64(s) * g.window[i]
	}

	g.fft.Coefficients(g.fftOutput, g.input)

	for i := range g.magnitude {
		g.magnitude[i] = cmplx.Abs(g.fftOutput[i])
	}
	f64.Scale(g.magnitude, g.magnitude, 1/float64(len(g.magnitude)))

	for i, m := range g.magnitude {
		g.magnitude[i] = decibels.GainToDecibels(m, negativeInfinity)
	}

	g.frames.push(g.magnitude)
	return true
}

// Available returns the number of queued frames.
func (g *FFTDataGenerator) Available() int {
	return g.frames.len()
}

// Pop copies the oldest queued frame into dst, which must hold NumBins
// values, and removes it from the queue.
func (g *FFTDataGenerator) Pop(dst []float64) bool {
	if len(dst) < g.NumBins() {
		return false
	}
	_, ok := g.frames.pop(dst[:0])
	return ok
}

// Dropped returns the number of frames overwritten before they were read.
func (g *FFTDataGenerator) Dropped() uint64 {
	return g.frames.dropped
}

// Reset discards queued frames.
func (g *FFTDataGenerator) Reset() {
	g.frames.reset()
}

// FFTSize returns the configured FFT size (number of points).
func (g *FFTDataGenerator) FFTSize() int {
	return g.size
}

// NumBins returns the frame length, FFTSize/2.
func (g *FFTDataGenerator) NumBins() int {
	return g.size / 2
}

// Order returns the FFT order.
func (g *FFTDataGenerator) Order() FFTOrder {
	return g.order
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (BlackmanHarris) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "blackmanharris", "blackman-harris", "":
		return BlackmanHarris, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return BlackmanHarris, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window scaled to a mean of
// one. Unknown types fall back to BlackmanHarris.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window funcs multiply in place, so start from ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BlackmanHarris:
		window.BlackmanHarris(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		logger.Warnf("unknown window function type %d, defaulting to blackmanharris", windowType)
		window.BlackmanHarris(coeffs)
	}

	// Remove the coherent gain.
	if sum := floats.Sum(coeffs); sum > 0 {
		floats.Scale(float64(len(coeffs))/sum, coeffs)
	}
}
