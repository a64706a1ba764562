// SPDX-License-Identifier: MIT

// Package utils holds signal generators and peak search helpers used by
// tests.
package utils

import "math"

// GenerateComplexWave returns a 440 Hz tone with its second and third
// harmonics at 0.9 full scale.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns size samples of a sine at frequency with the
// given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	FillSineWave(buffer, 0, sampleRate, frequency, amplitude)
	return buffer
}

// FillSineWave writes a sine into buffer starting at sample offset start,
// so consecutive calls produce a continuous tone.
func FillSineWave(buffer []float32, start int, sampleRate, frequency, amplitude float64) {
	for i := range buffer {
		t := float64(start+i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
}

// FindPeakBin returns the index of the largest value in
// magnitudes[startBin:endBin+1]. Out of range bounds are clamped.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// ExpectedBin returns the FFT bin a tone at frequency lands in.
func ExpectedBin(frequency, sampleRate float64, fftSize int) int {
	return int(math.Round(frequency / (sampleRate / float64(fftSize))))
}
