package tsm

import (
	"math"
	"testing"
)

func sineWindow(sampleRate int, n int, freqHz float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sampleRate)))
	}
	return out
}

func TestEstimatePeriodDetectsKnownFrequency(t *testing.T) {
	const sampleRate = 22050
	const freq = 150.0 // well within the 60-400Hz search range

	p := newPitchParams(sampleRate, 60, 400)
	window := sineWindow(sampleRate, p.maxPeriod*4, freq)

	got := estimatePeriod(window, p)
	want := int(math.Round(sampleRate / freq))
	if diff := got - want; diff < -2 || diff > 2 {
		t.Errorf("estimatePeriod = %d, want within 2 of %d", got, want)
	}
}

func TestEstimatePeriodFallsBackForTooShortWindow(t *testing.T) {
	p := newPitchParams(22050, 60, 400)
	short := make([]float32, p.maxPeriod) // shorter than required maxPeriod+minPeriod
	if got := estimatePeriod(short, p); got != p.fallback {
		t.Errorf("estimatePeriod(short) = %d, want fallback %d", got, p.fallback)
	}
}

func TestEstimatePeriodAlwaysWithinBoundsOrFallback(t *testing.T) {
	p := newPitchParams(22050, 60, 400)
	n := p.maxPeriod * 4
	window := make([]float32, n)
	for i := range window {
		x := float64(i)
		window[i] = float32(math.Sin(x*0.9137) + math.Sin(x*2.6421) + math.Sin(x*5.333))
	}
	got := estimatePeriod(window, p)
	if got != p.fallback && (got < p.minPeriod || got > p.maxPeriod) {
		t.Errorf("estimatePeriod(noise-like) = %d, want fallback %d or in [%d,%d]", got, p.fallback, p.minPeriod, p.maxPeriod)
	}
}
