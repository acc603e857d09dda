package tension

import (
	"errors"
	"testing"

	"github.com/speedyaudio/speedy/internal/spectral"
)

func flatSpectrum(energy, speechScore float64) spectral.Spectrum {
	return spectral.Spectrum{Energy: energy, LowEnergy: energy, SpeechScore: speechScore}
}

func TestTryTensionNotYetAvailable(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEstimator(cfg)

	for f := int64(0); f < int64(cfg.KFuture); f++ {
		e.Update(flatSpectrum(1, 0.5), f)
		if _, err := e.TryTension(0); !errors.Is(err, ErrNotYetAvailable) {
			t.Fatalf("frame %d: TryTension(0) err = %v, want ErrNotYetAvailable", f, err)
		}
	}
	e.Update(flatSpectrum(1, 0.5), int64(cfg.KFuture))
	if _, err := e.TryTension(0); err != nil {
		t.Fatalf("TryTension(0) after window fills: unexpected error %v", err)
	}
}

func TestTensionNeverReemitted(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEstimator(cfg)
	for f := int64(0); f <= int64(cfg.KFuture); f++ {
		e.Update(flatSpectrum(1, 0.5), f)
	}
	if _, err := e.TryTension(0); err != nil {
		t.Fatalf("first TryTension(0): %v", err)
	}
	if _, err := e.TryTension(0); !errors.Is(err, ErrNotYetAvailable) {
		t.Fatalf("second TryTension(0) err = %v, want ErrNotYetAvailable (already finalized)", err)
	}
}

func TestTensionStableForConstantSignal(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEstimator(cfg)
	total := cfg.KPast + cfg.KFuture + 5
	last := -1.0
	for f := int64(0); f < int64(total); f++ {
		e.Update(flatSpectrum(0.5, 0.5), f)
		if tVal, err := e.TryTension(f - int64(cfg.KFuture)); err == nil {
			last = tVal
		}
	}
	// No change detected: dE and dP are both 0, so only the offsets remain:
	// clamp(0.5*(0-0.7) + 0.25*(0-1.0) + 0.5, 0, 1) = 0 with the defaults.
	want := clamp(-cfg.WeightEnergy*cfg.OffsetEnergy-cfg.WeightSpeech*cfg.OffsetSpeech+0.5, 0, 1)
	if diff := last - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("tension for constant input = %v, want %v (no change detected)", last, want)
	}
}

func TestTensionRisesOnEnergySpike(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEstimator(cfg)

	frame := int64(0)
	push := func(energy float64) {
		e.Update(flatSpectrum(energy, 0.5), frame)
		frame++
	}

	for i := 0; i < cfg.KPast+2; i++ {
		push(0.01) // quiet baseline
	}
	spikeFrame := frame
	push(5.0) // sudden loud frame
	for i := 0; i < cfg.KFuture; i++ {
		push(0.01)
	}

	// Frames are finalized oldest first, so the quiet frames before the
	// spike come out first; they are the baseline the spike must rise above.
	baseline := 0.0
	for f := int64(0); f < spikeFrame; f++ {
		quiet, err := e.TryTension(f)
		if err != nil {
			t.Fatalf("TryTension(%d): %v", f, err)
		}
		if quiet > baseline {
			baseline = quiet
		}
	}

	tVal, err := e.TryTension(spikeFrame)
	if err != nil {
		t.Fatalf("TryTension(%d): %v", spikeFrame, err)
	}
	if tVal <= baseline {
		t.Errorf("tension at energy spike = %v, want > quiet-frame tension %v", tVal, baseline)
	}
}

func TestFlushShortensFutureWindow(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEstimator(cfg)
	for f := int64(0); f < int64(cfg.KPast+2); f++ {
		e.Update(flatSpectrum(1, 0.5), f)
	}

	values := e.Flush()
	if len(values) != cfg.KPast+2 {
		t.Fatalf("Flush() returned %d values, want %d", len(values), cfg.KPast+2)
	}
	for i, v := range values {
		if v.Frame != int64(i) {
			t.Errorf("Flush()[%d].Frame = %d, want %d", i, v.Frame, i)
		}
		if v.Tension < 0 || v.Tension > 1 {
			t.Errorf("Flush()[%d].Tension = %v out of [0,1]", i, v.Tension)
		}
	}

	if got := e.Flush(); got != nil {
		t.Errorf("second Flush() = %v, want nil", got)
	}
}
