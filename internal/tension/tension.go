// Package tension implements the Tension Estimator: a ±K-frame hysteresis
// window over spectral features that smooths into a single t in [0,1] per
// frame (spec.md §4.3).
package tension

import (
	"errors"
	"math"

	"github.com/speedyaudio/speedy/internal/ringbuffer"
	"github.com/speedyaudio/speedy/internal/spectral"
)

// ErrNotYetAvailable is returned by TryTension when the hysteresis window
// for the requested frame isn't full yet. It is internal-only: spec.md §7
// says it must never be surfaced to callers of the public Stream API.
var ErrNotYetAvailable = errors.New("tension: not yet available")

// Config groups the Tension Estimator's tunables (spec.md §6).
type Config struct {
	// KPast, KFuture bound the hysteresis window. Default (8, 12):
	// lookahead-dominant, matching the causality budget in spec.md §8.3.
	// The legacy-compatible swap is (12, 8) -- see spec.md §9 Open
	// Questions and SPEC_FULL.md §4.3 for why lookahead-dominant is the
	// one actually implemented here.
	KPast, KFuture int

	LowEnergyScale            float64 // default 0.04
	SpeechChangeCapMultiplier float64 // default 4.0
	WeightEnergy              float64 // w_E, default 0.5
	WeightSpeech              float64 // w_P, default 0.25
	OffsetEnergy              float64 // o_E, default 0.7
	OffsetSpeech              float64 // o_P, default 1.0
}

// DefaultConfig returns the spec.md §4.3/§6 defaults.
func DefaultConfig() Config {
	return Config{
		KPast:                     8,
		KFuture:                   12,
		LowEnergyScale:            0.04,
		SpeechChangeCapMultiplier: 4.0,
		WeightEnergy:              0.5,
		WeightSpeech:              0.25,
		OffsetEnergy:              0.7,
		OffsetSpeech:              1.0,
	}
}

const epsilon = 1e-9

// Value is one finalized tension result.
type Value struct {
	Frame   int64
	Tension float64
}

// Estimator implements the spec.md §4.3 contract: Update appends a
// spectrum; TryTension finalizes the oldest pending frame once its window
// is full.
type Estimator struct {
	cfg Config

	ring    *ringbuffer.Ring[spectral.Spectrum]
	base    int64 // frame index corresponding to ring.At(0)
	latest  int64 // highest frame index seen so far
	hasData bool

	nextFinalize int64
	flushed      bool
}

// NewEstimator builds an Estimator from cfg.
func NewEstimator(cfg Config) *Estimator {
	capacity := cfg.KPast + cfg.KFuture + 1
	return &Estimator{
		cfg:  cfg,
		ring: ringbuffer.New[spectral.Spectrum](capacity, 0),
	}
}

// Update appends the spectrum for frame f. Frames must arrive in strictly
// increasing, consecutive order; the first frame may have any index.
func (e *Estimator) Update(spec spectral.Spectrum, f int64) {
	if !e.hasData {
		e.base = f
		e.nextFinalize = f
		e.hasData = true
	}
	_ = e.ring.Push(spec)
	e.latest = f
}

// TryTension implements try_tension(f): returns the finalized tension for
// frame f only once f+K_future frames have arrived. Frames are finalized
// oldest first: f must be the oldest frame not yet finalized, and any other
// f returns ErrNotYetAvailable.
func (e *Estimator) TryTension(f int64) (float64, error) {
	if !e.hasData || f != e.nextFinalize || f > e.latest-int64(e.cfg.KFuture) {
		return 0, ErrNotYetAvailable
	}
	lo := f - int64(e.cfg.KPast)
	if lo < e.base {
		lo = e.base
	}
	hi := f + int64(e.cfg.KFuture)

	t := e.compute(lo, hi, f)
	e.advance(f)
	return t, nil
}

// Flush finalizes every remaining pending frame, shortening K_future to
// whatever is actually available for the trailing frames (spec.md §4.3).
// Subsequent calls return nil.
func (e *Estimator) Flush() []Value {
	if e.flushed || !e.hasData {
		e.flushed = true
		return nil
	}
	e.flushed = true

	var out []Value
	for f := e.nextFinalize; f <= e.latest; f++ {
		lo := f - int64(e.cfg.KPast)
		if lo < e.base {
			lo = e.base
		}
		hi := f + int64(e.cfg.KFuture)
		if hi > e.latest {
			hi = e.latest
		}
		t := e.compute(lo, hi, f)
		out = append(out, Value{Frame: f, Tension: t})
	}
	return out
}

// advance finalizes frame f (already computed by TryTension) and trims the
// ring of spectra no longer needed by any future finalization.
func (e *Estimator) advance(f int64) {
	e.nextFinalize = f + 1
	keepFrom := e.nextFinalize - int64(e.cfg.KPast)
	if keepFrom > e.base {
		drop := int(keepFrom - e.base)
		e.ring.Drop(drop)
		e.base = keepFrom
	}
}

// compute evaluates the tension formula (spec.md §4.3) over the window
// [lo, hi] for target frame f.
func (e *Estimator) compute(lo, hi, f int64) float64 {
	n := int(hi-lo) + 1
	energies := make([]float64, n)
	speeches := make([]float64, n)
	var maxE, sumE, sumP float64
	for i := 0; i < n; i++ {
		s := e.ring.At(int(lo - e.base + int64(i)))
		energies[i] = s.Energy
		speeches[i] = s.SpeechScore
		sumE += s.Energy
		sumP += s.SpeechScore
		if s.Energy > maxE {
			maxE = s.Energy
		}
	}
	meanE := sumE / float64(n)
	meanP := sumP / float64(n)

	fSpec := e.ring.At(int(f - e.base))

	deltaE := (fSpec.Energy - meanE) / (e.cfg.LowEnergyScale*maxE + epsilon)
	deltaE = clamp(deltaE, -1, 1)

	sigmaP := stddev(speeches, meanP)
	cap := e.cfg.SpeechChangeCapMultiplier * sigmaP
	deltaP := fSpec.SpeechScore - meanP
	if cap > 0 {
		deltaP = clamp(deltaP, -cap, cap)
	} else {
		deltaP = 0
	}

	t := e.cfg.WeightEnergy*(deltaE-e.cfg.OffsetEnergy) + e.cfg.WeightSpeech*(deltaP-e.cfg.OffsetSpeech) + 0.5
	return clamp(t, 0, 1)
}

func stddev(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
