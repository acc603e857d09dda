// Package tsm implements the streaming Time-Scale Modifier: a pitch-
// synchronous overlap-add (SOLA) engine that resynthesizes audio at a
// time-varying speed without changing pitch (spec.md §4.5).
package tsm

import (
	"errors"
	"math"

	"github.com/speedyaudio/speedy/internal/ringbuffer"
)

// ErrInvalidState is returned by WriteFloat after Flush, or on a drained
// engine.
var ErrInvalidState = errors.New("tsm: invalid state")

// State is one of the engine's lifecycle phases (spec.md §4.5).
type State int

const (
	StateOpen State = iota
	StateFlushing
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFlushing:
		return "flushing"
	case StateDrained:
		return "drained"
	default:
		return "unknown"
	}
}

// Config groups the engine's construction-time parameters.
type Config struct {
	SampleRate int
	Channels   int

	MinPitchHz     float64 // default 60
	MaxPitchHz     float64 // default 400
	PitchWindowSec float64 // default 0.025 (25ms)

	// RingInitialCap sizes the initial backing array for input/output
	// rings; they grow geometrically from here up to no fixed ceiling
	// (0 = unbounded, matching spec.md §7: AllocationFailed is a real but
	// rare failure mode, not an artificial cap).
	RingInitialCap int
}

// DefaultConfig returns the spec.md §4.5 defaults for the given stream
// format.
func DefaultConfig(sampleRate, channels int) Config {
	return Config{
		SampleRate:     sampleRate,
		Channels:       channels,
		MinPitchHz:     60,
		MaxPitchHz:     400,
		PitchWindowSec: 0.025,
		RingInitialCap: sampleRate, // ~1s headroom before first grow
	}
}

// Engine is the streaming SOLA time scaler described in spec.md §4.5.
type Engine struct {
	cfg    Config
	pitch  pitchParams
	window int // pitch analysis window length, samples

	inputRings  []*ringbuffer.Ring[float32]
	outputRings []*ringbuffer.Ring[float32]
	pitchWindow *ringbuffer.Ring[float32]

	offset int // read cursor into input rings, in logical (post-head) indices
	period int // current pitch period estimate p, samples, from AMDF tracking

	speed float64 // current instantaneous speed s
	rate  float64 // incidental pitch-rate nudge, independent of speed (default 1.0)

	state State

	consumedInput  int64
	producedOutput int64
}

// New builds an Engine. channels must be ≥ 1.
func New(cfg Config) *Engine {
	window := int(math.Round(cfg.PitchWindowSec * float64(cfg.SampleRate)))
	if window < 1 {
		window = 1
	}

	e := &Engine{
		cfg:    cfg,
		pitch:  newPitchParams(cfg.SampleRate, cfg.MinPitchHz, cfg.MaxPitchHz),
		window: window,
		speed:  1.0,
		rate:   1.0,
		state:  StateOpen,
	}
	e.period = e.pitch.fallback

	for ch := 0; ch < cfg.Channels; ch++ {
		e.inputRings = append(e.inputRings, ringbuffer.New[float32](cfg.RingInitialCap, 0))
		e.outputRings = append(e.outputRings, ringbuffer.New[float32](cfg.RingInitialCap, 0))
	}
	e.pitchWindow = ringbuffer.New[float32](window, window)

	return e
}

// SetSpeed updates the instantaneous speed used by future synthesis steps.
// Already-synthesized output is unaffected (spec.md §5 ordering guarantee).
// Validation of s is the caller's responsibility (spec.md §7).
func (e *Engine) SetSpeed(s float64) { e.speed = s }

// Speed returns the current instantaneous speed.
func (e *Engine) Speed() float64 { return e.speed }

// SetRate applies an incidental pitch-rate nudge, independent of speed
// (spec.md §6: "set_rate... incidental pitch shift... may be a no-op in
// minimal implementations"). It divides the tracked pitch period by r to
// get the period each synthesis step uses; the input hop and the emitted
// block are both derived from that scaled period, so the input/output
// ratio stays s and the target duration is not skewed. Blocks are copied
// or cross-faded without resampling, so the rate does not change the pitch
// of the output. Validation of r is the caller's responsibility.
func (e *Engine) SetRate(r float64) { e.rate = r }

// Rate returns the current pitch-rate nudge.
func (e *Engine) Rate() float64 { return e.rate }

// effectivePeriod is the period actually used for hop/step computation:
// the AMDF-tracked period adjusted by the incidental rate nudge.
func (e *Engine) effectivePeriod() int {
	p := int(math.Round(float64(e.period) / e.rate))
	if p < 1 {
		p = 1
	}
	return p
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// ConsumedInput returns the total number of input samples (per channel)
// consumed by synthesis so far.
func (e *Engine) ConsumedInput() int64 { return e.consumedInput }

// ProducedOutput returns the total number of output samples (per channel)
// produced by synthesis so far.
func (e *Engine) ProducedOutput() int64 { return e.producedOutput }

// SamplesAvailable returns the number of output samples (per channel)
// ready to be read.
func (e *Engine) SamplesAvailable() int {
	if len(e.outputRings) == 0 {
		return 0
	}
	return e.outputRings[0].Len()
}

// WriteFloat appends planar (per-channel) samples to the input ring and
// opportunistically runs synthesis steps. Returns the number of samples
// per channel actually written; a short write means a ring hit its
// capacity ceiling and the caller must retain the tail and retry after
// draining via ReadFloat.
func (e *Engine) WriteFloat(samples [][]float32) (int, error) {
	if e.state != StateOpen {
		return 0, ErrInvalidState
	}
	if len(samples) != len(e.inputRings) {
		return 0, errors.New("tsm: channel count mismatch")
	}
	if len(samples) == 0 {
		return 0, nil
	}

	n := len(samples[0])
	written := 0
	for i := 0; i < n; i++ {
		ok := true
		for ch := range e.inputRings {
			if err := e.inputRings[ch].Push(samples[ch][i]); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			break
		}
		e.pushPitchSample(mixdown(samples, i))
		written++
	}

	e.refreshPitch()
	e.runSynthesis()
	e.trim()

	return written, nil
}

// Flush transitions the engine to Flushing: no further writes are
// accepted, and any remaining input shorter than one full lookahead
// period is drained via best-effort synthesis, then discarded.
func (e *Engine) Flush() {
	if e.state != StateOpen {
		return
	}
	e.state = StateFlushing

	for {
		remaining := e.ringLen() - e.offset
		if remaining < e.effectivePeriod() {
			break
		}
		hop := e.hopForSpeed()
		if e.offset+hop+e.effectivePeriod() <= e.ringLen() {
			e.step(hop)
			continue
		}
		// Not enough lookahead for a crossfaded step; emit one final
		// straight copy of whatever period-length block remains.
		e.stepStraight()
	}
	e.trim()
	e.maybeDrain()
}

// ReadFloat drains up to len(out[ch]) samples per channel from the output
// ring into out, returning the count actually produced (0 when dry).
func (e *Engine) ReadFloat(out [][]float32) int {
	if len(e.outputRings) == 0 || len(out) == 0 {
		return 0
	}
	n := len(out[0])
	if avail := e.outputRings[0].Len(); avail < n {
		n = avail
	}
	for ch := range e.outputRings {
		copy(out[ch][:n], e.outputRings[ch].Slice(0, n))
		e.outputRings[ch].Drop(n)
	}
	e.maybeDrain()
	return n
}

func (e *Engine) maybeDrain() {
	if e.state == StateFlushing && e.ringLen()-e.offset < e.effectivePeriod() && e.SamplesAvailable() == 0 {
		e.state = StateDrained
	}
}

func (e *Engine) ringLen() int {
	if len(e.inputRings) == 0 {
		return 0
	}
	return e.inputRings[0].Len()
}

// hopForSpeed returns the input-side hop (samples advanced per emitted
// period) for the current speed. Chosen as round(p·s) so the ratio of
// input consumed to output produced is s up to the rounding of p·s to a
// whole sample (at most half a sample per period), which is what keeps
// the duration-contract invariant (spec.md §8) in reach; this is the standard
// analysis/synthesis hop-ratio formulation (synthesis hop fixed at p,
// analysis hop scaled by s) rather than the period-dropping heuristic
// sketched in spec.md §4.5, which does not hold that ratio exactly for
// every s.
func (e *Engine) hopForSpeed() int {
	hop := int(math.Round(float64(e.effectivePeriod()) * e.speed))
	if hop < 1 {
		hop = 1
	}
	return hop
}

const unitySpeedEpsilon = 1e-6

// runSynthesis steps while a full period-plus-lookahead block is
// available. The unity-speed branch of step doesn't strictly need the
// second block, but using the same feasibility check for both branches
// keeps the loop (and the resulting one-period headroom requirement in
// spec.md §4.5) uniform.
func (e *Engine) runSynthesis() {
	for {
		hop := e.hopForSpeed()
		p := e.effectivePeriod()
		if e.offset+hop+p > e.ringLen() {
			return
		}
		e.step(hop)
	}
}

// step emits one synthesis period of length effectivePeriod, advancing
// the input cursor by hop and the output by that same period length.
func (e *Engine) step(hop int) {
	p := e.effectivePeriod()
	if math.Abs(e.speed-1.0) < unitySpeedEpsilon {
		for ch := range e.inputRings {
			block := e.inputRings[ch].Slice(e.offset, e.offset+p)
			_ = e.outputRings[ch].PushSlice(block)
		}
	} else {
		for ch := range e.inputRings {
			blockA := e.inputRings[ch].Slice(e.offset, e.offset+p)
			blockB := e.inputRings[ch].Slice(e.offset+hop, e.offset+hop+p)
			out := crossfade(blockA, blockB)
			_ = e.outputRings[ch].PushSlice(out)
		}
	}
	e.offset += hop
	e.consumedInput += int64(hop)
	e.producedOutput += int64(p)
}

// stepStraight emits a final, non-crossfaded tail block during Flush when
// there isn't enough lookahead left for a second block.
func (e *Engine) stepStraight() {
	remaining := e.ringLen() - e.offset
	p := e.effectivePeriod()
	if remaining < p {
		p = remaining
	}
	if p <= 0 {
		return
	}
	for ch := range e.inputRings {
		block := e.inputRings[ch].Slice(e.offset, e.offset+p)
		_ = e.outputRings[ch].PushSlice(block)
	}
	e.offset += p
	e.consumedInput += int64(p)
	e.producedOutput += int64(p)
}

// trim drops fully-consumed samples from the front of every input ring
// once they can no longer be read by a future step.
func (e *Engine) trim() {
	if e.offset == 0 {
		return
	}
	for ch := range e.inputRings {
		e.inputRings[ch].Drop(e.offset)
	}
	e.offset = 0
}

func (e *Engine) pushPitchSample(mono float32) {
	if e.pitchWindow.Len() == e.pitchWindow.Cap() {
		e.pitchWindow.Drop(1)
	}
	_ = e.pitchWindow.Push(mono)
}

func (e *Engine) refreshPitch() {
	e.period = estimatePeriod(e.pitchWindow.PeekAll(), e.pitch)
}

func mixdown(samples [][]float32, i int) float32 {
	if len(samples) == 1 {
		return samples[0][i]
	}
	var sum float32
	for _, ch := range samples {
		sum += ch[i]
	}
	return sum / float32(len(samples))
}

// crossfade blends blockA (fading out) into blockB (fading in) over a
// raised-cosine window, per spec.md §4.5.
func crossfade(blockA, blockB []float32) []float32 {
	n := len(blockA)
	out := make([]float32, n)
	if n == 1 {
		out[0] = (blockA[0] + blockB[0]) / 2
		return out
	}
	for i := 0; i < n; i++ {
		wA := 0.5 * (1 + math.Cos(math.Pi*float64(i)/float64(n-1)))
		out[i] = float32(wA)*blockA[i] + float32(1-wA)*blockB[i]
	}
	return out
}
