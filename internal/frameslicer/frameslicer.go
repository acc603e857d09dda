// Package frameslicer implements the Analyzer's sliding-window frame
// production: mono mixdown, pre-emphasis, Hann windowing, and the 100Hz
// frame-rate stride.
package frameslicer

import (
	"math"

	"github.com/speedyaudio/speedy/internal/ringbuffer"
)

// FrameRateHz is the fixed analysis rate the whole Analyzer pipeline runs
// at (spec.md §2/§6 frame_rate()).
const FrameRateHz = 100

// DefaultPreemphasis is the default first-order high-pass coefficient
// applied to the incoming mono stream.
const DefaultPreemphasis = 0.97

// Size returns the frame length N for a given sample rate:
// N = 2*round(1.5*SR/100), the fixed-point formula from spec.md §2/§6.
func Size(sampleRate int) int {
	step := float64(sampleRate) / FrameRateHz
	return 2 * int(math.Round(1.5*step))
}

// Step returns the frame stride S = SR/100 samples.
func Step(sampleRate int) int {
	return sampleRate / FrameRateHz
}

// Frame is one immutable pre-emphasized, windowed analysis window.
type Frame struct {
	// Data holds N pre-emphasized, Hann-windowed mono samples.
	Data []float32
	// Index is the frame number f: the starting input sample of the frame
	// equals Index*Step.
	Index int64
}

// Slicer produces Frames from a continuous, possibly multi-channel input
// stream. It owns a backlog of already-pre-emphasized mono samples
// awaiting assembly into frames, trimmed back down to size on every emit
// (spec.md §4.1, grounded on internal/ringbuffer like the rest of the
// Analyzer's mutable state).
type Slicer struct {
	n, step  int
	channels int

	alpha       float64
	prevRaw     float32
	backlog     *ringbuffer.Ring[float32] // emphasized samples awaiting assembly into frames
	pushedTotal int64
	frameStart  int64 // absolute sample index the next frame will start at
	hann        []float32

	flushed      bool
	flushPending bool
	flushFrame   Frame
}

// New creates a Slicer for the given sample rate, channel count, and
// pre-emphasis coefficient (0 selects DefaultPreemphasis).
func New(sampleRate, channels int, preemphasisAlpha float64) *Slicer {
	if preemphasisAlpha == 0 {
		preemphasisAlpha = DefaultPreemphasis
	}
	n := Size(sampleRate)
	s := &Slicer{
		n:        n,
		step:     Step(sampleRate),
		channels: channels,
		alpha:    preemphasisAlpha,
		backlog:  ringbuffer.New[float32](n, 0), // grows past n if a caller pushes a large chunk between TryFrame drains; never capped (spec.md §7: AllocationFailed is rare, not artificial)
		hann:     hannWindow(n),
	}
	return s
}

func hannWindow(n int) []float32 {
	w := make([]float32, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1))))
	}
	return w
}

// Push appends interleaved multi-channel samples, mixing down to mono by
// averaging channels and applying the persistent pre-emphasis filter.
// samples must be a whole number of frames of `channels` samples.
func (s *Slicer) Push(samples []float32) {
	if s.flushed {
		return
	}
	if s.channels <= 1 {
		for _, x := range samples {
			s.pushOne(x)
		}
		return
	}
	for i := 0; i+s.channels <= len(samples); i += s.channels {
		var sum float32
		for c := 0; c < s.channels; c++ {
			sum += samples[i+c]
		}
		s.pushOne(sum / float32(s.channels))
	}
}

func (s *Slicer) pushOne(raw float32) {
	emphasized := raw - float32(s.alpha)*s.prevRaw
	s.prevRaw = raw
	_ = s.backlog.Push(emphasized) // ceiling 0: never fails
	s.pushedTotal++
}

// TryFrame returns the next available frame, if the window is full.
func (s *Slicer) TryFrame() (Frame, bool) {
	if s.flushed || s.pushedTotal < s.frameStart+int64(s.n) {
		return Frame{}, false
	}
	return s.emit(s.backlog.Slice(0, s.n), false), true
}

// Flush signals end of input: any tail shorter than N is zero-padded and
// emitted as one final frame. Subsequent calls to TryFrame/Flush return
// nothing. Returns the final frame, if any remained to flush.
func (s *Slicer) Flush() (Frame, bool) {
	if s.flushed {
		return Frame{}, false
	}
	s.flushed = true

	remaining := int(s.pushedTotal - s.frameStart)
	if remaining <= 0 {
		return Frame{}, false
	}
	padded := make([]float32, s.n)
	copy(padded, s.backlog.Slice(0, remaining))
	return s.emit(padded, true), true
}

// emit windows the provided N raw (already pre-emphasized) samples, advances
// the frame cursor by the stride, and trims the backlog.
func (s *Slicer) emit(src []float32, final bool) Frame {
	data := make([]float32, s.n)
	for i := 0; i < s.n; i++ {
		data[i] = src[i] * s.hann[i]
	}
	f := Frame{Data: data, Index: s.frameStart / int64(s.step)}

	if final {
		s.backlog.Drop(s.backlog.Len())
		return f
	}

	s.frameStart += int64(s.step)
	drop := s.step
	if drop > s.backlog.Len() {
		drop = s.backlog.Len()
	}
	s.backlog.Drop(drop)
	return f
}
