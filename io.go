package speedy

import (
	"fmt"

	"github.com/speedyaudio/speedy/internal/tsm"
)

// WriteFloat accepts interleaved float32 samples (samples_per_channel *
// Channels values) and returns the number of samples per channel actually
// accepted. A short write (n < input samples-per-channel) means an
// internal ring could not grow further; the caller should retain the
// unwritten tail and retry after draining with ReadFloat (spec.md §6, §7).
func (s *Stream) WriteFloat(samples []float32) (int, error) {
	leave := s.guard.Enter("WriteFloat")
	defer leave()

	if s.closed {
		return 0, ErrInvalidState
	}
	if len(samples)%s.cfg.Channels != 0 {
		return 0, fmt.Errorf("%w: %d samples not a multiple of %d channels", ErrInvalidConfiguration, len(samples), s.cfg.Channels)
	}

	planar := deinterleave(samples, s.cfg.Channels)
	n, err := s.engine.WriteFloat(planar)
	if err != nil {
		if err == tsm.ErrInvalidState {
			return 0, ErrInvalidState
		}
		return 0, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}

	accepted := n * s.cfg.Channels
	if accepted > 0 {
		s.slicer.Push(samples[:accepted])
		s.processReadyFrames()
	}

	return n, nil
}

// ReadFloat fills out (interleaved, a multiple of Channels long) with
// synthesized samples and returns the number of samples per channel
// actually produced (0 when nothing is ready yet).
func (s *Stream) ReadFloat(out []float32) int {
	leave := s.guard.Enter("ReadFloat")
	defer leave()

	capacity := len(out) / s.cfg.Channels
	if capacity == 0 {
		return 0
	}
	planar := make([][]float32, s.cfg.Channels)
	for ch := range planar {
		planar[ch] = make([]float32, capacity)
	}

	n := s.engine.ReadFloat(planar)
	interleave(planar, n, out)
	return n
}

// WriteInt16 is WriteFloat affine-scaled by 2^15 (spec.md §6).
func (s *Stream) WriteInt16(samples []int16) (int, error) {
	f := make([]float32, len(samples))
	for i, v := range samples {
		f[i] = float32(v) / 32768.0
	}
	return s.WriteFloat(f)
}

// ReadInt16 is ReadFloat affine-scaled by 2^15 (spec.md §6).
func (s *Stream) ReadInt16(out []int16) int {
	f := make([]float32, len(out))
	n := s.ReadFloat(f)
	total := n * s.cfg.Channels
	for i := 0; i < total; i++ {
		v := f[i] * 32768.0
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return n
}

// Flush signals end of input: the final partial analysis frame (if any) is
// processed, every still-pending tension value is finalized in order, and
// the TSM Engine drains its remaining input at the last speed known for
// that tail (spec.md §4.5, §5). After Flush, WriteFloat returns
// ErrInvalidState; ReadFloat continues to drain until SamplesAvailable
// reaches 0 and the engine reports Drained.
func (s *Stream) Flush() {
	leave := s.guard.Enter("Flush")
	defer leave()

	if frame, ok := s.slicer.Flush(); ok {
		s.analyzeFrame(frame)
	}
	for _, v := range s.tensionE.Flush() {
		speed := s.speedC.SpeedFor(v.Frame, v.Tension, float64(s.engine.ProducedOutput()))
		s.engine.SetSpeed(speed)
	}

	s.engine.Flush()
}

// SamplesAvailable returns the number of output samples (per channel)
// ready to be read without blocking.
func (s *Stream) SamplesAvailable() int {
	leave := s.guard.Enter("SamplesAvailable")
	defer leave()
	return s.engine.SamplesAvailable()
}

func deinterleave(samples []float32, channels int) [][]float32 {
	n := len(samples) / channels
	planar := make([][]float32, channels)
	for ch := range planar {
		planar[ch] = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			planar[ch][i] = samples[i*channels+ch]
		}
	}
	return planar
}

func interleave(planar [][]float32, n int, out []float32) {
	channels := len(planar)
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = planar[ch][i]
		}
	}
}
