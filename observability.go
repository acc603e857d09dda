package speedy

import (
	"github.com/speedyaudio/speedy/internal/frameslicer"
	"github.com/speedyaudio/speedy/internal/speedctl"
)

// speedObserverAdapter adapts a speedy.SpeedObserver to speedctl.Observer
// without exposing the internal package's types at the public boundary.
type speedObserverAdapter struct {
	observer SpeedObserver
}

func (a speedObserverAdapter) OnSpeed(p speedctl.Point) {
	a.observer.OnSpeed(SpeedPoint{FrameIndex: p.FrameIndex, Speed: p.Speed})
}

// EnableSpeedCallback turns on speed-profile recording. observer may be nil
// to record for DrainSpeedProfile only, without an inline callback
// (spec.md §5: "invoked inline from write_float/flush; the callback must
// not re-enter the stream").
func (s *Stream) EnableSpeedCallback(observer SpeedObserver) {
	leave := s.guard.Enter("EnableSpeedCallback")
	defer leave()

	if observer == nil {
		s.speedC.EnableSpeedCallback(nil)
		return
	}
	s.speedC.EnableSpeedCallback(speedObserverAdapter{observer: observer})
}

// DrainSpeedProfile returns and clears every speed point recorded since the
// previous drain (spec.md §3, §6).
func (s *Stream) DrainSpeedProfile() []SpeedPoint {
	leave := s.guard.Enter("DrainSpeedProfile")
	defer leave()

	pts := s.speedC.DrainSpeedProfile()
	out := make([]SpeedPoint, len(pts))
	for i, p := range pts {
		out[i] = SpeedPoint{FrameIndex: p.FrameIndex, Speed: p.Speed}
	}
	return out
}

// FrameRate returns the fixed analysis frame rate, in frames per second
// (spec.md §6 frame_rate()).
func FrameRate() int {
	return frameslicer.FrameRateHz
}

// FFTSize returns the analysis frame length N for a given sample rate
// (spec.md §6 fft_size(sample_rate)).
func FFTSize(sampleRate int) int {
	return frameslicer.Size(sampleRate)
}
