// Package speedy implements a nonlinear speech time-scale modification
// engine: an Analyzer (spectral front-end + hysteresis tension estimator)
// drives a streaming SOLA Time-Scale Modifier so that vowels and
// low-information regions compress more aggressively than consonants and
// transient onsets, while keeping overall output duration on target.
//
// The Stream type is the entire public surface. It is not re-entrant:
// concurrent invocation of two methods on the same Stream from different
// goroutines is a contract violation (see internal/guard). Distinct
// Streams share no mutable state and may be driven from different
// goroutines freely.
package speedy

import (
	"github.com/google/uuid"

	"github.com/speedyaudio/speedy/internal/frameslicer"
	"github.com/speedyaudio/speedy/internal/guard"
	"github.com/speedyaudio/speedy/internal/speedctl"
	"github.com/speedyaudio/speedy/internal/spectral"
	"github.com/speedyaudio/speedy/internal/tension"
	"github.com/speedyaudio/speedy/internal/tsm"
)

// SpeedPoint is one (frame_index, speed) entry in the append-only speed
// profile (spec.md §3).
type SpeedPoint struct {
	FrameIndex int64
	Speed      float64
}

// SpeedObserver receives finalized speed points inline from WriteFloat or
// Flush (spec.md §5: "the callback must not re-enter the stream").
type SpeedObserver interface {
	OnSpeed(p SpeedPoint)
}

// Stream is one logical conversation: an input PCM source driven through
// the Analyzer and TSM Engine to produce time-scaled output (spec.md §3).
type Stream struct {
	id  uuid.UUID
	cfg Config

	guard guard.Guard

	slicer   *frameslicer.Slicer
	analyzer *spectral.Analyzer
	tensionE *tension.Estimator
	speedC   *speedctl.Controller
	engine   *tsm.Engine

	step int // S = SR/100, the frame stride in samples

	nextFinalize int64 // next tension frame index expected from TryTension
	closed       bool
}

// NewStream creates a Stream for the given configuration. Returns
// ErrInvalidConfiguration if any field is out of range.
func NewStream(cfg Config) (*Stream, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	step := frameslicer.Step(cfg.SampleRate)
	frameSize := frameslicer.Size(cfg.SampleRate)

	slicer := frameslicer.New(cfg.SampleRate, cfg.Channels, cfg.Tunables.PreemphasisFactor)

	specCfg := spectral.DefaultConfig(cfg.SampleRate)
	if cfg.Tunables.BinThresholdDivisor > 0 {
		specCfg.BinThresholdDivisor = cfg.Tunables.BinThresholdDivisor
	}
	analyzer := spectral.NewAnalyzer(specCfg, frameSize, spectral.BluesteinFFT{})

	kPast, kFuture := cfg.Tunables.effectiveHysteresis()
	tensionCfg := tension.Config{
		KPast:                     kPast,
		KFuture:                   kFuture,
		LowEnergyScale:            cfg.Tunables.LowEnergyThresholdScale,
		SpeechChangeCapMultiplier: cfg.Tunables.SpeechChangeCapMultiplier,
		WeightEnergy:              cfg.Tunables.WeightEnergy,
		WeightSpeech:              cfg.Tunables.WeightSpeech,
		OffsetEnergy:              cfg.Tunables.OffsetEnergy,
		OffsetSpeech:              cfg.Tunables.OffsetSpeech,
	}
	tensionE := tension.NewEstimator(tensionCfg)

	speedC := speedctl.New(speedctl.Config{
		TargetRg: cfg.InitialSpeed,
		Lambda:   cfg.Lambda,
		Feedback: cfg.Feedback,
	}, step)

	engine := tsm.New(tsm.DefaultConfig(cfg.SampleRate, cfg.Channels))
	engine.SetSpeed(cfg.InitialSpeed)

	return &Stream{
		id:       uuid.New(),
		cfg:      cfg,
		slicer:   slicer,
		analyzer: analyzer,
		tensionE: tensionE,
		speedC:   speedC,
		engine:   engine,
		step:     step,
	}, nil
}

// ID returns the stream's identifier, for log correlation across
// concurrently-driven streams. It has no effect on processing.
func (s *Stream) ID() uuid.UUID { return s.id }

// Close releases the stream. After Close, WriteFloat and WriteInt16 return
// ErrInvalidState; the other methods do not check for a closed Stream.
func (s *Stream) Close() {
	leave := s.guard.Enter("Close")
	defer leave()
	s.closed = true
}

// processReadyFrames drains every frame the slicer currently has ready,
// runs them through the Analyzer, and pushes every tension value that
// becomes finalizable into the Speed Controller and TSM Engine.
func (s *Stream) processReadyFrames() {
	for {
		frame, ok := s.slicer.TryFrame()
		if !ok {
			return
		}
		s.analyzeFrame(frame)
	}
}

func (s *Stream) analyzeFrame(frame frameslicer.Frame) {
	spec := s.analyzer.Analyze(frame.Data)
	s.tensionE.Update(spec, frame.Index)
	s.drainFinalizedTension()
}

// rebuildAnalysisPipeline reconstructs the Spectral Front-End and Tension
// Estimator from the current Tunables. The Frame Slicer and TSM Engine are
// left untouched: their state (pre-emphasis history, pitch tracking, input
// backlog) belongs to the audio stream itself, not to the tunable set.
func (s *Stream) rebuildAnalysisPipeline() {
	frameSize := frameslicer.Size(s.cfg.SampleRate)

	specCfg := spectral.DefaultConfig(s.cfg.SampleRate)
	if s.cfg.Tunables.BinThresholdDivisor > 0 {
		specCfg.BinThresholdDivisor = s.cfg.Tunables.BinThresholdDivisor
	}
	s.analyzer = spectral.NewAnalyzer(specCfg, frameSize, spectral.BluesteinFFT{})

	kPast, kFuture := s.cfg.Tunables.effectiveHysteresis()
	// The old Estimator's pending (not yet finalized) frames are discarded;
	// move the Stream's cursor past them so it matches the first frame the
	// fresh Estimator will receive.
	if pending := s.tensionE.Flush(); len(pending) > 0 {
		s.nextFinalize = pending[len(pending)-1].Frame + 1
	}
	s.tensionE = tension.NewEstimator(tension.Config{
		KPast:                     kPast,
		KFuture:                   kFuture,
		LowEnergyScale:            s.cfg.Tunables.LowEnergyThresholdScale,
		SpeechChangeCapMultiplier: s.cfg.Tunables.SpeechChangeCapMultiplier,
		WeightEnergy:              s.cfg.Tunables.WeightEnergy,
		WeightSpeech:              s.cfg.Tunables.WeightSpeech,
		OffsetEnergy:              s.cfg.Tunables.OffsetEnergy,
		OffsetSpeech:              s.cfg.Tunables.OffsetSpeech,
	})
	// Frame numbering is unaffected: the fresh Estimator picks up its first
	// frame from the next Update call, which carries the same continuous
	// frame index the Stream's cursor now points at.
}

// drainFinalizedTension finalizes every tension value currently available
// and feeds it through the Speed Controller into the TSM Engine, in
// strictly increasing frame order (spec.md §5 ordering guarantee).
func (s *Stream) drainFinalizedTension() {
	for {
		t, err := s.tensionE.TryTension(s.nextFinalize)
		if err != nil {
			return
		}
		speed := s.speedC.SpeedFor(s.nextFinalize, t, float64(s.engine.ProducedOutput()))
		s.engine.SetSpeed(speed)
		s.nextFinalize++
	}
}
