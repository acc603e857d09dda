package telemetry

// SpeedPoint mirrors speedy.SpeedPoint so this package does not import the
// root package. A caller holding a speedy.SpeedPoint converts it to this
// shape before handing it to SpeedLogger.
type SpeedPoint struct {
	FrameIndex int64
	Speed      float64
}

// SpeedLogger emits a debug-level log line per finalized speed point. Its
// OnSpeed takes telemetry.SpeedPoint, so it does not satisfy
// speedy.SpeedObserver itself; wiring it to Stream.EnableSpeedCallback
// needs a small adapter. It is opt-in: at 100 frames/sec it is far too
// chatty for normal operation.
type SpeedLogger struct {
	log *Logger
}

// NewSpeedLogger wraps l for use as a speed-profile observer.
func NewSpeedLogger(l *Logger) *SpeedLogger {
	return &SpeedLogger{log: l}
}

// OnSpeed logs one finalized (frame, speed) point at debug level.
func (s *SpeedLogger) OnSpeed(p SpeedPoint) {
	s.log.Debug("speed finalized", "frame", p.FrameIndex, "speed", p.Speed)
}
