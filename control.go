package speedy

// SetSpeed updates Rg, the live speed target. Takes effect starting with
// the next frame the Speed Controller finalizes (spec.md §5).
func (s *Stream) SetSpeed(rg float64) error {
	leave := s.guard.Enter("SetSpeed")
	defer leave()

	if err := validateSpeed(rg); err != nil {
		return err
	}
	s.cfg.InitialSpeed = rg
	s.speedC.SetTargetRg(rg)
	return nil
}

// GetSpeed returns the current Rg.
func (s *Stream) GetSpeed() float64 {
	leave := s.guard.Enter("GetSpeed")
	defer leave()
	return s.speedC.TargetRg()
}

// SetRate passes an incidental pitch-rate value to the TSM Engine,
// independent of speed (spec.md §6). The engine divides its synthesis
// period by pitchRate without skewing the duration contract; it does no
// resampling, so the pitch of the output is not changed.
func (s *Stream) SetRate(pitchRate float64) error {
	leave := s.guard.Enter("SetRate")
	defer leave()

	if pitchRate <= 0 {
		return ErrInvalidConfiguration
	}
	s.engine.SetRate(pitchRate)
	return nil
}

// EnableNonlinear sets lambda, the nonlinear blend factor: 0 is uniform
// scaling at Rg, 1 is fully tension-driven (spec.md §4.4, §6).
func (s *Stream) EnableNonlinear(lambda float64) error {
	leave := s.guard.Enter("EnableNonlinear")
	defer leave()

	if err := validateLambda(lambda); err != nil {
		return err
	}
	s.cfg.Lambda = lambda
	s.speedC.SetLambda(lambda)
	return nil
}

// SetDurationFeedback sets the duration-drift feedback strength
// (spec.md §4.4, §6).
func (s *Stream) SetDurationFeedback(feedback float64) error {
	leave := s.guard.Enter("SetDurationFeedback")
	defer leave()

	if err := validateFeedback(feedback); err != nil {
		return err
	}
	s.cfg.Feedback = feedback
	s.speedC.SetFeedback(feedback)
	return nil
}

// SetTunables replaces the Tunables record wholesale. Because several
// Tunables fields are construction-time parameters for the Spectral
// Front-End and Tension Estimator (window sizes, band thresholds), this
// rebuilds those components from scratch; in-flight frame state in the
// old Tension Estimator's hysteresis window is lost, matching spec.md §9's
// guidance that group changes are an infrequent, coarse operation.
func (s *Stream) SetTunables(t Tunables) error {
	leave := s.guard.Enter("SetTunables")
	defer leave()

	trial := s.cfg
	trial.Tunables = t
	if err := validateConfig(trial); err != nil {
		return err
	}

	s.cfg.Tunables = t
	s.rebuildAnalysisPipeline()
	return nil
}
