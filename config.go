package speedy

import "fmt"

// Tunables groups the Speedy-specific knobs from spec.md §6 into a single
// record, applied atomically via SetTunables (spec.md §9 Design Notes:
// "group them into a single immutable configuration record... setters
// after creation should be limited to the small set that matters for live
// control").
type Tunables struct {
	// PreemphasisFactor is the frame slicer's first-order HPF coefficient.
	PreemphasisFactor float64

	// LowEnergyThresholdScale is the denominator floor for the tension
	// estimator's ΔE term.
	LowEnergyThresholdScale float64

	// BinThresholdDivisor divides per-frame total energy to set the
	// spectral front-end's active-bin threshold.
	BinThresholdDivisor float64

	// WeightEnergy, WeightSpeech are the tension formula's w_E, w_P.
	WeightEnergy, WeightSpeech float64

	// OffsetEnergy, OffsetSpeech are the tension formula's o_E, o_P.
	OffsetEnergy, OffsetSpeech float64

	// SpeechChangeCapMultiplier clamps ΔP in units of local σ(P).
	SpeechChangeCapMultiplier float64

	// HysteresisPast, HysteresisFuture are the tension window's K_past,
	// K_future. HysteresisSwapped toggles the legacy-compatible (12, 8)
	// pairing instead of the default lookahead-dominant (8, 12).
	HysteresisPast, HysteresisFuture int
	HysteresisSwapped                bool
}

// DefaultTunables returns the spec.md §6 defaults.
func DefaultTunables() Tunables {
	return Tunables{
		PreemphasisFactor:         0.97,
		LowEnergyThresholdScale:   0.04,
		BinThresholdDivisor:       100,
		WeightEnergy:              0.5,
		WeightSpeech:              0.25,
		OffsetEnergy:              0.7,
		OffsetSpeech:              1.0,
		SpeechChangeCapMultiplier: 4.0,
		HysteresisPast:            8,
		HysteresisFuture:          12,
		HysteresisSwapped:         false,
	}
}

// effectiveHysteresis applies the legacy swap toggle.
func (t Tunables) effectiveHysteresis() (past, future int) {
	if t.HysteresisSwapped {
		return t.HysteresisFuture, t.HysteresisPast
	}
	return t.HysteresisPast, t.HysteresisFuture
}

// Config is the Stream's immutable creation-time record (spec.md §6).
// Live control after creation is limited to Rg, λ, feedback, and pitch
// rate (see SetSpeed, EnableNonlinear, SetDurationFeedback, SetRate).
type Config struct {
	SampleRate int
	Channels   int

	// InitialSpeed is Rg at creation time, in [0.5, 4.0].
	InitialSpeed float64

	// Lambda is the nonlinear factor, in [0, 1]. 0 means uniform scaling
	// at Rg; 1 means fully tension-driven.
	Lambda float64

	// Feedback is the duration-feedback strength, in [0, 0.5].
	Feedback float64

	Tunables Tunables
}

// DefaultConfig returns sensible defaults for the given stream format.
func DefaultConfig(sampleRate, channels int) Config {
	return Config{
		SampleRate:   sampleRate,
		Channels:     channels,
		InitialSpeed: 1.0,
		Lambda:       0.0,
		Feedback:     0.1,
		Tunables:     DefaultTunables(),
	}
}

func validateConfig(cfg Config) error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidConfiguration, cfg.SampleRate)
	}
	if cfg.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d must be positive", ErrInvalidConfiguration, cfg.Channels)
	}
	if err := validateSpeed(cfg.InitialSpeed); err != nil {
		return err
	}
	if err := validateLambda(cfg.Lambda); err != nil {
		return err
	}
	if err := validateFeedback(cfg.Feedback); err != nil {
		return err
	}
	return nil
}

func validateSpeed(rg float64) error {
	if rg < 0.5 || rg > 4.0 {
		return fmt.Errorf("%w: Rg %v must be in [0.5, 4.0]", ErrInvalidConfiguration, rg)
	}
	return nil
}

func validateLambda(lambda float64) error {
	if lambda < 0 || lambda > 1 {
		return fmt.Errorf("%w: lambda %v must be in [0, 1]", ErrInvalidConfiguration, lambda)
	}
	return nil
}

func validateFeedback(feedback float64) error {
	if feedback < 0 || feedback > 0.5 {
		return fmt.Errorf("%w: feedback %v must be in [0, 0.5]", ErrInvalidConfiguration, feedback)
	}
	return nil
}
