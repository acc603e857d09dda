// Package speedctl implements the Speed Controller: it maps a per-frame
// tension value to an instantaneous speed, blends in the nonlinear factor
// lambda, and applies duration-drift feedback (spec.md §4.4).
package speedctl

// Point is one entry in the append-only speed profile (spec.md §3).
type Point struct {
	FrameIndex int64
	Speed      float64
}

// Observer receives finalized speed points inline from the frame that
// produced them (spec.md §5: "invoked inline from write_float/flush; the
// callback must not re-enter the stream").
type Observer interface {
	OnSpeed(p Point)
}

// Config groups the controller's live-tunable parameters (spec.md §9:
// "setters after creation should be limited to the small set that matters
// for live control").
type Config struct {
	TargetRg float64 // Rg
	Lambda   float64 // nonlinear factor, [0,1]
	Feedback float64 // duration-feedback strength, [0, 0.5]
}

// Controller implements speed_for(t, Rg) plus the duration-feedback loop
// and nonlinear blend from spec.md §4.4.
type Controller struct {
	cfg Config

	sampleStep     float64 // S: input samples per frame, for integrating 1/s
	expectedOutput float64 // integral of 1/s over frames processed so far

	callbackEnabled bool
	observer        Observer
	profile         []Point
}

// New builds a Controller. sampleStep is the frame stride S (spec.md §2:
// SR/100), used to integrate the expected-output estimate.
func New(cfg Config, sampleStep int) *Controller {
	return &Controller{cfg: cfg, sampleStep: float64(sampleStep)}
}

// SetTargetRg, SetLambda, SetFeedback apply live control changes. Per
// spec.md §5, a change takes effect on the next finalizable frame; values
// are assumed already validated by the caller (spec.md §7: validation is
// the API boundary's job, not the internal controller's).
func (c *Controller) SetTargetRg(rg float64)       { c.cfg.TargetRg = rg }
func (c *Controller) SetLambda(lambda float64)     { c.cfg.Lambda = lambda }
func (c *Controller) SetFeedback(feedback float64) { c.cfg.Feedback = feedback }

func (c *Controller) TargetRg() float64 { return c.cfg.TargetRg }
func (c *Controller) Lambda() float64   { return c.cfg.Lambda }
func (c *Controller) Feedback() float64 { return c.cfg.Feedback }

// EnableSpeedCallback turns on speed-profile recording; observer may be
// nil to record only for later DrainSpeedProfile.
func (c *Controller) EnableSpeedCallback(observer Observer) {
	c.callbackEnabled = true
	c.observer = observer
}

// DrainSpeedProfile returns and clears every point accumulated since the
// previous drain.
func (c *Controller) DrainSpeedProfile() []Point {
	out := c.profile
	c.profile = nil
	return out
}

// SpeedFor implements the spec.md §4.4 mapping from a finalized tension
// value to an instantaneous speed, given the actual output sample count
// produced so far (for the duration-feedback term), and records the
// result (frame, speed) into the speed profile.
func (c *Controller) SpeedFor(frame int64, t, actualOutputSamples float64) float64 {
	driftNormalized := 0.0
	if c.expectedOutput > 0 {
		driftNormalized = (c.expectedOutput - actualOutputSamples) / c.expectedOutput
		driftNormalized = clamp(driftNormalized, -1, 1)
	}

	sLinear := c.cfg.TargetRg * (0.5 + t)
	maxSpeed := c.cfg.TargetRg * 4
	if maxSpeed < 4.0 {
		maxSpeed = 4.0
	}
	s := clamp(sLinear, 0.5, maxSpeed)
	s *= 1 + c.cfg.Feedback*driftNormalized

	sEff := c.cfg.Lambda*s + (1-c.cfg.Lambda)*c.cfg.TargetRg

	c.expectedOutput += c.sampleStep / sEff

	c.record(frame, sEff)
	return sEff
}

func (c *Controller) record(frame int64, speed float64) {
	if !c.callbackEnabled {
		return
	}
	p := Point{FrameIndex: frame, Speed: speed}
	c.profile = append(c.profile, p)
	if c.observer != nil {
		c.observer.OnSpeed(p)
	}
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
