package tsm

import "math"

// pitchParams bounds the plausible pitch range and analysis window used by
// estimatePeriod (spec.md §4.5: "≈60-400 Hz... most recent ~25ms of input").
type pitchParams struct {
	minPeriod, maxPeriod int // samples
	fallback             int // samples, period at ~100Hz
}

func newPitchParams(sampleRate int, minHz, maxHz float64) pitchParams {
	minPeriod := int(float64(sampleRate) / maxHz)
	maxPeriod := int(float64(sampleRate) / minHz)
	if minPeriod < 1 {
		minPeriod = 1
	}
	if maxPeriod <= minPeriod {
		maxPeriod = minPeriod + 1
	}
	return pitchParams{
		minPeriod: minPeriod,
		maxPeriod: maxPeriod,
		fallback:  int(math.Round(float64(sampleRate) / 100.0)),
	}
}

// voicingThreshold is the maximum normalized AMDF dip accepted as a genuine
// pitch period; above this the signal is treated as unvoiced.
const voicingThreshold = 0.35

// estimatePeriod runs a normalized-difference AMDF search over window,
// returning the lag (in samples) that best approximates the fundamental
// period. Falls back to p.fallback when window is too short or no lag dips
// below voicingThreshold (no clear minimum -- unvoiced).
//
// The search needs window[i] and window[i+lag] for every lag up to
// maxPeriod, so len(window) must exceed maxPeriod; requiring it to exceed
// maxPeriod+minPeriod on top of that leaves at least minPeriod samples of
// genuine overlap (n below) for the diff/norm accumulation, instead of
// the near-empty comparison a bare maxPeriod+1 would allow. A stricter
// maxPeriod*2 threshold overshoots the ~25ms window spec.md §4.5 actually
// calls for and starves estimatePeriod of every real call.
func estimatePeriod(window []float32, p pitchParams) int {
	if len(window) < p.maxPeriod+p.minPeriod {
		return p.fallback
	}

	bestLag := -1
	bestScore := math.Inf(1)

	n := len(window) - p.maxPeriod
	for lag := p.minPeriod; lag <= p.maxPeriod; lag++ {
		var diff, norm float64
		for i := 0; i < n; i++ {
			a := float64(window[i])
			b := float64(window[i+lag])
			diff += math.Abs(a - b)
			norm += math.Abs(a) + math.Abs(b)
		}
		score := diff / (norm + 1e-9)
		if score < bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag < 0 || bestScore > voicingThreshold {
		return p.fallback
	}
	return bestLag
}
