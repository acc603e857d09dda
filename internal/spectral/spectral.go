// Package spectral implements the Spectral Front-End: a real FFT of each
// analysis frame plus the derived scalars (energy, low-band energy, speech
// score) the Tension Estimator consumes.
package spectral

import "math"

// Transformer is the one extension point spec.md §9 calls for: "wrap [the
// FFT] behind a minimal interface ... so that an implementation may choose
// any suitable library." ForwardReal returns N/2+1 complex bins for an
// N-sample real input (bin 0 is DC, bin N/2 is Nyquist).
type Transformer interface {
	ForwardReal(input []float32) []complex64
}

// BluesteinFFT is the default Transformer: a chirp-z transform over a
// radix-2 core, supporting arbitrary frame sizes (frame size N need not be
// a power of two -- see frameslicer.Size).
type BluesteinFFT struct{}

// ForwardReal implements Transformer.
func (BluesteinFFT) ForwardReal(input []float32) []complex64 {
	n := len(input)
	x := make([]complex128, n)
	for i, v := range input {
		x[i] = complex(float64(v), 0)
	}
	full := bluesteinDFT(x)

	half := n/2 + 1
	out := make([]complex64, half)
	for k := 0; k < half; k++ {
		out[k] = complex64(full[k])
	}
	return out
}

// Spectrum is the per-frame derived data the Tension Estimator consumes.
type Spectrum struct {
	// Mag holds N/2 non-negative magnitudes (bin N/2, Nyquist, is dropped
	// to match spec.md §4.2's "k in [0, N/2)").
	Mag []float32
	// Energy is the total energy E_f = sum(m_k^2).
	Energy float64
	// LowEnergy is E_lo,f = sum of m_k^2 for bins below ~1kHz.
	LowEnergy float64
	// SpeechScore P_f is the fraction of active bins within the
	// speech-relevant band, weighted by their relative energy.
	SpeechScore float64
}

// Config groups the Spectral Front-End's tunables.
type Config struct {
	SampleRate int
	// BinThresholdDivisor is D in spec.md §4.2: theta = E_f / D.
	BinThresholdDivisor float64
	// SpeechBandLowHz/HighHz bound the speech-relevant band the speech
	// score is computed over. Defaults to 300Hz-3400Hz (telephony band),
	// a standard speech-energy concentration range.
	SpeechBandLowHz, SpeechBandHighHz float64
}

// DefaultConfig returns the spec.md §6 defaults for the given sample rate.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:          sampleRate,
		BinThresholdDivisor: 100,
		SpeechBandLowHz:     300,
		SpeechBandHighHz:    3400,
	}
}

// Analyzer runs the Transformer over each frame and derives a Spectrum.
// It carries no state of its own across frames (spec.md §4.2: "No state
// persists across frames here").
type Analyzer struct {
	cfg         Config
	transform   Transformer
	lowBandBins int
	bandLoBin   int
	bandHiBin   int
}

// NewAnalyzer builds an Analyzer for frames of the given size, using the
// supplied Transformer (nil selects BluesteinFFT).
func NewAnalyzer(cfg Config, frameSize int, transform Transformer) *Analyzer {
	if transform == nil {
		transform = BluesteinFFT{}
	}
	binHz := float64(cfg.SampleRate) / float64(frameSize)
	lowBand := int(1000.0/binHz + 0.5)
	bandLo := int(cfg.SpeechBandLowHz/binHz + 0.5)
	bandHi := int(cfg.SpeechBandHighHz/binHz + 0.5)
	half := frameSize / 2
	if lowBand > half {
		lowBand = half
	}
	if bandHi > half {
		bandHi = half
	}
	if bandLo > bandHi {
		bandLo = bandHi
	}
	return &Analyzer{
		cfg:         cfg,
		transform:   transform,
		lowBandBins: lowBand,
		bandLoBin:   bandLo,
		bandHiBin:   bandHi,
	}
}

// Analyze implements the spec.md §4.2 contract: analyze(frame) -> Spectrum.
func (a *Analyzer) Analyze(frame []float32) Spectrum {
	bins := a.transform.ForwardReal(frame)
	half := len(frame) / 2

	mag := make([]float32, half)
	magSq := make([]float64, half)
	var energy, lowEnergy float64
	for k := 0; k < half; k++ {
		re, im := real(bins[k]), imag(bins[k])
		sq := float64(re)*float64(re) + float64(im)*float64(im)
		magSq[k] = sq
		mag[k] = float32(math.Sqrt(sq))
		energy += sq
		if k < a.lowBandBins {
			lowEnergy += sq
		}
	}

	theta := energy / a.cfg.BinThresholdDivisor

	var activeWeighted, bandEnergy float64
	for k := a.bandLoBin; k < a.bandHiBin; k++ {
		bandEnergy += magSq[k]
		if magSq[k] > theta {
			activeWeighted += magSq[k]
		}
	}
	speechScore := 0.0
	if bandEnergy > 0 {
		speechScore = activeWeighted / bandEnergy
	}

	return Spectrum{
		Mag:         mag,
		Energy:      energy,
		LowEnergy:   lowEnergy,
		SpeechScore: speechScore,
	}
}
