package spectral

import (
	"math"
	"testing"
)

func TestAnalyzeSilenceHasZeroEnergy(t *testing.T) {
	const n = 220
	a := NewAnalyzer(DefaultConfig(22050), n, nil)
	spec := a.Analyze(make([]float32, n))

	if spec.Energy != 0 {
		t.Errorf("Energy = %v, want 0 for silence", spec.Energy)
	}
	if spec.LowEnergy != 0 {
		t.Errorf("LowEnergy = %v, want 0 for silence", spec.LowEnergy)
	}
	if spec.SpeechScore != 0 {
		t.Errorf("SpeechScore = %v, want 0 for silence", spec.SpeechScore)
	}
}

func TestAnalyzeConcentratesEnergyInLowBandForLowTone(t *testing.T) {
	const sampleRate = 22050
	const n = 220

	low := toneFrame(sampleRate, n, 200) // well under 1kHz
	high := toneFrame(sampleRate, n, 6000)

	a := NewAnalyzer(DefaultConfig(sampleRate), n, nil)
	lowSpec := a.Analyze(low)
	highSpec := a.Analyze(high)

	if lowSpec.LowEnergy/lowSpec.Energy < 0.9 {
		t.Errorf("low tone LowEnergy/Energy = %v, want > 0.9", lowSpec.LowEnergy/lowSpec.Energy)
	}
	if highSpec.LowEnergy/highSpec.Energy > 0.1 {
		t.Errorf("high tone LowEnergy/Energy = %v, want < 0.1", highSpec.LowEnergy/highSpec.Energy)
	}
}

func TestAnalyzeSpeechScoreHigherForSpeechBandTone(t *testing.T) {
	const sampleRate = 22050
	const n = 220

	a := NewAnalyzer(DefaultConfig(sampleRate), n, nil)

	inBand := a.Analyze(toneFrame(sampleRate, n, 1000))
	outOfBand := a.Analyze(toneFrame(sampleRate, n, 50))

	if inBand.SpeechScore <= outOfBand.SpeechScore {
		t.Errorf("in-band speech score %v should exceed out-of-band %v", inBand.SpeechScore, outOfBand.SpeechScore)
	}
}

func toneFrame(sampleRate, n int, freqHz float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sampleRate)))
	}
	return out
}
