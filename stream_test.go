package speedy

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const testSampleRate = 22050

func sineSamples(sampleRate, n int, freqHz float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * float64(i) / float64(sampleRate)))
	}
	return out
}

func impulseTrain(n, period int) []float32 {
	out := make([]float32, n)
	for i := 0; i < n; i += period {
		out[i] = 1.0
	}
	return out
}

// writeAllFloat pushes every sample in input, draining read-ready output
// along the way when a ring is briefly full (spec.md §7 short-write policy).
func writeAllFloat(t *testing.T, s *Stream, input []float32) {
	t.Helper()
	remaining := input
	for len(remaining) > 0 {
		n, err := s.WriteFloat(remaining)
		require.NoError(t, err)
		if n == 0 {
			drainAllFloat(s)
			continue
		}
		remaining = remaining[n:]
	}
}

func drainAllFloat(s *Stream) []float32 {
	var out []float32
	buf := make([]float32, 4096)
	for {
		n := s.ReadFloat(buf)
		if n == 0 {
			break
		}
		out = append(out, buf[:n]...)
	}
	return out
}

func newMonoStream(t *testing.T, rg, lambda, feedback float64) *Stream {
	t.Helper()
	cfg := DefaultConfig(testSampleRate, 1)
	cfg.InitialSpeed = rg
	cfg.Lambda = lambda
	cfg.Feedback = feedback
	s, err := NewStream(cfg)
	require.NoError(t, err)
	return s
}

// TestDurationContractLinear is spec.md §8 invariant 1: with lambda=0, the
// output length tracks T/Rg within one 10ms frame.
func TestDurationContractLinear(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rg := rapid.Float64Range(0.5, 4.0).Draw(rt, "rg")
		seconds := rapid.IntRange(2, 8).Draw(rt, "seconds")

		s := newMonoStream(t, rg, 0.0, 0.0)
		input := sineSamples(testSampleRate, seconds*testSampleRate, 220)
		writeAllFloat(t, s, input)
		s.Flush()
		out := drainAllFloat(s)

		expected := float64(len(input)) / rg
		tolerance := float64(testSampleRate) * 0.01 // 1 frame = 10ms
		if math.Abs(float64(len(out))-expected) > tolerance {
			rt.Fatalf("duration contract violated: got %d samples, expected %.0f +-%.0f", len(out), expected, tolerance)
		}
	})
}

// TestDurationContractNonlinear is spec.md §8 invariant 2: with lambda=1 and
// feedback>=0.1, relative duration error stays within 2% for inputs >2s.
func TestDurationContractNonlinear(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rg := rapid.Float64Range(0.5, 4.0).Draw(rt, "rg")
		seconds := rapid.IntRange(3, 8).Draw(rt, "seconds")

		s := newMonoStream(t, rg, 1.0, 0.1)
		input := sineSamples(testSampleRate, seconds*testSampleRate, 330)
		writeAllFloat(t, s, input)
		s.Flush()
		out := drainAllFloat(s)

		expected := float64(len(input)) / rg
		relErr := math.Abs(float64(len(out))-expected) / expected
		if relErr > 0.02 {
			rt.Fatalf("nonlinear duration contract violated: got %d samples, expected %.0f (rel err %.4f)", len(out), expected, relErr)
		}
	})
}

// TestCausality is spec.md §8 invariant 3: two inputs sharing a common
// prefix must produce a common output prefix, since no later input can
// alter an already-finalized output sample.
func TestCausality(t *testing.T) {
	const prefixSeconds = 3
	prefix := sineSamples(testSampleRate, prefixSeconds*testSampleRate, 440)

	tailA := sineSamples(testSampleRate, testSampleRate, 660)
	tailB := impulseTrain(testSampleRate, 220)

	run := func(tail []float32) []float32 {
		s := newMonoStream(t, 1.5, 0.5, 0.1)
		writeAllFloat(t, s, append(append([]float32{}, prefix...), tail...))
		s.Flush()
		return drainAllFloat(s)
	}

	outA := run(tailA)
	outB := run(tailB)

	// The causal prefix produced before the streams diverge must match
	// exactly: only samples from after the shared prefix can differ.
	commonLen := len(outA)
	if len(outB) < commonLen {
		commonLen = len(outB)
	}
	// Causality bounds how much of the tail can still agree; requiring an
	// exact prefix match isn't meaningful once the divergent tail feeds
	// back into overlapping frames, so this checks the frames that are
	// provably before the divergence point instead.
	expectedStablePrefix := int(float64(prefixSeconds*testSampleRate) / 1.5 * 0.5)
	require.LessOrEqual(t, expectedStablePrefix, commonLen, "causality window shorter than expected")
	for i := 0; i < expectedStablePrefix; i++ {
		if outA[i] != outB[i] {
			t.Fatalf("causality violated: output sample %d differs before divergence point", i)
		}
	}
}

// TestIdentityAtUnitSpeed is spec.md §8 invariant 4.
func TestIdentityAtUnitSpeed(t *testing.T) {
	s := newMonoStream(t, 1.0, 0.0, 0.0)
	input := sineSamples(testSampleRate, 5*testSampleRate, 440)
	writeAllFloat(t, s, input)
	s.Flush()
	out := drainAllFloat(s)

	require.NotEmpty(t, out)
	n := len(out)
	if n > len(input) {
		n = len(input)
	}
	var maxDiff float64
	for i := 0; i < n; i++ {
		diff := math.Abs(float64(out[i]) - float64(input[i]))
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	require.Less(t, maxDiff, 1e-2, "unit-speed output should be near-identity")
}

// TestSpeedProfileMonotonic is spec.md §8 invariant 5.
func TestSpeedProfileMonotonic(t *testing.T) {
	s := newMonoStream(t, 1.8, 1.0, 0.1)
	s.EnableSpeedCallback(nil)

	input := sineSamples(testSampleRate, 4*testSampleRate, 280)
	writeAllFloat(t, s, input)
	s.Flush()
	drainAllFloat(s)

	points := s.DrainSpeedProfile()
	require.NotEmpty(t, points)
	for i := 1; i < len(points); i++ {
		require.Greater(t, points[i].FrameIndex, points[i-1].FrameIndex, "speed profile frame indices must strictly increase")
	}
}

// TestRoundTripFlush is spec.md §8 invariant 6.
func TestRoundTripFlush(t *testing.T) {
	s := newMonoStream(t, 2.0, 0.0, 0.1)
	input := sineSamples(testSampleRate, 6*testSampleRate, 220)
	writeAllFloat(t, s, input)
	s.Flush()

	total := 0
	buf := make([]float32, 2048)
	zeroStreak := 0
	for zeroStreak < 3 {
		n := s.ReadFloat(buf)
		if n == 0 {
			zeroStreak++
			continue
		}
		zeroStreak = 0
		total += n
	}

	expected := float64(len(input)) / 2.0
	require.InDelta(t, expected, float64(total), expected*0.05+float64(testSampleRate)/float64(FrameRate()))
}

// TestScenarioS1SilenceHalvesLength covers spec.md §8 S1.
func TestScenarioS1SilenceHalvesLength(t *testing.T) {
	s := newMonoStream(t, 2.0, 0.0, 0.1)
	input := make([]float32, 220500)
	writeAllFloat(t, s, input)
	s.Flush()
	out := drainAllFloat(s)

	require.InDelta(t, 110250, len(out), 220)
	for _, v := range out {
		require.Zero(t, v, "silence in must produce silence out")
	}
}

// TestScenarioS2SineRetainsFrequency covers spec.md §8 S2.
func TestScenarioS2SineRetainsFrequency(t *testing.T) {
	s := newMonoStream(t, 2.0, 0.0, 0.1)
	input := sineSamples(testSampleRate, 220500, 440)
	writeAllFloat(t, s, input)
	s.Flush()
	out := drainAllFloat(s)

	require.InDelta(t, 110250, len(out), 220)
	peak := dominantFrequency(out, testSampleRate)
	require.InDelta(t, 440, peak, 5)
}

// TestScenarioS3UnitSpeedRoundTrip covers spec.md §8 S3.
func TestScenarioS3UnitSpeedRoundTrip(t *testing.T) {
	s := newMonoStream(t, 1.0, 0.0, 0.0)
	input := sineSamples(testSampleRate, 220500, 440)
	writeAllFloat(t, s, input)
	s.Flush()
	out := drainAllFloat(s)

	require.InDelta(t, 220500, len(out), 1)

	var sumSq float64
	n := len(out)
	if len(input) < n {
		n = len(input)
	}
	for i := 0; i < n; i++ {
		d := float64(out[i]) - float64(input[i])
		sumSq += d * d
	}
	rms := math.Sqrt(sumSq / float64(n))
	require.Less(t, rms, 1e-2)
}

// TestScenarioS4FrequencyBoundary covers spec.md §8 S4.
func TestScenarioS4FrequencyBoundary(t *testing.T) {
	s := newMonoStream(t, 2.0, 1.0, 0.1)
	half := 5 * testSampleRate
	input := append(sineSamples(testSampleRate, half, 200), sineSamples(testSampleRate, half, 800)...)
	writeAllFloat(t, s, input)
	s.Flush()
	out := drainAllFloat(s)

	// Expected output length (samples) and the "total duration +-2% of 5s"
	// tolerance from spec.md §8 S4 are both asserted: Rg is held constant
	// across the boundary, so both measure the same output length, and the
	// +-500-sample check is the tighter of the two (2% of 5s is 2205 samples).
	require.InDelta(t, 110250, len(out), 500)
	expected := 5.0
	actual := float64(len(out)) / testSampleRate
	require.InDelta(t, expected, actual, expected*0.02)
}

// TestScenarioS5ImpulseCountPreserved covers spec.md §8 S5.
func TestScenarioS5ImpulseCountPreserved(t *testing.T) {
	s := newMonoStream(t, 1.5, 1.0, 0.1)
	input := impulseTrain(testSampleRate, 220)
	writeAllFloat(t, s, input)
	s.Flush()
	out := drainAllFloat(s)

	count := countImpulses(out, 0.5)
	require.GreaterOrEqual(t, count, 55)
	require.LessOrEqual(t, count, 75)
}

// TestScenarioS6ConcurrentStreamsAreDeterministic covers spec.md §8 S6:
// two independent Streams processing identical input concurrently must
// produce bitwise-identical output.
func TestScenarioS6ConcurrentStreamsAreDeterministic(t *testing.T) {
	input := pseudoNoise(3*testSampleRate, 12345)

	run := func() []float32 {
		s := newMonoStream(t, 2.5, 1.0, 0.1)
		writeAllFloat(t, s, input)
		s.Flush()
		return drainAllFloat(s)
	}

	var outA, outB []float32
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); outA = run() }()
	go func() { defer wg.Done(); outB = run() }()
	wg.Wait()

	require.Equal(t, len(outA), len(outB))
	require.Equal(t, outA, outB)
}

// dominantFrequency finds the peak bin of a single Goertzel-free DFT sweep
// restricted to a plausible voice/tone range, good enough to confirm a
// synthetic sine's frequency survived processing.
func dominantFrequency(samples []float32, sampleRate int) float64 {
	if len(samples) == 0 {
		return 0
	}
	n := len(samples)
	if n > sampleRate {
		n = sampleRate
	}
	var bestFreq float64
	var bestMag float64
	for freq := 50.0; freq <= 2000.0; freq += 1.0 {
		var real, imag float64
		omega := 2 * math.Pi * freq / float64(sampleRate)
		for i := 0; i < n; i++ {
			real += float64(samples[i]) * math.Cos(omega*float64(i))
			imag -= float64(samples[i]) * math.Sin(omega*float64(i))
		}
		mag := real*real + imag*imag
		if mag > bestMag {
			bestMag = mag
			bestFreq = freq
		}
	}
	return bestFreq
}

func countImpulses(samples []float32, threshold float32) int {
	count := 0
	for _, v := range samples {
		if v >= threshold {
			count++
		}
	}
	return count
}

// pseudoNoise generates a deterministic speech-like noise fixture from a
// fixed seed so S6 can compare two independent runs byte-for-byte without
// depending on math/rand's global state.
func pseudoNoise(n int, seed uint32) []float32 {
	out := make([]float32, n)
	state := seed
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = float32(int32(state))/float32(1<<31)*0.5
	}
	return out
}
