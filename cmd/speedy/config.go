package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/speedyaudio/speedy"
)

// tunablesFile mirrors speedy.Tunables for YAML loading (spec.md §6,
// SPEC_FULL.md §2.1: "-config FILE loads a Tunables YAML document").
// Zero-value fields fall back to speedy.DefaultTunables(), so a config
// file only needs to set the knobs it wants to override.
type tunablesFile struct {
	PreemphasisFactor         float64 `yaml:"preemphasis_factor"`
	LowEnergyThresholdScale   float64 `yaml:"low_energy_threshold_scale"`
	BinThresholdDivisor       float64 `yaml:"bin_threshold_divisor"`
	WeightEnergy              float64 `yaml:"weight_energy"`
	WeightSpeech              float64 `yaml:"weight_speech"`
	OffsetEnergy              float64 `yaml:"offset_energy"`
	OffsetSpeech              float64 `yaml:"offset_speech"`
	SpeechChangeCapMultiplier float64 `yaml:"speech_change_cap_multiplier"`
	HysteresisPast            int     `yaml:"hysteresis_past"`
	HysteresisFuture          int     `yaml:"hysteresis_future"`
	HysteresisSwapped         bool    `yaml:"hysteresis_swapped"`
}

// loadTunables reads a YAML tunables document and overlays it onto
// speedy.DefaultTunables().
func loadTunables(path string) (speedy.Tunables, error) {
	t := speedy.DefaultTunables()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var tf tunablesFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return t, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if tf.PreemphasisFactor != 0 {
		t.PreemphasisFactor = tf.PreemphasisFactor
	}
	if tf.LowEnergyThresholdScale != 0 {
		t.LowEnergyThresholdScale = tf.LowEnergyThresholdScale
	}
	if tf.BinThresholdDivisor != 0 {
		t.BinThresholdDivisor = tf.BinThresholdDivisor
	}
	if tf.WeightEnergy != 0 {
		t.WeightEnergy = tf.WeightEnergy
	}
	if tf.WeightSpeech != 0 {
		t.WeightSpeech = tf.WeightSpeech
	}
	if tf.OffsetEnergy != 0 {
		t.OffsetEnergy = tf.OffsetEnergy
	}
	if tf.OffsetSpeech != 0 {
		t.OffsetSpeech = tf.OffsetSpeech
	}
	if tf.SpeechChangeCapMultiplier != 0 {
		t.SpeechChangeCapMultiplier = tf.SpeechChangeCapMultiplier
	}
	if tf.HysteresisPast != 0 {
		t.HysteresisPast = tf.HysteresisPast
	}
	if tf.HysteresisFuture != 0 {
		t.HysteresisFuture = tf.HysteresisFuture
	}
	t.HysteresisSwapped = tf.HysteresisSwapped

	return t, nil
}
