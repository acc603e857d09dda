// Package ui provides the Bubbletea live progress view for cmd/speedy,
// following the teacher's message-driven Model/Update/View shape but
// tracking one streaming Stream run instead of a queue of files.
package ui

// ProgressMsg reports the Stream's state after processing one chunk of
// input: how far through the input we are, the most recently finalized
// speed, and the running duration drift.
type ProgressMsg struct {
	Progress     float64 // 0.0 to 1.0, output read so far over the output expected for the input written so far
	CurrentSpeed float64 // most recent instantaneous speed s_eff
	DriftPercent float64 // (expected - actual) / expected output, as a %
}

// DoneMsg indicates the stream has flushed and all output has been drained.
type DoneMsg struct {
	InputSamples  int64
	OutputSamples int64
	AverageSpeed  float64
	Err           error
}
