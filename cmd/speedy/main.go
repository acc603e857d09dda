package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/speedyaudio/speedy"
	"github.com/speedyaudio/speedy/internal/cli"
	"github.com/speedyaudio/speedy/internal/telemetry"
	"github.com/speedyaudio/speedy/internal/ui"
	"github.com/speedyaudio/speedy/internal/wavio"
)

// version is set via ldflags at build time.
var version = "dev"

// CLI defines cmd/speedy's flags (SPEC_FULL.md §6.1): a WAV in, a WAV out,
// and the Stream's live-tunable knobs.
type CLI struct {
	Version bool `short:"v" help:"Show version information"`
	Debug   bool `short:"d" help:"Enable debug logging to speedy-debug.log"`

	Rg       float64 `help:"Target speed Rg" default:"1.0"`
	Lambda   float64 `help:"Nonlinear blend factor, [0,1]" default:"0.0"`
	Feedback float64 `help:"Duration-feedback strength, [0,0.5]" default:"0.1"`
	Rate     float64 `help:"Incidental pitch-rate nudge" default:"1.0"`
	Config   string  `help:"Tunables YAML file" type:"existingfile" optional:""`

	Input  string `arg:"" name:"input" help:"Input WAV file" type:"existingfile"`
	Output string `arg:"" name:"output" help:"Output WAV file"`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("speedy"),
		kong.Description("Nonlinear speech time-scale modification"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	logger := telemetry.Discard()
	if cliArgs.Debug {
		l, f, err := telemetry.NewDebugFile("speedy-debug.log")
		if err != nil {
			cli.PrintError(fmt.Sprintf("failed to open debug log: %v", err))
			os.Exit(1)
		}
		defer f.Close()
		logger = l
	}

	if err := run(cliArgs, logger); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(cliArgs *CLI, logger *telemetry.Logger) error {
	tunables, err := loadTunables(cliArgs.Config)
	if err != nil {
		return err
	}

	in, err := wavio.Open(cliArgs.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	meta := in.Metadata()

	out, err := wavio.Create(cliArgs.Output, wavio.Metadata{
		SampleRate: meta.SampleRate,
		Channels:   meta.Channels,
	})
	if err != nil {
		return err
	}
	defer out.Close()

	cfg := speedy.DefaultConfig(meta.SampleRate, meta.Channels)
	cfg.InitialSpeed = cliArgs.Rg
	cfg.Lambda = cliArgs.Lambda
	cfg.Feedback = cliArgs.Feedback
	cfg.Tunables = tunables

	stream, err := speedy.NewStream(cfg)
	if err != nil {
		return err
	}
	defer stream.Close()
	logger = logger.ForStream(stream.ID().String())

	if cliArgs.Rate != 1.0 {
		if err := stream.SetRate(cliArgs.Rate); err != nil {
			return err
		}
	}
	speedTracker := &lastSpeedTracker{current: cliArgs.Rg}
	stream.EnableSpeedCallback(telemetrySpeedObserver{logger: logger, tracker: speedTracker})

	model := ui.NewModel(cliArgs.Input, cliArgs.Output)
	program := tea.NewProgram(model, tea.WithAltScreen())

	go driveStream(program, stream, in, out, meta.Channels, cliArgs.Rg, speedTracker, logger)

	_, err = program.Run()
	return err
}

// telemetrySpeedObserver adapts the telemetry logger to speedy.SpeedObserver,
// and keeps tracker up to date so driveStream can report the live speed.
// stream.GetSpeed() only returns the static Rg target, not the tension-driven
// s_eff, so the TUI needs its own record of the last finalized SpeedPoint.
type telemetrySpeedObserver struct {
	logger  *telemetry.Logger
	tracker *lastSpeedTracker
}

func (o telemetrySpeedObserver) OnSpeed(p speedy.SpeedPoint) {
	o.logger.Debug("speed finalized", "frame", p.FrameIndex, "speed", p.Speed)
	o.tracker.current = p.Speed
}

// lastSpeedTracker holds the most recently finalized speed. OnSpeed fires
// synchronously from driveStream's own goroutine during WriteFloat, and
// driveStream reads it from that same goroutine, so no locking is needed.
type lastSpeedTracker struct {
	current float64
}

// driveStream reads the input WAV in chunks, writes them to the Stream,
// drains whatever output is ready, and reports progress to the TUI. It
// mirrors cmd/jivetalking/main.go's background-goroutine + p.Send shape,
// collapsed to a single stream instead of a file queue.
func driveStream(program *tea.Program, stream *speedy.Stream, in *wavio.Reader, out *wavio.Writer, channels int, targetRg float64, speedTracker *lastSpeedTracker, logger *telemetry.Logger) {
	const chunkFrames = 2048
	chunk := make([]float32, chunkFrames*channels)
	readBuf := make([]float32, chunkFrames*channels)

	var totalWritten, totalRead int64
	var totalInputFrames int64

	for {
		n, readErr := in.ReadFloat(chunk)
		if n > 0 {
			written := 0
			for written < n {
				wn, err := stream.WriteFloat(chunk[written:n])
				if err != nil {
					logger.Error("write failed", "err", err)
					program.Send(ui.DoneMsg{Err: err})
					return
				}
				written += wn * channels
				totalWritten += int64(wn)
				totalInputFrames += int64(wn)

				drainReady(stream, out, readBuf, channels, &totalRead)
			}
		}

		progress := 0.0
		if totalInputFrames > 0 {
			expected := float64(totalInputFrames) / targetRg
			if expected > 0 {
				progress = float64(totalRead) / expected
			}
		}
		drift := driftPercent(totalWritten, targetRg, totalRead)
		program.Send(ui.ProgressMsg{
			Progress:     clampUnit(progress),
			CurrentSpeed: speedTracker.current,
			DriftPercent: drift,
		})

		if readErr != nil {
			break
		}
	}

	stream.Flush()
	drainReady(stream, out, readBuf, channels, &totalRead)

	avgSpeed := targetRg
	if totalRead > 0 {
		avgSpeed = float64(totalWritten) / float64(totalRead)
	}
	logger.Info("stream complete", "input_samples", totalWritten, "output_samples", totalRead)
	program.Send(ui.DoneMsg{
		InputSamples:  totalWritten,
		OutputSamples: totalRead,
		AverageSpeed:  avgSpeed,
	})
}

// drainReady drains every output sample currently ready and writes it to
// out, repeating until the Stream reports nothing left (SamplesAvailable
// can exceed one buf-full after a single WriteFloat call).
func drainReady(stream *speedy.Stream, out *wavio.Writer, buf []float32, channels int, totalRead *int64) {
	for stream.SamplesAvailable() > 0 {
		n := stream.ReadFloat(buf)
		if n == 0 {
			return
		}
		if _, err := out.WriteFloat(buf[:n*channels]); err != nil {
			return
		}
		*totalRead += int64(n)
	}
}

func driftPercent(totalWritten int64, targetRg float64, totalRead int64) float64 {
	if targetRg <= 0 {
		return 0
	}
	expected := float64(totalWritten) / targetRg
	if expected == 0 {
		return 0
	}
	return (expected - float64(totalRead)) / expected * 100
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
