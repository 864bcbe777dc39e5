package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// SpinnerSink renders progress events as a spinner with a stage trail:
// "✓ Building (12ms) → ● Signing (1s)"
type SpinnerSink struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	stages  []stageInfo
}

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
	Message   string
}

// NewSpinnerSink creates a spinner sink writing to stderr
func NewSpinnerSink() *SpinnerSink {
	return newSpinnerSink(os.Stderr)
}

func newSpinnerSink(out io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &SpinnerSink{out: out, spinner: s}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.stages); n == 0 || r.stages[n-1].Stage != event.Stage {
		r.completeCurrentStage()
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: time.Now()})
	}
	r.stages[len(r.stages)-1].Message = event.Message

	if event.Stage == usecase.StageCompleted {
		r.completeCurrentStage()
	}

	if event.Spinner {
		r.spinner.Suffix = " " + r.display() + "  " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
	} else if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.print(color.New(color.FgRed), message)
}

func (r *SpinnerSink) print(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	c.Fprintln(r.out, message)
	if wasActive {
		r.spinner.Start()
	}
}

// Stop halts the spinner if it is running
func (r *SpinnerSink) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerSink) completeCurrentStage() {
	if n := len(r.stages); n > 0 && r.stages[n-1].EndTime.IsZero() {
		r.stages[n-1].EndTime = time.Now()
	}
}

// display renders the stage trail
func (r *SpinnerSink) display() string {
	var display string
	for i, stage := range r.stages {
		icon, stageColor := "●", color.New(color.FgYellow)
		duration := time.Since(stage.StartTime).Round(time.Second)
		if !stage.EndTime.IsZero() {
			icon, stageColor = "✓", color.New(color.FgGreen)
			duration = stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond)
		}
		if i > 0 {
			display += " → "
		}
		display += fmt.Sprintf("%s %s (%s)", icon, stageColor.Sprint(stageName(stage.Stage)), duration)
	}
	return display
}

func stageName(stage string) string {
	switch stage {
	case usecase.StageLoading:
		return "Loading"
	case usecase.StageConnecting:
		return "Connecting"
	case usecase.StageBuilding:
		return "Building"
	case usecase.StageSigning:
		return "Signing"
	case usecase.StageSubmitting:
		return "Submitting"
	case usecase.StageWaiting:
		return "Waiting"
	case usecase.StageCompleted:
		return "Completed"
	default:
		return stage
	}
}

// Ensure SpinnerSink implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerSink)(nil)
