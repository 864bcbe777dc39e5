package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

func TestSpinnerSinkStages(t *testing.T) {
	var out bytes.Buffer
	sink := newSpinnerSink(&out)
	ctx := context.Background()

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageBuilding, Message: "Building"})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageBuilding, Message: "Estimating"})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageSigning, Message: "Signing"})
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageCompleted, Message: "Done"})

	require.Len(t, sink.stages, 3)
	assert.Equal(t, "Estimating", sink.stages[0].Message)
	for _, stage := range sink.stages {
		assert.False(t, stage.EndTime.IsZero(), stage.Stage)
	}
	assert.Contains(t, sink.display(), "Signing")

	sink.Info("hello")
	assert.Contains(t, out.String(), "hello")
	sink.Stop()
}

func TestNewProgressSink(t *testing.T) {
	assert.IsType(t, usecase.NopProgress{}, NewProgressSink(&config.RuntimeConfig{NonInteractive: true}))
	assert.IsType(t, usecase.NopProgress{}, NewProgressSink(&config.RuntimeConfig{JSON: true}))
	assert.IsType(t, &SpinnerSink{}, NewProgressSink(&config.RuntimeConfig{}))
}
