package toolrunner

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/turtlewatch/internal/domain"
	"github.com/couchcryptid/turtlewatch/internal/observability"
)

func newRunner(timeout time.Duration) *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(timeout, logger, observability.NewMetricsForTesting())
}

func TestRun_CapturesStdout(t *testing.T) {
	r := newRunner(10 * time.Second)
	out, err := r.Run(context.Background(), "sh", "-c", "echo 62.4")
	require.NoError(t, err)
	assert.Equal(t, "62.4\n", string(out))
}

func TestRun_NonzeroExit(t *testing.T) {
	r := newRunner(10 * time.Second)
	_, err := r.Run(context.Background(), "sh", "-c", "echo broken grid >&2; exit 3")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolFailure)
	assert.Contains(t, err.Error(), "broken grid")
}

func TestRun_MissingTool(t *testing.T) {
	r := newRunner(10 * time.Second)
	_, err := r.Run(context.Background(), "definitely-not-a-tool-xyz")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolFailure)
}

func TestRun_Timeout(t *testing.T) {
	r := newRunner(100 * time.Millisecond)
	_, err := r.Run(context.Background(), "sh", "-c", "sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolFailure)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunInput_PipesStdin(t *testing.T) {
	r := newRunner(10 * time.Second)
	out, err := r.RunInput(context.Background(), strings.NewReader("hello"), "cat")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}
