// Package toolrunner executes the external geospatial and imaging tools.
// Every invocation gets a bounded timeout, its exit status checked, and its
// stderr captured into the returned error, so no stage can silently continue
// past a failed tool.
package toolrunner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/couchcryptid/turtlewatch/internal/domain"
	"github.com/couchcryptid/turtlewatch/internal/observability"
)

// Runner invokes external tools with a per-call timeout.
type Runner struct {
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Runner. The timeout applies to each individual invocation.
func New(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{timeout: timeout, logger: logger, metrics: metrics}
}

// Run executes tool with args and returns its stdout. A nonzero exit, a
// timeout, or a failure to start all map to domain.ErrToolFailure.
func (r *Runner) Run(ctx context.Context, tool string, args ...string) ([]byte, error) {
	return r.RunInput(ctx, nil, tool, args...)
}

// RunInput is Run with the given reader wired to the tool's stdin.
func (r *Runner) RunInput(ctx context.Context, stdin io.Reader, tool string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		r.metrics.ToolInvocations.WithLabelValues(tool, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out after %s: %w", tool, r.timeout, domain.ErrToolFailure)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%s %s: %s: %w", tool, strings.Join(args, " "), detail, domain.ErrToolFailure)
	}

	r.metrics.ToolInvocations.WithLabelValues(tool, "success").Inc()
	r.logger.Debug("tool completed", "tool", tool, "args", args, "duration", elapsed)
	return stdout.Bytes(), nil
}
