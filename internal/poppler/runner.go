package poppler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrOutputLimit is returned when a command writes more than the runner's
// stdout cap.
var ErrOutputLimit = errors.New("output exceeds limit")

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec, capping stdout at MaxStdout bytes.
type ExecRunner struct {
	MaxStdout int64
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	out, errb, err := captureLimited(cmd, r.limit())
	dur := time.Since(start)

	if err != nil {
		slog.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(string(errb), 8<<10),
		)
	} else {
		slog.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", len(out),
			"stderr_bytes", len(errb),
		)
	}
	return out, errb, err
}

func (r ExecRunner) limit() int64 {
	if r.MaxStdout <= 0 {
		return 10 << 20
	}
	return r.MaxStdout
}

// captureLimited reads at most maxBytes of stdout so a cursed PDF can't OOM
// the container. stderr is captured fully.
func captureLimited(cmd *exec.Cmd, maxBytes int64) ([]byte, []byte, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}

	// one sentinel byte past the cap tells us the output was cut
	outBytes, readErr := io.ReadAll(io.LimitReader(stdoutPipe, maxBytes+1))
	if int64(len(outBytes)) > maxBytes {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, stderr.Bytes(), ErrOutputLimit
	}

	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, stderr.Bytes(), fmt.Errorf("read stdout: %w", readErr)
	}
	if waitErr != nil {
		return nil, stderr.Bytes(), waitErr
	}
	return outBytes, stderr.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
