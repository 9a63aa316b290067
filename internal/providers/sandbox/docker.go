package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
	"golang.org/x/sync/semaphore"
)

var (
	ErrTimeout   = core.ErrCodeTimeout
	ErrFailed    = core.ErrCodeFailed
	ErrContainer = errors.New("container error")
	ErrBusy      = errors.New("sandbox is busy")
)

type Config struct {
	DockerBin     string
	Image         string
	Timeout       time.Duration
	Memory        string
	Network       string
	MaxConcurrent int64
	MaxOutput     int
}

// Docker runs Python snippets in throwaway containers through the docker CLI.
type Docker struct {
	cfg Config
	sem *semaphore.Weighted
}

func NewDocker(cfg Config) *Docker {
	if cfg.DockerBin == "" {
		cfg.DockerBin = "docker"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = 64 * 1024
	}
	return &Docker{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

func (d *Docker) Run(ctx context.Context, code string) (string, error) {
	logger := log.FromCtx(ctx)

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer d.sem.Release(1)

	code = ensurePrint(code)

	runCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.cfg.DockerBin, d.args(code)...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, max: d.cfg.MaxOutput}
	cmd.Stderr = &limitedWriter{w: &stderr, max: d.cfg.MaxOutput}

	start := time.Now()
	err := cmd.Run()
	logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Err(err).
		Msg("sandbox run finished")

	if runCtx.Err() == context.DeadlineExceeded {
		return "", ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return "", fmt.Errorf("%w: %s", ErrContainer, msg)
			}
			return "", fmt.Errorf("%w: exit code %d", ErrFailed, exitErr.ExitCode())
		}
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	return stdout.String(), nil
}

func (d *Docker) args(code string) []string {
	args := []string{"run", "--rm", "-i"}
	if d.cfg.Network != "" {
		args = append(args, "--network", d.cfg.Network)
	}
	if d.cfg.Memory != "" {
		args = append(args, "--memory", d.cfg.Memory)
	}
	return append(args, d.cfg.Image, "python", "-c", code)
}

// ensurePrint wraps the last line in print() when the snippet prints
// nothing, so a trailing expression still produces output.
func ensurePrint(code string) string {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	for _, line := range lines {
		if strings.Contains(line, "print(") {
			return strings.Join(lines, "\n")
		}
	}

	last := strings.TrimSpace(lines[len(lines)-1])
	if last != "" {
		lines[len(lines)-1] = "print(" + last + ")"
	}
	return strings.Join(lines, "\n")
}

// limitedWriter drops everything past max bytes but reports full writes so
// the child process never sees a short write.
type limitedWriter struct {
	w       *bytes.Buffer
	max     int
	written int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if remain := l.max - l.written; remain > 0 {
		if len(p) > remain {
			p = p[:remain]
		}
		l.w.Write(p)
		l.written += len(p)
	}
	return n, nil
}
