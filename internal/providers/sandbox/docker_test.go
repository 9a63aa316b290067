package sandbox

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePrint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare expression", "2+2", "print(2+2)"},
		{"last line wrapped", "x = 3\nx * 2", "x = 3\nprint(x * 2)"},
		{"already printing", "x = 3\nprint(x)\nx", "x = 3\nprint(x)\nx"},
		{"trailing whitespace trimmed", "x = 1\n  x  \n\n", "x = 1\nprint(x)"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ensurePrint(tt.in))
		})
	}
}

func TestLimitedWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &limitedWriter{w: &buf, max: 5}

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = w.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "abcde", buf.String())
}

// fakeDocker writes an executable standing in for the docker CLI.
func fakeDocker(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "docker")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestDockerRunPassesWrappedCode(t *testing.T) {
	t.Parallel()

	bin := fakeDocker(t, `for a; do last="$a"; done; echo "$last"`)
	d := NewDocker(Config{DockerBin: bin, Image: "img", Timeout: 5 * time.Second})

	out, err := d.Run(context.Background(), "1+1")
	require.NoError(t, err)
	assert.Equal(t, "print(1+1)\n", out)
}

func TestDockerRunArgs(t *testing.T) {
	t.Parallel()

	bin := fakeDocker(t, `echo "$@"`)
	d := NewDocker(Config{DockerBin: bin, Image: "img", Network: "none", Memory: "64m"})

	out, err := d.Run(context.Background(), "print(1)")
	require.NoError(t, err)
	assert.Equal(t, "run --rm -i --network none --memory 64m img python -c print(1)\n", out)
}

func TestDockerRunContainerError(t *testing.T) {
	t.Parallel()

	bin := fakeDocker(t, `echo "NameError: name 'x' is not defined" >&2; exit 1`)
	d := NewDocker(Config{DockerBin: bin, Image: "img"})

	_, err := d.Run(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContainer)
	assert.Equal(t, "container error: NameError: name 'x' is not defined", err.Error())
}

func TestDockerRunSilentFailure(t *testing.T) {
	t.Parallel()

	bin := fakeDocker(t, `exit 3`)
	d := NewDocker(Config{DockerBin: bin, Image: "img"})

	_, err := d.Run(context.Background(), "x")
	assert.ErrorIs(t, err, ErrFailed)
	assert.EqualError(t, err, "code execution failed: exit code 3")
}

func TestDockerRunTimeout(t *testing.T) {
	t.Parallel()

	bin := fakeDocker(t, `exec sleep 5`)
	d := NewDocker(Config{DockerBin: bin, Image: "img", Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := d.Run(context.Background(), "while True: pass")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDockerRunMissingBinary(t *testing.T) {
	t.Parallel()

	d := NewDocker(Config{DockerBin: filepath.Join(t.TempDir(), "nope"), Image: "img"})

	_, err := d.Run(context.Background(), "print(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start container")
	assert.NotErrorIs(t, err, ErrContainer)
}

func TestDockerRunCancelledWhileBusy(t *testing.T) {
	t.Parallel()

	d := NewDocker(Config{DockerBin: "docker", Image: "img", MaxConcurrent: 1})
	require.True(t, d.sem.TryAcquire(1))
	defer d.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, "print(1)")
	assert.ErrorIs(t, err, ErrBusy)
}
