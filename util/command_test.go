//go:build !windows
// +build !windows

package util

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infraglue.org/failure"
)

func TestCommandStdinAndEnv(t *testing.T) {
	b, err := Command(context.Background(), time.Second*5, Options{
		Stdin: strings.NewReader("info all\n"),
		Env:   []string{"LD_LIBRARY_PATH=/opt/ogg/lib"},
	}, "sh", "-c", `read line; echo "$line|$LD_LIBRARY_PATH"`)
	require.NoError(t, err)
	assert.Equal(t, "info all|/opt/ogg/lib\n", b.String())
}

func TestCommandExitStatus(t *testing.T) {
	_, err := Command(context.Background(), time.Second*5, Options{}, "sh", "-c", "echo AMQ8118E: queue manager does not exist >&2; exit 20")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Command))
	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 20, ce.Code)
	assert.Contains(t, ce.Stderr, "AMQ8118E")
	assert.Contains(t, err.Error(), "exit status 20")
}

func TestCommandNotInPath(t *testing.T) {
	_, err := Command(context.Background(), time.Second, Options{}, "no-such-program-infraglue")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPath))
	assert.True(t, failure.Is(err, failure.Validation))
}

func TestCommandTimeout(t *testing.T) {
	_, err := Command(context.Background(), 50*time.Millisecond, Options{}, "sleep", "5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestCommandCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := Command(ctx, time.Minute, Options{}, "sleep", "5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReadCommand(t *testing.T) {
	var lines []string
	err := ReadCommand(context.Background(), func(l string) error {
		lines = append(lines, l)
		return nil
	}, "printf", `a\nb\n`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestReadCommandStopsOnLineError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	err := ReadCommand(context.Background(), func(string) error {
		n++
		return stop
	}, "printf", `a\nb\n`)
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, n)
}
