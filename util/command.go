package util

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"infraglue.org/failure"
	"infraglue.org/slog"
)

var (
	// ErrPath is returned by Command if the program is not in the PATH.
	ErrPath = failure.Validationf("", "program not in PATH")
	// ErrTimeout is returned by Command if the program timed out.
	ErrTimeout = failure.Commandf("", "program killed after timeout")
)

// CommandError is returned when a program exits with a non-zero status.
type CommandError struct {
	Name   string
	Args   []string
	Code   int
	Stderr string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Name, strings.Join(e.Args, " "), e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Options are the optional inputs of a command.
type Options struct {
	// Stdin is fed to the program, e.g. an MQSC or GGSCI script.
	Stdin io.Reader
	// Env entries (KEY=value) are appended to the current environment.
	Env []string
	Dir string
}

// Command executes the named program with the given arguments and returns
// its standard output. If it does not exit within timeout, it is sent
// SIGINT (if supported by Go). After another timeout, it is killed. A
// cancelled ctx kills it immediately.
//
// Non-zero exits return a *CommandError wrapped as a failure.Command.
func Command(ctx context.Context, timeout time.Duration, opts Options, name string, arg ...string) (*bytes.Buffer, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, errors.Wrap(ErrPath, name)
	}
	slog.Debugf("executing command: %v %v", name, arg)
	c := exec.Command(name, arg...)
	b := &bytes.Buffer{}
	var stderr bytes.Buffer
	c.Stdout = b
	c.Stderr = &stderr
	c.Stdin = opts.Stdin
	c.Dir = opts.Dir
	if len(opts.Env) > 0 {
		c.Env = append(os.Environ(), opts.Env...)
	}
	if err := c.Start(); err != nil {
		return nil, failure.Wrap(failure.Command, err, name)
	}
	var timedOut int32
	intTimer := time.AfterFunc(timeout, func() {
		slog.Errorf("Process taking too long. Interrupting: %s %s", name, strings.Join(arg, " "))
		atomic.StoreInt32(&timedOut, 1)
		c.Process.Signal(os.Interrupt)
	})
	killTimer := time.AfterFunc(timeout*2, func() {
		slog.Errorf("Process taking too long. Killing: %s %s", name, strings.Join(arg, " "))
		atomic.StoreInt32(&timedOut, 1)
		c.Process.Signal(os.Kill)
	})
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.Process.Kill()
		case <-done:
		}
	}()
	err := c.Wait()
	close(done)
	intTimer.Stop()
	killTimer.Stop()
	if atomic.LoadInt32(&timedOut) == 1 {
		return nil, errors.Wrap(ErrTimeout, name)
	}
	if ctx.Err() != nil {
		return nil, failure.Wrap(failure.Command, ctx.Err(), name)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return b, failure.Wrap(failure.Command, &CommandError{
				Name:   name,
				Args:   arg,
				Code:   ee.ExitCode(),
				Stderr: stderr.String(),
			}, name)
		}
		return b, failure.Wrap(failure.Command, err, name)
	}
	if stderr.Len() > 0 {
		slog.Debugf("%s stderr: %s", name, stderr.String())
	}
	return b, nil
}

// ReadCommand runs command name with args and calls line for each line from
// its stdout. Command is interrupted (if supported by Go) after 10 seconds
// and killed after 20 seconds.
func ReadCommand(ctx context.Context, line func(string) error, name string, arg ...string) error {
	return ReadCommandTimeout(ctx, time.Second*10, line, Options{}, name, arg...)
}

// ReadCommandTimeout is the same as ReadCommand with a specifiable timeout
// and options.
func ReadCommandTimeout(ctx context.Context, timeout time.Duration, line func(string) error, opts Options, name string, arg ...string) error {
	b, err := Command(ctx, timeout, opts, name, arg...)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(b)
	for scanner.Scan() {
		if err := line(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Infof("%v: %v\n", name, err)
	}
	return nil
}
