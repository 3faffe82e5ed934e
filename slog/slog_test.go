package slog

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var b bytes.Buffer
	SetWriter(&b)
	defer SetWriter(&bytes.Buffer{})

	Infof("queue manager %s", "QM1")
	Warningln("skipping", "line")
	Error("boom\n")
	assert.Equal(t, "info: queue manager QM1\nwarning: skipping line\nerror: boom\n", b.String())
}

func TestDebugGate(t *testing.T) {
	var b bytes.Buffer
	SetWriter(&b)
	defer SetWriter(&bytes.Buffer{})

	Debugf("hidden %d", 1)
	assert.Empty(t, b.String())

	SetDebug(true)
	defer SetDebug(false)
	Debugf("shown %d", 2)
	assert.Equal(t, "info: shown 2\n", b.String())
}

func TestFatalExits(t *testing.T) {
	var b bytes.Buffer
	SetWriter(&b)
	defer SetWriter(&bytes.Buffer{})
	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Fatalf("lock %s", "held")
	assert.Equal(t, 1, code)
	assert.Equal(t, "fatal: lock held\n", b.String())
}
