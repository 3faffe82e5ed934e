package util

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// processes is replaced in tests.
var processes = func() ([]proc, error) {
	ps, err := process.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]proc, 0, len(ps))
	for _, p := range ps {
		out = append(out, p)
	}
	return out, nil
}

type proc interface {
	Cmdline() (string, error)
}

// Running reports whether a process other than this one has a command line
// containing substr. Processes that vanish or cannot be read are ignored.
func Running(substr string, exclude ...string) (bool, error) {
	ps, err := processes()
	if err != nil {
		return false, errors.Wrap(err, "list processes")
	}
	self := os.Getpid()
	for _, p := range ps {
		if gp, ok := p.(*process.Process); ok && int(gp.Pid) == self {
			continue
		}
		cmd, err := p.Cmdline()
		if err != nil || !strings.Contains(cmd, substr) {
			continue
		}
		skip := false
		for _, x := range exclude {
			if strings.Contains(cmd, x) {
				skip = true
				break
			}
		}
		if !skip {
			return true, nil
		}
	}
	return false, nil
}
