// Package collectors turns vendor tool output into metric points. Each
// collector runs once per cycle under its own file lock.
package collectors // import "infraglue.org/cmd/opsmetrics/collectors"

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"infraglue.org/cmd/opsmetrics/conf"
	"infraglue.org/lineproto"
	"infraglue.org/slog"
	"infraglue.org/util"
)

type Collector interface {
	Name() string
	Collect(ctx context.Context) (lineproto.MultiPoint, error)
}

// IntervalCollector is a Collector built from a function.
type IntervalCollector struct {
	F    func(ctx context.Context) (lineproto.MultiPoint, error)
	name string
	// Busy, if set, reports whether a vendor tool process started outside
	// opsmetrics is alive, in which case the collector is skipped.
	Busy func() (bool, error)
}

func (c *IntervalCollector) Name() string { return c.name }

func (c *IntervalCollector) Collect(ctx context.Context) (lineproto.MultiPoint, error) {
	return c.F(ctx)
}

// command and running are replaced in tests.
var (
	command = util.Command
	running = util.Running
)

// Init builds the collectors enabled by c.
func Init(c *conf.Conf) []Collector {
	var cs []Collector
	for _, mq := range c.MQ {
		cs = append(cs, newMQ(mq, c.CommandTimeout.Duration))
	}
	if c.GoldenGate != nil {
		cs = append(cs, newGoldenGate(*c.GoldenGate, c.CommandTimeout.Duration))
	}
	if c.Burrow != nil {
		cs = append(cs, newBurrow(*c.Burrow))
	}
	return cs
}

// Search returns the collectors whose name matches any of the glob
// patterns, or all of them when there is no pattern.
func Search(cs []Collector, patterns []string) []Collector {
	if len(patterns) == 0 {
		return cs
	}
	var r []Collector
	for _, c := range cs {
		if util.GlobMatches(c.Name(), patterns) {
			r = append(r, c)
		}
	}
	return r
}

// RunOptions control a collection cycle.
type RunOptions struct {
	LockDir     string
	LockTimeout time.Duration
}

// Run collects from every collector in order and returns all points. The
// first failure aborts the cycle and no points are returned. A collector
// whose lock stays held, or whose tool is busy, is skipped.
func Run(ctx context.Context, cs []Collector, o RunOptions) (lineproto.MultiPoint, error) {
	var md lineproto.MultiPoint
	for _, c := range cs {
		points, err := runOne(ctx, c, o)
		if err != nil {
			return nil, errors.Wrap(err, c.Name())
		}
		md = append(md, points...)
	}
	return md, nil
}

func runOne(ctx context.Context, c Collector, o RunOptions) (lineproto.MultiPoint, error) {
	if ic, ok := c.(*IntervalCollector); ok && ic.Busy != nil {
		busy, err := ic.Busy()
		if err != nil {
			return nil, err
		}
		if busy {
			slog.Infof("%s: tool already running, skipping", c.Name())
			skipped(c.Name())
			return nil, nil
		}
	}
	if o.LockDir != "" {
		lock, err := util.Lock(filepath.Join(o.LockDir, "opsmetrics-"+c.Name()+".lock"), o.LockTimeout)
		if err == util.ErrLocked {
			slog.Infof("%s: previous run still in progress, skipping", c.Name())
			skipped(c.Name())
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		defer lock.Unlock()
	}
	start := time.Now()
	md, err := c.Collect(ctx)
	observe(c.Name(), start, len(md), err)
	slog.Debugf("%s: %d points in %v", c.Name(), len(md), time.Since(start))
	return md, err
}
