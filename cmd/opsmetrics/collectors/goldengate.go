package collectors

import (
	"context"
	"strings"
	"time"

	"infraglue.org/cmd/opsmetrics/conf"
	"infraglue.org/failure"
	"infraglue.org/lineproto"
	"infraglue.org/scrape"
	"infraglue.org/slog"
	"infraglue.org/util"
)

func newGoldenGate(c conf.GoldenGate, timeout time.Duration) *IntervalCollector {
	ic := &IntervalCollector{
		name: "goldengate",
		F: func(ctx context.Context) (lineproto.MultiPoint, error) {
			return c_goldengate(ctx, c, timeout)
		},
	}
	if c.SkipIfRunning {
		ic.Busy = func() (bool, error) { return running(c.Ggsci) }
	}
	return ic
}

func c_goldengate(ctx context.Context, c conf.GoldenGate, timeout time.Duration) (lineproto.MultiPoint, error) {
	opts := util.Options{
		Stdin: strings.NewReader("info all\n"),
		Env:   []string{"LD_LIBRARY_PATH=" + c.LibraryPath},
	}
	out, err := command(ctx, timeout, opts, c.Ggsci)
	if err != nil {
		return nil, err
	}
	return parseInfoAll(out.String())
}

// parseInfoAll reads the EXTRACT and REPLICAT rows of GGSCI "info all":
// program, status, group, lag and time since checkpoint.
func parseInfoAll(out string) (lineproto.MultiPoint, error) {
	var md lineproto.MultiPoint
	for _, line := range scrape.FilterLines(out, "EXTRACT", "REPLICAT") {
		f := strings.Fields(line)
		if len(f) < 5 {
			slog.Warningf("goldengate: skipping short line %q", line)
			continue
		}
		lag, err := scrape.HMSToSeconds(f[3])
		if err != nil {
			return nil, failure.Wrap(failure.Command, err, "ggsci "+f[2])
		}
		stopped, err := scrape.HMSToSeconds(f[4])
		if err != nil {
			return nil, failure.Wrap(failure.Command, err, "ggsci "+f[2])
		}
		lineproto.Add(&md, "ogg_lag", lineproto.TagSet{"name": f[2], "type": f[0]},
			lineproto.F("status", f[1]),
			lineproto.F("lag_time_seconds", lag),
			lineproto.F("stopped_time", stopped),
		)
	}
	return md, nil
}
