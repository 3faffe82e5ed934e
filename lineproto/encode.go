package lineproto

import (
	"bufio"
	"io"

	"github.com/influxdata/influxdb/models"
	"github.com/pkg/errors"

	"infraglue.org/slog"
)

// Encoder writes points to W, one line each.
type Encoder struct {
	W io.Writer
	// Strict makes Encode fail on the first invalid point instead of
	// dropping it, and re-parses every line with the InfluxDB parser.
	Strict bool
}

// Encode serializes md. Invalid points are logged and skipped unless Strict
// is set. Nothing is written when a strict check fails.
func (e *Encoder) Encode(md MultiPoint) error {
	lines := make([]string, 0, len(md))
	for _, p := range md {
		line, err := p.Line()
		if err == nil && e.Strict {
			err = Check(line)
		}
		if err != nil {
			if e.Strict {
				return err
			}
			slog.Errorln(err, "removing point", p.Measurement)
			continue
		}
		lines = append(lines, line)
	}
	w := bufio.NewWriter(e.W)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Check parses line with the InfluxDB line protocol parser and returns an
// error unless it holds exactly one point.
func Check(line string) error {
	pts, err := models.ParsePointsString(line)
	if err != nil {
		return errors.Wrapf(err, "invalid line %q", line)
	}
	if len(pts) != 1 {
		return errors.Errorf("line %q holds %d points", line, len(pts))
	}
	return nil
}
