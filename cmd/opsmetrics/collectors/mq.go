package collectors

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"infraglue.org/cmd/opsmetrics/conf"
	"infraglue.org/failure"
	"infraglue.org/lineproto"
	"infraglue.org/scrape"
	"infraglue.org/slog"
	"infraglue.org/util"
)

// runmqsc exits 10 when the script ran but a command in it failed, e.g. a
// prefix no queue matches. The output is still valid.
const mqscPartialFailure = 10

var mqPatterns = scrape.Patterns{
	"queue":    regexp.MustCompile(`(?m).*QUEUE\((.*)\).*\(.*\).*`),
	"curdepth": regexp.MustCompile(`(?m).*CURDEPTH\((.*)\).*\(.*\).*`),
	"lputtime": regexp.MustCompile(`(?m).*LPUTTIME\((.*)\).*`),
	"monq":     regexp.MustCompile(`(?m).*MONQ\((.*)\).*\(.*\).*`),
	"msgage":   regexp.MustCompile(`(?m).*MSGAGE\((.*)\).*`),
}

// mqFallback is tried for a field whose attribute ends its line, which the
// two-column patterns above do not match.
var mqFallback = scrape.Patterns{
	"queue":    regexp.MustCompile(`\bQUEUE\(([^)]*)\)`),
	"curdepth": regexp.MustCompile(`\bCURDEPTH\(([^)]*)\)`),
	"monq":     regexp.MustCompile(`\bMONQ\(([^)]*)\)`),
}

// Queue is the status of one local queue.
type Queue struct {
	Name     string
	Depth    int
	LPutTime string
	MonQ     string
	MsgAge   int
}

func newMQ(c conf.MQ, timeout time.Duration) *IntervalCollector {
	ic := &IntervalCollector{
		name: "mq-" + c.Name,
		F: func(ctx context.Context) (lineproto.MultiPoint, error) {
			return c_mq(ctx, c, timeout)
		},
	}
	if c.SkipIfRunning {
		ic.Busy = func() (bool, error) { return running(c.Runmqsc, "qstatus") }
	}
	return ic
}

func c_mq(ctx context.Context, c conf.MQ, timeout time.Duration) (lineproto.MultiPoint, error) {
	var md lineproto.MultiPoint
	for _, prefix := range c.Prefixes {
		out, err := runMQSC(ctx, c, timeout, prefix)
		if err != nil {
			return nil, err
		}
		queues, err := parseQStatus(out)
		if err != nil {
			return nil, err
		}
		for _, q := range queues {
			if util.GlobMatches(q.Name, c.Exclude) {
				continue
			}
			queueLines(&md, c.Name, q)
		}
	}
	return md, nil
}

func runMQSC(ctx context.Context, c conf.MQ, timeout time.Duration, prefix string) (string, error) {
	name, args := c.Runmqsc, []string{c.Name}
	if c.SudoUser != "" {
		name, args = "sudo", []string{"-u", c.SudoUser, c.Runmqsc, c.Name}
	}
	script := fmt.Sprintf("display qstatus (%s*) curdepth, msgage, lputtime, monq\n", prefix)
	out, err := command(ctx, timeout, util.Options{Stdin: strings.NewReader(script)}, name, args...)
	if err != nil {
		var ce *util.CommandError
		if errors.As(err, &ce) && ce.Code == mqscPartialFailure && out != nil {
			slog.Debugf("runmqsc %s prefix %s: %v", c.Name, prefix, err)
			return out.String(), nil
		}
		return "", err
	}
	return out.String(), nil
}

// parseQStatus reads the queues of a DISPLAY QSTATUS reply in the order
// runmqsc printed them. Each queue is a chunk ending at the next AMQ
// message. Blank values become "-1", or "-2" when queue monitoring is off.
func parseQStatus(out string) ([]Queue, error) {
	var queues []Queue
	s := scrape.Records(strings.NewReader(out), "AMQ")
	for s.Scan() {
		chunk := s.Text()
		rec := mqPatterns.Extract(chunk)
		for name, v := range mqFallback.Extract(chunk) {
			if !rec.Has(name) {
				rec[name] = v
			}
		}
		if rec.Blank("queue") {
			continue
		}
		q := Queue{
			Name:     strings.TrimSpace(rec["queue"]),
			MonQ:     strings.TrimSpace(rec["monq"]),
			LPutTime: strings.TrimSpace(rec["lputtime"]),
		}
		age := strings.TrimSpace(rec["msgage"])
		if q.MonQ == "OFF" {
			q.LPutTime, age = "-2", "-2"
		} else {
			if q.LPutTime == "" {
				q.LPutTime = "-1"
			}
			if age == "" {
				age = "-1"
			}
		}
		var err error
		if q.MsgAge, err = strconv.Atoi(age); err != nil {
			return nil, failure.Commandf("runmqsc", "queue %s: MSGAGE %q is not a number", q.Name, age)
		}
		q.Depth = -1
		if d := strings.TrimSpace(rec["curdepth"]); d != "" {
			if q.Depth, err = strconv.Atoi(d); err != nil {
				return nil, failure.Commandf("runmqsc", "queue %s: CURDEPTH %q is not a number", q.Name, d)
			}
		}
		queues = append(queues, q)
	}
	if err := s.Err(); err != nil {
		return nil, failure.Wrap(failure.Command, err, "runmqsc")
	}
	return queues, nil
}

// queueLines emits one line per attribute, in the order the MQ tooling
// always has.
func queueLines(md *lineproto.MultiPoint, qm string, q Queue) {
	ts := lineproto.TagSet{"queue_mgr": qm, "queues": q.Name}
	lineproto.Add(md, "mq_queue", ts, lineproto.F("depth", q.Depth))
	lineproto.Add(md, "mq_queue", ts, lineproto.F("lputtime", q.LPutTime))
	lineproto.Add(md, "mq_queue", ts, lineproto.F("monq", q.MonQ))
	lineproto.Add(md, "mq_queue", ts, lineproto.F("msgage", q.MsgAge))
}
