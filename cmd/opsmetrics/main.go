// Command opsmetrics scrapes IBM MQ, Oracle GoldenGate and Burrow and prints
// InfluxDB line protocol for a Telegraf exec input, or writes it to InfluxDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"infraglue.org/cmd/opsmetrics/collectors"
	"infraglue.org/cmd/opsmetrics/conf"
	"infraglue.org/lineproto"
	"infraglue.org/slog"
	"infraglue.org/version"
)

var (
	flagConf     = flag.String("c", "", "TOML config file; defaults to the built-in queue managers, GoldenGate and Burrow")
	flagFilter   = flag.String("f", "", "comma separated globs; only collectors whose name matches one run")
	flagList     = flag.Bool("l", false, "list the enabled collectors and exit")
	flagInterval = flag.Duration("i", 0, "collect every interval instead of once")
	flagDebug    = flag.Bool("d", false, "debug logging")
	flagStrict   = flag.Bool("strict", false, "re-parse every line and fail on the first invalid one")
	flagSyslog   = flag.Bool("s", false, "log to syslog (the event log on Windows)")
	flagListen   = flag.String("listen", "", "in loop mode, serve opsmetrics' own Prometheus metrics on this address")
	flagVersion  = flag.Bool("version", false, "Prints the version and exits")
)

func main() {
	flag.Parse()
	if *flagVersion {
		fmt.Println(version.GetVersionInfo("opsmetrics"))
		os.Exit(0)
	}
	slog.SetDebug(*flagDebug)
	if *flagSyslog {
		if err := setSyslog(); err != nil {
			slog.Fatal(err)
		}
	}
	c, err := readConf()
	if err != nil {
		slog.Fatal(err)
	}
	cs := selected(c)
	if *flagList {
		for _, x := range cs {
			fmt.Println(x.Name())
		}
		return
	}
	out, err := newOutput(c)
	if err != nil {
		slog.Fatal(err)
	}
	defer out.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *flagInterval <= 0 {
		if err := cycle(ctx, cs, runOptions(c), out); err != nil {
			slog.Error(err)
			out.Close()
			os.Exit(1)
		}
		return
	}
	if *flagListen != "" {
		go serveMetrics(*flagListen)
	}
	var reloads <-chan *conf.Conf
	if *flagConf != "" {
		if reloads, err = watchConf(ctx, *flagConf); err != nil {
			slog.Errorf("not watching %s: %v", *flagConf, err)
		}
	}
	t := time.NewTicker(*flagInterval)
	defer t.Stop()
	run := func() {
		if err := cycle(ctx, cs, runOptions(c), out); err != nil {
			slog.Errorf("cycle failed: %v", err)
		}
	}
	run()
	for {
		select {
		case <-ctx.Done():
			return
		case nc := <-reloads:
			// The output stays as started; only collectors and locking change.
			c, cs = nc, selected(nc)
		case <-t.C:
			run()
		}
	}
}

func selected(c *conf.Conf) []collectors.Collector {
	filter := c.Filter
	if *flagFilter != "" {
		filter = strings.Split(*flagFilter, ",")
	}
	return collectors.Search(collectors.Init(c), filter)
}

func runOptions(c *conf.Conf) collectors.RunOptions {
	return collectors.RunOptions{LockDir: c.LockDir, LockTimeout: c.LockTimeout.Duration}
}

func serveMetrics(addr string) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	slog.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Errorf("metrics listener: %v", err)
	}
}

func readConf() (*conf.Conf, error) {
	if *flagConf != "" {
		return conf.LoadFile(*flagConf)
	}
	c := conf.Default()
	return c, c.FromEnv()
}

func cycle(ctx context.Context, cs []collectors.Collector, opts collectors.RunOptions, out output) error {
	md, err := collectors.Run(ctx, cs, opts)
	if err != nil {
		return err
	}
	return out.Write(md)
}

type output interface {
	Write(lineproto.MultiPoint) error
	Close() error
}

type stdout struct {
	enc *lineproto.Encoder
}

func (s stdout) Write(md lineproto.MultiPoint) error { return s.enc.Encode(md) }
func (s stdout) Close() error                        { return nil }

func newOutput(c *conf.Conf) (output, error) {
	if c.Influx.Enabled() {
		slog.Infof("writing to InfluxDB at %s", c.Influx.URL)
		return lineproto.NewInfluxSink(c.Influx.Config())
	}
	return stdout{&lineproto.Encoder{W: os.Stdout, Strict: *flagStrict}}, nil
}
