// Package conf contains the configuration structs for opsmetrics.
package conf // import "infraglue.org/cmd/opsmetrics/conf"

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"

	"infraglue.org/burrow"
	"infraglue.org/lineproto"
)

type Conf struct {
	// LockDir holds one lock file per collector, opsmetrics-<name>.lock.
	LockDir string `env:"OPSMETRICS_LOCK_DIR"`
	// LockTimeout is how long a run waits for a previous run of the same
	// collector before exiting quietly.
	LockTimeout Duration
	// CommandTimeout bounds runmqsc and ggsci. They are interrupted after
	// it and killed after twice it.
	CommandTimeout Duration
	// Filter limits the enabled collectors to names matching these globs.
	Filter []string

	MQ         []MQ
	GoldenGate *GoldenGate
	Burrow     *Burrow
	Influx     Influx

	md toml.MetaData
}

// MQ is one IBM MQ queue manager.
type MQ struct {
	Name     string
	Prefixes []string
	Runmqsc  string
	// SudoUser runs runmqsc through sudo -u when set. Default() uses mqm.
	SudoUser string
	// Exclude drops queues matching these globs.
	Exclude []string
	// SkipIfRunning skips the run while a runmqsc process started outside
	// opsmetrics is alive.
	SkipIfRunning bool
}

type GoldenGate struct {
	Ggsci         string
	LibraryPath   string
	SkipIfRunning bool
}

type Burrow struct {
	URL     string `env:"OPSMETRICS_BURROW_URL"`
	Timeout Duration
}

// Influx, when URL is set, sends points to InfluxDB instead of stdout.
type Influx struct {
	URL       string `env:"OPSMETRICS_INFLUX_URL"`
	Database  string
	Username  string
	Password  string `env:"OPSMETRICS_INFLUX_PASSWORD"`
	Precision string
	Timeout   Duration
	UnsafeSSL bool
}

func (i Influx) Enabled() bool { return i.URL != "" }

func (i Influx) Config() lineproto.InfluxConfig {
	return lineproto.InfluxConfig{
		URL:       i.URL,
		Database:  i.Database,
		Username:  i.Username,
		Password:  i.Password,
		Precision: i.Precision,
		Timeout:   i.Timeout.Duration,
		UnsafeSSL: i.UnsafeSSL,
	}
}

const (
	DefaultRunmqsc     = "/app/mqm/bin/runmqsc"
	DefaultSudoUser    = "mqm"
	DefaultGgsci       = "/acfsvol1/ogg/current/ggsci"
	DefaultLibraryPath = "/data01/app/oracle/product/19.0.0/db_1/lib:/acfsvol1/ogg/current"
)

var DefaultPrefixes = []string{"SS", "RXH"}

// Default returns the configuration used when no file is given: the two
// SS queue managers and GoldenGate, each skipped while an outside tool
// process is running.
func Default() *Conf {
	c := newConf()
	for _, qm := range []string{"SS_QM_01", "SS_QM_02"} {
		c.MQ = append(c.MQ, MQ{Name: qm, SudoUser: DefaultSudoUser, SkipIfRunning: true})
	}
	c.GoldenGate = &GoldenGate{SkipIfRunning: true}
	c.Burrow = &Burrow{}
	c.setDefaults()
	return c
}

func newConf() *Conf {
	return &Conf{
		LockDir:        "/tmp",
		LockTimeout:    Duration{time.Second * 5},
		CommandTimeout: Duration{time.Second * 30},
		Influx: Influx{
			Database: "telegraf",
			Timeout:  Duration{time.Second * 10},
		},
	}
}

func (c *Conf) setDefaults() {
	for i := range c.MQ {
		mq := &c.MQ[i]
		if mq.Runmqsc == "" {
			mq.Runmqsc = DefaultRunmqsc
		}
		if len(mq.Prefixes) == 0 {
			mq.Prefixes = DefaultPrefixes
		}
	}
	if g := c.GoldenGate; g != nil {
		if g.Ggsci == "" {
			g.Ggsci = DefaultGgsci
		}
		if g.LibraryPath == "" {
			g.LibraryPath = DefaultLibraryPath
		}
	}
	if b := c.Burrow; b != nil {
		if b.URL == "" {
			b.URL = burrow.DefaultURL
		}
		if b.Timeout.Duration == 0 {
			b.Timeout = Duration{time.Second * 30}
		}
	}
}

// LoadFile reads the TOML configuration in fileName. It errors on keys it
// does not know. Environment variables override the endpoints and secrets.
func LoadFile(fileName string) (*Conf, error) {
	return load(fileName, true)
}

// Load is LoadFile for a configuration given as a string.
func Load(text string) (*Conf, error) {
	return load(text, false)
}

func load(s string, isFileName bool) (*Conf, error) {
	c := newConf()
	var err error
	if isFileName {
		c.md, err = toml.DecodeFile(s, c)
	} else {
		c.md, err = toml.Decode(s, c)
	}
	if err != nil {
		return nil, err
	}
	if u := c.md.Undecoded(); len(u) > 0 {
		return nil, fmt.Errorf("undecoded fields in configuration: %v", u)
	}
	if err := c.FromEnv(); err != nil {
		return nil, err
	}
	c.setDefaults()
	return c, c.validate()
}

// FromEnv applies the OPSMETRICS_* environment overrides.
func (c *Conf) FromEnv() error {
	if _, ok := os.LookupEnv("OPSMETRICS_BURROW_URL"); ok && c.Burrow == nil {
		c.Burrow = &Burrow{}
	}
	if err := env.Parse(c); err != nil {
		return errors.Wrap(err, "environment")
	}
	return nil
}

func (c *Conf) validate() error {
	seen := map[string]bool{}
	for _, mq := range c.MQ {
		if mq.Name == "" {
			return fmt.Errorf("MQ entry without Name")
		}
		if seen[mq.Name] {
			return fmt.Errorf("duplicate MQ queue manager %s", mq.Name)
		}
		seen[mq.Name] = true
	}
	if c.CommandTimeout.Duration <= 0 {
		return fmt.Errorf("CommandTimeout must be positive, got %v", c.CommandTimeout.Duration)
	}
	if c.LockTimeout.Duration < 0 {
		return fmt.Errorf("LockTimeout must not be negative, got %v", c.LockTimeout.Duration)
	}
	if c.Burrow != nil && c.Burrow.Timeout.Duration < 0 {
		return fmt.Errorf("Burrow.Timeout must not be negative, got %v", c.Burrow.Timeout.Duration)
	}
	if c.Influx.Enabled() && c.Influx.Database == "" {
		return fmt.Errorf("Influx.Database is required with Influx.URL")
	}
	return nil
}

type Duration struct {
	time.Duration
}

// UnmarshalText is the method called by TOML when decoding a value.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}
