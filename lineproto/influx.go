package lineproto

import (
	"time"

	client "github.com/influxdata/influxdb/client/v2"
	"github.com/pkg/errors"

	"infraglue.org/failure"
)

// InfluxConfig addresses an InfluxDB 1.x HTTP endpoint.
type InfluxConfig struct {
	URL       string
	Database  string
	Username  string
	Password  string
	Precision string
	Timeout   time.Duration
	UnsafeSSL bool
}

// InfluxSink writes points straight to InfluxDB instead of standard output.
type InfluxSink struct {
	c    client.Client
	conf InfluxConfig
	now  func() time.Time
}

func NewInfluxSink(conf InfluxConfig) (*InfluxSink, error) {
	if conf.URL == "" || conf.Database == "" {
		return nil, failure.Validationf("influx", "URL and Database are required")
	}
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:               conf.URL,
		Username:           conf.Username,
		Password:           conf.Password,
		Timeout:            conf.Timeout,
		InsecureSkipVerify: conf.UnsafeSSL,
	})
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, "influx")
	}
	return &InfluxSink{c: c, conf: conf, now: time.Now}, nil
}

// Write sends md as a single batch. Points without a timestamp are stamped
// with the current time so the whole batch shares one.
func (s *InfluxSink) Write(md MultiPoint) error {
	if len(md) == 0 {
		return nil
	}
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.conf.Database,
		Precision: s.conf.Precision,
	})
	if err != nil {
		return errors.Wrap(err, "influx batch")
	}
	now := s.now()
	for _, p := range md {
		if err := p.validate(); err != nil {
			return err
		}
		fields := make(map[string]interface{}, len(p.Fields))
		for _, f := range p.Fields {
			fields[f.Key] = f.Value
		}
		ts := p.Timestamp
		if ts.IsZero() {
			ts = now
		}
		pt, err := client.NewPoint(p.Measurement, p.Tags, fields, ts)
		if err != nil {
			return errors.Wrapf(err, "influx point %s", p.Measurement)
		}
		bp.AddPoint(pt)
	}
	if err := s.c.Write(bp); err != nil {
		return failure.Wrap(failure.Transport, err, "influx write")
	}
	return nil
}

func (s *InfluxSink) Close() error {
	return s.c.Close()
}
