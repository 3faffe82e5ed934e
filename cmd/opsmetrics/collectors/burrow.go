package collectors

import (
	"context"

	"infraglue.org/burrow"
	"infraglue.org/cmd/opsmetrics/conf"
	"infraglue.org/httpclient"
	"infraglue.org/lineproto"
)

func newBurrow(c conf.Burrow) *IntervalCollector {
	client := burrow.New(c.URL, httpclient.Options{Timeout: c.Timeout.Duration})
	return &IntervalCollector{
		name: "burrow",
		F: func(ctx context.Context) (lineproto.MultiPoint, error) {
			return c_burrow(ctx, client)
		},
	}
}

type lagSource interface {
	Clusters(ctx context.Context) ([]string, error)
	Consumers(ctx context.Context, cluster string) ([]string, error)
	Lag(ctx context.Context, cluster, group string) (*burrow.Lag, error)
}

// c_burrow emits one kafka_consumers summary per consumer group followed by
// one kafka_burrow line per partition.
func c_burrow(ctx context.Context, b lagSource) (lineproto.MultiPoint, error) {
	var md lineproto.MultiPoint
	clusters, err := b.Clusters(ctx)
	if err != nil {
		return nil, err
	}
	for _, cluster := range clusters {
		groups, err := b.Consumers(ctx, cluster)
		if err != nil {
			return nil, err
		}
		ts := lineproto.TagSet{"cluster": cluster}
		for _, g := range groups {
			lag, err := b.Lag(ctx, cluster, g)
			if err != nil {
				return nil, err
			}
			lineproto.Add(&md, "kafka_consumers", ts,
				lineproto.F("consumer_group", g),
				lineproto.F("status", lag.Status),
				lineproto.F("total_lag", lag.TotalLag()),
				lineproto.F("partition_count", len(lag.Partitions)),
				lineproto.F("average_lag", lag.AverageLag()),
			)
			for _, p := range lag.Partitions {
				lineproto.Add(&md, "kafka_burrow", ts,
					lineproto.F("consumer_group", g),
					lineproto.F("topic", p.Topic),
					lineproto.F("partition", p.Partition),
					lineproto.F("end_lag", p.EndLag),
					lineproto.F("status", p.Status),
				)
			}
		}
	}
	return md, nil
}
