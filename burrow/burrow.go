// Package burrow reads consumer group lag from a Burrow HTTP endpoint.
package burrow // import "infraglue.org/burrow"

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmoiron/jsonq"

	"infraglue.org/failure"
	"infraglue.org/httpclient"
)

const DefaultURL = "http://localhost:9000"

type Client struct {
	base string
	hc   *http.Client
}

func New(base string, o httpclient.Options) *Client {
	if base == "" {
		base = DefaultURL
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: httpclient.New(o)}
}

// get fetches path and returns the reply as a query. Burrow reports
// failures as {"error": true, "message": "..."}; a message saying
// something was not found is failure.NotFound.
func (c *Client) get(ctx context.Context, path string) (*jsonq.JsonQuery, error) {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, "burrow")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	b, err := httpclient.Do(c.hc, req)
	var data map[string]interface{}
	if len(b) > 0 {
		if jerr := json.Unmarshal(b, &data); jerr != nil && err == nil {
			return nil, failure.Wrap(failure.Transport, jerr, "GET "+path)
		}
	}
	q := jsonq.NewQuery(data)
	if failed, _ := q.Bool("error"); failed {
		msg, _ := q.String("message")
		if strings.Contains(strings.ToLower(msg), "not found") {
			return nil, failure.NotFoundf("GET "+path, "%s", msg)
		}
		return nil, failure.Transportf("GET "+path, "%s", msg)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Clusters lists the Kafka clusters Burrow watches.
func (c *Client) Clusters(ctx context.Context) ([]string, error) {
	q, err := c.get(ctx, "/v2/kafka")
	if err != nil {
		return nil, err
	}
	cl, err := q.ArrayOfStrings("clusters")
	if err != nil {
		return nil, failure.Wrap(failure.Transport, err, "clusters")
	}
	return cl, nil
}

// Consumers lists the consumer groups of cluster.
func (c *Client) Consumers(ctx context.Context, cluster string) ([]string, error) {
	q, err := c.get(ctx, "/v2/kafka/"+url.PathEscape(cluster)+"/consumer")
	if err != nil {
		return nil, err
	}
	g, err := q.ArrayOfStrings("consumers")
	if err != nil {
		return nil, failure.Wrap(failure.Transport, err, "consumers")
	}
	return g, nil
}

// Partition is the lag evaluation of one partition.
type Partition struct {
	Topic     string
	Partition int
	EndLag    int64
	Status    string
}

// Lag is the evaluation of one consumer group.
type Lag struct {
	Status     string
	Partitions []Partition
}

// TotalLag sums the end lag of every partition.
func (l *Lag) TotalLag() int64 {
	var t int64
	for _, p := range l.Partitions {
		t += p.EndLag
	}
	return t
}

// AverageLag is TotalLag divided by the partition count, rounded down, or
// zero without partitions.
func (l *Lag) AverageLag() int64 {
	if len(l.Partitions) == 0 {
		return 0
	}
	return l.TotalLag() / int64(len(l.Partitions))
}

func (c *Client) Lag(ctx context.Context, cluster, group string) (*Lag, error) {
	path := "/v2/kafka/" + url.PathEscape(cluster) + "/consumer/" + url.PathEscape(group) + "/lag"
	q, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	l := &Lag{}
	if l.Status, err = q.String("status", "status"); err != nil {
		return nil, failure.Wrap(failure.Transport, err, "lag")
	}
	parts, err := q.ArrayOfObjects("status", "partitions")
	if err != nil {
		return nil, failure.Wrap(failure.Transport, err, "lag")
	}
	for _, p := range parts {
		pq := jsonq.NewQuery(p)
		var part Partition
		part.Topic, _ = pq.String("topic")
		part.Status, _ = pq.String("status")
		if part.Partition, err = pq.Int("partition"); err != nil {
			return nil, failure.Wrap(failure.Transport, err, "lag partition")
		}
		lag, err := pq.Float("end", "lag")
		if err != nil {
			return nil, failure.Wrap(failure.Transport, err, "lag end")
		}
		part.EndLag = int64(lag)
		l.Partitions = append(l.Partitions, part)
	}
	return l, nil
}
