// Package httpclient builds the HTTP clients used to reach vendor APIs and
// decodes their JSON replies.
package httpclient // import "infraglue.org/httpclient"

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/facebookgo/httpcontrol"
	"github.com/pkg/errors"

	"infraglue.org/failure"
)

// Options tune the transport. The zero value gives a one minute request
// timeout and a single try.
type Options struct {
	Timeout time.Duration
	// MaxTries is the number of retries after the first attempt, which is
	// only used for requests that time out or fail to connect.
	MaxTries           uint
	InsecureSkipVerify bool
}

// New returns a client backed by an httpcontrol transport.
func New(o Options) *http.Client {
	if o.Timeout == 0 {
		o.Timeout = time.Minute
	}
	return &http.Client{
		Transport: &httpcontrol.Transport{
			Proxy:          http.ProxyFromEnvironment,
			RequestTimeout: o.Timeout,
			MaxTries:       o.MaxTries,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: o.InsecureSkipVerify,
			},
		},
	}
}

// StatusError is a non-2xx reply.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return e.Method + " " + e.URL + ": " + http.StatusText(e.Code) + ": " + e.Body
}

// Do sends req and returns the body of a 2xx response. Connection errors
// are failure.Transport; 404 is failure.NotFound; other non-2xx statuses
// are failure.Transport wrapping a *StatusError.
func Do(c *http.Client, req *http.Request) ([]byte, error) {
	op := req.Method + " " + req.URL.Path
	resp, err := c.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.Transport, err, op)
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Wrap(failure.Transport, err, op)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode, Body: string(b)}
		kind := failure.Transport
		if resp.StatusCode == http.StatusNotFound {
			kind = failure.NotFound
		}
		return b, failure.Wrap(kind, se, op)
	}
	return b, nil
}

// GetJSON fetches url and decodes the reply into v.
func GetJSON(ctx context.Context, c *http.Client, url string, v interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return failure.Wrap(failure.Validation, err, "GET")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	b, err := Do(c, req)
	if err != nil {
		return err
	}
	return Decode(b, v)
}

// Decode unmarshals a JSON reply, classifying malformed bodies as
// transport failures.
func Decode(b []byte, v interface{}) error {
	if err := json.Unmarshal(b, v); err != nil {
		return failure.Wrap(failure.Transport, errors.Wrap(err, "decode reply"), "")
	}
	return nil
}
