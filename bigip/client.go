// Package bigip is a client for the F5 BIG-IP iControl REST API, covering
// the GTM pool, wide IP and virtual server calls used by the Ansible
// modules and the bash utility endpoint.
package bigip // import "infraglue.org/bigip"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"infraglue.org/failure"
	"infraglue.org/httpclient"
)

// DefaultPartition is used for names given without a /partition/ prefix.
const DefaultPartition = "Common"

type Options struct {
	httpclient.Options
	// PoolType is the GTM pool record type, "a" unless set.
	PoolType string
}

type Client struct {
	base     string
	user     string
	password string
	poolType string
	hc       *http.Client
}

// New returns a client for server, which may be a host name or a URL.
func New(server, user, password string, o Options) *Client {
	base := strings.TrimRight(server, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	if o.PoolType == "" {
		o.PoolType = "a"
	}
	return &Client{
		base:     base,
		user:     user,
		password: password,
		poolType: o.PoolType,
		hc:       httpclient.New(o.Options),
	}
}

// APIError is the error body iControl REST returns with non-2xx replies.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// IsExists reports whether err is the vendor's answer to creating an object
// that is already there.
func IsExists(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code == http.StatusConflict || strings.Contains(ae.Message, "already exists")
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return failure.Wrap(failure.Validation, err, method+" "+path)
	}
	req = req.WithContext(ctx)
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	b, err := httpclient.Do(c.hc, req)
	if err != nil {
		return classify(method+" "+path, b, err)
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	return httpclient.Decode(b, out)
}

// classify replaces the generic status error with the vendor's message. A
// 404, or a message saying the object "was not found", is failure.NotFound.
func classify(op string, body []byte, err error) error {
	ae := new(APIError)
	if len(body) == 0 || json.Unmarshal(body, ae) != nil || ae.Message == "" {
		return err
	}
	kind := failure.Transport
	if ae.Code == http.StatusNotFound || strings.Contains(ae.Message, "was not found") {
		kind = failure.NotFound
	}
	return failure.Wrap(kind, ae, op)
}

// FullPath returns name as /partition/name, using partition (or
// DefaultPartition) when name has no partition of its own.
func FullPath(partition, name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	if partition == "" {
		partition = DefaultPartition
	}
	return "/" + partition + "/" + name
}

// restName converts /Common/name into the ~Common~name form used in URLs.
func restName(name string) string {
	return strings.Replace(FullPath("", name), "/", "~", -1)
}

func splitPath(full string) (partition, name string) {
	sp := strings.SplitN(strings.TrimPrefix(full, "/"), "/", 2)
	if len(sp) == 2 {
		return sp[0], sp[1]
	}
	return DefaultPartition, sp[0]
}

type collection struct {
	Items []json.RawMessage `json:"items"`
}

type object struct {
	Name      string `json:"name"`
	Partition string `json:"partition"`
	FullPath  string `json:"fullPath"`
}

func (o object) path() string {
	if o.FullPath != "" {
		return o.FullPath
	}
	return FullPath(o.Partition, o.Name)
}

func (c *Client) list(ctx context.Context, path string) ([]object, error) {
	var col collection
	if err := c.do(ctx, http.MethodGet, path, nil, &col); err != nil {
		return nil, err
	}
	objs := make([]object, 0, len(col.Items))
	for _, raw := range col.Items {
		var o object
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, failure.Wrap(failure.Transport, err, path)
		}
		objs = append(objs, o)
	}
	return objs, nil
}

func (c *Client) exists(ctx context.Context, path string) (failure.Presence, error) {
	return failure.Classify(c.do(ctx, http.MethodGet, path, nil, nil))
}
