// Package zenoss talks to the Zenoss JSON API through its request routers.
package zenoss // import "infraglue.org/zenoss"

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/jmoiron/jsonq"

	"infraglue.org/failure"
	"infraglue.org/httpclient"
	"infraglue.org/slog"
)

// Routers maps router actions to the path component of their endpoint.
var Routers = map[string]string{
	"MessagingRouter": "messaging",
	"EventsRouter":    "evconsole",
	"ProcessRouter":   "process",
	"ServiceRouter":   "service",
	"DeviceRouter":    "device",
	"NetworkRouter":   "network",
	"TemplateRouter":  "template",
	"DetailNavRouter": "detailnav",
	"ReportRouter":    "report",
	"MibRouter":       "mib",
	"ZenPackRouter":   "zenpack",
}

// Production states understood by SetMaintenance and SetProduction.
const (
	StateMaintenance = 300
	StateProduction  = 1000
)

const DefaultDeviceClass = "/zport/dmd/Devices"

// The API answers bad credentials with a 200 and the login form.
var loginForm = regexp.MustCompile(`name="__ac_name"`)

type Client struct {
	host     string
	user     string
	password string
	hc       *http.Client

	sync.Mutex
	tid int
}

// New returns a client for the server at host, e.g. https://zenoss.example.com.
func New(host, user, password string, o httpclient.Options) *Client {
	return &Client{
		host:     strings.TrimRight(host, "/"),
		user:     user,
		password: password,
		hc:       httpclient.New(o),
	}
}

type rpcRequest struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Data   interface{} `json:"data"`
	Type   string      `json:"type"`
	TID    int         `json:"tid"`
}

func (c *Client) nextTID() int {
	c.Lock()
	defer c.Unlock()
	t := c.tid
	c.tid++
	return t
}

// Request calls method on router and returns the reply's result.
func (c *Client) Request(ctx context.Context, router, method string, data interface{}) (*jsonq.JsonQuery, error) {
	op := router + "." + method
	endpoint, ok := Routers[router]
	if !ok {
		return nil, failure.Validationf(op, "router %q not available", router)
	}
	body, err := json.Marshal([]rpcRequest{{
		Action: router,
		Method: method,
		Data:   data,
		Type:   "rpc",
		TID:    c.nextTID(),
	}})
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, op)
	}
	req, err := http.NewRequest(http.MethodPost, c.host+"/zport/dmd/"+endpoint+"_router", bytes.NewReader(body))
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, op)
	}
	req = req.WithContext(ctx)
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	slog.Debugf("zenoss %s", op)
	b, err := httpclient.Do(c.hc, req)
	if err != nil {
		return nil, err
	}
	if loginForm.Match(b) {
		return nil, failure.Transportf(op, "request failed: bad username/password")
	}
	var reply struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := httpclient.Decode(b, &reply); err != nil {
		return nil, err
	}
	if reply.Result == nil {
		return nil, failure.Transportf(op, "reply has no result")
	}
	return jsonq.NewQuery(reply.Result), nil
}

// Devices is the result of getDevices.
type Devices struct {
	Devices    []map[string]interface{}
	TotalCount int
	Hash       string
}

// GetDevices lists the devices below deviceClass (DefaultDeviceClass if
// empty) matching params, e.g. {"name": "web01"}.
func (c *Client) GetDevices(ctx context.Context, deviceClass string, params map[string]interface{}) (*Devices, error) {
	if deviceClass == "" {
		deviceClass = DefaultDeviceClass
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	q, err := c.Request(ctx, "DeviceRouter", "getDevices", []interface{}{map[string]interface{}{
		"uid":    deviceClass,
		"params": params,
		"limit":  nil,
	}})
	if err != nil {
		return nil, err
	}
	d := &Devices{}
	if d.Devices, err = q.ArrayOfObjects("devices"); err != nil {
		return nil, failure.Wrap(failure.Transport, err, "getDevices")
	}
	d.TotalCount, _ = q.Int("totalCount")
	d.Hash, _ = q.String("hash")
	return d, nil
}

// Device is one device with the hash of the listing it came from, which
// later calls need as hashcheck.
type Device struct {
	UID  string
	Hash string
	Raw  map[string]interface{}
}

// FindDevice returns the device called name, or a failure.NotFound.
func (c *Client) FindDevice(ctx context.Context, name string) (*Device, error) {
	all, err := c.GetDevices(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	for _, d := range all.Devices {
		q := jsonq.NewQuery(d)
		if n, _ := q.String("name"); n != name {
			continue
		}
		uid, _ := q.String("uid")
		return &Device{UID: uid, Hash: all.Hash, Raw: d}, nil
	}
	return nil, failure.NotFoundf("find device", "cannot locate device %s", name)
}

// ComponentQuery narrows getComponents. Zero values take the API defaults
// used here: limit 50, sorted by name ascending.
type ComponentQuery struct {
	MetaType string
	Keys     []string
	Name     string
	Start    int
	Limit    int
	Page     int
}

func (c *Client) GetComponentsByUID(ctx context.Context, uid string, cq ComponentQuery) ([]map[string]interface{}, error) {
	if cq.Limit == 0 {
		cq.Limit = 50
	}
	data := map[string]interface{}{
		"uid":       uid,
		"meta_type": nullable(cq.MetaType),
		"keys":      cq.Keys,
		"start":     cq.Start,
		"limit":     cq.Limit,
		"page":      cq.Page,
		"sort":      "name",
		"dir":       "ASC",
		"name":      nullable(cq.Name),
	}
	q, err := c.Request(ctx, "DeviceRouter", "getComponents", []interface{}{data})
	if err != nil {
		return nil, err
	}
	comps, err := q.ArrayOfObjects("data")
	if err != nil {
		return nil, failure.Wrap(failure.Transport, err, "getComponents")
	}
	return comps, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// GetComponents returns the components of the device called name.
func (c *Client) GetComponents(ctx context.Context, device string) ([]map[string]interface{}, error) {
	d, err := c.FindDevice(ctx, device)
	if err != nil {
		return nil, err
	}
	return c.GetComponentsByUID(ctx, d.UID, ComponentQuery{})
}

// SetComponentsMonitored turns monitoring of a component on or off and
// returns the server's message.
func (c *Client) SetComponentsMonitored(ctx context.Context, component map[string]interface{}, monitor bool) (string, error) {
	uid, err := jsonq.NewQuery(component).String("uid")
	if err != nil {
		return "", failure.Validationf("setComponentsMonitored", "component has no uid")
	}
	q, err := c.Request(ctx, "DeviceRouter", "setComponentsMonitored", []interface{}{map[string]interface{}{
		"uids":      []string{uid},
		"monitor":   monitor,
		"hashcheck": 1,
	}})
	if err != nil {
		return "", err
	}
	msg, _ := q.String("msg")
	return msg, nil
}

func (c *Client) AddDevice(ctx context.Context, name, deviceClass, collector string) (*jsonq.JsonQuery, error) {
	if collector == "" {
		collector = "localhost"
	}
	return c.Request(ctx, "DeviceRouter", "addDevice", []interface{}{map[string]interface{}{
		"deviceName":  name,
		"deviceClass": deviceClass,
		"model":       true,
		"collector":   collector,
	}})
}

func (c *Client) RemoveDevice(ctx context.Context, name string) (*jsonq.JsonQuery, error) {
	d, err := c.FindDevice(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.Request(ctx, "DeviceRouter", "removeDevices", []interface{}{map[string]interface{}{
		"uids":      []string{d.UID},
		"hashcheck": d.Hash,
		"action":    "delete",
	}})
}

func (c *Client) SetProdState(ctx context.Context, name string, state int) (*jsonq.JsonQuery, error) {
	d, err := c.FindDevice(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.Request(ctx, "DeviceRouter", "setProductionState", []interface{}{map[string]interface{}{
		"uids":      []string{d.UID},
		"prodState": state,
		"hashcheck": d.Hash,
	}})
}

// SetMaintenance stops the device from alerting.
func (c *Client) SetMaintenance(ctx context.Context, name string) (*jsonq.JsonQuery, error) {
	return c.SetProdState(ctx, name, StateMaintenance)
}

// SetProduction puts the device back in production.
func (c *Client) SetProduction(ctx context.Context, name string) (*jsonq.JsonQuery, error) {
	return c.SetProdState(ctx, name, StateProduction)
}
