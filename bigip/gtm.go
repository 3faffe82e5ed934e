package bigip

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"infraglue.org/failure"
)

const (
	gtmPath   = "/mgmt/tm/gtm"
	stateEnab = "enabled"
	stateDis  = "disabled"
)

// ObjectStatus is the availability summary of a pool or virtual server.
type ObjectStatus struct {
	AvailabilityStatus string `json:"availability_status"`
	EnabledStatus      string `json:"enabled_status"`
	StatusDescription  string `json:"status_description"`
}

// Statistics are the flattened stats entries of an object: numeric values
// as float64, descriptions as string.
type Statistics map[string]interface{}

func (s Statistics) status() ObjectStatus {
	str := func(k string) string {
		v, _ := s[k].(string)
		return v
	}
	return ObjectStatus{
		AvailabilityStatus: str("status.availabilityState"),
		EnabledStatus:      str("status.enabledState"),
		StatusDescription:  str("status.statusReason"),
	}
}

type statValue struct {
	Value       *float64 `json:"value"`
	Description *string  `json:"description"`
}

type statsReply struct {
	Entries map[string]struct {
		NestedStats struct {
			Entries map[string]statValue `json:"entries"`
		} `json:"nestedStats"`
	} `json:"entries"`
}

func (c *Client) stats(ctx context.Context, path string) (Statistics, error) {
	var r statsReply
	if err := c.do(ctx, http.MethodGet, path+"/stats", nil, &r); err != nil {
		return nil, err
	}
	st := make(Statistics)
	for _, e := range r.Entries {
		for k, v := range e.NestedStats.Entries {
			switch {
			case v.Description != nil:
				st[k] = *v.Description
			case v.Value != nil:
				st[k] = *v.Value
			}
		}
	}
	return st, nil
}

func (c *Client) poolPath(pool string) string {
	return gtmPath + "/pool/" + c.poolType + "/" + restName(pool)
}

// Pools returns the full path of every GTM pool.
func (c *Client) Pools(ctx context.Context) ([]string, error) {
	objs, err := c.list(ctx, gtmPath+"/pool/"+c.poolType)
	if err != nil {
		return nil, err
	}
	return paths(objs), nil
}

func paths(objs []object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.path()
	}
	return out
}

func (c *Client) PoolExists(ctx context.Context, pool string) (failure.Presence, error) {
	return c.exists(ctx, c.poolPath(pool))
}

type enabledState struct {
	Enabled  bool `json:"enabled,omitempty"`
	Disabled bool `json:"disabled,omitempty"`
}

// PoolState returns "enabled" or "disabled".
func (c *Client) PoolState(ctx context.Context, pool string) (string, error) {
	var s enabledState
	if err := c.do(ctx, http.MethodGet, c.poolPath(pool), nil, &s); err != nil {
		return "", err
	}
	if s.Disabled {
		return stateDis, nil
	}
	return stateEnab, nil
}

// SetPoolState enables or disables a pool. state is "enabled" or
// "disabled", case-insensitive.
func (c *Client) SetPoolState(ctx context.Context, pool, state string) error {
	var body enabledState
	switch strings.ToLower(strings.TrimSpace(state)) {
	case stateEnab:
		body.Enabled = true
	case stateDis:
		body.Disabled = true
	default:
		return failure.Validationf("set pool state", "unknown state %q", state)
	}
	return c.do(ctx, http.MethodPatch, c.poolPath(pool), body, nil)
}

func (c *Client) PoolStatistics(ctx context.Context, pool string) (Statistics, error) {
	return c.stats(ctx, c.poolPath(pool))
}

func (c *Client) PoolStatus(ctx context.Context, pool string) (ObjectStatus, error) {
	st, err := c.stats(ctx, c.poolPath(pool))
	if err != nil {
		return ObjectStatus{}, err
	}
	return st.status(), nil
}

// LBMethods are the accepted load balancing methods, in the underscore
// form used by the Ansible modules.
var LBMethods = []string{
	"return_to_dns", "null", "round_robin", "ratio", "topology",
	"static_persist", "global_availability", "vs_capacity", "least_conn",
	"lowest_rtt", "lowest_hops", "packet_rate", "cpu", "hit_ratio", "qos",
	"bps", "drop_packet", "explicit_ip", "connection_rate", "vs_score",
}

// restLBMethod converts round_robin into the REST form round-robin.
func restLBMethod(m string) string {
	return strings.Replace(strings.ToLower(strings.TrimSpace(m)), "_", "-", -1)
}

// moduleLBMethod converts round-robin, or the legacy LB_METHOD_ROUND_ROBIN,
// into round_robin.
func moduleLBMethod(m string) string {
	m = strings.TrimPrefix(strings.TrimSpace(m), "LB_METHOD_")
	return strings.Replace(strings.ToLower(m), "-", "_", -1)
}

// CreatePool creates an empty pool. An empty lbMethod means round_robin.
func (c *Client) CreatePool(ctx context.Context, pool, lbMethod string) error {
	if lbMethod == "" {
		lbMethod = "round_robin"
	}
	partition, name := splitPath(FullPath("", pool))
	body := map[string]interface{}{
		"name":              name,
		"partition":         partition,
		"loadBalancingMode": restLBMethod(lbMethod),
	}
	return c.do(ctx, http.MethodPost, gtmPath+"/pool/"+c.poolType, body, nil)
}

func (c *Client) DeletePool(ctx context.Context, pool string) error {
	return c.do(ctx, http.MethodDelete, c.poolPath(pool), nil, nil)
}

// Member identifies a GTM virtual server by its name and owning server.
type Member struct {
	Name   string `json:"name"`
	Server string `json:"server"`
}

func (m Member) restName(partition string) string {
	return "~" + partition + "~" + url.PathEscape(m.Server+":"+m.Name)
}

func (c *Client) Members(ctx context.Context, pool string) ([]Member, error) {
	objs, err := c.list(ctx, c.poolPath(pool)+"/members")
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(objs))
	for _, o := range objs {
		sp := strings.SplitN(o.Name, ":", 2)
		if len(sp) == 2 {
			members = append(members, Member{Server: sp[0], Name: sp[1]})
		} else {
			members = append(members, Member{Name: o.Name})
		}
	}
	return members, nil
}

func (c *Client) memberPath(pool string, m Member) string {
	partition, _ := splitPath(FullPath("", pool))
	return c.poolPath(pool) + "/members/" + m.restName(partition)
}

func (c *Client) MemberExists(ctx context.Context, pool string, m Member) (failure.Presence, error) {
	return c.exists(ctx, c.memberPath(pool, m))
}

func (c *Client) AddMember(ctx context.Context, pool string, m Member) error {
	body := map[string]string{"name": m.Server + ":" + m.Name}
	return c.do(ctx, http.MethodPost, c.poolPath(pool)+"/members", body, nil)
}

func (c *Client) RemoveMember(ctx context.Context, pool string, m Member) error {
	return c.do(ctx, http.MethodDelete, c.memberPath(pool, m), nil, nil)
}

// PoolVirtualServer returns the virtual server backing pool. With several
// members the last one listed wins; a pool without members returns the
// zero Member.
func (c *Client) PoolVirtualServer(ctx context.Context, pool string) (Member, error) {
	members, err := c.Members(ctx, pool)
	if err != nil || len(members) == 0 {
		return Member{}, err
	}
	return members[len(members)-1], nil
}

func wideIPPath(wideIP string) string {
	return gtmPath + "/wideip/a/" + restName(wideIP)
}

func (c *Client) WideIPs(ctx context.Context) ([]string, error) {
	objs, err := c.list(ctx, gtmPath+"/wideip/a")
	if err != nil {
		return nil, err
	}
	return paths(objs), nil
}

func (c *Client) WideIPExists(ctx context.Context, wideIP string) (failure.Presence, error) {
	return c.exists(ctx, wideIPPath(wideIP))
}

type wideIP struct {
	PoolLbMode string `json:"poolLbMode"`
	Pools      []struct {
		Name      string `json:"name"`
		Partition string `json:"partition"`
		Order     int    `json:"order"`
		Ratio     int    `json:"ratio"`
	} `json:"pools"`
}

// WideIPPool is one pool attached to a wide IP.
type WideIPPool struct {
	PoolName string `json:"pool_name"`
	Order    int    `json:"order"`
	Ratio    int    `json:"ratio"`
}

// WideIPLBMethod returns the wide IP's pool load balancing method, e.g.
// round_robin.
func (c *Client) WideIPLBMethod(ctx context.Context, name string) (string, error) {
	var w wideIP
	if err := c.do(ctx, http.MethodGet, wideIPPath(name), nil, &w); err != nil {
		return "", err
	}
	return moduleLBMethod(w.PoolLbMode), nil
}

func (c *Client) WideIPPools(ctx context.Context, name string) ([]WideIPPool, error) {
	var w wideIP
	if err := c.do(ctx, http.MethodGet, wideIPPath(name), nil, &w); err != nil {
		return nil, err
	}
	pools := make([]WideIPPool, 0, len(w.Pools))
	for _, p := range w.Pools {
		pools = append(pools, WideIPPool{PoolName: FullPath(p.Partition, p.Name), Order: p.Order, Ratio: p.Ratio})
	}
	sort.SliceStable(pools, func(i, j int) bool { return pools[i].Order < pools[j].Order })
	return pools, nil
}

func serverPath(server string) string {
	return gtmPath + "/server/" + restName(server)
}

// VirtualServers lists the virtual servers of every GTM server.
func (c *Client) VirtualServers(ctx context.Context) ([]Member, error) {
	servers, err := c.list(ctx, gtmPath+"/server")
	if err != nil {
		return nil, err
	}
	var out []Member
	for _, s := range servers {
		vss, err := c.list(ctx, serverPath(s.path())+"/virtual-servers")
		if err != nil {
			return nil, err
		}
		for _, vs := range vss {
			out = append(out, Member{Name: vs.Name, Server: s.Name})
		}
	}
	return out, nil
}

func (c *Client) VirtualServerStatus(ctx context.Context, m Member) (ObjectStatus, error) {
	st, err := c.stats(ctx, serverPath(m.Server)+"/virtual-servers/"+url.PathEscape(m.Name))
	if err != nil {
		return ObjectStatus{}, err
	}
	return st.status(), nil
}
