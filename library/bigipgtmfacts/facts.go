// Package bigipgtmfacts collects facts about F5 BIG-IP GTM pools, wide IPs
// and virtual servers.
package bigipgtmfacts // import "infraglue.org/library/bigipgtmfacts"

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"infraglue.org/ansible"
	"infraglue.org/bigip"
	"infraglue.org/failure"
)

var validIncludes = []string{"pool", "wide_ip", "virtual_server"}

var Spec = ansible.Spec{
	"server":                {Type: ansible.TypeStr, Required: true},
	"user":                  {Type: ansible.TypeStr, Required: true},
	"password":              {Type: ansible.TypeStr, Required: true, NoLog: true},
	"include":               {Type: ansible.TypeList, Required: true},
	"pool":                  {Type: ansible.TypeStr},
	"partition":             {Type: ansible.TypeStr, Default: bigip.DefaultPartition},
	"wide_ip":               {Type: ansible.TypeStr},
	"virtual_server_name":   {Type: ansible.TypeStr},
	"virtual_server_server": {Type: ansible.TypeStr},
	"validate_certs":        {Type: ansible.TypeBool, Default: false},
}

type Args struct {
	Server              string   `json:"server"`
	User                string   `json:"user"`
	Password            string   `json:"password"`
	Include             []string `json:"include"`
	Pool                string   `json:"pool"`
	Partition           string   `json:"partition"`
	WideIP              string   `json:"wide_ip"`
	VirtualServerName   string   `json:"virtual_server_name"`
	VirtualServerServer string   `json:"virtual_server_server"`
	ValidateCerts       bool     `json:"validate_certs"`
}

// API is the part of *bigip.Client the module needs.
type API interface {
	Pools(ctx context.Context) ([]string, error)
	PoolExists(ctx context.Context, pool string) (failure.Presence, error)
	PoolState(ctx context.Context, pool string) (string, error)
	PoolStatistics(ctx context.Context, pool string) (bigip.Statistics, error)
	PoolStatus(ctx context.Context, pool string) (bigip.ObjectStatus, error)
	PoolVirtualServer(ctx context.Context, pool string) (bigip.Member, error)
	WideIPs(ctx context.Context) ([]string, error)
	WideIPExists(ctx context.Context, wideIP string) (failure.Presence, error)
	WideIPLBMethod(ctx context.Context, wideIP string) (string, error)
	WideIPPools(ctx context.Context, wideIP string) ([]bigip.WideIPPool, error)
	VirtualServers(ctx context.Context) ([]bigip.Member, error)
	VirtualServerStatus(ctx context.Context, m bigip.Member) (bigip.ObjectStatus, error)
}

var _ API = (*bigip.Client)(nil)

func includes(a Args) (map[string]bool, error) {
	inc := make(map[string]bool)
	var got []string
	bad := false
	for _, i := range a.Include {
		i = strings.ToLower(i)
		got = append(got, i)
		inc[i] = true
		valid := false
		for _, v := range validIncludes {
			valid = valid || v == i
		}
		bad = bad || !valid
	}
	if bad {
		return nil, failure.Validationf("", "value of include must be one or more of: %s, got: %s",
			strings.Join(validIncludes, ","), strings.Join(got, ","))
	}
	return inc, nil
}

// Run gathers the facts selected by a.Include.
func Run(ctx context.Context, api API, a Args) (ansible.Result, error) {
	inc, err := includes(a)
	if err != nil {
		return nil, err
	}
	pool := a.Pool
	if pool != "" {
		pool = bigip.FullPath(a.Partition, a.Pool)
	}
	facts := ansible.Result{}
	if err := gather(ctx, api, a, pool, inc, facts); err != nil {
		if failure.Is(err, failure.Validation) {
			return nil, err
		}
		return nil, errors.Wrap(err, "received exception")
	}
	return facts, nil
}

func gather(ctx context.Context, api API, a Args, pool string, inc map[string]bool, facts ansible.Result) error {
	if pool != "" {
		p, err := api.PoolExists(ctx, pool)
		if err != nil {
			return err
		}
		if p == failure.NotPresent {
			return failure.Validationf("", "pool %s does not exist", a.Pool)
		}
	}
	if a.WideIP != "" {
		p, err := api.WideIPExists(ctx, a.WideIP)
		if err != nil {
			return err
		}
		if p == failure.NotPresent {
			return failure.Validationf("", "wide ip %s does not exist", a.WideIP)
		}
	}
	if inc["pool"] {
		if pool != "" {
			state, err := api.PoolState(ctx, pool)
			if err != nil {
				return err
			}
			facts["state"] = strings.ToUpper(state)
			if facts["statistics"], err = api.PoolStatistics(ctx, pool); err != nil {
				return err
			}
			if facts["status"], err = api.PoolStatus(ctx, pool); err != nil {
				return err
			}
		} else {
			pools, err := api.Pools(ctx)
			if err != nil {
				return err
			}
			facts["pools"] = pools
		}
	}
	if inc["wide_ip"] {
		if a.WideIP != "" {
			m, err := api.WideIPLBMethod(ctx, a.WideIP)
			if err != nil {
				return err
			}
			facts["lb_method"] = m
			if facts["pools"], err = api.WideIPPools(ctx, a.WideIP); err != nil {
				return err
			}
		} else {
			w, err := api.WideIPs(ctx)
			if err != nil {
				return err
			}
			facts["wide_ips"] = w
		}
	}
	if inc["virtual_server"] {
		var err error
		switch {
		case pool != "":
			facts["virtual_server"], err = api.PoolVirtualServer(ctx, pool)
		case a.VirtualServerName != "" && a.VirtualServerServer != "":
			facts["status"], err = api.VirtualServerStatus(ctx, bigip.Member{Name: a.VirtualServerName, Server: a.VirtualServerServer})
		default:
			facts["virtual_servers"], err = api.VirtualServers(ctx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
