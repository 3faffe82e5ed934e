// Package bigipgtmpool manages F5 BIG-IP GTM pools: creation, removal and
// the enabled state.
package bigipgtmpool // import "infraglue.org/library/bigipgtmpool"

import (
	"context"

	"github.com/pkg/errors"

	"infraglue.org/ansible"
	"infraglue.org/bigip"
	"infraglue.org/failure"
	"infraglue.org/slog"
)

var Spec = ansible.Spec{
	"server":                {Type: ansible.TypeStr, Required: true},
	"user":                  {Type: ansible.TypeStr, Required: true},
	"password":              {Type: ansible.TypeStr, Required: true, NoLog: true},
	"state":                 {Type: ansible.TypeStr, Required: true, Choices: []string{"present", "absent", "enabled", "disabled"}},
	"pool":                  {Type: ansible.TypeStr, Required: true},
	"partition":             {Type: ansible.TypeStr, Default: bigip.DefaultPartition},
	"virtual_server_name":   {Type: ansible.TypeStr},
	"virtual_server_server": {Type: ansible.TypeStr},
	"lb_method":             {Type: ansible.TypeStr, Default: "round_robin", Choices: bigip.LBMethods},
	"validate_certs":        {Type: ansible.TypeBool, Default: false},
}

type Args struct {
	Server              string `json:"server"`
	User                string `json:"user"`
	Password            string `json:"password"`
	State               string `json:"state"`
	Pool                string `json:"pool"`
	Partition           string `json:"partition"`
	VirtualServerName   string `json:"virtual_server_name"`
	VirtualServerServer string `json:"virtual_server_server"`
	LBMethod            string `json:"lb_method"`
	ValidateCerts       bool   `json:"validate_certs"`
}

type API interface {
	PoolExists(ctx context.Context, pool string) (failure.Presence, error)
	PoolState(ctx context.Context, pool string) (string, error)
	SetPoolState(ctx context.Context, pool, state string) error
	CreatePool(ctx context.Context, pool, lbMethod string) error
	DeletePool(ctx context.Context, pool string) error
	MemberExists(ctx context.Context, pool string, m bigip.Member) (failure.Presence, error)
	RemoveMember(ctx context.Context, pool string, m bigip.Member) error
}

var _ API = (*bigip.Client)(nil)

type module struct {
	api       API
	pool      string
	checkMode bool
}

// Run converges the pool to a.State. In check mode nothing is changed but
// the result reports whether a change would be made.
func Run(ctx context.Context, api API, a Args, checkMode bool) (ansible.Result, error) {
	m := &module{
		api:       api,
		pool:      "/" + a.Partition + "/" + a.Pool,
		checkMode: checkMode,
	}
	changed, err := m.converge(ctx, a)
	if err != nil {
		if failure.Is(err, failure.Validation) {
			return nil, err
		}
		return nil, errors.Wrap(err, "received exception")
	}
	return ansible.Result{"changed": changed}, nil
}

func (m *module) exists(ctx context.Context) (bool, error) {
	p, err := m.api.PoolExists(ctx, m.pool)
	return p == failure.Found, err
}

func (m *module) converge(ctx context.Context, a Args) (bool, error) {
	switch a.State {
	case "absent":
		if a.VirtualServerName != "" && a.VirtualServerServer != "" {
			return m.removeMemberAndPool(ctx, bigip.Member{Name: a.VirtualServerName, Server: a.VirtualServerServer})
		}
		ok, err := m.exists(ctx)
		if err != nil || !ok {
			return false, err
		}
		if m.checkMode {
			return true, nil
		}
		return true, m.api.DeletePool(ctx, m.pool)
	case "present":
		ok, err := m.exists(ctx)
		if err != nil || ok {
			return false, err
		}
		if m.checkMode {
			return true, nil
		}
		err = m.api.CreatePool(ctx, m.pool, a.LBMethod)
		if bigip.IsExists(err) {
			slog.Infof("pool %s created concurrently", m.pool)
			return false, nil
		}
		return err == nil, err
	case "enabled", "disabled":
		ok, err := m.exists(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, failure.Validationf("", "pool %s does not exist", m.pool)
		}
		cur, err := m.api.PoolState(ctx, m.pool)
		if err != nil || cur == a.State {
			return false, err
		}
		if m.checkMode {
			return true, nil
		}
		return true, m.api.SetPoolState(ctx, m.pool, a.State)
	}
	return false, failure.Validationf("", "unknown state %s", a.State)
}

func (m *module) removeMemberAndPool(ctx context.Context, vs bigip.Member) (bool, error) {
	ok, err := m.exists(ctx)
	if err != nil || !ok {
		return false, err
	}
	p, err := m.api.MemberExists(ctx, m.pool, vs)
	if err != nil || p != failure.Found {
		return false, err
	}
	if m.checkMode {
		return true, nil
	}
	if err := m.api.RemoveMember(ctx, m.pool, vs); err != nil {
		return false, err
	}
	return true, m.api.DeletePool(ctx, m.pool)
}
