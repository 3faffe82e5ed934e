// Package zenossctl reads and changes device production states and
// component monitoring in Zenoss.
package zenossctl // import "infraglue.org/library/zenossctl"

import (
	"context"
	"strconv"

	"github.com/jmoiron/jsonq"

	"infraglue.org/ansible"
	"infraglue.org/failure"
	"infraglue.org/zenoss"
)

var Spec = ansible.Spec{
	"server":         {Type: ansible.TypeStr, Required: true},
	"username":       {Type: ansible.TypeStr, Required: true},
	"password":       {Type: ansible.TypeStr, Required: true, NoLog: true},
	"method":         {Type: ansible.TypeStr, Required: true},
	"device_name":    {Type: ansible.TypeStr, Required: true},
	"component_name": {Type: ansible.TypeStr},
	"state":          {Type: ansible.TypeInt},
	"monitor":        {Type: ansible.TypeBool},
	"validate_certs": {Type: ansible.TypeBool, Default: false},
}

type Args struct {
	Server        string `json:"server"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Method        string `json:"method"`
	DeviceName    string `json:"device_name"`
	ComponentName string `json:"component_name"`
	State         *int   `json:"state"`
	Monitor       *bool  `json:"monitor"`
	ValidateCerts bool   `json:"validate_certs"`
}

type API interface {
	GetDevices(ctx context.Context, deviceClass string, params map[string]interface{}) (*zenoss.Devices, error)
	SetProdState(ctx context.Context, name string, state int) (*jsonq.JsonQuery, error)
	GetComponents(ctx context.Context, device string) ([]map[string]interface{}, error)
	SetComponentsMonitored(ctx context.Context, component map[string]interface{}, monitor bool) (string, error)
}

var _ API = (*zenoss.Client)(nil)

type handler func(ctx context.Context, api API, a Args) (ansible.Result, error)

var methods = map[string]handler{
	"get_devices":           getDevices,
	"get_production_state":  getProductionState,
	"set_production_state":  setProductionState,
	"get_component":         getComponent,
	"set_component_monitor": setComponentMonitor,
}

// Run dispatches on a.Method.
func Run(ctx context.Context, api API, a Args) (ansible.Result, error) {
	h, ok := methods[a.Method]
	if !ok {
		return nil, failure.Validationf("", "Unknown method: %s", a.Method)
	}
	return h(ctx, api, a)
}

func byName(ctx context.Context, api API, name string) (*zenoss.Devices, error) {
	return api.GetDevices(ctx, "", map[string]interface{}{"name": name})
}

func firstState(d *zenoss.Devices, name string) (int, error) {
	if len(d.Devices) == 0 {
		return 0, failure.NotFoundf("", "cannot locate device %s", name)
	}
	s, err := jsonq.NewQuery(d.Devices[0]).Int("productionState")
	if err != nil {
		return 0, failure.Transportf("", "device %s has no production state", name)
	}
	return s, nil
}

func getDevices(ctx context.Context, api API, a Args) (ansible.Result, error) {
	d, err := byName(ctx, api, a.DeviceName)
	if err != nil {
		return nil, err
	}
	return ansible.Result{"changed": false, "devices": d.Devices}, nil
}

func getProductionState(ctx context.Context, api API, a Args) (ansible.Result, error) {
	d, err := byName(ctx, api, a.DeviceName)
	if err != nil {
		return nil, err
	}
	s, err := firstState(d, a.DeviceName)
	if err != nil {
		return nil, err
	}
	return ansible.Result{
		"changed":          false,
		"production_state": s,
		"msg":              "Device is in production state " + strconv.Itoa(s),
	}, nil
}

func setProductionState(ctx context.Context, api API, a Args) (ansible.Result, error) {
	if a.State == nil {
		return nil, failure.Validationf("", "State parameter is required")
	}
	state := *a.State
	d, err := byName(ctx, api, a.DeviceName)
	if err != nil {
		return nil, err
	}
	cur, err := firstState(d, a.DeviceName)
	if err != nil {
		return nil, err
	}
	if d.TotalCount != 1 {
		return nil, failure.Validationf("", "More than 1 device impacted, total devices impacted %d", d.TotalCount)
	}
	if cur == state {
		return ansible.Result{"changed": false, "msg": "Device already in production state " + strconv.Itoa(state)}, nil
	}
	if _, err := api.SetProdState(ctx, a.DeviceName, state); err != nil {
		return nil, err
	}
	return ansible.Result{"changed": true, "msg": "Device set to production state " + strconv.Itoa(state)}, nil
}

func findComponent(ctx context.Context, api API, a Args) (map[string]interface{}, error) {
	comps, err := api.GetComponents(ctx, a.DeviceName)
	if err != nil {
		return nil, err
	}
	for _, c := range comps {
		if n, _ := jsonq.NewQuery(c).String("name"); n == a.ComponentName {
			return c, nil
		}
	}
	return nil, nil
}

func getComponent(ctx context.Context, api API, a Args) (ansible.Result, error) {
	if a.ComponentName == "" {
		return nil, failure.Validationf("", "Component name parameter is required")
	}
	c, err := findComponent(ctx, api, a)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, failure.Validationf("", "Component is not in provided device")
	}
	return ansible.Result{"changed": true, "component": c}, nil
}

func setComponentMonitor(ctx context.Context, api API, a Args) (ansible.Result, error) {
	if a.ComponentName == "" || a.Monitor == nil {
		return nil, failure.Validationf("", "Component name and monitor parameters are required")
	}
	c, err := findComponent(ctx, api, a)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, failure.Validationf("", "Component: %s is not in provided device: %s", a.ComponentName, a.DeviceName)
	}
	if monitored, _ := jsonq.NewQuery(c).Bool("monitored"); monitored == *a.Monitor {
		return ansible.Result{"changed": false}, nil
	}
	msg, err := api.SetComponentsMonitored(ctx, c, *a.Monitor)
	if err != nil {
		return nil, err
	}
	return ansible.Result{"changed": true, "msg": msg}, nil
}
