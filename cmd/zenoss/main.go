// Command zenoss is the Ansible module that reads and changes Zenoss device
// production state and component monitoring.
package main

import (
	"context"
	"os"

	"infraglue.org/ansible"
	"infraglue.org/httpclient"
	"infraglue.org/library/zenossctl"
	"infraglue.org/zenoss"
)

func main() {
	ansible.Main(os.Args, func(ctx context.Context, m *ansible.Module) (ansible.Result, error) {
		var a zenossctl.Args
		if err := m.Decode(zenossctl.Spec, &a); err != nil {
			return nil, err
		}
		c := zenoss.New(a.Server, a.Username, a.Password, httpclient.Options{InsecureSkipVerify: !a.ValidateCerts})
		return zenossctl.Run(ctx, c, a)
	})
}
