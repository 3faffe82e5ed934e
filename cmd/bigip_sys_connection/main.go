// Command bigip_sys_connection is the Ansible module that runs a command on
// an F5 BIG-IP through its bash utility.
package main

import (
	"context"
	"os"

	"infraglue.org/ansible"
	"infraglue.org/bigip"
	"infraglue.org/httpclient"
	"infraglue.org/library/bigipsysconnection"
)

func main() {
	ansible.Main(os.Args, func(ctx context.Context, m *ansible.Module) (ansible.Result, error) {
		var a bigipsysconnection.Args
		if err := m.Decode(bigipsysconnection.Spec, &a); err != nil {
			return nil, err
		}
		c := bigip.New(a.Server, a.User, a.Password, bigip.Options{
			Options: httpclient.Options{InsecureSkipVerify: !a.ValidateCerts},
		})
		return bigipsysconnection.Run(ctx, c, a)
	})
}
