// Command bigip_gtm_pool is the Ansible module that manages F5 BIG-IP GTM
// pools.
package main

import (
	"context"
	"os"

	"infraglue.org/ansible"
	"infraglue.org/bigip"
	"infraglue.org/httpclient"
	"infraglue.org/library/bigipgtmpool"
)

func main() {
	ansible.Main(os.Args, func(ctx context.Context, m *ansible.Module) (ansible.Result, error) {
		var a bigipgtmpool.Args
		if err := m.Decode(bigipgtmpool.Spec, &a); err != nil {
			return nil, err
		}
		c := bigip.New(a.Server, a.User, a.Password, bigip.Options{
			Options: httpclient.Options{InsecureSkipVerify: !a.ValidateCerts},
		})
		return bigipgtmpool.Run(ctx, c, a, m.CheckMode)
	})
}
