// Command bigip_gtm_facts is the Ansible module that gathers F5 BIG-IP GTM
// pool, wide IP and virtual server facts.
package main

import (
	"context"
	"os"

	"infraglue.org/ansible"
	"infraglue.org/bigip"
	"infraglue.org/httpclient"
	"infraglue.org/library/bigipgtmfacts"
)

func main() {
	ansible.Main(os.Args, func(ctx context.Context, m *ansible.Module) (ansible.Result, error) {
		var a bigipgtmfacts.Args
		if err := m.Decode(bigipgtmfacts.Spec, &a); err != nil {
			return nil, err
		}
		c := bigip.New(a.Server, a.User, a.Password, bigip.Options{
			Options: httpclient.Options{InsecureSkipVerify: !a.ValidateCerts},
		})
		return bigipgtmfacts.Run(ctx, c, a)
	})
}
