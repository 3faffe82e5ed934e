// Command unzip is the Ansible module that extracts a zip archive on the
// managed host.
package main

import (
	"context"
	"os"

	"infraglue.org/ansible"
	"infraglue.org/library/unzip"
)

func main() {
	ansible.Main(os.Args, func(_ context.Context, m *ansible.Module) (ansible.Result, error) {
		var a unzip.Args
		if err := m.Decode(unzip.Spec, &a); err != nil {
			return nil, err
		}
		return unzip.Run(a, m.CheckMode)
	})
}
