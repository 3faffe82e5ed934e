// Package bigipsysconnection runs a shell command on an F5 BIG-IP through
// the iControl REST bash utility.
package bigipsysconnection // import "infraglue.org/library/bigipsysconnection"

import (
	"context"

	"github.com/pkg/errors"

	"infraglue.org/ansible"
)

var Spec = ansible.Spec{
	"server":         {Type: ansible.TypeStr, Required: true},
	"user":           {Type: ansible.TypeStr, Required: true},
	"password":       {Type: ansible.TypeStr, Required: true, NoLog: true},
	"command":        {Type: ansible.TypeStr, Required: true},
	"validate_certs": {Type: ansible.TypeBool, Default: false},
}

type Args struct {
	Server        string `json:"server"`
	User          string `json:"user"`
	Password      string `json:"password"`
	Command       string `json:"command"`
	ValidateCerts bool   `json:"validate_certs"`
}

type Executor interface {
	Exec(ctx context.Context, command string) (string, error)
}

// Run executes a.Command. The command always counts as a change; its
// output, when there is any, is returned as msg.
func Run(ctx context.Context, e Executor, a Args) (ansible.Result, error) {
	out, err := e.Exec(ctx, a.Command)
	if err != nil {
		return nil, errors.Wrap(err, "received exception")
	}
	r := ansible.Result{"changed": true}
	if out != "" {
		r["msg"] = out
	}
	return r, nil
}
