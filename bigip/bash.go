package bigip

import (
	"context"
	"net/http"
	"strings"
)

type bashCommand struct {
	Command       string `json:"command"`
	UtilCmdArgs   string `json:"utilCmdArgs"`
	CommandResult string `json:"commandResult,omitempty"`
}

// Exec runs command through the device's bash utility (bash -c "command")
// and returns its output. Requires an administrator account.
func (c *Client) Exec(ctx context.Context, command string) (string, error) {
	in := bashCommand{
		Command:     "run",
		UtilCmdArgs: `-c "` + strings.Replace(command, `"`, `\"`, -1) + `"`,
	}
	var out bashCommand
	if err := c.do(ctx, http.MethodPost, "/mgmt/tm/util/bash", in, &out); err != nil {
		return "", err
	}
	return out.CommandResult, nil
}
