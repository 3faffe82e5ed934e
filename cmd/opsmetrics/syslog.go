//go:build !windows && !plan9
// +build !windows,!plan9

package main

import "infraglue.org/slog"

func setSyslog() error { return slog.SetSyslog("opsmetrics") }
