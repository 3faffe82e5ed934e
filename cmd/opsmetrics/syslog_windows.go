package main

import "infraglue.org/slog"

func setSyslog() error { return slog.SetEventLog("opsmetrics", 1) }
