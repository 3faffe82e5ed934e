package slog

import "golang.org/x/sys/windows/svc/eventlog"

type eventLog struct {
	l  *eventlog.Log
	id uint32
}

// SetEventLog sends all logging to the Windows Event Log under source,
// which must already be registered.
func SetEventLog(source string, eid uint32) error {
	l, err := eventlog.Open(source)
	if err != nil {
		return err
	}
	Set(&eventLog{l, eid})
	return nil
}

func (e *eventLog) Fatal(v string) {
	e.Error(v)
}

func (e *eventLog) Info(v string) {
	e.l.Info(e.id, v)
}

func (e *eventLog) Warning(v string) {
	e.l.Warning(e.id, v)
}

func (e *eventLog) Error(v string) {
	e.l.Error(e.id, v)
}
