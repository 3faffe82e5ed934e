// Package slog provides a cross-platform logging interface. It defaults to
// the log package of the standard library writing to stderr, and can be
// switched to syslog on unicies or the event log on windows.
//
// Standard output is left alone: it carries metric lines and module results.
package slog // import "infraglue.org/slog"

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

type Logger interface {
	Error(v string)
	Info(v string)
	Warning(v string)
	Fatal(v string)
}

type stdLog struct {
	log *log.Logger
}

func (s *stdLog) Fatal(v string) {
	s.log.Println("fatal:", rmNl(v))
}

func (s *stdLog) Error(v string) {
	s.log.Println("error:", rmNl(v))
}

func (s *stdLog) Info(v string) {
	s.log.Println("info:", rmNl(v))
}

func (s *stdLog) Warning(v string) {
	s.log.Println("warning:", rmNl(v))
}

func rmNl(v string) string {
	return strings.TrimSuffix(v, "\n")
}

var (
	mu      sync.RWMutex
	logging Logger = &stdLog{log: log.New(os.Stderr, "", log.LstdFlags)}
	debug   bool
	exit    = os.Exit
)

func Set(l Logger) {
	mu.Lock()
	logging = l
	mu.Unlock()
}

// SetWriter sends log output to w without a timestamp prefix.
func SetWriter(w io.Writer) {
	Set(&stdLog{log: log.New(w, "", 0)})
}

// SetDebug enables or disables the Debug family of functions.
func SetDebug(on bool) {
	mu.Lock()
	debug = on
	mu.Unlock()
}

func current() (Logger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return logging, debug
}

func Debug(v ...interface{}) {
	if l, on := current(); on {
		output(l.Info, v...)
	}
}

func Debugf(format string, v ...interface{}) {
	if l, on := current(); on {
		outputf(l.Info, format, v...)
	}
}

func Info(v ...interface{}) {
	l, _ := current()
	output(l.Info, v...)
}

func Infof(format string, v ...interface{}) {
	l, _ := current()
	outputf(l.Info, format, v...)
}

func Infoln(v ...interface{}) {
	l, _ := current()
	outputln(l.Info, v...)
}

func Warning(v ...interface{}) {
	l, _ := current()
	output(l.Warning, v...)
}

func Warningf(format string, v ...interface{}) {
	l, _ := current()
	outputf(l.Warning, format, v...)
}

func Warningln(v ...interface{}) {
	l, _ := current()
	outputln(l.Warning, v...)
}

func Error(v ...interface{}) {
	l, _ := current()
	output(l.Error, v...)
}

func Errorf(format string, v ...interface{}) {
	l, _ := current()
	outputf(l.Error, format, v...)
}

func Errorln(v ...interface{}) {
	l, _ := current()
	outputln(l.Error, v...)
}

func Fatal(v ...interface{}) {
	l, _ := current()
	output(l.Fatal, v...)
	// Call os.Exit here just in case the logging package we are using doesn't.
	exit(1)
}

func Fatalf(format string, v ...interface{}) {
	l, _ := current()
	outputf(l.Fatal, format, v...)
	exit(1)
}

func Fatalln(v ...interface{}) {
	l, _ := current()
	outputln(l.Fatal, v...)
	exit(1)
}

func output(f func(string), v ...interface{}) {
	f(fmt.Sprint(v...))
}

func outputf(f func(string), format string, v ...interface{}) {
	output(f, fmt.Sprintf(format, v...))
}

func outputln(f func(string), v ...interface{}) {
	output(f, fmt.Sprintln(v...))
}
