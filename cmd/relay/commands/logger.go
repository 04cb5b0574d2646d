package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-relay/core"
)

// stderrLogger is the CLI's structured logger: level, message, then key=value
// pairs, one line per entry on stderr.
type stderrLogger struct {
	debug bool
}

// NewStderrLogger builds the logger the CLI hands to the service. Debug and
// trace entries are dropped unless debug is on.
func NewStderrLogger(debug bool) core.Logger {
	return &stderrLogger{debug: debug}
}

func (l *stderrLogger) log(level, msg string, args ...any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	fmt.Fprintln(os.Stderr, b.String())
}

func (l *stderrLogger) Trace(msg string, args ...any) {
	if l.debug {
		l.log("TRACE", msg, args...)
	}
}

func (l *stderrLogger) Debug(msg string, args ...any) {
	if l.debug {
		l.log("DEBUG", msg, args...)
	}
}

func (l *stderrLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *stderrLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *stderrLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }

func (l *stderrLogger) Fatal(msg string, args ...any) {
	l.log("FATAL", msg, args...)
	os.Exit(1)
}

func (l *stderrLogger) WithContext(context.Context) core.Logger { return l }
