// Package logging provides colored, leveled log output for ccg.
//
// Every line goes to a single writer, stderr by default, so that the stdio
// tool server keeps stdout free for protocol frames. Debug output is
// suppressed unless verbose mode is enabled via SetVerbose(true).
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	verbose bool
)

// Color printers for each log level.
var (
	infoPrefix    = color.New(color.FgBlue).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
	warnPrefix    = color.New(color.FgYellow).SprintFunc()
	errorPrefix   = color.New(color.FgRed).SprintFunc()
	phasePrefix   = color.New(color.FgCyan).SprintFunc()
	debugPrefix   = color.New(color.FgBlue).SprintFunc()
)

// SetVerbose enables or disables Debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// SetOutput redirects all log lines to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func emit(lines ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
}

func Info(msg string) {
	emit(infoPrefix("[INFO]") + " " + msg)
}

func Success(msg string) {
	emit(successPrefix("[SUCCESS]") + " " + msg)
}

func Warn(msg string) {
	emit(warnPrefix("[WARN]") + " " + msg)
}

func Error(msg string) {
	emit(errorPrefix("[ERROR]") + " " + msg)
}

// Phase prints a phase header surrounded by separator lines.
func Phase(msg string) {
	sep := phasePrefix("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	emit(sep, phasePrefix("[PHASE]")+" "+msg, sep)
}

// Debug prints only when verbose mode is enabled.
func Debug(msg string) {
	mu.Lock()
	v := verbose
	mu.Unlock()
	if !v {
		return
	}
	emit(debugPrefix("[DEBUG]") + " " + msg)
}

// Infof, Warnf and Debugf are the formatted variants used by the executor
// and the job registry.
func Infof(format string, args ...any) { Info(fmt.Sprintf(format, args...)) }

func Warnf(format string, args ...any) { Warn(fmt.Sprintf(format, args...)) }

func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
