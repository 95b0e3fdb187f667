// Package banner renders the colored status screens of the ccg CLI.
//
// Every function writes to the given writer so commands can target stdout
// while tests capture a buffer.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/CodexForgeBR/ccg/internal/jobs"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	successColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()
	warnColor    = color.New(color.FgYellow, color.Bold).SprintFunc()
)

const rule = "═══════════════════════════════════════════════════"

// Section is one titled block of a status screen.
type Section struct {
	Title string
	Body  string
}

// PrintStatusBanner displays the active modes followed by each section,
// indented.
//
// Example output:
//
//	═══════════════════════════════════════════════════
//	  oh-my-ccg status
//	═══════════════════════════════════════════════════
//	  State:  .oh-my-ccg/state
//	  Active: ralph, autopilot
//	───────────────────────── RPI ─────────────────────
//	  Phase: PLAN
//	═══════════════════════════════════════════════════
func PrintStatusBanner(w io.Writer, stateDir string, active []string, sections []Section) {
	sep := headerColor(rule)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, headerColor("  oh-my-ccg status"))
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "  State:  %s\n", stateDir)
	if len(active) == 0 {
		fmt.Fprintf(w, "  Active: %s\n", warnColor("none"))
	} else {
		fmt.Fprintf(w, "  Active: %s\n", successColor(strings.Join(active, ", ")))
	}
	for _, s := range sections {
		fmt.Fprintln(w, divider(s.Title))
		for _, line := range strings.Split(s.Body, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w, sep)
}

// divider centres title in a thin rule as wide as the banner.
func divider(title string) string {
	width := len([]rune(rule))
	label := " " + title + " "
	left := (width - len([]rune(label))) / 2
	if left < 1 {
		left = 1
	}
	right := width - left - len([]rune(label))
	if right < 1 {
		right = 1
	}
	return strings.Repeat("─", left) + label + strings.Repeat("─", right)
}

// Check is one backend availability result.
type Check struct {
	Provider  string
	Binary    string
	Available bool
	Enabled   bool
}

// PrintDoctorBanner lists every backend CLI and whether it can be used.
func PrintDoctorBanner(w io.Writer, checks []Check) {
	sep := headerColor(rule)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, headerColor("  oh-my-ccg doctor"))
	fmt.Fprintln(w, sep)
	for _, c := range checks {
		var status string
		switch {
		case !c.Available:
			status = errorColor("✗ not found")
		case !c.Enabled:
			status = warnColor("⚠ disabled")
		default:
			status = successColor("✓ ok")
		}
		fmt.Fprintf(w, "  %-8s %-14s %s\n", c.Provider, c.Binary, status)
	}
	fmt.Fprintln(w, sep)
}

// PrintJobBanner summarises one job, with the full result or error below.
func PrintJobBanner(w io.Writer, job jobs.Job) {
	paint := successColor
	switch {
	case job.Status.Active():
		paint = headerColor
	case job.Status == jobs.StatusTimeout:
		paint = warnColor
	case job.Status == jobs.StatusFailed:
		paint = errorColor
	}

	sep := paint(rule)
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "  Job:    %s\n", job.ID)
	fmt.Fprintf(w, "  Status: %s\n", paint(string(job.Status)))
	fmt.Fprintf(w, "  Route:  %s/%s\n", job.Provider, job.AgentRole)
	model := job.Model
	if job.UsedFallback {
		model = fmt.Sprintf("%s (fallback from %s)", job.FallbackModel, job.Model)
	}
	fmt.Fprintf(w, "  Model:  %s\n", model)
	fmt.Fprintln(w, sep)
	switch {
	case job.Error != "":
		fmt.Fprintln(w, job.Error)
	case job.Result != "":
		fmt.Fprintln(w, job.Result)
	}
}
