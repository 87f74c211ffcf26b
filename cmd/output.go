package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Norgate-AV/asb/internal/scheduler"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow)
	faint  = color.New(color.Faint)
)

func printSummary(w io.Writer, summary *scheduler.Summary) {
	fmt.Fprintln(w)

	for _, r := range summary.Results {
		if r.Success {
			size := ""
			if st, err := os.Stat(r.OutputPath); err == nil {
				size = humanize.Bytes(uint64(st.Size()))
			}

			green.Fprint(w, "  ✓ ")
			fmt.Fprintf(w, "%s  %s ", r.PackageName, r.OutputPath)
			faint.Fprintf(w, "(%s, %d compiled, %d reused, %s)\n", size, r.Compiled, r.Reused, round(r.Duration))
			continue
		}

		red.Fprint(w, "  ✗ ")
		fmt.Fprintf(w, "%s ", r.PackageName)
		faint.Fprintf(w, "(%s)\n", round(r.Duration))

		for _, msg := range r.Errors {
			fmt.Fprintf(w, "      %s\n", msg)
		}
	}

	for _, r := range summary.Results {
		for _, dir := range r.Missing {
			yellow.Fprintf(w, "  ! %s: resource directory not found: %s\n", r.PackageName, dir)
		}
	}

	fmt.Fprintln(w)

	status := green
	if !summary.Success() {
		status = red
	}

	status.Fprintf(w, "%d succeeded, %d failed", summary.Succeeded, summary.Failed)
	fmt.Fprintf(w, " in %s\n", round(summary.Duration))
}

func printFailureLog(w io.Writer, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	fmt.Fprintf(w, "Failure details written to %s\n", path)
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
