package display

import (
	"fmt"
	"io"
	"time"

	"github.com/dyluth/regent/internal/acquire"
	"github.com/fatih/color"
)

var (
	reportTitle = color.New(color.Bold)
	reportOK    = color.New(color.FgGreen)
	reportFail  = color.New(color.FgRed, color.Bold)
)

// FormatReport writes the end-of-run summary: counts, then one line per
// failure.
func FormatReport(w io.Writer, s *acquire.Summary) {
	fmt.Fprintln(w)
	reportTitle.Fprintln(w, "Download Report:")
	reportOK.Fprintf(w, "  Successful levels: %d\n", len(s.Successes))
	if len(s.Failures) > 0 {
		reportFail.Fprintf(w, "  Failed levels: %d\n", len(s.Failures))
		fmt.Fprintln(w, "  Failure details:")
		for _, f := range s.Failures {
			fmt.Fprintf(w, "   - Level %d: %s\n", f.ID, f.Reason)
		}
	} else {
		fmt.Fprintln(w, "  Failed levels: 0")
	}
	fmt.Fprintf(w, "  Run: %s (%s)\n", s.RunID, s.Duration().Round(time.Millisecond))
}
