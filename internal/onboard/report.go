package onboard

import (
	"fmt"
	"io"
	"path/filepath"
)

// WriteReport prints the batch summary.
func WriteReport(w io.Writer, r *Result) {
	fmt.Fprintln(w, "===== SUMMARY =====")
	fmt.Fprintf(w, "Successful onboardings: %d\n", r.Succeeded)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  already onboarded: %d\n", r.Skipped)
	}
	fmt.Fprintf(w, "Failed onboardings: %d\n", r.Failed)
	if len(r.FailedFiles) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Failed config files:")
	for _, path := range r.FailedFiles {
		fmt.Fprintf(w, "  - %s\n", filepath.Base(path))
	}
}
