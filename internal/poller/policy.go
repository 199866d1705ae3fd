package poller

import (
	"regexp"
	"strings"
	"time"
)

// SuccessMarker is the text the backend writes when an onboarding operation
// completed successfully.
const SuccessMarker = "Successfully completed onboard operation."

var runningPattern = regexp.MustCompile(`(?i)\brunning\b`)

// Verdict is the classification of one status check.
type Verdict int

const (
	Pending Verdict = iota
	Succeeded
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Policy controls how an operation is polled.
type Policy struct {
	Name         string
	InitialDelay time.Duration
	// Delay returns the wait after the given 1-based attempt stayed pending.
	Delay func(attempt int) time.Duration
	// MaxAttempts caps the number of status checks; zero means unbounded.
	MaxAttempts int
	Classify    func(content string) Verdict
	// FallbackToOutput clears the sink before every status check and uses
	// the client's own output, persisted to the sink, when the check left it
	// empty.
	FallbackToOutput bool
}

// TieredDelay waits 10s after attempts 1-3, 30s after 4-6 and 60s afterwards.
func TieredDelay(attempt int) time.Duration {
	switch {
	case attempt <= 3:
		return 10 * time.Second
	case attempt <= 6:
		return 30 * time.Second
	default:
		return 60 * time.Second
	}
}

// OnboardPolicy polls until the operation stops running. Only the success
// marker counts as success.
func OnboardPolicy(initialDelay time.Duration) Policy {
	return Policy{
		Name:             "onboard",
		InitialDelay:     initialDelay,
		Delay:            TieredDelay,
		Classify:         ClassifyOnboard,
		FallbackToOutput: true,
	}
}

// ExportPolicy polls at a fixed interval for at most attempts checks. Any
// non-empty output that is not running counts as success.
func ExportPolicy(initialDelay, interval time.Duration, attempts int) Policy {
	return Policy{
		Name:         "export",
		InitialDelay: initialDelay,
		Delay:        func(int) time.Duration { return interval },
		MaxAttempts:  attempts,
		Classify:     ClassifyExport,
	}
}

func ClassifyOnboard(content string) Verdict {
	if IsRunning(content) {
		return Pending
	}
	if strings.Contains(content, SuccessMarker) {
		return Succeeded
	}
	return Failed
}

// ClassifyExport treats any occurrence of "running", including inside a longer
// token such as RUNNING_STATE, as a pending export.
func ClassifyExport(content string) Verdict {
	if strings.TrimSpace(content) == "" || strings.Contains(strings.ToLower(content), "running") {
		return Pending
	}
	return Succeeded
}

func IsRunning(content string) bool {
	return runningPattern.MatchString(content)
}
