package store

import (
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case "", OutcomeSucceeded, OutcomeFailed, OutcomeSkipped:
		return o, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}

type Attempt struct {
	ID           string
	BuildingCode string
	SourceFile   string
	ResultFile   string
	Category     string
	Outcome      Outcome
	Operation    string
	PollAttempts int
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// AttemptFilter narrows ListAttempts. Zero fields match everything; results
// are newest first.
type AttemptFilter struct {
	BuildingCode string
	SourceFile   string
	Outcome      Outcome
	Limit        int
}
