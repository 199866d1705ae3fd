// Package poller submits a request to the building service and follows the
// resulting long-running operation until it reaches a terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"onboarder/internal/rpc"
)

var (
	ErrSubmission        = errors.New("submission failed")
	ErrNoHandle          = errors.New("no operation handle in submission output")
	ErrAttemptsExhausted = errors.New("operation still running after final attempt")
)

var handlePattern = regexp.MustCompile(`name:\s*["']([^"']+)["']`)

type State int

const (
	StateSubmitted State = iota
	StatePolling
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusChecker is the status-check half of the building service.
type StatusChecker interface {
	GetOperation(ctx context.Context, operation, outfile string) (rpc.Result, error)
}

// SubmitFunc performs the submission call.
type SubmitFunc func(ctx context.Context) (rpc.Result, error)

// Outcome describes where an operation ended up. Content is the text the
// final classification was made on.
type Outcome struct {
	State     State
	Operation string
	Attempts  int
	Content   string
}

func (o *Outcome) Succeeded() bool {
	return o != nil && o.State == StateSucceeded
}

type Options struct {
	Sleeper Sleeper
	Logger  *slog.Logger
}

type Poller struct {
	checker StatusChecker
	sleeper Sleeper
	logger  *slog.Logger
}

func New(checker StatusChecker, options Options) *Poller {
	p := &Poller{checker: checker, sleeper: options.Sleeper, logger: options.Logger}
	if p.sleeper == nil {
		p.sleeper = TimerSleeper{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// ExtractHandle returns the first operation name found in output.
func ExtractHandle(output string) (string, bool) {
	match := handlePattern.FindStringSubmatch(output)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// SubmitAndAwait runs submit, extracts the operation handle from its output
// and polls the operation into sink under policy. Submission and handle
// failures are returned as errors wrapping ErrSubmission or ErrNoHandle; a
// terminal negative outcome is not an error.
func (p *Poller) SubmitAndAwait(ctx context.Context, submit SubmitFunc, policy Policy, sink string) (*Outcome, error) {
	outcome := &Outcome{State: StateSubmitted}

	result, err := submit(ctx)
	if err != nil {
		outcome.State = StateFailed
		return outcome, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	if result.ExitCode != 0 {
		outcome.State = StateFailed
		return outcome, fmt.Errorf("%w: exit code %d: %s", ErrSubmission, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	operation, ok := ExtractHandle(result.Combined())
	if !ok {
		outcome.State = StateFailed
		return outcome, ErrNoHandle
	}
	p.logger.Info("operation submitted", "policy", policy.Name, "operation", operation)

	return p.Await(ctx, operation, policy, sink)
}

// Await polls operation until policy classifies its output as terminal or
// its attempt cap is reached.
func (p *Poller) Await(ctx context.Context, operation string, policy Policy, sink string) (*Outcome, error) {
	outcome := &Outcome{State: StatePolling, Operation: operation}

	if dir := filepath.Dir(sink); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			outcome.State = StateFailed
			return outcome, fmt.Errorf("creating result directory: %w", err)
		}
	}

	if err := p.sleeper.Sleep(ctx, policy.InitialDelay); err != nil {
		return outcome, err
	}

	for attempt := 1; ; attempt++ {
		outcome.Attempts = attempt
		p.logger.Info("checking operation status", "operation", operation, "attempt", attempt)

		if policy.FallbackToOutput {
			if err := os.Remove(sink); err != nil && !errors.Is(err, os.ErrNotExist) {
				p.logger.Warn("clearing operation result", "path", sink, "error", err)
			}
		}
		result, err := p.checker.GetOperation(ctx, operation, sink)
		if err != nil {
			outcome.State = StateFailed
			return outcome, fmt.Errorf("checking operation %s: %w", operation, err)
		}
		if result.ExitCode != 0 {
			p.logger.Warn("status check returned non-zero exit code",
				"operation", operation,
				"exit_code", result.ExitCode,
				"stderr", strings.TrimSpace(result.Stderr),
			)
		}

		content, err := p.observe(sink, result, policy)
		if err != nil {
			p.logger.Warn("reading operation result", "path", sink, "error", err)
		}
		outcome.Content = content

		switch policy.Classify(content) {
		case Succeeded:
			outcome.State = StateSucceeded
			p.logger.Info("operation finished", "operation", operation, "state", outcome.State, "attempts", attempt)
			return outcome, nil
		case Failed:
			outcome.State = StateFailed
			p.logger.Info("operation finished", "operation", operation, "state", outcome.State, "attempts", attempt)
			return outcome, nil
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return outcome, fmt.Errorf("%w: %d attempts", ErrAttemptsExhausted, attempt)
		}
		wait := policy.Delay(attempt)
		p.logger.Info("operation still running", "operation", operation, "retry_in", wait)
		if err := p.sleeper.Sleep(ctx, wait); err != nil {
			return outcome, err
		}
	}
}

// observe returns the text to classify for one status check: the sink's
// content, or with FallbackToOutput the client's output when the sink is
// empty.
func (p *Poller) observe(sink string, result rpc.Result, policy Policy) (string, error) {
	data, err := os.ReadFile(sink)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	content := strings.TrimSpace(string(data))
	if content != "" || !policy.FallbackToOutput {
		return content, nil
	}

	content = strings.TrimSpace(result.Combined())
	if content == "" {
		return "", nil
	}
	if err := os.WriteFile(sink, []byte(content+"\n"), 0o644); err != nil {
		return content, err
	}
	return content, nil
}
