package poller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarder/internal/rpc"
)

// step is one scripted status check: file is written to the outfile when
// non-empty, result is what the client returns.
type step struct {
	file   string
	result rpc.Result
}

type scriptedChecker struct {
	steps []step
	calls int
}

func (s *scriptedChecker) GetOperation(ctx context.Context, operation, outfile string) (rpc.Result, error) {
	if s.calls >= len(s.steps) {
		return rpc.Result{}, errors.New("unexpected status check")
	}
	st := s.steps[s.calls]
	s.calls++
	if st.file != "" {
		if err := os.WriteFile(outfile, []byte(st.file), 0o644); err != nil {
			return rpc.Result{}, err
		}
	}
	return st.result, nil
}

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func running(n int) []step {
	steps := make([]step, n)
	for i := range steps {
		steps[i] = step{file: "state: RUNNING"}
	}
	return steps
}

func submitOK(ctx context.Context) (rpc.Result, error) {
	return rpc.Result{Stdout: `name: "operations/onboard-42"`}, nil
}

func TestTieredDelay(t *testing.T) {
	want := map[int]time.Duration{
		1: 10 * time.Second, 2: 10 * time.Second, 3: 10 * time.Second,
		4: 30 * time.Second, 5: 30 * time.Second, 6: 30 * time.Second,
		7: 60 * time.Second, 8: 60 * time.Second, 50: 60 * time.Second,
	}
	for attempt, d := range want {
		assert.Equal(t, d, TieredDelay(attempt), "attempt %d", attempt)
	}
}

func TestSubmitAndAwait_BackoffUntilSuccess(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "results", "unit_result.yaml")
	checker := &scriptedChecker{steps: append(running(8), step{file: "done\n" + SuccessMarker})}
	sleeper := &recordingSleeper{}

	p := New(checker, Options{Sleeper: sleeper, Logger: quietLogger()})
	outcome, err := p.SubmitAndAwait(context.Background(), submitOK, OnboardPolicy(10*time.Second), sink)
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, outcome.State)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "operations/onboard-42", outcome.Operation)
	assert.Equal(t, 9, outcome.Attempts)
	assert.Equal(t, 9, checker.calls)

	s := time.Second
	assert.Equal(t, []time.Duration{
		10 * s, // initial delay
		10 * s, 10 * s, 10 * s,
		30 * s, 30 * s, 30 * s,
		60 * s, 60 * s,
	}, sleeper.waits)
}

func TestSubmitAndAwait_TerminalWithoutMarkerFails(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "r.yaml")
	checker := &scriptedChecker{steps: []step{{file: "state: RUNNING"}, {file: "error: PERMISSION_DENIED"}}}

	p := New(checker, Options{Sleeper: &recordingSleeper{}, Logger: quietLogger()})
	outcome, err := p.SubmitAndAwait(context.Background(), submitOK, OnboardPolicy(0), sink)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestSubmitAndAwait_SubmissionErrors(t *testing.T) {
	cases := []struct {
		name   string
		submit SubmitFunc
		want   error
	}{
		{
			name: "non-zero exit",
			submit: func(ctx context.Context) (rpc.Result, error) {
				return rpc.Result{ExitCode: 1, Stderr: "PERMISSION_DENIED"}, nil
			},
			want: ErrSubmission,
		},
		{
			name: "runner error",
			submit: func(ctx context.Context) (rpc.Result, error) {
				return rpc.Result{}, errors.New("exec: not found")
			},
			want: ErrSubmission,
		},
		{
			name: "no handle",
			submit: func(ctx context.Context) (rpc.Result, error) {
				return rpc.Result{Stdout: "accepted"}, nil
			},
			want: ErrNoHandle,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := &scriptedChecker{}
			p := New(checker, Options{Sleeper: &recordingSleeper{}, Logger: quietLogger()})
			outcome, err := p.SubmitAndAwait(context.Background(), tc.submit, OnboardPolicy(0), filepath.Join(t.TempDir(), "r"))
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, StateFailed, outcome.State)
			assert.Zero(t, checker.calls, "no status check after a failed submission")
		})
	}
}

func TestAwait_NonZeroStatusExitIsOnlyLogged(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "r.yaml")
	checker := &scriptedChecker{steps: []step{
		{file: "RUNNING", result: rpc.Result{ExitCode: 2, Stderr: "deadline exceeded"}},
		{file: SuccessMarker},
	}}
	var logs bytes.Buffer
	p := New(checker, Options{Sleeper: &recordingSleeper{}, Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	outcome, err := p.Await(context.Background(), "operations/1", OnboardPolicy(0), sink)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.Contains(t, logs.String(), "non-zero exit code")
}

func TestAwait_FallsBackToClientOutput(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "r.yaml")
	checker := &scriptedChecker{steps: []step{
		{result: rpc.Result{Stdout: "operation is running"}},
		{result: rpc.Result{Stderr: SuccessMarker}},
	}}
	p := New(checker, Options{Sleeper: &recordingSleeper{}, Logger: quietLogger()})

	outcome, err := p.Await(context.Background(), "operations/1", OnboardPolicy(0), sink)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	assert.Contains(t, string(data), SuccessMarker, "client output is persisted to the sink")
}

func TestAwait_ExportPolicy(t *testing.T) {
	t.Run("empty output stays pending and the cap is fatal", func(t *testing.T) {
		sink := filepath.Join(t.TempDir(), "export.yaml")
		checker := &scriptedChecker{steps: []step{{}, {file: "RUNNING"}, {}}}
		sleeper := &recordingSleeper{}
		p := New(checker, Options{Sleeper: sleeper, Logger: quietLogger()})

		outcome, err := p.Await(context.Background(), "operations/x", ExportPolicy(10*time.Second, 10*time.Second, 3), sink)
		assert.ErrorIs(t, err, ErrAttemptsExhausted)
		assert.Equal(t, StatePolling, outcome.State)
		assert.Equal(t, 3, checker.calls)
		assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second, 10 * time.Second}, sleeper.waits,
			"no wait after the final attempt")
	})

	t.Run("client output is not used as export content", func(t *testing.T) {
		sink := filepath.Join(t.TempDir(), "export.yaml")
		checker := &scriptedChecker{steps: []step{
			{result: rpc.Result{Stdout: "done"}},
			{file: "\x00\x12CONFIG_METADATA:\n  operation: UPDATE\n"},
		}}
		p := New(checker, Options{Sleeper: &recordingSleeper{}, Logger: quietLogger()})

		outcome, err := p.Await(context.Background(), "operations/x", ExportPolicy(0, 0, 3), sink)
		require.NoError(t, err)
		assert.Equal(t, StateSucceeded, outcome.State)
		assert.Equal(t, 2, outcome.Attempts)
	})
}

func TestAwait_StopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(&scriptedChecker{}, Options{Logger: quietLogger()})
	_, err := p.Await(ctx, "operations/1", OnboardPolicy(time.Hour), filepath.Join(t.TempDir(), "r"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractHandle(t *testing.T) {
	cases := map[string]string{
		`name: 'operations/abc'`:          "operations/abc",
		"header\nname:   \"operations/d\"": "operations/d",
	}
	for input, want := range cases {
		got, ok := ExtractHandle(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got)
	}
	_, ok := ExtractHandle("name: operations/unquoted")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Pending, ClassifyOnboard("status: Running"))
	assert.Equal(t, Failed, ClassifyOnboard("status: runningly"), "running must be a whole word")
	assert.Equal(t, Succeeded, ClassifyOnboard(SuccessMarker))
	assert.Equal(t, Failed, ClassifyOnboard(""))

	assert.Equal(t, Pending, ClassifyExport("  \n"))
	assert.Equal(t, Pending, ClassifyExport("RUNNING"))
	assert.Equal(t, Pending, ClassifyExport("state: RUNNING_STATE"), "export matches running as a substring")
	assert.Equal(t, Pending, ClassifyExport("phase: state_running"))
	assert.Equal(t, Succeeded, ClassifyExport("CONFIG_METADATA:"))
}
