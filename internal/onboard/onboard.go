package onboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"onboarder/internal/config"
	"onboarder/internal/document"
	"onboarder/internal/etag"
	"onboarder/internal/poller"
	"onboarder/internal/rpc"
	"onboarder/internal/store"
)

// Service is the part of the building service the batch needs.
type Service interface {
	OnboardBuilding(ctx context.Context, topologyPath string) (rpc.Result, error)
	GetOperation(ctx context.Context, operation, outfile string) (rpc.Result, error)
}

// Ledger records unit outcomes. store.Store satisfies it.
type Ledger interface {
	RecordAttempt(ctx context.Context, a store.Attempt) error
}

type Options struct {
	Building   config.BuildingCode
	MasterPath string
	Schema     *config.Schema
	Policy     poller.Policy
	Sleeper    poller.Sleeper
	Logger     *slog.Logger
	Ledger     Ledger
	Now        func() time.Time
}

type UnitResult struct {
	Source     string
	ResultFile string
	Outcome    store.Outcome
	Operation  string
	Attempts   int
	Err        error
}

// Result aggregates a batch. Succeeded includes units skipped because their
// result file already carried the success marker.
type Result struct {
	Succeeded   int
	Failed      int
	Skipped     int
	FailedFiles []string
	Units       []UnitResult
	Errors      []error
}

func (r *Result) record(u UnitResult) {
	r.Units = append(r.Units, u)
	switch u.Outcome {
	case store.OutcomeSkipped:
		r.Skipped++
		r.Succeeded++
	case store.OutcomeSucceeded:
		r.Succeeded++
	default:
		r.Failed++
		r.FailedFiles = append(r.FailedFiles, u.Source)
		if u.Err != nil {
			r.Errors = append(r.Errors, fmt.Errorf("onboarding %s: %w", u.Source, u.Err))
		}
	}
}

// Run onboards files one at a time: etags are synchronized from the master
// document, the file is submitted and its operation is polled to a terminal
// state. Units whose result file already reports success are not submitted.
// Per-unit failures are collected in the result; the returned error is
// reserved for conditions that stop the whole batch.
func Run(ctx context.Context, files []string, service Service, options Options) (*Result, error) {
	if options.Schema == nil {
		options.Schema = config.DefaultSchema()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Policy.Classify == nil {
		options.Policy = poller.OnboardPolicy(10 * time.Second)
	}

	master, err := document.ParseFile(options.MasterPath)
	if err != nil {
		return nil, fmt.Errorf("loading master building config: %w", err)
	}

	syncer := etag.New(options.Schema, options.Logger)
	poll := poller.New(service, poller.Options{Sleeper: options.Sleeper, Logger: options.Logger})

	result := &Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		started := options.Now()
		unit := UnitResult{Source: path, ResultFile: ResultPath(path)}

		if IsCompleted(unit.ResultFile) {
			options.Logger.Info("skipping unit, already onboarded", "file", path)
			unit.Outcome = store.OutcomeSkipped
		} else {
			options.Logger.Info("processing unit", "file", path)
			if err := onboardUnit(ctx, syncer, poll, service, master, options.Policy, &unit); err != nil {
				if ctx.Err() != nil {
					return result, err
				}
				unit.Err = err
			}
		}

		result.record(unit)
		recordAttempt(ctx, options, unit, started)
	}
	return result, nil
}

func onboardUnit(ctx context.Context, syncer *etag.Synchronizer, poll *poller.Poller, service Service,
	master *document.Document, policy poller.Policy, unit *UnitResult) error {
	unit.Outcome = store.OutcomeFailed

	if _, err := syncer.SyncFile(master, unit.Source); err != nil {
		return err
	}

	submit := func(ctx context.Context) (rpc.Result, error) {
		return service.OnboardBuilding(ctx, unit.Source)
	}
	outcome, err := poll.SubmitAndAwait(ctx, submit, policy, unit.ResultFile)
	if outcome != nil {
		unit.Operation = outcome.Operation
		unit.Attempts = outcome.Attempts
	}
	if err != nil {
		return err
	}
	if !outcome.Succeeded() {
		return errors.New("operation finished without success marker")
	}
	unit.Outcome = store.OutcomeSucceeded
	return nil
}

func recordAttempt(ctx context.Context, options Options, unit UnitResult, started time.Time) {
	if options.Ledger == nil {
		return
	}
	attempt := store.Attempt{
		ID:           uuid.NewString(),
		BuildingCode: options.Building.String(),
		SourceFile:   unit.Source,
		ResultFile:   unit.ResultFile,
		Category:     CategoryOf(unit.Source),
		Outcome:      unit.Outcome,
		Operation:    unit.Operation,
		PollAttempts: unit.Attempts,
		StartedAt:    started,
		FinishedAt:   options.Now(),
	}
	if unit.Err != nil {
		attempt.Error = unit.Err.Error()
	}
	if err := options.Ledger.RecordAttempt(ctx, attempt); err != nil {
		options.Logger.Warn("recording attempt", "file", unit.Source, "error", err)
	}
}
