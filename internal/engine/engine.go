package engine

import (
	"context"
	"os"

	"codeowners/internal/approval"
	"codeowners/internal/config"
	"codeowners/internal/model"
	"codeowners/internal/output"
	"codeowners/internal/store"
)

func exitCodeForRun(fatal, partial, unapproved bool) int {
	// Exit code contract:
	// 0 = clean run, every path approved
	// 1 = unapproved paths remain
	// 2 = partial failure (some paths errored)
	// 3 = fatal error (evaluation did not run)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if unapproved {
		return 1
	}
	return 0
}

// SetupOutputManager builds the sink set from the output options.
// maxReportPaths caps the path table of the Markdown report (0 =
// unlimited).
func SetupOutputManager(opts *config.Options, maxReportPaths int) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !opts.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, opts.Output.ConsoleFormat, opts.Output.ConsoleFilterStatus)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range opts.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if opts.Output.Out != "" {
		fs, err := output.NewFileSink(opts.Output.Out, opts.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if opts.Output.Report != "" {
		rs, err := output.NewReportSink(opts.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		rs.MaxPaths = maxReportPaths
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Engine evaluates the code owner approval state of a change.
type Engine struct {
	Evaluator   *approval.Evaluator
	Concurrency int

	// schedulerExecute is a test seam for streaming execution.
	// If nil, Engine uses the real scheduler.
	schedulerExecute func(ctx context.Context, plan *EvalPlan) (<-chan PathExecutionResult, <-chan error)
}

func NewEngine(evaluator *approval.Evaluator, concurrency int) *Engine {
	return &Engine{
		Evaluator:   evaluator,
		Concurrency: concurrency,
	}
}

func (e *Engine) executePlanStream(ctx context.Context, change model.Change, rev store.Revision, plan *EvalPlan) (<-chan PathExecutionResult, <-chan error) {
	if e.schedulerExecute != nil {
		return e.schedulerExecute(ctx, plan)
	}

	evaluate := func(ctx context.Context, path string) (approval.PathStatus, error) {
		return e.Evaluator.EvaluatePath(ctx, change, rev, path)
	}
	scheduler, err := NewScheduler(evaluate, e.Concurrency)
	if err != nil {
		resCh := make(chan PathExecutionResult)
		errCh := make(chan error, 1)
		close(resCh)
		errCh <- err
		close(errCh)
		return resCh, errCh
	}
	return scheduler.Execute(ctx, plan)
}

// evaluateStreamingResults receives streamed per-path results and forwards
// them to the configured output sinks.
func evaluateStreamingResults(resCh <-chan PathExecutionResult, outMgr *output.Manager) (hasErrors bool, hasUnapproved bool) {
	for res := range resCh {
		if res.Err != nil {
			_ = outMgr.Write(output.Result{
				Path:    res.Path,
				Status:  "ERROR",
				Message: res.Err.Error(),
			})
			hasErrors = true
			continue
		}

		if res.Status.Status != approval.StatusApproved {
			hasUnapproved = true
		}
		_ = outMgr.Write(resultFromPathStatus(res.Status))
	}
	return hasErrors, hasUnapproved
}

func resultFromPathStatus(st approval.PathStatus) output.Result {
	return output.Result{
		Path:    st.Path,
		Status:  string(st.Status),
		Message: st.Reason,
		Issues:  st.Issues,
	}
}

// Run evaluates the change at the given revision and writes results to the
// output manager. It returns the process exit code.
func (e *Engine) Run(ctx context.Context, change model.Change, rev store.Revision, outMgr *output.Manager) int {
	plan := PlanChange(change)

	_ = outMgr.Write(output.Event{
		Type:    "run.started",
		Project: change.Project,
		Branch:  change.Branch,
		Paths:   len(plan.Paths),
	})

	resCh, errCh := e.executePlanStream(ctx, change, rev, plan)

	hasErrors, hasUnapproved := evaluateStreamingResults(resCh, outMgr)

	var schedErr error
	// Drain scheduler errors; we only need to know whether any fatal error occurred.
	for err := range errCh {
		if err != nil {
			schedErr = err
		}
	}

	fatal := schedErr != nil
	code := exitCodeForRun(fatal, hasErrors, hasUnapproved)
	_ = outMgr.Write(output.Event{Type: "run.finished", ExitCode: code})
	return code
}
