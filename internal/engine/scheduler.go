package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codeowners/internal/approval"
)

// PathExecutionResult is the outcome of evaluating one path.
type PathExecutionResult struct {
	Path   string
	Status approval.PathStatus
	Err    error
}

// EvaluateFunc evaluates the approval status of one path.
type EvaluateFunc func(ctx context.Context, path string) (approval.PathStatus, error)

type Scheduler struct {
	evaluate    EvaluateFunc
	concurrency int
}

func NewScheduler(evaluate EvaluateFunc, concurrency int) (*Scheduler, error) {
	if evaluate == nil {
		return nil, errors.New("evaluate func is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	return &Scheduler{evaluate: evaluate, concurrency: concurrency}, nil
}

// Execute streams per-path evaluation results.
//
// Channel semantics:
//   - In the normal (non-canceled) case, exactly one PathExecutionResult is sent per path.
//   - On context cancellation, the scheduler stops promptly; it may emit fewer results.
//   - The results channel and error channel are both closed reliably.
//   - The error channel is used for fatal errors / cancellation signals;
//     per-path evaluation failures are recorded on PathExecutionResult.Err.
func (s *Scheduler) Execute(ctx context.Context, plan *EvalPlan) (<-chan PathExecutionResult, <-chan error) {
	resultsCh := make(chan PathExecutionResult)
	errCh := make(chan error, 1)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		trySendErr := func(err error) {
			if err == nil {
				return
			}
			select {
			case errCh <- err:
			default:
			}
		}

		if ctx == nil {
			trySendErr(errors.New("context is nil"))
			return
		}
		if plan == nil {
			trySendErr(errors.New("eval plan is nil"))
			return
		}
		if s == nil || s.evaluate == nil {
			trySendErr(errors.New("scheduler is not initialized"))
			return
		}
		if s.concurrency <= 0 {
			trySendErr(fmt.Errorf("scheduler concurrency must be >= 1, got %d", s.concurrency))
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Limit active evaluations.
		sem := make(chan struct{}, s.concurrency)
		var wg sync.WaitGroup

	scheduleLoop:
		for _, path := range plan.Paths {
			if runCtx.Err() != nil {
				break
			}

			select {
			case sem <- struct{}{}:
				// acquired
			case <-runCtx.Done():
				break scheduleLoop
			}

			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				defer func() { <-sem }()

				status, err := s.evaluate(runCtx, path)
				if runCtx.Err() != nil {
					return
				}

				res := PathExecutionResult{Path: path, Status: status, Err: err}
				select {
				case resultsCh <- res:
				case <-runCtx.Done():
					return
				}
			}(path)
		}

		wg.Wait()
		trySendErr(ctx.Err())
	}()

	return resultsCh, errCh
}
