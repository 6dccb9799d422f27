package engine

import (
	"context"
	"errors"
	"testing"

	"codeowners/internal/approval"
	"codeowners/internal/config"
	"codeowners/internal/model"
	"codeowners/internal/output"
)

func TestExitCodeForRun(t *testing.T) {
	tests := []struct {
		fatal, partial, unapproved bool
		want                       int
	}{
		{false, false, false, 0},
		{false, false, true, 1},
		{false, true, false, 2},
		{false, true, true, 2},
		{true, false, false, 3},
		{true, true, true, 3},
	}
	for _, tt := range tests {
		got := exitCodeForRun(tt.fatal, tt.partial, tt.unapproved)
		if got != tt.want {
			t.Errorf("exitCodeForRun(%v, %v, %v) = %d, want %d", tt.fatal, tt.partial, tt.unapproved, got, tt.want)
		}
	}
}

// captureSink records everything written to it.
type captureSink struct {
	writes []any
}

func (s *captureSink) Write(v any) error { s.writes = append(s.writes, v); return nil }
func (s *captureSink) Close() error      { return nil }

func seededEngine(results []PathExecutionResult, fatal error) *Engine {
	return &Engine{
		schedulerExecute: func(ctx context.Context, plan *EvalPlan) (<-chan PathExecutionResult, <-chan error) {
			resCh := make(chan PathExecutionResult, len(results))
			errCh := make(chan error, 1)
			for _, r := range results {
				resCh <- r
			}
			close(resCh)
			if fatal != nil {
				errCh <- fatal
			}
			close(errCh)
			return resCh, errCh
		},
	}
}

func runEngine(t *testing.T, e *Engine) (int, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	outMgr := output.NewManager()
	if err := outMgr.AddSink(sink); err != nil {
		t.Fatal(err)
	}
	change := model.Change{
		Project: "server",
		Branch:  "main",
		Files: []model.ChangedFile{
			{Status: model.FileStatusModified, NewPath: "foo/a.go"},
			{Status: model.FileStatusModified, NewPath: "foo/b.go"},
		},
	}
	code := e.Run(context.Background(), change, "rev-0001", outMgr)
	return code, sink
}

func TestRunExitCodes(t *testing.T) {
	approved := PathExecutionResult{
		Path:   "/foo/a.go",
		Status: approval.PathStatus{Path: "/foo/a.go", Status: approval.StatusApproved, Reason: "vote"},
	}
	pending := PathExecutionResult{
		Path:   "/foo/b.go",
		Status: approval.PathStatus{Path: "/foo/b.go", Status: approval.StatusPending},
	}
	failed := PathExecutionResult{
		Path: "/foo/b.go",
		Err:  errors.New("store unavailable"),
	}

	tests := []struct {
		name     string
		results  []PathExecutionResult
		fatal    error
		wantCode int
	}{
		{name: "all approved", results: []PathExecutionResult{approved}, wantCode: 0},
		{name: "unapproved path", results: []PathExecutionResult{approved, pending}, wantCode: 1},
		{name: "partial failure", results: []PathExecutionResult{approved, failed}, wantCode: 2},
		{name: "fatal", results: nil, fatal: errors.New("scheduler failed"), wantCode: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, sink := runEngine(t, seededEngine(tt.results, tt.fatal))
			if code != tt.wantCode {
				t.Errorf("Run() = %d, want %d", code, tt.wantCode)
			}

			// First and last writes are the lifecycle events.
			first, ok := sink.writes[0].(output.Event)
			if !ok || first.Type != "run.started" || first.Project != "server" || first.Paths != 2 {
				t.Errorf("first write = %+v, want run.started", sink.writes[0])
			}
			last, ok := sink.writes[len(sink.writes)-1].(output.Event)
			if !ok || last.Type != "run.finished" || last.ExitCode != tt.wantCode {
				t.Errorf("last write = %+v, want run.finished with exit code %d", sink.writes[len(sink.writes)-1], tt.wantCode)
			}
		})
	}
}

func TestRunWritesResults(t *testing.T) {
	results := []PathExecutionResult{
		{
			Path: "/foo/a.go",
			Status: approval.PathStatus{
				Path:   "/foo/a.go",
				Status: approval.StatusApproved,
				Reason: "vote",
				Issues: []string{"missing_config: import build/OWNERS: code owner config build/OWNERS not found"},
			},
		},
		{Path: "/foo/b.go", Err: errors.New("store unavailable")},
	}

	_, sink := runEngine(t, seededEngine(results, nil))

	var got []output.Result
	for _, w := range sink.writes {
		if r, ok := w.(output.Result); ok {
			got = append(got, r)
		}
	}
	if len(got) != 2 {
		t.Fatalf("results written = %d, want 2", len(got))
	}
	if got[0].Status != "APPROVED" || got[0].Message != "vote" || len(got[0].Issues) != 1 {
		t.Errorf("results[0] = %+v", got[0])
	}
	if got[1].Status != "ERROR" || got[1].Message != "store unavailable" {
		t.Errorf("results[1] = %+v", got[1])
	}
}

func TestSetupOutputManager(t *testing.T) {
	opts := config.NewOptions()
	outMgr, err := SetupOutputManager(opts, 0)
	if err != nil {
		t.Fatalf("SetupOutputManager() error = %v", err)
	}
	defer outMgr.Close()

	if err := outMgr.Write(output.Result{Path: "/a.go", Status: "APPROVED"}); err != nil {
		t.Errorf("Write() error = %v", err)
	}
}
