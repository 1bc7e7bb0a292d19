// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"taskpipe/internal/runner"
	"taskpipe/pkg/pipefile"
)

// scriptedRunner records executed commands and fails on a chosen one.
type scriptedRunner struct {
	executed []string
	failOn   string       // command that fails; empty means all succeed
	onExec   func(string) // invoked before each execution
}

func (s *scriptedRunner) Name() string { return "scripted" }

func (s *scriptedRunner) Available() bool { return true }

func (s *scriptedRunner) Validate(_ *runner.ExecContext) error { return nil }

func (s *scriptedRunner) Execute(ctx *runner.ExecContext) *runner.Result {
	if s.onExec != nil {
		s.onExec(ctx.Step.Run)
	}
	s.executed = append(s.executed, ctx.Step.Run)
	if s.failOn != "" && ctx.Step.Run == s.failOn {
		res := runner.NewExitCodeResult(1)
		res.Output = "partial stdout"
		res.ErrOutput = "boom stderr"
		return res
	}
	return runner.NewSuccessResult()
}

func newTestEngine(rt runner.Runner) (*Engine, *scriptedRunner) {
	reg := runner.NewRegistry()
	var scripted *scriptedRunner
	if rt == nil {
		scripted = &scriptedRunner{}
		rt = scripted
	} else if s, ok := rt.(*scriptedRunner); ok {
		scripted = s
	}
	reg.Register(runner.KindNative, rt)

	logger := log.New(&bytes.Buffer{})
	e := NewEngine(reg, logger)
	e.Stdout = &bytes.Buffer{}
	e.Stderr = &bytes.Buffer{}
	return e, scripted
}

func pipefileWith(steps ...pipefile.Step) (*pipefile.Pipefile, *pipefile.Pipeline) {
	pf := &pipefile.Pipefile{
		Pipelines: []pipefile.Pipeline{{Name: "build", Steps: steps}},
	}
	return pf, &pf.Pipelines[0]
}

func TestEngine_EmptyPipelineSucceeds(t *testing.T) {
	t.Parallel()

	e, scripted := newTestEngine(nil)
	pf, pl := pipefileWith()

	report := e.Run(context.Background(), pf, pl, Options{})

	if !report.Success {
		t.Error("empty pipeline should succeed")
	}
	if report.StepsRun != 0 {
		t.Errorf("StepsRun = %d, want 0", report.StepsRun)
	}
	if report.Failure != nil {
		t.Errorf("Failure = %v, want nil", report.Failure)
	}
	if len(scripted.executed) != 0 {
		t.Errorf("runner invoked %d times, want 0", len(scripted.executed))
	}
}

func TestEngine_AllStepsRunInOrder(t *testing.T) {
	t.Parallel()

	e, scripted := newTestEngine(nil)
	pf, pl := pipefileWith(
		pipefile.Step{Run: "first"},
		pipefile.Step{Run: "second"},
		pipefile.Step{Run: "third"},
	)

	report := e.Run(context.Background(), pf, pl, Options{})

	if !report.Success {
		t.Fatalf("Run() failed: %v", report.Failure)
	}
	if report.StepsRun != 3 {
		t.Errorf("StepsRun = %d, want 3", report.StepsRun)
	}
	want := []string{"first", "second", "third"}
	if !slices.Equal(scripted.executed, want) {
		t.Errorf("executed = %v, want %v", scripted.executed, want)
	}
}

func TestEngine_FailFastStopsQueue(t *testing.T) {
	t.Parallel()

	scripted := &scriptedRunner{failOn: "second"}
	e, _ := newTestEngine(scripted)
	pf, pl := pipefileWith(
		pipefile.Step{Run: "first"},
		pipefile.Step{Run: "second", Dest: "dist/app.js"},
		pipefile.Step{Run: "third"},
		pipefile.Step{Run: "fourth"},
	)

	report := e.Run(context.Background(), pf, pl, Options{Capture: true})

	if report.Success {
		t.Fatal("Run() should fail when a step fails")
	}
	// Exactly k invocations for a failure at position k
	if len(scripted.executed) != 2 {
		t.Errorf("runner invoked %d times, want 2", len(scripted.executed))
	}
	if report.StepsRun != 2 {
		t.Errorf("StepsRun = %d, want 2", report.StepsRun)
	}
	if report.Failure == nil {
		t.Fatal("Failure should be set")
	}
	if report.Failure.Index != 2 {
		t.Errorf("Failure.Index = %d, want 2", report.Failure.Index)
	}
	if report.Failure.Dest != "dist/app.js" {
		t.Errorf("Failure.Dest = %q, want %q", report.Failure.Dest, "dist/app.js")
	}
	if report.Stdout != "partial stdout" || report.Stderr != "boom stderr" {
		t.Errorf("failing step output not carried: stdout=%q stderr=%q", report.Stdout, report.Stderr)
	}
}

func TestEngine_MissingDestReportedAsUndefined(t *testing.T) {
	t.Parallel()

	scripted := &scriptedRunner{failOn: "broken"}
	e, _ := newTestEngine(scripted)
	pf, pl := pipefileWith(pipefile.Step{Run: "broken"})

	report := e.Run(context.Background(), pf, pl, Options{})

	if report.Success {
		t.Fatal("Run() should fail")
	}
	if report.Failure.Dest != UndefinedDest {
		t.Errorf("Failure.Dest = %q, want %q", report.Failure.Dest, UndefinedDest)
	}
}

func TestEngine_NoRetry(t *testing.T) {
	t.Parallel()

	scripted := &scriptedRunner{failOn: "flaky"}
	e, _ := newTestEngine(scripted)
	pf, pl := pipefileWith(pipefile.Step{Run: "flaky"})

	_ = e.Run(context.Background(), pf, pl, Options{})

	if got := len(scripted.executed); got != 1 {
		t.Errorf("failing step executed %d times, want exactly 1 (no retry)", got)
	}
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	e, scripted := newTestEngine(nil)
	pf, pl := pipefileWith(pipefile.Step{Run: "never"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := e.Run(ctx, pf, pl, Options{})

	if report.Success {
		t.Fatal("Run() should fail on cancelled context")
	}
	if len(scripted.executed) != 0 {
		t.Errorf("runner invoked %d times after cancellation, want 0", len(scripted.executed))
	}
	if report.Failure == nil || !errors.Is(report.Failure.Err, context.Canceled) {
		t.Errorf("Failure.Err = %v, want context.Canceled in chain", report.Failure)
	}
}

func TestEngine_CancelledBetweenSteps(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	scripted := &scriptedRunner{}
	scripted.onExec = func(run string) {
		if run == "first" {
			cancel() // simulate SIGINT during the first step
		}
	}
	e, _ := newTestEngine(scripted)
	pf, pl := pipefileWith(
		pipefile.Step{Run: "first"},
		pipefile.Step{Run: "second"},
	)

	report := e.Run(ctx, pf, pl, Options{})

	if report.Success {
		t.Fatal("Run() should report interruption")
	}
	want := []string{"first"}
	if !slices.Equal(scripted.executed, want) {
		t.Errorf("executed = %v, want %v (no step after cancellation)", scripted.executed, want)
	}
}

func TestEngine_ModeOverride(t *testing.T) {
	t.Parallel()

	reg := runner.NewRegistry()
	native := &scriptedRunner{}
	virtual := &scriptedRunner{}
	reg.Register(runner.KindNative, native)
	reg.Register(runner.KindVirtual, virtual)

	e := NewEngine(reg, log.New(&bytes.Buffer{}))
	e.Stdout = &bytes.Buffer{}
	e.Stderr = &bytes.Buffer{}

	pf, pl := pipefileWith(pipefile.Step{Run: "task"})

	report := e.Run(context.Background(), pf, pl, Options{Mode: pipefile.RunnerVirtual})
	if !report.Success {
		t.Fatalf("Run() failed: %v", report.Failure)
	}
	if len(virtual.executed) != 1 || len(native.executed) != 0 {
		t.Errorf("mode override ignored: native=%d virtual=%d", len(native.executed), len(virtual.executed))
	}
}

func TestEngine_SilentStillRuns(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	reg := runner.NewRegistry()
	scripted := &scriptedRunner{}
	reg.Register(runner.KindNative, scripted)
	e := NewEngine(reg, log.New(&logBuf))
	e.Stdout = &bytes.Buffer{}
	e.Stderr = &bytes.Buffer{}

	pf, pl := pipefileWith(pipefile.Step{Run: "quiet"})

	report := e.Run(context.Background(), pf, pl, Options{Silent: true})
	if !report.Success {
		t.Fatalf("Run() failed: %v", report.Failure)
	}
	if len(scripted.executed) != 1 {
		t.Errorf("runner invoked %d times, want 1", len(scripted.executed))
	}
	if logBuf.Len() != 0 {
		t.Errorf("silent run should not log progress, got %q", logBuf.String())
	}
}

func TestStepFailure_Error(t *testing.T) {
	t.Parallel()

	f := &StepFailure{Index: 3, Dest: "undefined", ExitCode: 2}
	want := "step 3 (undefined) failed with exit code 2"
	if f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}

	cause := errors.New("spawn failed")
	f = &StepFailure{Index: 1, Dest: "dist/a.js", Err: cause}
	if !errors.Is(f, cause) {
		t.Error("StepFailure should unwrap to its cause")
	}
}

func TestResolveTargets(t *testing.T) {
	t.Parallel()

	pf := &pipefile.Pipefile{
		Pipelines: []pipefile.Pipeline{
			{Name: "build", Steps: []pipefile.Step{{Run: "b"}}},
			{Name: "test", Steps: []pipefile.Step{{Run: "t"}}},
			{Name: "docs", Steps: []pipefile.Step{{Run: "d"}}},
		},
		Groups: []pipefile.Group{
			{Name: "default", Pipelines: []string{"build", "test"}},
			{Name: "ci", Pipelines: []string{"test", "build"}},
		},
	}

	names := func(pls []*pipefile.Pipeline) []string {
		out := make([]string, len(pls))
		for i, p := range pls {
			out[i] = p.Name
		}
		return out
	}

	tests := []struct {
		name    string
		targets []string
		want    []string
		wantErr bool
	}{
		{"explicit pipeline", []string{"docs"}, []string{"docs"}, false},
		{"group expansion", []string{"ci"}, []string{"test", "build"}, false},
		{"mixed", []string{"docs", "ci"}, []string{"docs", "test", "build"}, false},
		{"empty uses default group", nil, []string{"build", "test"}, false},
		{"unknown target", []string{"nope"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveTargets(pf, tt.targets)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveTargets() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !slices.Equal(names(got), tt.want) {
				t.Errorf("ResolveTargets() = %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestEngine_RunTargetsFailFastAcrossPipelines(t *testing.T) {
	t.Parallel()

	scripted := &scriptedRunner{failOn: "t"}
	reg := runner.NewRegistry()
	reg.Register(runner.KindNative, scripted)
	e := NewEngine(reg, log.New(&bytes.Buffer{}))
	e.Stdout = &bytes.Buffer{}
	e.Stderr = &bytes.Buffer{}

	pf := &pipefile.Pipefile{
		Pipelines: []pipefile.Pipeline{
			{Name: "build", Steps: []pipefile.Step{{Run: "b"}}},
			{Name: "test", Steps: []pipefile.Step{{Run: "t"}}},
			{Name: "docs", Steps: []pipefile.Step{{Run: "d"}}},
		},
	}

	reports, err := e.RunTargets(context.Background(), pf, []string{"build", "test", "docs"}, Options{})
	if err == nil {
		t.Fatal("RunTargets() should return the failure")
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2 (docs never starts)", len(reports))
	}
	if !reports[0].Success || reports[1].Success {
		t.Errorf("report success flags wrong: %v %v", reports[0].Success, reports[1].Success)
	}
	if !slices.Contains(scripted.executed, "b") || slices.Contains(scripted.executed, "d") {
		t.Errorf("executed = %v, want b,t only", scripted.executed)
	}
}
