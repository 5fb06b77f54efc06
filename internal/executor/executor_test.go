package executor

import (
	"context"
	"errors"
	"os"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/progress"
	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/script"
	"github.com/myfavshrimp/arc/internal/selection"
)

// luaHandler compiles body as the contents of a one-argument function and
// returns it bound to a unique global so multiple handlers can coexist in
// the same *lua.LState.
func luaHandler(t *testing.T, st *script.State, name, body string) *lua.LFunction {
	t.Helper()
	src := name + " = function(host)\n" + body + "\nend"
	if err := st.L.DoString(src); err != nil {
		t.Fatalf("compiling handler %s: %v", name, err)
	}
	fn, ok := st.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		t.Fatalf("handler %s did not compile to a function", name)
	}
	return fn
}

func newTestState(t *testing.T) *script.State {
	t.Helper()
	st := script.New(t.TempDir(), progress.NoopSink{})
	t.Cleanup(st.Close)
	return st
}

func TestExecuteDefaultOnFailContinuesAcrossSystems(t *testing.T) {
	st := newTestState(t)

	handler := luaHandler(t, st, "h1", `
		if host.name == "sys1" then error("boom") end
		return true
	`)

	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{Name: "t", Handler: handler, OnFail: registry.OnFailContinue})

	plan := selection.Plan{
		Systems: []registry.System{
			{Name: "sys1", IsLocal: true},
			{Name: "sys2", IsLocal: true},
		},
		Tasks: tasks.All(),
	}

	result := Execute(context.Background(), st, progress.NoopSink{}, plan, Options{})

	if result.Aborted {
		t.Fatal("a continue-policy failure must not abort the run")
	}
	if len(result.Systems) != 2 {
		t.Fatalf("expected both systems to run, got %d", len(result.Systems))
	}
	if result.Systems[0].Summary.Failed != 1 {
		t.Fatalf("sys1 should have 1 failed task, got %+v", result.Systems[0].Summary)
	}
	if result.Systems[1].Summary.OK != 1 {
		t.Fatalf("sys2 should have 1 ok task, got %+v", result.Systems[1].Summary)
	}
	if !result.HasFailures() {
		t.Fatal("a failed task anywhere must make HasFailures true")
	}
}

func TestExecuteSkipSystemStopsOnlyThatSystem(t *testing.T) {
	st := newTestState(t)

	failing := luaHandler(t, st, "h2a", `
		if host.name == "sys1" then error("boom") end
		return true
	`)
	always := luaHandler(t, st, "h2b", `return true`)

	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{Name: "a", Handler: failing, OnFail: registry.OnFailSkipSystem})
	_ = tasks.Add(&registry.Task{Name: "b", Handler: always, OnFail: registry.OnFailContinue})

	plan := selection.Plan{
		Systems: []registry.System{
			{Name: "sys1", IsLocal: true},
			{Name: "sys2", IsLocal: true},
		},
		Tasks: tasks.All(),
	}

	result := Execute(context.Background(), st, progress.NoopSink{}, plan, Options{})

	if result.Aborted {
		t.Fatal("skip_system must not abort the whole run")
	}
	if len(result.Systems) != 2 {
		t.Fatalf("expected both systems to run, got %d", len(result.Systems))
	}

	sys1 := result.Systems[0]
	if sys1.Aborted {
		t.Fatal("sys1's SystemResult must not be marked aborted for a skip_system failure")
	}
	if sys1.Summary.Failed != 1 || sys1.Summary.Skipped != 1 {
		t.Fatalf("sys1 expected 1 failed + 1 skipped, got %+v", sys1.Summary)
	}

	sys2 := result.Systems[1]
	if sys2.Summary.OK != 2 {
		t.Fatalf("sys2 expected both tasks to succeed, got %+v", sys2.Summary)
	}
}

func TestExecuteAbortHaltsEntireRun(t *testing.T) {
	st := newTestState(t)

	failing := luaHandler(t, st, "h3", `
		if host.name == "sys1" then error("boom") end
		return true
	`)

	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{Name: "a", Handler: failing, OnFail: registry.OnFailAbort})

	plan := selection.Plan{
		Systems: []registry.System{
			{Name: "sys1", IsLocal: true},
			{Name: "sys2", IsLocal: true},
		},
		Tasks: tasks.All(),
	}

	result := Execute(context.Background(), st, progress.NoopSink{}, plan, Options{})

	if !result.Aborted {
		t.Fatal("an abort-policy failure must abort the whole run")
	}
	if len(result.Systems) != 1 {
		t.Fatalf("sys2 must never run after an abort, got %d systems processed", len(result.Systems))
	}
	if !result.Systems[0].Aborted || result.Systems[0].AbortError == nil {
		t.Fatalf("sys1's SystemResult must record the abort and its cause, got %+v", result.Systems[0])
	}
}

func TestExecuteWhenPredicateSkipsTask(t *testing.T) {
	st := newTestState(t)

	handler := luaHandler(t, st, "h4", `return true`)
	predicate := luaHandler(t, st, "w4", `return false`)

	// The executor records a when-skip on the state's own task registry, so
	// the planned task must come from st.Tasks.
	tasks := st.Tasks
	_ = tasks.Add(&registry.Task{Name: "t", Handler: handler, When: predicate, OnFail: registry.OnFailContinue})

	plan := selection.Plan{
		Systems: []registry.System{{Name: "sys1", IsLocal: true}},
		Tasks:   tasks.All(),
	}

	result := Execute(context.Background(), st, progress.NoopSink{}, plan, Options{})

	if result.Systems[0].Summary.Skipped != 1 {
		t.Fatalf("a falsy when predicate must skip the task, got %+v", result.Systems[0].Summary)
	}
	if result.HasFailures() {
		t.Fatal("skipping via when must not count as a failure")
	}
}

func TestExecuteDryRunDoesNotTouchLocalFilesystem(t *testing.T) {
	st := newTestState(t)
	dir := t.TempDir()

	if err := st.L.DoString(`TARGET = "` + dir + `/never-written"`); err != nil {
		t.Fatalf("setting target global: %v", err)
	}
	handler := luaHandler(t, st, "h5", `
		host:file(TARGET):write("data")
		return true
	`)

	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{Name: "t", Handler: handler, OnFail: registry.OnFailContinue})

	plan := selection.Plan{
		Systems: []registry.System{{Name: "sys1", IsLocal: true}},
		Tasks:   tasks.All(),
	}

	result := Execute(context.Background(), st, progress.NoopSink{}, plan, Options{DryRun: true})

	if result.HasFailures() {
		t.Fatalf("dry run should not fail, got %+v", result)
	}
	if _, statErr := os.Stat(dir + "/never-written"); !os.IsNotExist(statErr) {
		t.Fatal("dry run must not create the target file")
	}
}

func TestCallHandlerRecoveredCatchesInfrastructurePanic(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	fn := L.NewFunction(func(L *lua.LState) int {
		panic(errors.New("ssh session lost"))
	})

	_, err := callHandlerRecovered(L, fn, lua.LNil)
	if err == nil {
		t.Fatal("expected an error from a panicking handler")
	}
	infra, ok := err.(infrastructureEscape)
	if !ok {
		t.Fatalf("expected infrastructureEscape, got %T", err)
	}
	if infra.err.Error() != "ssh session lost" {
		t.Fatalf("unexpected wrapped error: %v", infra.err)
	}
}

func TestCallHandlerRecoveredPropagatesOrdinaryLuaError(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(`fn = function() error("not infrastructure") end`); err != nil {
		t.Fatalf("compiling: %v", err)
	}
	fn, ok := L.GetGlobal("fn").(*lua.LFunction)
	if !ok {
		t.Fatal("expected a function")
	}

	_, err := callHandlerRecovered(L, fn, lua.LNil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(infrastructureEscape); ok {
		t.Fatal("an ordinary script error must not be classified as an infrastructure escape")
	}
}
