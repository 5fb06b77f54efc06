// Package executor implements the per-target task execution driver:
// spec.md §4.6. It owns the single-threaded, sequential scheduling model
// described in §5 — one system at a time, one task at a time, one
// operation at a time — and the on_fail/infrastructure-panic semantics
// that decide what happens after a handler error.
package executor

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/delegator"
	"github.com/myfavshrimp/arc/internal/errutil"
	"github.com/myfavshrimp/arc/internal/progress"
	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/script"
	"github.com/myfavshrimp/arc/internal/selection"
)

// Options controls one run of Execute.
type Options struct {
	DryRun bool
}

// Result summarizes the whole run, for the CLI to compute an exit code
// from: non-zero whenever any task failed, an infrastructure error
// aborted a target, or validation failed before this ran at all.
type Result struct {
	Aborted bool
	Systems []SystemResult
}

type SystemResult struct {
	System  registry.System
	Summary progress.SystemSummary
	Aborted bool
	AbortError error
}

// HasFailures reports whether the run's exit code should be non-zero.
func (r Result) HasFailures() bool {
	if r.Aborted {
		return true
	}
	for _, s := range r.Systems {
		if s.Summary.Failed > 0 || s.Aborted {
			return true
		}
	}
	return false
}

// Execute runs plan.Tasks against every system in plan.Systems, in
// registry order, per spec.md §4.6.
func Execute(ctx context.Context, st *script.State, sink progress.Sink, plan selection.Plan, opts Options) Result {
	var result Result

	for _, sys := range plan.Systems {
		sysResult := runSystem(ctx, st, sink, sys, plan.Tasks, opts)
		result.Systems = append(result.Systems, sysResult)

		if sysResult.Aborted {
			result.Aborted = true
			break
		}
	}

	return result
}

func runSystem(ctx context.Context, st *script.State, sink progress.Sink, sys registry.System, tasks []*registry.Task, opts Options) SystemResult {
	sysLogger := sink.SystemLogger(sys.Name)
	st.ActivateSystem(sysLogger)
	defer st.DeactivateSystem()

	d, err := buildDelegator(ctx, sys, opts)
	if err != nil {
		sysLogger.Log(progress.LevelError, fmt.Sprintf("connect: %s", errutil.Report(err)))
		sysLogger.Finalize(progress.SystemSummary{})
		return SystemResult{System: sys, Aborted: true, AbortError: err}
	}
	defer d.Close()

	handle := script.NewHandle(st.L, sys, d)

	st.Tasks.ResetExecutionState()

	summary := progress.SystemSummary{}
	abortRest := false
	var abortErr error

	for i, task := range tasks {
		if abortRest {
			markSkipped(st.Tasks, task.Name)
			sysLogger.TaskSkip(task.Name)
			summary.Skipped++
			continue
		}

		skipRest, aborted, err := runTask(ctx, st, sysLogger, handle, task)
		switch {
		case aborted:
			abortRest = true
			abortErr = err
			summary.Failed++
			// current task already recorded failed by runTask
		case skipRest:
			abortRest = true
			summary.Failed++
		case err != nil:
			summary.Failed++
		default:
			state := task.State()
			if state != nil && *state == registry.TaskStateSkipped {
				summary.Skipped++
			} else {
				summary.OK++
			}
		}

		if abortRest && i+1 < len(tasks) {
			for _, rest := range tasks[i+1:] {
				markSkipped(st.Tasks, rest.Name)
				sysLogger.TaskSkip(rest.Name)
				summary.Skipped++
			}
			break
		}
	}

	sysLogger.Finalize(summary)

	return SystemResult{System: sys, Summary: summary, Aborted: abortRest && abortErr != nil, AbortError: abortErr}
}

func buildDelegator(ctx context.Context, sys registry.System, opts Options) (*delegator.Delegator, error) {
	if opts.DryRun {
		return delegator.NewDry(), nil
	}
	if sys.IsLocal {
		return delegator.NewLocal(), nil
	}
	return delegator.NewSSH(ctx, sys.Address.String(), sys.Port, sys.User)
}

func markSkipped(tasks *registry.Tasks, name string) {
	_ = tasks.SetState(name, registry.TaskStateSkipped)
}

// runTask runs a single task against handle, returning:
//   - skipRest: this task's on_fail policy is skip_system (skip the rest
//     of this system's tasks, continue with the next system)
//   - aborted: an infrastructure error escaped the handler as a panic, the
//     task's when predicate raised an error, or the task's on_fail policy
//     is abort (halt the entire run)
func runTask(ctx context.Context, st *script.State, sysLogger progress.SystemLogger, handle *lua.LUserData, task *registry.Task) (skipRest bool, aborted bool, err error) {
	if task.When != nil {
		truthy, werr := callPredicate(st.L, task.When, handle)
		if werr != nil {
			_ = st.Tasks.SetState(task.Name, registry.TaskStateFailed)
			_ = st.Tasks.SetError(task.Name, werr.Error())
			sysLogger.TaskAbort(task.Name)
			return false, true, werr
		}
		if !truthy {
			_ = st.Tasks.SetState(task.Name, registry.TaskStateSkipped)
			sysLogger.TaskSkip(task.Name)
			return false, false, nil
		}
	}

	taskLogger := sysLogger.TaskLogger(task.Name)
	st.ActivateTask(taskLogger)

	if sh, ok := handle.Value.(*script.SystemHandle); ok {
		sh.D.SetTaskLogger(taskLogger)
		defer sh.D.SetTaskLogger(nil)
	}

	result, handlerErr := callHandlerRecovered(st.L, task.Handler, handle)

	if handlerErr != nil {
		if infra, ok := handlerErr.(infrastructureEscape); ok {
			_ = st.Tasks.SetState(task.Name, registry.TaskStateFailed)
			_ = st.Tasks.SetError(task.Name, errutil.Report(infra.err))
			taskLogger.End("failed")
			st.DeactivateTask()
			return false, true, infra.err
		}

		_ = st.Tasks.SetState(task.Name, registry.TaskStateFailed)
		_ = st.Tasks.SetError(task.Name, handlerErr.Error())
		taskLogger.End("failed")
		st.DeactivateTask()

		switch task.OnFail {
		case registry.OnFailSkipSystem:
			return true, false, handlerErr
		case registry.OnFailAbort:
			return false, true, handlerErr
		default:
			return false, false, handlerErr
		}
	}

	_ = st.Tasks.SetState(task.Name, registry.TaskStateSuccess)
	_ = st.Tasks.SetResult(task.Name, result)
	taskLogger.End("success")
	st.DeactivateTask()
	return false, false, nil
}

// infrastructureEscape marks a handler error that reached runTask via a
// recovered Go panic rather than a Lua runtime error — i.e. it crossed
// the FFI boundary as an InfrastructureError, per spec.md §4.1.
type infrastructureEscape struct{ err error }

func (i infrastructureEscape) Error() string { return i.err.Error() }

func callPredicate(L *lua.LState, fn *lua.LFunction, arg lua.LValue) (bool, error) {
	result, err := callHandlerRecovered(L, fn, arg)
	if err != nil {
		if infra, ok := err.(infrastructureEscape); ok {
			return false, infra.err
		}
		return false, err
	}
	return lua.LVAsBool(result), nil
}

// callHandlerRecovered invokes fn(arg) and tells an infrastructure error
// apart from an ordinary Lua runtime error: this is the other half of the
// FFI boundary rule (handle.go's raiseAcrossFFI is the first half).
// raiseAcrossFFI raises an infrastructure error as a bare Go panic.
// gopher-lua's protected call converts a Go panic into a *lua.ApiError of
// type ApiErrorPanic that carries only the panic's message; a panic that
// reaches this function unconverted is recovered here. Both are wrapped as
// infrastructureEscape and treated as an abort regardless of the task's
// on_fail policy.
func callHandlerRecovered(L *lua.LState, fn *lua.LFunction, arg lua.LValue) (result lua.LValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = infrastructureEscape{err: e}
				return
			}
			err = infrastructureEscape{err: fmt.Errorf("%v", r)}
		}
	}()

	if callErr := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg); callErr != nil {
		if apiErr, ok := callErr.(*lua.ApiError); ok && apiErr.Type == lua.ApiErrorPanic {
			return nil, infrastructureEscape{err: fmt.Errorf("%s", apiErr.Object.String())}
		}
		return nil, callErr
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
