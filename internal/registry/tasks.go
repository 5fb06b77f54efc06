package registry

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// OnFail is a task's declarative failure policy.
type OnFail string

const (
	OnFailContinue    OnFail = "continue"
	OnFailSkipSystem  OnFail = "skip_system"
	OnFailAbort       OnFail = "abort"
)

// ParseOnFail validates a script-supplied on_fail string, surfacing a parse
// error for anything outside the three known variants.
func ParseOnFail(s string) (OnFail, error) {
	switch OnFail(s) {
	case OnFailContinue, OnFailSkipSystem, OnFailAbort:
		return OnFail(s), nil
	default:
		return "", &InvalidOnFailError{Value: s}
	}
}

type InvalidOnFailError struct{ Value string }

func (e *InvalidOnFailError) Error() string {
	return "on_fail: unknown value " + e.Value + " (expected continue, skip_system, or abort)"
}

// TaskState is the execution-phase state of a task for one target pass.
type TaskState string

const (
	TaskStateSuccess TaskState = "success"
	TaskStateFailed  TaskState = "failed"
	TaskStateSkipped TaskState = "skipped"
)

// Task is a named, script-registered unit of work. Handler/When are Lua
// closures invoked with one SystemHandle-shaped argument; Result/State/Error
// are execution-phase fields reset before each target pass.
type Task struct {
	Name      string
	Handler   *lua.LFunction
	When      *lua.LFunction
	OnFail    OnFail
	Tags      map[string]struct{}
	Groups    map[string]struct{}
	Requires  map[string]struct{}
	Important bool

	mu     sync.Mutex
	result lua.LValue
	state  *TaskState
	err    *string
}

// Tasks is the process-wide registry of tasks. Task order is preserved:
// iteration follows registration order, filtered by selection.
type Tasks struct {
	e *entries[*Task]
}

func NewTasks() *Tasks {
	return &Tasks{e: newEntries[*Task]("task")}
}

// Add registers t, auto-inserting t.Name into t.Tags per spec.md §3's
// insertion invariant.
func (t *Tasks) Add(task *Task) error {
	if task.Tags == nil {
		task.Tags = map[string]struct{}{}
	}
	task.Tags[task.Name] = struct{}{}
	if task.OnFail == "" {
		task.OnFail = OnFailContinue
	}
	return t.e.add(task.Name, task)
}

func (t *Tasks) Get(name string) (*Task, error) {
	return t.e.get(name)
}

func (t *Tasks) Has(name string) bool {
	return t.e.has(name)
}

func (t *Tasks) All() []*Task {
	return t.e.all()
}

func (t *Tasks) Names() []string {
	return t.e.names()
}

// ResetExecutionState clears Result/State/Error on every registered task,
// ready for the next target pass.
func (t *Tasks) ResetExecutionState() {
	for _, task := range t.e.all() {
		task.mu.Lock()
		task.result = lua.LNil
		task.state = nil
		task.err = nil
		task.mu.Unlock()
	}
}

func (t *Tasks) SetResult(name string, value lua.LValue) error {
	task, err := t.e.get(name)
	if err != nil {
		return err
	}
	task.mu.Lock()
	task.result = value
	task.mu.Unlock()
	return nil
}

func (t *Tasks) SetState(name string, state TaskState) error {
	task, err := t.e.get(name)
	if err != nil {
		return err
	}
	task.mu.Lock()
	task.state = &state
	task.mu.Unlock()
	return nil
}

func (t *Tasks) SetError(name string, message string) error {
	task, err := t.e.get(name)
	if err != nil {
		return err
	}
	task.mu.Lock()
	task.err = &message
	task.mu.Unlock()
	return nil
}

// Result, State, Error read back a task's current execution-phase fields.
func (task *Task) Result() lua.LValue {
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.result
}

func (task *Task) State() *TaskState {
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.state
}

func (task *Task) Error() *string {
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.err
}
