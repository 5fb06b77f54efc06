// Package script wires the embedded Lua runtime to the engine: the
// systems/groups/tasks registries are populated through bindings this
// package installs, and the per-target SystemHandle/Delegator pairing is
// exposed back to task handlers. Grounded on chalkan3-sloth-sloth-runner's
// internal/taskrunner + internal/luainterface (the pack's one complete
// gopher-lua embedding) for the general shape of state-holding around a
// *lua.LState and of LUserData/metatable-based object handles.
package script

import (
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/progress"
	"github.com/myfavshrimp/arc/internal/registry"
)

// State owns the Lua VM and the registries it populates while loading a
// recipe. One State is created per run and lives until the run ends: the
// executor driver calls task handlers on its VM and records task state in
// its registries.
type State struct {
	L       *lua.LState
	Systems *registry.Systems
	Groups  *registry.Groups
	Tasks   *registry.Tasks

	projectRoot string

	sink         progress.Sink
	activeTask   progress.TaskLogger
	activeSys    progress.SystemLogger
	globalLogger progress.SystemLogger
}

// New creates a State rooted at projectRoot (the directory containing
// arc.lua) and installs every binding named in spec.md §4.3.
func New(projectRoot string, sink progress.Sink) *State {
	s := &State{
		L:           lua.NewState(),
		Systems:     registry.NewSystems(),
		Groups:      registry.NewGroups(),
		Tasks:       registry.NewTasks(),
		projectRoot: projectRoot,
		sink:        sink,
	}
	s.install()
	return s
}

// Close releases the Lua VM. Safe to call after LoadFile returns or panics.
func (s *State) Close() {
	s.L.Close()
}

// LoadFile evaluates the recipe at path (normally "arc.lua"), populating
// the registries as a side effect. Script-level errors surface here as a
// plain Go error (there is no handler context yet to make them catchable
// in Lua, since loading happens before any task runs).
func (s *State) LoadFile(path string) error {
	return s.L.DoFile(path)
}

func (s *State) install() {
	s.installSystems()
	s.installGroups()
	s.installTasks()
	s.installHost()
	s.installArc()
	s.installEnv()
	s.installFormat()
	s.installTemplate()
	s.installLog()
}

func (s *State) homePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func (s *State) installArc() {
	tbl := s.L.NewTable()
	tbl.RawSetString("project_root_path", lua.LString(filepath.Clean(s.projectRoot)))
	tbl.RawSetString("home_path", lua.LString(s.homePath()))
	s.L.SetGlobal("arc", readonlyProxy(s.L, tbl))
}

func (s *State) installEnv() {
	tbl := s.L.NewTable()
	tbl.RawSetString("get", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := os.LookupEnv(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(v))
		return 1
	}))
	s.L.SetGlobal("env", tbl)
}

// logMessage routes to the active task logger if one is active, else the
// active system logger, else the sink's global logger — matching spec.md
// §4.7's "routed to the currently active task if one is active, else
// global" log-attribution rule. The global logger is used for log/print
// calls made outside any system/task pass, i.e. during script load.
func (s *State) logMessage(level progress.Level, message string) {
	if s.activeTask != nil {
		s.activeTask.Log(level, message)
		return
	}
	if s.activeSys != nil {
		s.activeSys.Log(level, message)
		return
	}
	if s.globalLogger == nil {
		s.globalLogger = s.sink.SystemLogger("script")
	}
	s.globalLogger.Log(level, message)
}

// ActivateTask/DeactivateTask are called by the executor driver around a
// handler invocation so log/print calls made from within it attribute to
// the right task line.
func (s *State) ActivateSystem(sys progress.SystemLogger) { s.activeSys = sys }
func (s *State) ActivateTask(task progress.TaskLogger)    { s.activeTask = task }
func (s *State) DeactivateTask()                          { s.activeTask = nil }
func (s *State) DeactivateSystem()                         { s.activeSys = nil }
