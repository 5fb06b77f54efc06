package script

import (
	"path/filepath"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/registry"
)

// installTasks binds the global `tasks` table: `tasks[NAME] = TaskConfig`
// registers a task, `tasks[NAME]` fetches a read-only projection.
func (s *State) installTasks() {
	tbl := s.L.NewTable()
	mt := s.L.NewTable()
	mt.RawSetString("__newindex", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		cfg := L.CheckTable(3)

		handler, ok := cfg.RawGetString("handler").(*lua.LFunction)
		if !ok {
			L.RaiseError("tasks[%q]: handler must be callable", name)
			return 0
		}

		var when *lua.LFunction
		if fn, ok := cfg.RawGetString("when").(*lua.LFunction); ok {
			when = fn
		}

		onFail := registry.OnFailContinue
		if raw, ok := cfg.RawGetString("on_fail").(lua.LString); ok {
			parsed, err := registry.ParseOnFail(string(raw))
			if err != nil {
				L.RaiseError("tasks[%q]: %s", name, err.Error())
				return 0
			}
			onFail = parsed
		}

		important := false
		if b, ok := cfg.RawGetString("important").(lua.LBool); ok {
			important = bool(b)
		}

		tags := stringSet(L, cfg.RawGetString("tags"))
		if tags == nil {
			tags = map[string]struct{}{}
		}
		for _, tag := range implicitTags(callerSourcePath(L)) {
			tags[tag] = struct{}{}
		}

		task := &registry.Task{
			Name:      name,
			Handler:   handler,
			When:      when,
			OnFail:    onFail,
			Tags:      tags,
			Groups:    stringSet(L, cfg.RawGetString("groups")),
			Requires:  stringSet(L, cfg.RawGetString("requires")),
			Important: important,
		}

		if err := s.Tasks.Add(task); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))
	mt.RawSetString("__index", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		task, err := s.Tasks.Get(name)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(readonlyProxy(L, taskTable(L, task)))
		return 1
	}))
	s.L.SetMetatable(tbl, mt)
	s.L.SetGlobal("tasks", tbl)
}

func taskTable(L *lua.LState, task *registry.Task) *lua.LTable {
	data := L.NewTable()
	data.RawSetString("name", lua.LString(task.Name))
	data.RawSetString("handler", task.Handler)
	if task.When != nil {
		data.RawSetString("when", task.When)
	}
	data.RawSetString("on_fail", lua.LString(task.OnFail))
	data.RawSetString("important", lua.LBool(task.Important))
	data.RawSetString("tags", luaTableFromSet(L, task.Tags))
	data.RawSetString("groups", luaTableFromSet(L, task.Groups))
	data.RawSetString("requires", luaTableFromSet(L, task.Requires))

	if state := task.State(); state != nil {
		data.RawSetString("state", lua.LString(*state))
	} else {
		data.RawSetString("state", lua.LNil)
	}
	if errMsg := task.Error(); errMsg != nil {
		data.RawSetString("error", lua.LString(*errMsg))
	} else {
		data.RawSetString("error", lua.LNil)
	}
	if result := task.Result(); result != nil {
		data.RawSetString("result", result)
	} else {
		data.RawSetString("result", lua.LNil)
	}
	return data
}

// whereRe parses gopher-lua's "chunkname:line: " location prefix (the same
// shape RaiseError uses) to recover the calling script's source path.
var whereRe = regexp.MustCompile(`^(.*):(\d+):\s*$`)

func callerSourcePath(L *lua.LState) string {
	where := L.Where(1)
	m := whereRe.FindStringSubmatch(where)
	if m == nil {
		return ""
	}
	path := strings.TrimPrefix(m[1], "@")
	return path
}

// implicitTags returns the source file's stem plus every path component
// above it (skipping root/prefix/"."/".."), per spec.md §4.3's "implicit
// tagging on task registration" rule.
func implicitTags(sourcePath string) []string {
	if sourcePath == "" {
		return nil
	}

	clean := filepath.Clean(sourcePath)
	stem := strings.TrimSuffix(filepath.Base(clean), filepath.Ext(clean))
	tags := []string{stem}

	dir := filepath.Dir(clean)
	for {
		base := filepath.Base(dir)
		if base == "." || base == ".." || base == string(filepath.Separator) || base == "" {
			break
		}
		tags = append(tags, base)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return tags
}
