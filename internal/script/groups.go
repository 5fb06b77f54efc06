package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/registry"
)

// installGroups binds the global `groups` table, mirroring installSystems.
func (s *State) installGroups() {
	tbl := s.L.NewTable()
	mt := s.L.NewTable()
	mt.RawSetString("__newindex", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		cfg := L.CheckTable(3)

		members := stringSlice(L, cfg.RawGetString("members"))

		group := registry.Group{Name: name, Members: members}
		if err := s.Groups.Add(group); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))
	mt.RawSetString("__index", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		group, err := s.Groups.Get(name)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		data := L.NewTable()
		data.RawSetString("name", lua.LString(group.Name))
		members := L.NewTable()
		for i, m := range group.Members {
			members.RawSetInt(i+1, lua.LString(m))
		}
		data.RawSetString("members", members)
		L.Push(readonlyProxy(L, data))
		return 1
	}))
	s.L.SetMetatable(tbl, mt)
	s.L.SetGlobal("groups", tbl)
}
