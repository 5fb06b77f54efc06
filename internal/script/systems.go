package script

import (
	"net"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/registry"
)

// installSystems binds the global `systems` table: `systems[NAME] = {...}`
// registers a remote system (address/port/user); `systems[NAME]` fetches a
// read-only projection. Per spec.md §4.3, address must parse as an IP and
// port defaults to 22.
func (s *State) installSystems() {
	tbl := s.L.NewTable()
	mt := s.L.NewTable()
	mt.RawSetString("__newindex", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		cfg := L.CheckTable(3)

		addrStr := lua.LVAsString(cfg.RawGetString("address"))
		ip := net.ParseIP(addrStr)
		if ip == nil {
			L.RaiseError("systems[%q]: address %q is not a valid IP", name, addrStr)
			return 0
		}

		port := uint16(22)
		if p, ok := cfg.RawGetString("port").(lua.LNumber); ok {
			port = uint16(p)
		}

		user := lua.LVAsString(cfg.RawGetString("user"))

		sys := registry.System{Name: name, IsLocal: false, Address: ip, Port: port, User: user}
		if err := s.Systems.Add(sys); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		return 0
	}))
	mt.RawSetString("__index", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		sys, err := s.Systems.Get(name)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(readonlyProxy(L, systemTable(L, sys)))
		return 1
	}))
	s.L.SetMetatable(tbl, mt)
	s.L.SetGlobal("systems", tbl)
}

func systemTable(L *lua.LState, sys registry.System) *lua.LTable {
	data := L.NewTable()
	data.RawSetString("name", lua.LString(sys.Name))
	data.RawSetString("is_local", lua.LBool(sys.IsLocal))
	if !sys.IsLocal {
		data.RawSetString("address", lua.LString(sys.Address.String()))
		data.RawSetString("port", lua.LNumber(sys.Port))
		data.RawSetString("user", lua.LString(sys.User))
	}
	return data
}
