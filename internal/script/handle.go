package script

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/myfavshrimp/arc/internal/delegator"
	"github.com/myfavshrimp/arc/internal/errutil"
	"github.com/myfavshrimp/arc/internal/registry"
)

// SystemHandle is the per-target object passed to every task handler
// (spec.md §3). It pairs a Delegator with the system's identity fields
// and is exposed to Lua as userdata with method-table dispatch — the
// canonical gopher-lua pattern for a Go-backed object type (mirroring how
// chalkan3-sloth-sloth-runner's taskrunner builds its "this" object via a
// metatable __index function over an LUserData).
type SystemHandle struct {
	System registry.System
	D      *delegator.Delegator
}

const systemHandleTypeName = "system_handle"
const fileHandleTypeName = "file_handle"
const dirHandleTypeName = "directory_handle"

func (s *State) installHost() {
	registerSystemHandleType(s.L)
	registerFileHandleType(s.L)
	registerDirHandleType(s.L)
}

// NewHandle wires sys/d into a fresh LUserData of type "system_handle",
// for the executor driver to bind as `host` (Local) or pass to a task
// handler as its argument (Remote/Dry, depending on --dry-run).
func NewHandle(L *lua.LState, sys registry.System, d *delegator.Delegator) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &SystemHandle{System: sys, D: d}
	L.SetMetatable(ud, L.GetTypeMetatable(systemHandleTypeName))
	return ud
}

// BindHost installs `host` as a SystemHandle over the local machine,
// usable at any point (script load or task execution), per spec.md §4.3.
func (s *State) BindHost(d *delegator.Delegator) {
	local := registry.System{Name: "localhost", IsLocal: true}
	s.L.SetGlobal("host", NewHandle(s.L, local, d))
}

func registerSystemHandleType(L *lua.LState) {
	mt := L.NewTypeMetatable(systemHandleTypeName)
	L.SetField(mt, "__index", L.NewFunction(systemHandleIndex))
}

func checkSystemHandle(L *lua.LState, idx int) *SystemHandle {
	ud := L.CheckUserData(idx)
	h, ok := ud.Value.(*SystemHandle)
	if !ok {
		L.ArgError(idx, "system handle expected")
	}
	return h
}

var systemHandleMethods = map[string]lua.LGFunction{
	"file":        systemHandleFile,
	"directory":   systemHandleDirectory,
	"run_command": systemHandleRunCommand,
}

// systemHandleIndex dispatches `host.<key>`/`host:<key>(...)`: identity
// fields (name, address, port, user, is_local) resolve as plain values,
// everything else resolves to a callable method.
func systemHandleIndex(L *lua.LState) int {
	h := checkSystemHandle(L, 1)
	key := L.CheckString(2)

	switch key {
	case "name":
		L.Push(lua.LString(h.System.Name))
		return 1
	case "is_local":
		L.Push(lua.LBool(h.System.IsLocal))
		return 1
	case "address":
		if h.System.IsLocal {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(h.System.Address.String()))
		}
		return 1
	case "port":
		L.Push(lua.LNumber(h.System.Port))
		return 1
	case "user":
		L.Push(lua.LString(h.System.User))
		return 1
	}

	if fn, ok := systemHandleMethods[key]; ok {
		L.Push(L.NewFunction(fn))
		return 1
	}

	L.RaiseError("system handle: unknown field %q", key)
	return 0
}

func systemHandleFile(L *lua.LState) int {
	h := checkSystemHandle(L, 1)
	path := L.CheckString(2)
	L.Push(newFileHandle(L, h.D, path))
	return 1
}

func systemHandleDirectory(L *lua.LState) int {
	h := checkSystemHandle(L, 1)
	path := L.CheckString(2)
	L.Push(newDirHandle(L, h.D, path))
	return 1
}

func systemHandleRunCommand(L *lua.LState) int {
	h := checkSystemHandle(L, 1)
	cmd := L.CheckString(2)
	result, err := h.D.RunCommand(context.Background(), cmd)
	if err != nil {
		raiseAcrossFFI(L, err)
		return 0
	}
	tbl := L.NewTable()
	tbl.RawSetString("stdout", lua.LString(result.Stdout))
	tbl.RawSetString("stderr", lua.LString(result.Stderr))
	tbl.RawSetString("exit_code", lua.LNumber(result.ExitCode))
	L.Push(tbl)
	return 1
}

// raiseAcrossFFI implements spec.md §4.1's FFI boundary rule: user errors
// become a catchable Lua runtime error; infrastructure errors escape as a
// bare Go panic, which gopher-lua's pcall does not recover (it only
// recovers its own *lua.ApiError), so it propagates uncaught past any
// script-level pcall straight to the executor driver.
func raiseAcrossFFI(L *lua.LState, err error) {
	if errutil.IsUserError(err) {
		L.RaiseError("%s", errutil.Report(err))
		return
	}
	panic(err)
}

// --- File handle ---

type fileHandle struct {
	d    *delegator.Delegator
	path string
}

func newFileHandle(L *lua.LState, d *delegator.Delegator, path string) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &fileHandle{d: d, path: path}
	L.SetMetatable(ud, L.GetTypeMetatable(fileHandleTypeName))
	return ud
}

func registerFileHandleType(L *lua.LState) {
	mt := L.NewTypeMetatable(fileHandleTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), fileHandleMethods))
	// Assigning to `.path` renames the underlying file — spec.md §9's
	// "rename-vs-path setter aliasing" open question, preserved here for
	// drop-in script compatibility per the spec's recommendation.
	L.SetField(mt, "__newindex", L.NewFunction(fileHandleNewIndex))
}

func checkFileHandle(L *lua.LState, idx int) *fileHandle {
	ud := L.CheckUserData(idx)
	f, ok := ud.Value.(*fileHandle)
	if !ok {
		L.ArgError(idx, "file handle expected")
	}
	return f
}

func fileHandleNewIndex(L *lua.LState) int {
	f := checkFileHandle(L, 1)
	key := L.CheckString(2)
	if key != "path" {
		L.RaiseError("file handle: unknown field %q", key)
		return 0
	}
	newPath := L.CheckString(3)
	if err := f.d.Rename(context.Background(), f.path, newPath); err != nil {
		raiseAcrossFFI(L, err)
		return 0
	}
	f.path = newPath
	return 0
}

var fileHandleMethods = map[string]lua.LGFunction{
	"read": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		data, err := f.d.ReadFile(context.Background(), f.path)
		if err != nil {
			raiseAcrossFFI(L, err)
			return 0
		}
		L.Push(lua.LString(data))
		return 1
	},
	"write": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		content := L.CheckString(2)
		result, err := f.d.WriteFile(context.Background(), f.path, []byte(content))
		if err != nil {
			raiseAcrossFFI(L, err)
			return 0
		}
		tbl := L.NewTable()
		tbl.RawSetString("path", lua.LString(result.Path))
		tbl.RawSetString("bytes_written", lua.LNumber(result.BytesWritten))
		L.Push(tbl)
		return 1
	},
	"remove": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		if err := f.d.RemoveFile(context.Background(), f.path); err != nil {
			raiseAcrossFFI(L, err)
		}
		return 0
	},
	"rename": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		to := L.CheckString(2)
		if err := f.d.Rename(context.Background(), f.path, to); err != nil {
			raiseAcrossFFI(L, err)
			return 0
		}
		f.path = to
		return 0
	},
	"set_permissions": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		mode := uint32(L.CheckNumber(2))
		if err := f.d.SetPermissions(context.Background(), f.path, mode); err != nil {
			raiseAcrossFFI(L, err)
		}
		return 0
	},
	"metadata": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		md, err := f.d.Metadata(context.Background(), f.path)
		if err != nil {
			raiseAcrossFFI(L, err)
			return 0
		}
		L.Push(metadataTable(L, md))
		return 1
	},
	"path": func(L *lua.LState) int {
		f := checkFileHandle(L, 1)
		L.Push(lua.LString(f.path))
		return 1
	},
}

// --- Directory handle ---

type dirHandle struct {
	d    *delegator.Delegator
	path string
}

func newDirHandle(L *lua.LState, d *delegator.Delegator, path string) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &dirHandle{d: d, path: path}
	L.SetMetatable(ud, L.GetTypeMetatable(dirHandleTypeName))
	return ud
}

func registerDirHandleType(L *lua.LState) {
	mt := L.NewTypeMetatable(dirHandleTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), dirHandleMethods))
}

func checkDirHandle(L *lua.LState, idx int) *dirHandle {
	ud := L.CheckUserData(idx)
	d, ok := ud.Value.(*dirHandle)
	if !ok {
		L.ArgError(idx, "directory handle expected")
	}
	return d
}

var dirHandleMethods = map[string]lua.LGFunction{
	"create": func(L *lua.LState) int {
		dh := checkDirHandle(L, 1)
		if err := dh.d.CreateDirectory(context.Background(), dh.path); err != nil {
			raiseAcrossFFI(L, err)
		}
		return 0
	},
	"remove": func(L *lua.LState) int {
		dh := checkDirHandle(L, 1)
		if err := dh.d.RemoveDirectory(context.Background(), dh.path); err != nil {
			raiseAcrossFFI(L, err)
		}
		return 0
	},
	"list": func(L *lua.LState) int {
		dh := checkDirHandle(L, 1)
		entries, err := dh.d.ListDirectory(context.Background(), dh.path)
		if err != nil {
			raiseAcrossFFI(L, err)
			return 0
		}
		tbl := L.NewTable()
		for i, e := range entries {
			tbl.RawSetInt(i+1, metadataTable(L, &e))
		}
		L.Push(tbl)
		return 1
	},
	"path": func(L *lua.LState) int {
		dh := checkDirHandle(L, 1)
		L.Push(lua.LString(dh.path))
		return 1
	},
}

func metadataTable(L *lua.LState, md *delegator.MetadataResult) *lua.LTable {
	tbl := L.NewTable()
	if md == nil {
		return tbl
	}
	tbl.RawSetString("path", lua.LString(md.Path))
	tbl.RawSetString("type", lua.LString(md.Kind.String()))
	if md.Size != nil {
		tbl.RawSetString("size", lua.LNumber(*md.Size))
	}
	if md.Permissions != nil {
		tbl.RawSetString("permissions", lua.LNumber(*md.Permissions))
	}
	if md.UID != nil {
		tbl.RawSetString("uid", lua.LNumber(*md.UID))
	}
	if md.GID != nil {
		tbl.RawSetString("gid", lua.LNumber(*md.GID))
	}
	if md.Accessed != nil {
		tbl.RawSetString("accessed", lua.LNumber(*md.Accessed))
	}
	if md.Modified != nil {
		tbl.RawSetString("modified", lua.LNumber(*md.Modified))
	}
	return tbl
}
