package script

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// readonlyProxy wraps data in an empty table whose metatable routes reads
// to data and raises on any write, via gopher-lua's standard
// __index/__newindex trick. Used for every registry entry and constant
// table handed back to scripts, per spec.md §4.3's read-only projection
// requirement (and its concrete test, scenario 6 in spec.md §8).
func readonlyProxy(L *lua.LState, data *lua.LTable) *lua.LTable {
	proxy := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", data)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("attempt to modify read-only table")
		return 0
	}))
	L.SetMetatable(proxy, mt)
	return proxy
}

// stringSlice reads a Lua array-like table of strings, e.g. `tags = {"a","b"}`.
func stringSlice(L *lua.LState, v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	tbl.ForEach(func(_, val lua.LValue) {
		out = append(out, lua.LVAsString(val))
	})
	return out
}

// stringSet is stringSlice coerced into a set, the shape Task/Group fields
// actually store.
func stringSet(L *lua.LState, v lua.LValue) map[string]struct{} {
	vals := stringSlice(L, v)
	if vals == nil {
		return nil
	}
	set := make(map[string]struct{}, len(vals))
	for _, s := range vals {
		set[s] = struct{}{}
	}
	return set
}

// sortedKeys returns a stable, alphabetically ordered view of a string set,
// for building deterministic read-only projections.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// luaTableFromSet builds a plain Lua array table from a string set, sorted
// for determinism (registry sets have no meaningful order of their own).
func luaTableFromSet(L *lua.LState, set map[string]struct{}) *lua.LTable {
	tbl := L.NewTable()
	for i, k := range sortedKeys(set) {
		tbl.RawSetInt(i+1, lua.LString(k))
	}
	return tbl
}

// goToLua converts a decoded format.* value (interface{} from
// encoding/json, yaml.v3, or BurntSushi/toml) into a Lua value, coercing
// every map into a nested table with string keys per spec.md §4.3.
func goToLua(L *lua.LState, v interface{}) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case float64:
		return lua.LNumber(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case map[string]interface{}:
		tbl := L.NewTable()
		for k, val := range t {
			tbl.RawSetString(k, goToLua(L, val))
		}
		return tbl
	case map[string]string:
		tbl := L.NewTable()
		for k, val := range t {
			tbl.RawSetString(k, lua.LString(val))
		}
		return tbl
	case []interface{}:
		tbl := L.NewTable()
		for i, val := range t {
			tbl.RawSetInt(i+1, goToLua(L, val))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// luaToGo converts a Lua value into a plain Go value (nested
// map[string]interface{}/[]interface{}) suitable for format.*'s Encode
// functions and for the template-rendering context, coercing every table
// key to a string per spec.md §4.3's "keys coerced to strings" rule.
func luaToGo(v lua.LValue) interface{} {
	switch t := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(t)
	case lua.LString:
		return string(t)
	case lua.LNumber:
		return float64(t)
	case *lua.LTable:
		if isArrayTable(t) {
			out := make([]interface{}, 0, t.Len())
			t.ForEach(func(_, val lua.LValue) {
				out = append(out, luaToGo(val))
			})
			return out
		}
		out := make(map[string]interface{})
		t.ForEach(func(key, val lua.LValue) {
			out[lua.LVAsString(key)] = luaToGo(val)
		})
		return out
	default:
		return lua.LVAsString(v)
	}
}

// isArrayTable reports whether tbl looks like a 1..n sequence with no
// string keys, the heuristic used to decide array vs. object encoding.
func isArrayTable(tbl *lua.LTable) bool {
	n := tbl.Len()
	count := 0
	tbl.ForEach(func(lua.LValue, lua.LValue) { count++ })
	return count == n
}
