package script

import (
	lua "github.com/yuin/gopher-lua"
)

// moduleName is the global table holding the editor API.
const moduleName = "cly"

// registerModule installs the cly module. Module functions run inside
// DoString, DoFile, or a dispatched handler, where the engine lock is
// already held, so they go straight to the editor and never back through
// the engine's locked surface.
func (e *Engine) registerModule() {
	L := e.state
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"bind":            e.luaBind,
		"unbind":          e.luaUnbind,
		"cursor":          e.luaCursor,
		"force_redisplay": e.luaForceRedisplay,
		"buffer":          e.luaBuffer,
		"insert":          e.luaInsert,
		"print":           e.luaPrint,
	})
	L.SetGlobal(moduleName, mod)
}

// cly.bind(key, fn)
func (e *Engine) luaBind(L *lua.LState) int {
	key := L.CheckInt(1)
	fn := L.CheckFunction(2)
	if err := e.Bind(key, fn); err != nil {
		L.RaiseError("bind: %s", err.Error())
	}
	return 0
}

// cly.unbind(key)
func (e *Engine) luaUnbind(L *lua.LState) int {
	if err := e.editor.UnbindKey(L.CheckInt(1)); err != nil {
		L.RaiseError("unbind: %s", err.Error())
	}
	return 0
}

// cly.cursor([offset]) -> offset
func (e *Engine) luaCursor(L *lua.LState) int {
	if L.GetTop() >= 1 {
		L.Push(lua.LNumber(e.editor.SetCursor(L.CheckInt(1))))
	} else {
		L.Push(lua.LNumber(e.editor.Cursor()))
	}
	return 1
}

// cly.force_redisplay()
func (e *Engine) luaForceRedisplay(_ *lua.LState) int {
	e.editor.ForceRedisplay()
	return 0
}

// cly.buffer() -> text
func (e *Engine) luaBuffer(L *lua.LState) int {
	L.Push(lua.LString(e.editor.Buffer()))
	return 1
}

// cly.insert(text)
func (e *Engine) luaInsert(L *lua.LState) int {
	e.editor.Insert(L.CheckString(1))
	return 0
}

// cly.print(text)
func (e *Engine) luaPrint(L *lua.LState) int {
	e.editor.Print(L.CheckString(1))
	return 0
}
