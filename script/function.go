package script

import (
	lua "github.com/yuin/gopher-lua"
)

// Function is a key binding handler backed by a Lua function. The prompt's
// input loop treats it like any other handler; Invoke crosses into the
// interpreter and back.
type Function struct {
	engine *Engine
	fn     *lua.LFunction
}

// Invoke runs the Lua function as fn(count, key). A script error or a
// closed engine is reported to the binding table's error hook, not raised
// to the caller's session.
func (f *Function) Invoke(count, key int) error {
	return f.engine.call(f.fn, count, key)
}
