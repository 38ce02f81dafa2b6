package plugin

import (
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

const (
	luaFactory    = "getPlugin"
	luaDestructor = "deletePlugin"
)

// LuaPlugin is the value returned by a script's getPlugin function together
// with the interpreter that owns it.
type LuaPlugin struct {
	State *lua.LState
	Value lua.LValue
}

// Call invokes the method name of a table plugin with the plugin as first
// argument, and returns its first result.
func (p *LuaPlugin) Call(name string, args ...lua.LValue) (lua.LValue, error) {
	if p.Value.Type() != lua.LTTable {
		return lua.LNil, errors.Errorf("plugin value is a %s, not a table", p.Value.Type())
	}
	fn := p.State.GetField(p.Value, name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, errors.Wrap(ErrSymbolNotFound, name)
	}
	if err := p.State.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, append([]lua.LValue{p.Value}, args...)...); err != nil {
		return lua.LNil, errors.Wrapf(err, "call %s", name)
	}
	ret := p.State.Get(-1)
	p.State.Pop(1)
	return ret, nil
}

// Lua runs plugin scripts with gopher-lua. A script defines the global
// functions getPlugin, returning the plugin value, and deletePlugin, which
// receives it back on unload. Each script gets its own interpreter.
func Lua() Provider[*LuaPlugin] {
	return ProviderFunc[*LuaPlugin](openLua)
}

type luaLibrary struct {
	state      *lua.LState
	factory    lua.LValue
	destructor lua.LValue
}

func openLua(path string) (Library[*LuaPlugin], error) {
	L := lua.NewState(lua.Options{})
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, err
	}

	factory := L.GetGlobal(luaFactory)
	if factory.Type() != lua.LTFunction {
		L.Close()
		return nil, errors.Wrap(ErrSymbolNotFound, luaFactory)
	}
	destructor := L.GetGlobal(luaDestructor)
	if destructor.Type() != lua.LTFunction {
		L.Close()
		return nil, errors.Wrap(ErrSymbolNotFound, luaDestructor)
	}

	return &luaLibrary{state: L, factory: factory, destructor: destructor}, nil
}

func (l *luaLibrary) Create() (*LuaPlugin, error) {
	if err := l.state.CallByParam(lua.P{
		Fn:      l.factory,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return nil, err
	}
	ret := l.state.Get(-1)
	l.state.Pop(1)
	return &LuaPlugin{State: l.state, Value: ret}, nil
}

func (l *luaLibrary) Destroy(p *LuaPlugin) error {
	return l.state.CallByParam(lua.P{
		Fn:      l.destructor,
		NRet:    0,
		Protect: true,
	}, p.Value)
}

func (l *luaLibrary) Close() error {
	l.state.Close()
	return nil
}
