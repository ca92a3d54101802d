// Package script runs Lua-defined macro actions. A layout form
// (script name) calls the global Lua function `name`, which returns a
// whitespace-separated string of chord specs ("ctrl+c ctrl+v") to play.
//
// The Lua state is confined to the dispatch goroutine; Run is not safe
// for concurrent callers.
package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"layerd/internal/input/key"
)

// Script errors
var (
	ErrUnknownFunction = errors.New("script function is not defined")
	ErrBadResult       = errors.New("script function must return a chord string")
)

// Engine wraps one Lua state loaded from the user's script file.
type Engine struct {
	state *lua.LState
}

// Load creates an engine from a Lua source file.
func Load(path string) (*Engine, error) {
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script %s: %w", path, err)
	}
	return &Engine{state: L}, nil
}

// LoadString creates an engine from inline Lua source.
func LoadString(src string) (*Engine, error) {
	L := lua.NewState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script: %w", err)
	}
	return &Engine{state: L}, nil
}

// Run calls the named global function and parses its string result into
// the chord sequence to play.
func (e *Engine) Run(name string) ([]key.Chord, error) {
	fn := e.state.GetGlobal(name)
	if fn == lua.LNil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	if err := e.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	ret := e.state.Get(-1)
	e.state.Pop(1)

	str, ok := ret.(lua.LString)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %s", ErrBadResult, name, ret.Type())
	}
	chords, err := key.ParseChordList(string(str))
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	return chords, nil
}

// Has reports whether the script defines the named global function.
// Used at load time to validate script action references.
func (e *Engine) Has(name string) bool {
	fn := e.state.GetGlobal(name)
	_, ok := fn.(*lua.LFunction)
	return ok
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.state.Close()
}
