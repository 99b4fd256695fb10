// script.go - Lua hooks for stepping and BDOS calls

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

// Package script lets a Lua file watch and steer a run. A script may define
//
//	on_step(pc)  -- called before every instruction; return true to stop
//	on_bdos(fn)  -- called for every trapped BDOS call
//
// and can use reg(name), set_reg(name, v), peek(addr), poke(addr, v) and
// log(msg) to inspect and change the machine.
package script

import (
	"errors"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	z80 "github.com/intuitionamiga/z80"
)

// ErrNotAttached is returned by hooks called before Attach.
var ErrNotAttached = errors.New("script: no machine attached")

// Script is one loaded Lua state. It is not safe for concurrent use.
type Script struct {
	L      *lua.LState
	logger *slog.Logger

	cpu *z80.CPU
	bus z80.Bus

	onStep *lua.LFunction
	onBDOS *lua.LFunction
	err    error
}

// New loads and runs the Lua file at path.
func New(path string, logger *slog.Logger) (*Script, error) {
	s := newScript(logger)
	if err := s.L.DoFile(path); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	s.lookupHooks()
	return s, nil
}

// NewString loads a script from source text.
func NewString(src string, logger *slog.Logger) (*Script, error) {
	s := newScript(logger)
	if err := s.L.DoString(src); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	s.lookupHooks()
	return s, nil
}

func newScript(logger *slog.Logger) *Script {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Script{L: lua.NewState(), logger: logger}
	s.L.SetGlobal("reg", s.L.NewFunction(s.luaReg))
	s.L.SetGlobal("set_reg", s.L.NewFunction(s.luaSetReg))
	s.L.SetGlobal("peek", s.L.NewFunction(s.luaPeek))
	s.L.SetGlobal("poke", s.L.NewFunction(s.luaPoke))
	s.L.SetGlobal("log", s.L.NewFunction(s.luaLog))
	return s
}

func (s *Script) lookupHooks() {
	if fn, ok := s.L.GetGlobal("on_step").(*lua.LFunction); ok {
		s.onStep = fn
	}
	if fn, ok := s.L.GetGlobal("on_bdos").(*lua.LFunction); ok {
		s.onBDOS = fn
	}
}

// Attach binds the script to a CPU and the bus it runs on.
func (s *Script) Attach(cpu *z80.CPU, bus z80.Bus) {
	s.cpu = cpu
	s.bus = bus
}

func (s *Script) HasStepHook() bool { return s.onStep != nil }
func (s *Script) HasBDOSHook() bool { return s.onBDOS != nil }

// Err returns the first error raised by a hook. A failing on_step stops
// the run.
func (s *Script) Err() error {
	return s.err
}

func (s *Script) Close() {
	s.L.Close()
}

// OnStep calls on_step(pc) and reports whether the script asked to stop.
func (s *Script) OnStep(cpu *z80.CPU) bool {
	if s.onStep == nil {
		return false
	}
	if s.cpu == nil {
		s.fail(ErrNotAttached)
		return true
	}
	err := s.L.CallByParam(lua.P{Fn: s.onStep, NRet: 1, Protect: true}, lua.LNumber(cpu.PC))
	if err != nil {
		s.fail(fmt.Errorf("script: on_step: %w", err))
		return true
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return lua.LVAsBool(ret)
}

// OnBDOS calls on_bdos(fn).
func (s *Script) OnBDOS(fn uint8) {
	if s.onBDOS == nil {
		return
	}
	if s.cpu == nil {
		s.fail(ErrNotAttached)
		return
	}
	if err := s.L.CallByParam(lua.P{Fn: s.onBDOS, NRet: 0, Protect: true}, lua.LNumber(fn)); err != nil {
		s.fail(fmt.Errorf("script: on_bdos: %w", err))
	}
}

func (s *Script) fail(err error) {
	if s.err == nil {
		s.err = err
		s.logger.Error("script hook failed", slog.Any("err", err))
	}
}

func (s *Script) luaReg(L *lua.LState) int {
	name := L.CheckString(1)
	if s.cpu == nil {
		L.RaiseError("%v", ErrNotAttached)
	}
	v, ok := s.cpu.Register(name)
	if !ok {
		L.ArgError(1, "unknown register "+name)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (s *Script) luaSetReg(L *lua.LState) int {
	name := L.CheckString(1)
	value := L.CheckInt(2)
	if s.cpu == nil {
		L.RaiseError("%v", ErrNotAttached)
	}
	if _, ok := s.cpu.Register(name); !ok {
		L.ArgError(1, "unknown register "+name)
	}
	defer func() {
		// SetRegister panics on out-of-range values
		if r := recover(); r != nil {
			L.RaiseError("set_reg: %v", r)
		}
	}()
	s.cpu.SetRegister(name, value)
	return 0
}

func (s *Script) luaPeek(L *lua.LState) int {
	addr := L.CheckInt(1)
	if s.bus == nil {
		L.RaiseError("%v", ErrNotAttached)
	}
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(1, "address out of range")
	}
	L.Push(lua.LNumber(s.bus.Read(uint16(addr))))
	return 1
}

func (s *Script) luaPoke(L *lua.LState) int {
	addr := L.CheckInt(1)
	value := L.CheckInt(2)
	if s.bus == nil {
		L.RaiseError("%v", ErrNotAttached)
	}
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(1, "address out of range")
	}
	if value < 0 || value > 0xFF {
		L.ArgError(2, "value out of range")
	}
	s.bus.Write(uint16(addr), byte(value))
	return 0
}

func (s *Script) luaLog(L *lua.LState) int {
	s.logger.Info("script", slog.String("text", L.CheckString(1)))
	return 0
}
