// cpm.go - Minimal CP/M 2.2 machine for running .COM conformance programs

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

// Package cpm runs CP/M .COM programs such as zexdoc on the interpreter,
// trapping BDOS calls at 0x0005 and emulating the console ones.
package cpm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	z80 "github.com/intuitionamiga/z80"
)

const (
	LoadAddress = 0x0100
	StackTop    = 0xF000

	warmBoot  = 0x0000
	bdosEntry = 0x0005
	// bdosStub is where the JP at 0x0005 points. Programs read 0x0006 to
	// find the top of the transient area.
	bdosStub = 0xFE00
)

var (
	// ErrUnsupportedCall is returned when the program calls a BDOS
	// function that has no handler.
	ErrUnsupportedCall = errors.New("cpm: unsupported BDOS call")

	// ErrNoProgram is returned by Run before Load has succeeded.
	ErrNoProgram = errors.New("cpm: no program loaded")
)

// Reason says why Run returned.
type Reason int

const (
	ReasonComplete Reason = iota
	ReasonExit
	ReasonWarmBoot
	ReasonStopped
	ReasonCycleBudget
	ReasonCancelled
)

var reasonNames = [...]string{"tests complete", "exit", "warm boot", "stopped", "cycle budget exhausted", "cancelled"}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Result summarises one Run.
type Result struct {
	Reason       Reason
	Cycles       uint64
	Instructions uint64
	Output       string
}

// Machine is a flat 64K CP/M system: the program at 0x0100, BDOS trapped
// at 0x0005 and a warm-boot trap at 0x0000.
type Machine struct {
	Mem *z80.Memory
	CPU *z80.CPU

	// Syscalls maps BDOS function numbers (register C) to handlers.
	Syscalls map[uint8]Handler

	console   *Console
	logger    *slog.Logger
	maxCycles uint64
	perf      bool
	cpuOpts   []z80.Option
	stepHook  func(*z80.CPU) bool
	bdosHook  func(fn uint8)

	output bytes.Buffer
	loaded bool
	done   bool
	reason Reason
}

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithConsole replaces the stdin/stdout console.
func WithConsole(c *Console) Option {
	return func(m *Machine) {
		m.console = c
	}
}

// WithMaxCycles ends Run once the CPU has used this many T-states.
func WithMaxCycles(n uint64) Option {
	return func(m *Machine) {
		m.maxCycles = n
	}
}

// WithPerf turns on the runner's periodic MIPS report, delivered through
// the CPU's debug sink.
func WithPerf(enabled bool) Option {
	return func(m *Machine) {
		m.perf = enabled
	}
}

// WithCPUOptions passes options through to the interpreter.
func WithCPUOptions(opts ...z80.Option) Option {
	return func(m *Machine) {
		m.cpuOpts = append(m.cpuOpts, opts...)
	}
}

// WithStepHook is consulted before every instruction; returning true
// ends Run with ReasonStopped.
func WithStepHook(fn func(*z80.CPU) bool) Option {
	return func(m *Machine) {
		m.stepHook = fn
	}
}

// WithBDOSHook is told about every BDOS call before it is handled.
func WithBDOSHook(fn func(fn uint8)) Option {
	return func(m *Machine) {
		m.bdosHook = fn
	}
}

func New(opts ...Option) *Machine {
	m := &Machine{
		Mem:      z80.NewMemory(),
		Syscalls: defaultSyscalls(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.console == nil {
		m.console = NewConsole(os.Stdin, os.Stdout)
	}
	m.CPU = z80.New(m.Mem, m.cpuOpts...)
	return m
}

// Console returns the machine's console device.
func (m *Machine) Console() *Console {
	return m.console
}

// Load clears memory, places image at 0x0100 and resets the CPU. A
// rejected image leaves memory alone and the machine unloaded.
func (m *Machine) Load(image []byte) error {
	m.loaded = false
	if LoadAddress+len(image) > bdosStub {
		return fmt.Errorf("cpm: load program: %w: %d bytes overlap the BDOS stub", z80.ErrImageTooLarge, len(image))
	}
	m.Mem.Clear()
	if err := m.Mem.Load(LoadAddress, image); err != nil {
		return fmt.Errorf("cpm: load program: %w", err)
	}

	m.Mem.Write(warmBoot, 0x76) // HALT; the trap fires before it runs
	m.Mem.Write(bdosEntry, 0xC3)
	m.Mem.Write(bdosEntry+1, byte(bdosStub&0xFF))
	m.Mem.Write(bdosEntry+2, byte(bdosStub>>8))
	m.Mem.Write(bdosStub, 0xC9) // RET

	m.CPU.Reset()
	m.CPU.PC = LoadAddress
	m.CPU.SP = StackTop
	m.output.Reset()
	m.done = false
	m.loaded = true
	return nil
}

// LoadFile reads a .COM image from disk.
func (m *Machine) LoadFile(path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cpm: %w", err)
	}
	return m.Load(image)
}

// Run executes until the program reports completion, exits, warm-boots,
// the cycle budget runs out or ctx is cancelled. BDOS errors end the run
// and are returned with the partial result.
func (m *Machine) Run(ctx context.Context) (Result, error) {
	if !m.loaded {
		return Result{}, ErrNoProgram
	}

	r := z80.NewRunner(m.CPU)
	r.MaxCycles = m.maxCycles
	r.PerfEnabled = m.perf
	r.Stop = func(c *z80.CPU) bool {
		if c.PC == warmBoot || c.PC == bdosEntry {
			return true
		}
		return m.stepHook != nil && m.stepHook(c)
	}

	for {
		stop, err := r.Run(ctx)
		res := Result{
			Cycles:       m.CPU.Cycles,
			Instructions: r.Instructions,
			Output:       m.output.String(),
		}
		switch stop {
		case z80.StopCancelled:
			res.Reason = ReasonCancelled
			return res, err
		case z80.StopCycleBudget:
			res.Reason = ReasonCycleBudget
			return res, nil
		}

		switch m.CPU.PC {
		case warmBoot:
			m.logger.Debug("warm boot", slog.Uint64("cycles", m.CPU.Cycles))
			res.Reason = ReasonWarmBoot
			return res, nil
		case bdosEntry:
		default:
			res.Reason = ReasonStopped
			return res, nil
		}

		if err := m.bdos(); err != nil {
			res.Output = m.output.String()
			return res, err
		}
		if m.done {
			res.Reason = m.reason
			res.Output = m.output.String()
			return res, nil
		}
		m.ret()
	}
}

// ret returns from the trapped CALL 5.
func (m *Machine) ret() {
	c := m.CPU
	low := m.Mem.Read(c.SP)
	high := m.Mem.Read(c.SP + 1)
	c.SP += 2
	c.PC = z80.Pack(high, low)
}

func (m *Machine) finish(reason Reason) {
	m.done = true
	m.reason = reason
}

func (m *Machine) bdos() error {
	fn := m.CPU.C
	if m.bdosHook != nil {
		m.bdosHook(fn)
	}

	h, ok := m.Syscalls[fn]
	if !ok {
		m.logger.Error("unsupported BDOS call",
			slog.Int("fn", int(fn)),
			slog.String("fnHex", fmt.Sprintf("0x%02X", fn)),
		)
		return fmt.Errorf("%w: function %d (0x%02X) at PC=%04X", ErrUnsupportedCall, fn, fn, m.callerPC())
	}

	m.logger.Debug("BDOS call",
		slog.String("name", h.Desc),
		slog.Int("fn", int(fn)),
		slog.String("de", fmt.Sprintf("0x%04X", m.CPU.DE())),
	)
	return h.Handler(m)
}

// callerPC is the address of the CALL that entered the BDOS.
func (m *Machine) callerPC() uint16 {
	sp := m.CPU.SP
	return z80.Pack(m.Mem.Read(sp+1), m.Mem.Read(sp)) - 3
}

// emit writes to the console and to the captured output.
func (m *Machine) emit(b byte) error {
	m.output.WriteByte(b)
	return m.console.WriteByte(b)
}

// setReturn stores a byte result the way CP/M does: in A and L, with B and
// H cleared.
func (m *Machine) setReturn(v byte) {
	c := m.CPU
	c.A, c.L = v, v
	c.B, c.H = 0, 0
}

// Output returns everything the program has printed since Load.
func (m *Machine) Output() string {
	return m.output.String()
}
