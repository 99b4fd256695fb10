// cpu_z80.go - Z80 interpreter core: register file, construction and the step loop

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

package z80

import (
	"fmt"
	"sync/atomic"
)

// CPU is a Z80 interpreter. The embedding machine supplies memory and IO
// through a Bus and drives execution by calling Step.
type CPU struct {
	// Hot path registers (most frequently accessed)
	A  byte
	F  byte
	B  byte
	C  byte
	D  byte
	E  byte
	H  byte
	L  byte
	A2 byte
	F2 byte
	B2 byte
	C2 byte
	D2 byte
	E2 byte
	H2 byte
	L2 byte

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	I  byte
	R  byte
	IM byte
	WZ uint16

	IFF1 bool
	IFF2 bool

	Halted bool
	Cycles uint64

	bus    Bus
	ticker Ticker
	irqSrc InterruptSource
	debug  DebugFunc
	trace  bool

	irqLatch  atomic.Bool
	nmiLatch  atomic.Bool
	irqVector atomic.Uint32
	im0Vector uint16
	eiDefer   bool

	// prefixPending is set when a DD/FD step ended on another prefix
	prefixPending bool

	state      decodeState
	ea         uint16
	stepCycles int
}

// Option configures a CPU at construction.
type Option func(*CPU)

// WithInterruptSource attaches a device-side interrupt source that is polled
// once per Step.
func WithInterruptSource(src InterruptSource) Option {
	return func(c *CPU) {
		c.irqSrc = src
	}
}

// WithDebug sets the diagnostic sink.
func WithDebug(fn DebugFunc) Option {
	return func(c *CPU) {
		c.debug = fn
	}
}

// WithIM0Vector sets the call target used in interrupt mode 0 when the
// data-bus byte is not an RST opcode.
func WithIM0Vector(addr uint16) Option {
	return func(c *CPU) {
		c.im0Vector = addr
	}
}

// WithTrace emits one disassembled line per instruction to the debug sink.
func WithTrace(on bool) Option {
	return func(c *CPU) {
		c.trace = on
	}
}

func New(bus Bus, opts ...Option) *CPU {
	c := &CPU{
		bus:       bus,
		im0Vector: 0x0038,
	}
	if t, ok := bus.(Ticker); ok {
		c.ticker = t
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset restores the power-on register state. Callers may override SP and
// PC afterwards for custom boot images.
func (c *CPU) Reset() {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0, 0
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0, 0, 0
	c.IX = 0
	c.IY = 0
	c.SP = 0xFFFF
	c.PC = 0
	c.I = 0
	c.R = 0
	c.IM = 0
	c.WZ = 0
	c.IFF1 = false
	c.IFF2 = false
	c.Halted = false
	c.Cycles = 0
	c.irqLatch.Store(false)
	c.nmiLatch.Store(false)
	c.irqVector.Store(0xFF)
	c.eiDefer = false
	c.prefixPending = false
	c.state = stateBase
	c.ea = 0
}

// Step executes exactly one instruction, or services one interrupt, and
// returns the number of T-states consumed.
func (c *CPU) Step() int {
	c.stepCycles = 0

	deferred := c.eiDefer
	c.eiDefer = false
	prefixed := c.prefixPending
	c.prefixPending = false
	if !prefixed && c.pollInterrupts(deferred) {
		return c.finishStep()
	}

	if c.Halted {
		// HALT keeps executing NOP M1 cycles until an interrupt arrives
		c.incrementR()
		c.tick(4)
		return c.finishStep()
	}

	if c.trace && c.debug != nil {
		c.debug(c.traceLine())
	}

	c.state = stateBase
	opcode := c.fetchOpcode()
	baseOps[opcode].exec(c)
	c.state = stateBase
	return c.finishStep()
}

func (c *CPU) finishStep() int {
	c.Cycles += uint64(c.stepCycles)
	if c.ticker != nil {
		c.ticker.Tick(c.stepCycles)
	}
	return c.stepCycles
}

func (c *CPU) tick(cycles int) {
	c.stepCycles += cycles
}

func (c *CPU) incrementR() {
	c.R = (c.R & 0x80) | ((c.R + 1) & 0x7F)
}

func (c *CPU) fetchOpcode() byte {
	opcode := c.bus.Read(c.PC)
	c.PC++
	c.incrementR()
	return opcode
}

func (c *CPU) fetchByte() byte {
	value := c.bus.Read(c.PC)
	c.PC++
	return value
}

func (c *CPU) fetchWord() uint16 {
	low := c.fetchByte()
	high := c.fetchByte()
	return Pack(high, low)
}

func (c *CPU) read(addr uint16) byte {
	return c.bus.Read(addr)
}

func (c *CPU) write(addr uint16, value byte) {
	c.bus.Write(addr, value)
}

func (c *CPU) readWord(addr uint16) uint16 {
	low := c.read(addr)
	high := c.read(addr + 1)
	return Pack(high, low)
}

func (c *CPU) writeWord(addr uint16, value uint16) {
	c.write(addr, byte(value))
	c.write(addr+1, byte(value>>8))
}

func (c *CPU) in(port byte) byte {
	return c.bus.In(port)
}

func (c *CPU) out(port byte, value byte) {
	c.bus.Out(port, value)
}

func (c *CPU) pushWord(value uint16) {
	c.SP--
	c.write(c.SP, byte(value>>8))
	c.SP--
	c.write(c.SP, byte(value))
}

func (c *CPU) popWord() uint16 {
	low := c.read(c.SP)
	c.SP++
	high := c.read(c.SP)
	c.SP++
	return Pack(high, low)
}

func (c *CPU) carry() byte {
	return c.F & FlagC
}

// notify formats only when a debug sink is installed.
func (c *CPU) notify(format string, args ...any) {
	if c.debug != nil {
		c.debug(fmt.Sprintf(format, args...))
	}
}
