// cpu_z80_interrupt.go - Maskable/non-maskable interrupt acceptance and the IRQ mailbox

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

import "sync/atomic"

const (
	nmiVector = 0x0066
	im1Vector = 0x0038
)

// RequestInterrupt latches a maskable interrupt request. It stays pending
// until the CPU accepts it. Safe to call from any goroutine.
func (c *CPU) RequestInterrupt() {
	c.irqLatch.Store(true)
}

// RequestNMI latches a non-maskable interrupt. Safe to call from any
// goroutine.
func (c *CPU) RequestNMI() {
	c.nmiLatch.Store(true)
}

// SetInterruptVector sets the data-bus byte supplied with latched requests:
// the low vector byte in IM2, the executed opcode in IM0.
func (c *CPU) SetInterruptVector(vector byte) {
	c.irqVector.Store(uint32(vector))
}

// InterruptPending reports whether a maskable request is waiting.
func (c *CPU) InterruptPending() bool {
	if c.irqLatch.Load() {
		return true
	}
	return c.irqSrc != nil && c.irqSrc.PollPending()
}

// pollInterrupts runs at the start of every Step. It reports whether an
// interrupt was accepted, in which case the step consists of the
// acknowledge cycle alone. deferred is set for the instruction after EI.
func (c *CPU) pollInterrupts(deferred bool) bool {
	if c.nmiLatch.CompareAndSwap(true, false) {
		c.serviceNMI()
		return true
	}
	if !c.IFF1 || deferred {
		return false
	}

	var vector byte
	switch {
	case c.irqLatch.CompareAndSwap(true, false):
		vector = byte(c.irqVector.Load())
	case c.irqSrc != nil && c.irqSrc.PollPending():
		vector = c.irqSrc.VectorLowByte()
		if ack, ok := c.irqSrc.(InterruptAcknowledger); ok {
			ack.Acknowledge()
		}
	default:
		return false
	}
	c.serviceIRQ(vector)
	return true
}

func (c *CPU) serviceNMI() {
	c.Halted = false
	c.IFF2 = c.IFF1
	c.IFF1 = false
	c.incrementR()
	c.pushWord(c.PC)
	c.PC = nmiVector
	c.WZ = c.PC
	c.tick(11)
}

func (c *CPU) serviceIRQ(vector byte) {
	c.Halted = false
	c.IFF1 = false
	c.IFF2 = false
	c.incrementR()
	c.pushWord(c.PC)

	switch c.IM {
	case 2:
		c.PC = c.readWord(Pack(c.I, vector))
		c.tick(19)
	case 1:
		c.PC = im1Vector
		c.tick(13)
	default:
		// IM0 executes the data-bus byte. Only RST is supported as an
		// instruction; anything else calls the configured vector.
		if vector&0xC7 == 0xC7 {
			c.PC = uint16(vector & 0x38)
		} else {
			c.PC = c.im0Vector
		}
		c.tick(13)
	}
	c.WZ = c.PC
}

// IRQLine is a single-slot interrupt mailbox for peripherals running on
// other goroutines. Raise latches a request with its vector; the CPU
// acknowledges it on acceptance.
type IRQLine struct {
	pending atomic.Bool
	vector  atomic.Uint32
}

func (l *IRQLine) Raise(vector byte) {
	l.vector.Store(uint32(vector))
	l.pending.Store(true)
}

// Lower withdraws a request that has not been accepted yet.
func (l *IRQLine) Lower() {
	l.pending.Store(false)
}

func (l *IRQLine) PollPending() bool {
	return l.pending.Load()
}

func (l *IRQLine) VectorLowByte() byte {
	return byte(l.vector.Load())
}

func (l *IRQLine) Acknowledge() {
	l.pending.Store(false)
}
