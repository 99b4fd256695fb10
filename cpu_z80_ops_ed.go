// cpu_z80_ops_ed.go - ED-prefixed instructions: 16-bit arithmetic, IO, block ops

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

// Cycle counts exclude the ED prefix fetch.

func (c *CPU) opUndefinedED() {
	c.notify("z80: undefined ED opcode at %04X", c.PC-2)
	c.tick(4)
}

// opINRegC is IN r,(C). With idx == regMem only the flags are updated.
func (c *CPU) opINRegC(idx byte) {
	bc := c.BC()
	value := c.in(c.C)
	c.WZ = bc + 1
	c.F = szpFlags(value, c.F)
	if idx != regMem {
		c.setPlainReg8(idx, value)
	}
	c.tick(8)
}

// opOUTCReg is OUT (C),r. With idx == regMem it writes zero.
func (c *CPU) opOUTCReg(idx byte) {
	var value byte
	if idx != regMem {
		value = c.plainReg8(idx)
	}
	c.out(c.C, value)
	c.WZ = c.BC() + 1
	c.tick(8)
}

func (c *CPU) opSBCHL(p byte) {
	hl := c.HL()
	res, f := sbc16(hl, c.rp(p), c.carry())
	c.WZ = hl + 1
	c.SetHL(res)
	c.F = f
	c.tick(11)
}

func (c *CPU) opADCHL(p byte) {
	hl := c.HL()
	res, f := adc16(hl, c.rp(p), c.carry())
	c.WZ = hl + 1
	c.SetHL(res)
	c.F = f
	c.tick(11)
}

func (c *CPU) opLDNNRP(p byte) {
	addr := c.fetchWord()
	c.writeWord(addr, c.rp(p))
	c.WZ = addr + 1
	c.tick(16)
}

func (c *CPU) opLDRPNN(p byte) {
	addr := c.fetchWord()
	c.setRP(p, c.readWord(addr))
	c.WZ = addr + 1
	c.tick(16)
}

func (c *CPU) opNEG() {
	c.A, c.F = neg8(c.A)
	c.tick(4)
}

// opRETN also serves RETI; both restore IFF1 from IFF2.
func (c *CPU) opRETN() {
	c.IFF1 = c.IFF2
	c.PC = c.popWord()
	c.WZ = c.PC
	c.tick(10)
}

func (c *CPU) opLDAIR(value byte) {
	c.A = value
	c.F = ldAIRFlags(value, c.F, c.IFF2)
	c.tick(5)
}

func (c *CPU) opRRD() {
	addr := c.HL()
	value := c.read(addr)
	c.write(addr, c.A<<4|value>>4)
	c.A = c.A&0xF0 | value&0x0F
	c.F = szpFlags(c.A, c.F)
	c.WZ = addr + 1
	c.tick(14)
}

func (c *CPU) opRLD() {
	addr := c.HL()
	value := c.read(addr)
	c.write(addr, value<<4|c.A&0x0F)
	c.A = c.A&0xF0 | value>>4
	c.F = szpFlags(c.A, c.F)
	c.WZ = addr + 1
	c.tick(14)
}

// repeatBlock rewinds PC onto the ED prefix so the next Step runs the
// instruction again. Interrupts are polled between iterations.
func (c *CPU) repeatBlock(again bool) {
	if !again {
		c.tick(12)
		return
	}
	c.PC -= 2
	c.WZ = c.PC + 1
	c.tick(17)
}

func (c *CPU) opLDBlock(dir uint16, repeat bool) {
	value := c.read(c.HL())
	c.write(c.DE(), value)
	c.SetHL(c.HL() + dir)
	c.SetDE(c.DE() + dir)
	bc := c.BC() - 1
	c.SetBC(bc)
	c.F = ldirFlags(c.A, value, c.F, bc)
	c.repeatBlock(repeat && bc != 0)
}

func (c *CPU) opCPBlock(dir uint16, repeat bool) {
	value := c.read(c.HL())
	c.SetHL(c.HL() + dir)
	bc := c.BC() - 1
	c.SetBC(bc)
	c.F = cpirFlags(c.A, value, c.F, bc)
	c.WZ += dir
	c.repeatBlock(repeat && bc != 0 && c.A != value)
}

func (c *CPU) opINBlock(dir uint16, repeat bool) {
	c.WZ = c.BC() + dir
	value := c.in(c.C)
	c.write(c.HL(), value)
	c.B--
	c.SetHL(c.HL() + dir)
	k := int(value) + int(c.C+byte(dir))
	c.F = ioBlockFlags(value, c.B, k)
	c.repeatBlock(repeat && c.B != 0)
}

func (c *CPU) opOUTBlock(dir uint16, repeat bool) {
	value := c.read(c.HL())
	c.B--
	c.WZ = c.BC() + dir
	c.out(c.C, value)
	c.SetHL(c.HL() + dir)
	k := int(value) + int(c.L)
	c.F = ioBlockFlags(value, c.B, k)
	c.repeatBlock(repeat && c.B != 0)
}
