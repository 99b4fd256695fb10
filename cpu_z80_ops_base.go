// cpu_z80_ops_base.go - Unprefixed instructions (shared with the DD/FD tables)

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

func (c *CPU) opNOP() {
	c.tick(4)
}

func (c *CPU) opHALT() {
	c.Halted = true
	c.tick(4)
}

func (c *CPU) opEXAF() {
	c.ExAF()
	c.tick(4)
}

func (c *CPU) opEXX() {
	c.Exx()
	c.tick(4)
}

// opEXDEHL always swaps with the real HL, even behind a DD/FD prefix.
func (c *CPU) opEXDEHL() {
	c.D, c.H = c.H, c.D
	c.E, c.L = c.L, c.E
	c.tick(4)
}

func (c *CPU) opDJNZ() {
	c.B--
	taken := c.B != 0
	c.jumpRelative(taken)
	if taken {
		c.tick(13)
	} else {
		c.tick(8)
	}
}

func (c *CPU) opJR(taken bool) {
	c.jumpRelative(taken)
	if taken {
		c.tick(12)
	} else {
		c.tick(7)
	}
}

func (c *CPU) opLDRPImm(p byte) {
	c.setRP(p, c.fetchWord())
	c.tick(10)
}

func (c *CPU) opADDHL(p byte) {
	hl := c.hlPair()
	res, f := add16(hl, c.rp(p), c.F)
	c.WZ = hl + 1
	c.setHLPair(res)
	c.F = f
	c.tick(11)
}

func (c *CPU) opLDPairA(addr uint16) {
	c.write(addr, c.A)
	c.WZ = Pack(c.A, byte(addr+1))
	c.tick(7)
}

func (c *CPU) opLDAPair(addr uint16) {
	c.A = c.read(addr)
	c.WZ = addr + 1
	c.tick(7)
}

func (c *CPU) opLDNNHL() {
	addr := c.fetchWord()
	c.writeWord(addr, c.hlPair())
	c.WZ = addr + 1
	c.tick(16)
}

func (c *CPU) opLDHLNN() {
	addr := c.fetchWord()
	c.setHLPair(c.readWord(addr))
	c.WZ = addr + 1
	c.tick(16)
}

func (c *CPU) opLDNNA() {
	addr := c.fetchWord()
	c.write(addr, c.A)
	c.WZ = Pack(c.A, byte(addr+1))
	c.tick(13)
}

func (c *CPU) opLDANN() {
	addr := c.fetchWord()
	c.A = c.read(addr)
	c.WZ = addr + 1
	c.tick(13)
}

// opIncDec is INC r / DEC r and the read-modify-write (HL) forms.
func (c *CPU) opIncDec(idx byte, fn func(value, f byte) (byte, byte)) {
	if idx == regMem {
		addr := c.memOperand(indexedPenalty)
		res, f := fn(c.read(addr), c.F)
		c.write(addr, res)
		c.F = f
		c.tick(11)
		return
	}
	res, f := fn(c.reg8(idx), c.F)
	c.setReg8(idx, res)
	c.F = f
	c.tick(4)
}

func (c *CPU) opLDRegImm(idx byte) {
	if idx == regMem {
		// LD (IX+d),n overlaps the immediate fetch with the address add
		addr := c.memOperand(5)
		c.write(addr, c.fetchByte())
		c.tick(10)
		return
	}
	c.setReg8(idx, c.fetchByte())
	c.tick(7)
}

func (c *CPU) opRotateA(op shiftOp) {
	c.A, c.F = rotateA(op, c.A, c.F)
	c.tick(4)
}

func (c *CPU) opDAA() {
	c.A, c.F = daa(c.A, c.F)
	c.tick(4)
}

func (c *CPU) opCPL() {
	c.A, c.F = cpl(c.A, c.F)
	c.tick(4)
}

func (c *CPU) opSCF() {
	c.F = scf(c.A, c.F)
	c.tick(4)
}

func (c *CPU) opCCF() {
	c.F = ccf(c.A, c.F)
	c.tick(4)
}

func (c *CPU) opLDRegReg(dst, src byte) {
	switch {
	case src == regMem:
		addr := c.memOperand(indexedPenalty)
		c.setPlainReg8(dst, c.read(addr))
		c.tick(7)
	case dst == regMem:
		addr := c.memOperand(indexedPenalty)
		c.write(addr, c.plainReg8(src))
		c.tick(7)
	default:
		c.setReg8(dst, c.reg8(src))
		c.tick(4)
	}
}

func (c *CPU) opALUReg(op aluOp, src byte) {
	if src == regMem {
		addr := c.memOperand(indexedPenalty)
		c.A, c.F = alu8(op, c.A, c.read(addr), c.F)
		c.tick(7)
		return
	}
	c.A, c.F = alu8(op, c.A, c.reg8(src), c.F)
	c.tick(4)
}

func (c *CPU) opALUImm(op aluOp) {
	c.A, c.F = alu8(op, c.A, c.fetchByte(), c.F)
	c.tick(7)
}

func (c *CPU) opRETcc(cc byte) {
	if !c.condition(cc) {
		c.tick(5)
		return
	}
	c.PC = c.popWord()
	c.WZ = c.PC
	c.tick(11)
}

func (c *CPU) opRET() {
	c.PC = c.popWord()
	c.WZ = c.PC
	c.tick(10)
}

func (c *CPU) opPOP(p byte) {
	c.setRP2(p, c.popWord())
	c.tick(10)
}

func (c *CPU) opPUSH(p byte) {
	c.pushWord(c.rp2(p))
	c.tick(11)
}

func (c *CPU) opJPHL() {
	c.PC = c.hlPair()
	c.tick(4)
}

func (c *CPU) opLDSPHL() {
	c.SP = c.hlPair()
	c.tick(6)
}

// opJPcc covers JP nn and JP cc,nn; both take 10 cycles either way.
func (c *CPU) opJPcc(taken bool) {
	addr := c.fetchWord()
	c.WZ = addr
	if taken {
		c.PC = addr
	}
	c.tick(10)
}

func (c *CPU) opCALLcc(taken bool) {
	addr := c.fetchWord()
	c.WZ = addr
	if !taken {
		c.tick(10)
		return
	}
	c.pushWord(c.PC)
	c.PC = addr
	c.tick(17)
}

func (c *CPU) opRST(target uint16) {
	c.pushWord(c.PC)
	c.PC = target
	c.WZ = target
	c.tick(11)
}

func (c *CPU) opOUTNA() {
	port := c.fetchByte()
	c.out(port, c.A)
	c.WZ = Pack(c.A, port+1)
	c.tick(11)
}

// opINAN leaves F untouched.
func (c *CPU) opINAN() {
	port := c.fetchByte()
	c.WZ = Pack(c.A, port) + 1
	c.A = c.in(port)
	c.tick(11)
}

func (c *CPU) opEXSPHL() {
	value := c.readWord(c.SP)
	c.writeWord(c.SP, c.hlPair())
	c.setHLPair(value)
	c.WZ = value
	c.tick(19)
}

func (c *CPU) opDI() {
	c.IFF1 = false
	c.IFF2 = false
	c.tick(4)
}

// opEI enables interrupts at once; acceptance waits until the following
// instruction has executed.
func (c *CPU) opEI() {
	c.IFF1 = true
	c.IFF2 = true
	c.eiDefer = true
	c.tick(4)
}
