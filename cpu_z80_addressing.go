// cpu_z80_addressing.go - Operand and effective-address resolution

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

// Register operand encoding used by the r[] field of an opcode.
const (
	regB byte = iota
	regC
	regD
	regE
	regH
	regL
	regMem // (HL), (IX+d) or (IY+d)
	regA
)

// indexedPenalty is the extra cost of an (IX+d) operand over (HL): the
// displacement fetch plus the address addition.
const indexedPenalty = 8

// hlPair returns HL, or IX/IY when a DD/FD prefix is active.
func (c *CPU) hlPair() uint16 {
	switch c.state {
	case stateIndexedX:
		return c.IX
	case stateIndexedY:
		return c.IY
	}
	return c.HL()
}

func (c *CPU) setHLPair(value uint16) {
	switch c.state {
	case stateIndexedX:
		c.IX = value
	case stateIndexedY:
		c.IY = value
	default:
		c.SetHL(value)
	}
}

// reg8 reads r[idx], substituting IXH/IXL (IYH/IYL) for H/L under a prefix.
// idx must not be regMem.
func (c *CPU) reg8(idx byte) byte {
	switch {
	case idx == regH && c.state == stateIndexedX:
		return c.IXH()
	case idx == regL && c.state == stateIndexedX:
		return c.IXL()
	case idx == regH && c.state == stateIndexedY:
		return c.IYH()
	case idx == regL && c.state == stateIndexedY:
		return c.IYL()
	}
	return c.plainReg8(idx)
}

func (c *CPU) setReg8(idx, value byte) {
	switch {
	case idx == regH && c.state == stateIndexedX:
		c.SetIXH(value)
	case idx == regL && c.state == stateIndexedX:
		c.SetIXL(value)
	case idx == regH && c.state == stateIndexedY:
		c.SetIYH(value)
	case idx == regL && c.state == stateIndexedY:
		c.SetIYL(value)
	default:
		c.setPlainReg8(idx, value)
	}
}

// plainReg8 reads r[idx] with no index substitution. Instructions that
// address (IX+d) always pair it with the real H and L.
func (c *CPU) plainReg8(idx byte) byte {
	switch idx {
	case regB:
		return c.B
	case regC:
		return c.C
	case regD:
		return c.D
	case regE:
		return c.E
	case regH:
		return c.H
	case regL:
		return c.L
	case regA:
		return c.A
	}
	return 0
}

func (c *CPU) setPlainReg8(idx, value byte) {
	switch idx {
	case regB:
		c.B = value
	case regC:
		c.C = value
	case regD:
		c.D = value
	case regE:
		c.E = value
	case regH:
		c.H = value
	case regL:
		c.L = value
	case regA:
		c.A = value
	}
}

// memOperand resolves the address of the (HL) operand. Under a DD/FD prefix
// it fetches the signed displacement, charges extra cycles and leaves the
// effective address in WZ.
func (c *CPU) memOperand(extra int) uint16 {
	if c.state == stateBase {
		return c.HL()
	}
	c.tick(extra)
	return c.indexedEA(c.hlPair())
}

func (c *CPU) indexedEA(base uint16) uint16 {
	d := int8(c.fetchByte())
	ea := base + uint16(d)
	c.WZ = ea
	return ea
}

// rp reads the BC/DE/HL/SP pair selected by p; HL follows the prefix.
func (c *CPU) rp(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.hlPair()
	}
	return c.SP
}

func (c *CPU) setRP(p byte, value uint16) {
	switch p {
	case 0:
		c.SetBC(value)
	case 1:
		c.SetDE(value)
	case 2:
		c.setHLPair(value)
	default:
		c.SP = value
	}
}

// rp2 is the PUSH/POP pair table: AF replaces SP.
func (c *CPU) rp2(p byte) uint16 {
	if p == 3 {
		return c.AF()
	}
	return c.rp(p)
}

func (c *CPU) setRP2(p byte, value uint16) {
	if p == 3 {
		c.SetAF(value)
		return
	}
	c.setRP(p, value)
}

// condition evaluates cc: NZ Z NC C PO PE P M.
func (c *CPU) condition(cc byte) bool {
	switch cc {
	case 0:
		return c.F&FlagZ == 0
	case 1:
		return c.F&FlagZ != 0
	case 2:
		return c.F&FlagC == 0
	case 3:
		return c.F&FlagC != 0
	case 4:
		return c.F&FlagPV == 0
	case 5:
		return c.F&FlagPV != 0
	case 6:
		return c.F&FlagS == 0
	}
	return c.F&FlagS != 0
}

// jumpRelative fetches a signed offset and applies it to PC when taken.
// The offset byte is always consumed.
func (c *CPU) jumpRelative(taken bool) {
	e := int8(c.fetchByte())
	if taken {
		c.PC += uint16(e)
		c.WZ = c.PC
	}
}
