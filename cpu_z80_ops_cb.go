// cpu_z80_ops_cb.go - CB-prefixed and DDCB/FDCB bit instructions

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

// Cycle counts below exclude the prefix bytes, which are charged as they
// are fetched.

func (c *CPU) opShift(op shiftOp, idx byte) {
	if idx == regMem {
		addr := c.HL()
		res, f := shift8(op, c.read(addr), c.F)
		c.write(addr, res)
		c.F = f
		c.tick(11)
		return
	}
	res, f := shift8(op, c.plainReg8(idx), c.F)
	c.setPlainReg8(idx, res)
	c.F = f
	c.tick(4)
}

// opBit takes bits 5/3 from the tested register, or from the high byte of
// WZ for BIT n,(HL).
func (c *CPU) opBit(n, idx byte) {
	if idx == regMem {
		c.F = bit8(n, c.read(c.HL()), byte(c.WZ>>8), c.F)
		c.tick(8)
		return
	}
	value := c.plainReg8(idx)
	c.F = bit8(n, value, value, c.F)
	c.tick(4)
}

func (c *CPU) opSetRes(n, idx byte, set bool) {
	if idx == regMem {
		addr := c.HL()
		c.write(addr, setRes(c.read(addr), n, set))
		c.tick(11)
		return
	}
	c.setPlainReg8(idx, setRes(c.plainReg8(idx), n, set))
	c.tick(4)
}

func setRes(value, n byte, set bool) byte {
	if set {
		return value | 1<<n
	}
	return value &^ (1 << n)
}

func (c *CPU) opIndexedShift(op shiftOp, idx byte) {
	res, f := shift8(op, c.read(c.ea), c.F)
	c.write(c.ea, res)
	if idx != regMem {
		c.setPlainReg8(idx, res)
	}
	c.F = f
	c.tick(15)
}

func (c *CPU) opIndexedBit(n byte) {
	c.F = bit8(n, c.read(c.ea), byte(c.ea>>8), c.F)
	c.tick(12)
}

func (c *CPU) opIndexedSetRes(n, idx byte, set bool) {
	res := setRes(c.read(c.ea), n, set)
	c.write(c.ea, res)
	if idx != regMem {
		c.setPlainReg8(idx, res)
	}
	c.tick(15)
}
