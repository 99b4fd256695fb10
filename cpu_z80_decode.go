// cpu_z80_decode.go - Prefix state machine and the per-state descriptor tables

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

import "fmt"

// decodeState selects which descriptor table the next opcode byte indexes.
type decodeState uint8

const (
	stateBase decodeState = iota
	stateExtended
	stateBit
	stateIndexedX
	stateIndexedY
	stateIndexedBitX
	stateIndexedBitY
)

var stateNames = [...]string{"base", "ED", "CB", "DD", "FD", "DDCB", "FDCB"}

func (s decodeState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// opcode is one descriptor table entry. The mnemonic is a template whose
// {n}, {nn}, {e} and {d} tokens are filled from the instruction bytes.
type opcode struct {
	mnemonic string
	exec     func(*CPU)
}

var (
	baseOps [256]opcode
	edOps   [256]opcode
	cbOps   [256]opcode
	ixOps   [256]opcode
	iyOps   [256]opcode
	ixcbOps [256]opcode
	iycbOps [256]opcode
)

func init() {
	buildMainOps(&baseOps, stateBase)
	buildMainOps(&ixOps, stateIndexedX)
	buildMainOps(&iyOps, stateIndexedY)
	buildExtendedOps(&edOps)
	buildBitOps(&cbOps)
	buildIndexedBitOps(&ixcbOps, "IX")
	buildIndexedBitOps(&iycbOps, "IY")
}

func opTable(state decodeState) *[256]opcode {
	switch state {
	case stateExtended:
		return &edOps
	case stateBit:
		return &cbOps
	case stateIndexedX:
		return &ixOps
	case stateIndexedY:
		return &iyOps
	case stateIndexedBitX:
		return &ixcbOps
	case stateIndexedBitY:
		return &iycbOps
	}
	return &baseOps
}

var (
	plainRegNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	condNames     = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	blockNames    = [4][4]string{
		{"LDI", "CPI", "INI", "OUTI"},
		{"LDD", "CPD", "IND", "OUTD"},
		{"LDIR", "CPIR", "INIR", "OTIR"},
		{"LDDR", "CPDR", "INDR", "OTDR"},
	}
	interruptModes = [8]byte{0, 0, 1, 2, 0, 0, 1, 2}
)

// operandNames spells r[] and rp[] for one prefix state.
type operandNames struct {
	r    [8]string
	pair string
}

func namesFor(state decodeState) operandNames {
	switch state {
	case stateIndexedX:
		return operandNames{r: [8]string{"B", "C", "D", "E", "IXH", "IXL", "(IX{d})", "A"}, pair: "IX"}
	case stateIndexedY:
		return operandNames{r: [8]string{"B", "C", "D", "E", "IYH", "IYL", "(IY{d})", "A"}, pair: "IY"}
	}
	return operandNames{r: plainRegNames, pair: "HL"}
}

func (n operandNames) rp(p byte) string {
	return [4]string{"BC", "DE", n.pair, "SP"}[p]
}

func (n operandNames) rp2(p byte) string {
	return [4]string{"BC", "DE", n.pair, "AF"}[p]
}

// buildMainOps fills the unprefixed table, or the DD/FD table when state
// names an index register. Entries share executors; the prefix state
// recorded on the CPU selects HL, IX or IY at run time.
func buildMainOps(t *[256]opcode, state decodeState) {
	names := namesFor(state)
	for i := range t {
		op := byte(i)
		x, y, z := op>>6, op>>3&7, op&7
		p, q := y>>1, y&1

		var m string
		var fn func(*CPU)
		switch x {
		case 0:
			m, fn = block0Op(names, y, z, p, q)
		case 1:
			if op == 0x76 {
				m, fn = "HALT", (*CPU).opHALT
				break
			}
			dst, src := names.r[y], names.r[z]
			if y == regMem {
				src = plainRegNames[z]
			}
			if z == regMem {
				dst = plainRegNames[y]
			}
			m = "LD " + dst + ", " + src
			fn = func(c *CPU) { c.opLDRegReg(y, z) }
		case 2:
			m = aluNames[y] + names.r[z]
			fn = func(c *CPU) { c.opALUReg(aluOp(y), z) }
		default:
			m, fn = block3Op(names, state, y, z, p, q)
		}
		t[i] = opcode{mnemonic: m, exec: fn}
	}
}

func block0Op(names operandNames, y, z, p, q byte) (string, func(*CPU)) {
	switch z {
	case 0:
		switch y {
		case 0:
			return "NOP", (*CPU).opNOP
		case 1:
			return "EX AF, AF'", (*CPU).opEXAF
		case 2:
			return "DJNZ {e}", (*CPU).opDJNZ
		case 3:
			return "JR {e}", func(c *CPU) { c.opJR(true) }
		}
		cc := y - 4
		return "JR " + condNames[cc] + ", {e}", func(c *CPU) { c.opJR(c.condition(cc)) }
	case 1:
		if q == 0 {
			return "LD " + names.rp(p) + ", {nn}", func(c *CPU) { c.opLDRPImm(p) }
		}
		return "ADD " + names.pair + ", " + names.rp(p), func(c *CPU) { c.opADDHL(p) }
	case 2:
		switch y {
		case 0:
			return "LD (BC), A", func(c *CPU) { c.opLDPairA(c.BC()) }
		case 1:
			return "LD A, (BC)", func(c *CPU) { c.opLDAPair(c.BC()) }
		case 2:
			return "LD (DE), A", func(c *CPU) { c.opLDPairA(c.DE()) }
		case 3:
			return "LD A, (DE)", func(c *CPU) { c.opLDAPair(c.DE()) }
		case 4:
			return "LD ({nn}), " + names.pair, (*CPU).opLDNNHL
		case 5:
			return "LD " + names.pair + ", ({nn})", (*CPU).opLDHLNN
		case 6:
			return "LD ({nn}), A", (*CPU).opLDNNA
		}
		return "LD A, ({nn})", (*CPU).opLDANN
	case 3:
		if q == 0 {
			return "INC " + names.rp(p), func(c *CPU) { c.setRP(p, c.rp(p)+1); c.tick(6) }
		}
		return "DEC " + names.rp(p), func(c *CPU) { c.setRP(p, c.rp(p)-1); c.tick(6) }
	case 4:
		return "INC " + names.r[y], func(c *CPU) { c.opIncDec(y, inc8) }
	case 5:
		return "DEC " + names.r[y], func(c *CPU) { c.opIncDec(y, dec8) }
	case 6:
		return "LD " + names.r[y] + ", {n}", func(c *CPU) { c.opLDRegImm(y) }
	}
	switch y {
	case 0, 1, 2, 3:
		op := shiftOp(y)
		return shiftNames[y] + "A", func(c *CPU) { c.opRotateA(op) }
	case 4:
		return "DAA", (*CPU).opDAA
	case 5:
		return "CPL", (*CPU).opCPL
	case 6:
		return "SCF", (*CPU).opSCF
	}
	return "CCF", (*CPU).opCCF
}

func block3Op(names operandNames, state decodeState, y, z, p, q byte) (string, func(*CPU)) {
	switch z {
	case 0:
		return "RET " + condNames[y], func(c *CPU) { c.opRETcc(y) }
	case 1:
		if q == 0 {
			return "POP " + names.rp2(p), func(c *CPU) { c.opPOP(p) }
		}
		switch p {
		case 0:
			return "RET", (*CPU).opRET
		case 1:
			return "EXX", (*CPU).opEXX
		case 2:
			return "JP (" + names.pair + ")", (*CPU).opJPHL
		}
		return "LD SP, " + names.pair, (*CPU).opLDSPHL
	case 2:
		return "JP " + condNames[y] + ", {nn}", func(c *CPU) { c.opJPcc(c.condition(y)) }
	case 3:
		switch y {
		case 0:
			return "JP {nn}", func(c *CPU) { c.opJPcc(true) }
		case 1:
			if state == stateBase {
				return "CB", (*CPU).opPrefixCB
			}
			return names.pair + "CB", (*CPU).opPrefixIndexedBit
		case 2:
			return "OUT ({n}), A", (*CPU).opOUTNA
		case 3:
			return "IN A, ({n})", (*CPU).opINAN
		case 4:
			return "EX (SP), " + names.pair, (*CPU).opEXSPHL
		case 5:
			return "EX DE, HL", (*CPU).opEXDEHL
		case 6:
			return "DI", (*CPU).opDI
		}
		return "EI", (*CPU).opEI
	case 4:
		return "CALL " + condNames[y] + ", {nn}", func(c *CPU) { c.opCALLcc(c.condition(y)) }
	case 5:
		if q == 0 {
			return "PUSH " + names.rp2(p), func(c *CPU) { c.opPUSH(p) }
		}
		switch p {
		case 0:
			return "CALL {nn}", func(c *CPU) { c.opCALLcc(true) }
		case 1:
			return "DD", func(c *CPU) { c.opPrefixIndex(stateIndexedX) }
		case 2:
			return "ED", (*CPU).opPrefixED
		}
		return "FD", func(c *CPU) { c.opPrefixIndex(stateIndexedY) }
	case 6:
		op := aluOp(y)
		return aluNames[y] + "{n}", func(c *CPU) { c.opALUImm(op) }
	}
	target := uint16(y) * 8
	return fmt.Sprintf("RST $%02X", target), func(c *CPU) { c.opRST(target) }
}

func buildExtendedOps(t *[256]opcode) {
	for i := range t {
		op := byte(i)
		x, y, z := op>>6, op>>3&7, op&7
		p, q := y>>1, y&1

		m, fn := "NOP*", (*CPU).opUndefinedED
		switch {
		case x == 1:
			m, fn = extendedOp(y, z, p, q)
		case x == 2 && z <= 3 && y >= 4:
			m = blockNames[y-4][z]
			fn = blockOp(y, z)
		}
		t[i] = opcode{mnemonic: m, exec: fn}
	}
}

func extendedOp(y, z, p, q byte) (string, func(*CPU)) {
	switch z {
	case 0:
		if y == regMem {
			return "IN (C)", func(c *CPU) { c.opINRegC(y) }
		}
		return "IN " + plainRegNames[y] + ", (C)", func(c *CPU) { c.opINRegC(y) }
	case 1:
		if y == regMem {
			return "OUT (C), 0", func(c *CPU) { c.opOUTCReg(y) }
		}
		return "OUT (C), " + plainRegNames[y], func(c *CPU) { c.opOUTCReg(y) }
	case 2:
		names := namesFor(stateBase)
		if q == 0 {
			return "SBC HL, " + names.rp(p), func(c *CPU) { c.opSBCHL(p) }
		}
		return "ADC HL, " + names.rp(p), func(c *CPU) { c.opADCHL(p) }
	case 3:
		names := namesFor(stateBase)
		if q == 0 {
			return "LD ({nn}), " + names.rp(p), func(c *CPU) { c.opLDNNRP(p) }
		}
		return "LD " + names.rp(p) + ", ({nn})", func(c *CPU) { c.opLDRPNN(p) }
	case 4:
		return "NEG", (*CPU).opNEG
	case 5:
		if y == 1 {
			return "RETI", (*CPU).opRETN
		}
		return "RETN", (*CPU).opRETN
	case 6:
		mode := interruptModes[y]
		name := fmt.Sprintf("IM %d", mode)
		if y&3 == 1 {
			// ED 4E/6E: undocumented, behaves as IM 0.
			name = "IM 0/1"
		}
		return name, func(c *CPU) { c.IM = mode; c.tick(4) }
	}
	switch y {
	case 0:
		return "LD I, A", func(c *CPU) { c.I = c.A; c.tick(5) }
	case 1:
		return "LD R, A", func(c *CPU) { c.R = c.A; c.tick(5) }
	case 2:
		return "LD A, I", func(c *CPU) { c.opLDAIR(c.I) }
	case 3:
		return "LD A, R", func(c *CPU) { c.opLDAIR(c.R) }
	case 4:
		return "RRD", (*CPU).opRRD
	case 5:
		return "RLD", (*CPU).opRLD
	}
	return "NOP*", (*CPU).opUndefinedED
}

func blockOp(y, z byte) func(*CPU) {
	dir := uint16(1)
	if y&1 != 0 {
		dir = 0xFFFF
	}
	repeat := y >= 6
	switch z {
	case 0:
		return func(c *CPU) { c.opLDBlock(dir, repeat) }
	case 1:
		return func(c *CPU) { c.opCPBlock(dir, repeat) }
	case 2:
		return func(c *CPU) { c.opINBlock(dir, repeat) }
	}
	return func(c *CPU) { c.opOUTBlock(dir, repeat) }
}

func buildBitOps(t *[256]opcode) {
	for i := range t {
		op := byte(i)
		x, y, z := op>>6, op>>3&7, op&7
		r := plainRegNames[z]

		var m string
		var fn func(*CPU)
		switch x {
		case 0:
			sop := shiftOp(y)
			m, fn = shiftNames[y]+" "+r, func(c *CPU) { c.opShift(sop, z) }
		case 1:
			m, fn = fmt.Sprintf("BIT %d, %s", y, r), func(c *CPU) { c.opBit(y, z) }
		case 2:
			m, fn = fmt.Sprintf("RES %d, %s", y, r), func(c *CPU) { c.opSetRes(y, z, false) }
		default:
			m, fn = fmt.Sprintf("SET %d, %s", y, r), func(c *CPU) { c.opSetRes(y, z, true) }
		}
		t[i] = opcode{mnemonic: m, exec: fn}
	}
}

// buildIndexedBitOps fills a DDCB/FDCB table. The effective address is
// already resolved when an entry runs; for z != 6 the result is also
// copied into r[z].
func buildIndexedBitOps(t *[256]opcode, pair string) {
	mem := "(" + pair + "{d})"
	for i := range t {
		op := byte(i)
		x, y, z := op>>6, op>>3&7, op&7
		copyTo := ""
		if z != regMem {
			copyTo = ", " + plainRegNames[z]
		}

		var m string
		var fn func(*CPU)
		switch x {
		case 0:
			sop := shiftOp(y)
			m, fn = shiftNames[y]+" "+mem+copyTo, func(c *CPU) { c.opIndexedShift(sop, z) }
		case 1:
			m, fn = fmt.Sprintf("BIT %d, %s", y, mem), func(c *CPU) { c.opIndexedBit(y) }
		case 2:
			m, fn = fmt.Sprintf("RES %d, %s%s", y, mem, copyTo), func(c *CPU) { c.opIndexedSetRes(y, z, false) }
		default:
			m, fn = fmt.Sprintf("SET %d, %s%s", y, mem, copyTo), func(c *CPU) { c.opIndexedSetRes(y, z, true) }
		}
		t[i] = opcode{mnemonic: m, exec: fn}
	}
}

func (c *CPU) opPrefixCB() {
	c.tick(4)
	c.state = stateBit
	op := c.fetchOpcode()
	cbOps[op].exec(c)
}

func (c *CPU) opPrefixED() {
	c.tick(4)
	c.state = stateExtended
	op := c.fetchOpcode()
	edOps[op].exec(c)
}

// opPrefixIndex handles DD/FD. When another index prefix follows, this one
// ends the step as a 4 T-state NOP and PC stays on the next prefix, so a
// long chain never holds up Step. No interrupt is accepted in between.
func (c *CPU) opPrefixIndex(state decodeState) {
	c.tick(4)
	if next := c.read(c.PC); next == 0xDD || next == 0xFD {
		c.prefixPending = true
		return
	}
	c.state = state
	op := c.fetchOpcode()
	opTable(state)[op].exec(c)
}

// opPrefixIndexedBit handles the CB after DD/FD: the displacement comes
// before the final opcode, and neither byte is an M1 fetch.
func (c *CPU) opPrefixIndexedBit() {
	c.tick(4)
	base, next := c.IX, stateIndexedBitX
	if c.state == stateIndexedY {
		base, next = c.IY, stateIndexedBitY
	}
	c.ea = c.indexedEA(base)
	op := c.fetchByte()
	c.state = next
	opTable(next)[op].exec(c)
}
