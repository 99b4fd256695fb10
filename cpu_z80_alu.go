// cpu_z80_alu.go - Flag/ALU engine: pure functions returning (result, flags)

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

// Z80 flag bit positions in the F register.
const (
	FlagS  byte = 0x80
	FlagZ  byte = 0x40
	FlagY  byte = 0x20 // undocumented, copy of result bit 5
	FlagH  byte = 0x10
	FlagX  byte = 0x08 // undocumented, copy of result bit 3
	FlagPV byte = 0x04
	FlagN  byte = 0x02
	FlagC  byte = 0x01
)

const flagsXY = FlagX | FlagY

var (
	// sz53Table holds S, Z, 5 and 3 for each byte value
	sz53Table [256]byte
	// sz53pTable is sz53Table with the parity flag added
	sz53pTable  [256]byte
	parityTable [256]byte
)

func init() {
	for i := range 256 {
		v := byte(i)
		sz53Table[i] = v & (FlagS | flagsXY)
		if parity8(v) {
			parityTable[i] = FlagPV
		}
		sz53pTable[i] = sz53Table[i] | parityTable[i]
	}
	sz53Table[0] |= FlagZ
	sz53pTable[0] |= FlagZ
}

func parity8(value byte) bool {
	value ^= value >> 4
	value ^= value >> 2
	value ^= value >> 1
	return value&1 == 0
}

type aluOp byte

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

var aluNames = [8]string{"ADD A, ", "ADC A, ", "SUB ", "SBC A, ", "AND ", "XOR ", "OR ", "CP "}

// alu8 applies one of the eight accumulator operations. For CP the
// accumulator is returned unchanged.
func alu8(op aluOp, a, value, f byte) (byte, byte) {
	switch op {
	case aluAdd:
		return add8(a, value, 0)
	case aluAdc:
		return add8(a, value, f&FlagC)
	case aluSub:
		return sub8(a, value, 0)
	case aluSbc:
		return sub8(a, value, f&FlagC)
	case aluAnd:
		return and8(a, value)
	case aluXor:
		return xor8(a, value)
	case aluOr:
		return or8(a, value)
	default:
		return a, cp8(a, value)
	}
}

func add8(a, b, carry byte) (byte, byte) {
	sum := uint16(a) + uint16(b) + uint16(carry)
	res := byte(sum)
	f := sz53Table[res]
	if (a^b^res)&0x10 != 0 {
		f |= FlagH
	}
	if (a^res)&(b^res)&0x80 != 0 {
		f |= FlagPV
	}
	if sum > 0xFF {
		f |= FlagC
	}
	return res, f
}

func sub8(a, b, carry byte) (byte, byte) {
	diff := int(a) - int(b) - int(carry)
	res := byte(diff)
	f := sz53Table[res] | FlagN
	if (a^b^res)&0x10 != 0 {
		f |= FlagH
	}
	if (a^b)&(a^res)&0x80 != 0 {
		f |= FlagPV
	}
	if diff < 0 {
		f |= FlagC
	}
	return res, f
}

// cp8 is a subtraction that discards the result; bits 5/3 come from the
// operand rather than the result.
func cp8(a, b byte) byte {
	_, f := sub8(a, b, 0)
	return f&^flagsXY | b&flagsXY
}

func and8(a, b byte) (byte, byte) {
	res := a & b
	return res, sz53pTable[res] | FlagH
}

func xor8(a, b byte) (byte, byte) {
	res := a ^ b
	return res, sz53pTable[res]
}

func or8(a, b byte) (byte, byte) {
	res := a | b
	return res, sz53pTable[res]
}

func inc8(value, f byte) (byte, byte) {
	res := value + 1
	nf := f&FlagC | sz53Table[res]
	if value&0x0F == 0x0F {
		nf |= FlagH
	}
	if value == 0x7F {
		nf |= FlagPV
	}
	return res, nf
}

func dec8(value, f byte) (byte, byte) {
	res := value - 1
	nf := f&FlagC | FlagN | sz53Table[res]
	if value&0x0F == 0 {
		nf |= FlagH
	}
	if value == 0x80 {
		nf |= FlagPV
	}
	return res, nf
}

func neg8(a byte) (byte, byte) {
	return sub8(0, a, 0)
}

// add16 is ADD HL/IX/IY,rr: S, Z and PV survive from f.
func add16(a, b uint16, f byte) (uint16, byte) {
	sum := uint32(a) + uint32(b)
	res := uint16(sum)
	nf := f&(FlagS|FlagZ|FlagPV) | byte(res>>8)&flagsXY
	if (a^b^res)&0x1000 != 0 {
		nf |= FlagH
	}
	if sum > 0xFFFF {
		nf |= FlagC
	}
	return res, nf
}

func adc16(a, b uint16, carry byte) (uint16, byte) {
	sum := uint32(a) + uint32(b) + uint32(carry)
	res := uint16(sum)
	f := byte(res>>8) & (FlagS | flagsXY)
	if res == 0 {
		f |= FlagZ
	}
	if (a^b^res)&0x1000 != 0 {
		f |= FlagH
	}
	if (a^res)&(b^res)&0x8000 != 0 {
		f |= FlagPV
	}
	if sum > 0xFFFF {
		f |= FlagC
	}
	return res, f
}

func sbc16(a, b uint16, carry byte) (uint16, byte) {
	diff := int32(a) - int32(b) - int32(carry)
	res := uint16(diff)
	f := FlagN | byte(res>>8)&(FlagS|flagsXY)
	if res == 0 {
		f |= FlagZ
	}
	if (a^b^res)&0x1000 != 0 {
		f |= FlagH
	}
	if (a^b)&(a^res)&0x8000 != 0 {
		f |= FlagPV
	}
	if diff < 0 {
		f |= FlagC
	}
	return res, f
}

type shiftOp byte

const (
	shiftRLC shiftOp = iota
	shiftRRC
	shiftRL
	shiftRR
	shiftSLA
	shiftSRA
	shiftSLL // undocumented: shifts a 1 into bit 0
	shiftSRL
)

var shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}

// shift8 implements the CB-prefixed rotate/shift group.
func shift8(op shiftOp, value, f byte) (byte, byte) {
	var res, carry byte
	switch op {
	case shiftRLC:
		carry = value >> 7
		res = value<<1 | carry
	case shiftRRC:
		carry = value & 0x01
		res = value>>1 | carry<<7
	case shiftRL:
		carry = value >> 7
		res = value<<1 | f&FlagC
	case shiftRR:
		carry = value & 0x01
		res = value>>1 | (f&FlagC)<<7
	case shiftSLA:
		carry = value >> 7
		res = value << 1
	case shiftSRA:
		carry = value & 0x01
		res = value>>1 | value&0x80
	case shiftSLL:
		carry = value >> 7
		res = value<<1 | 0x01
	default:
		carry = value & 0x01
		res = value >> 1
	}
	return res, sz53pTable[res] | carry
}

// rotateA implements RLCA/RRCA/RLA/RRA, which keep S, Z and PV.
func rotateA(op shiftOp, a, f byte) (byte, byte) {
	res, sf := shift8(op, a, f)
	return res, f&(FlagS|FlagZ|FlagPV) | res&flagsXY | sf&FlagC
}

// bit8 is BIT n: xy supplies the undocumented bits 5/3, which differ by
// addressing mode.
func bit8(n, value, xy, f byte) byte {
	nf := f&FlagC | FlagH | xy&flagsXY
	if value&(1<<n) == 0 {
		nf |= FlagZ | FlagPV
	} else if n == 7 {
		nf |= FlagS
	}
	return nf
}

func daa(a, f byte) (byte, byte) {
	var diff byte
	carry := f & FlagC
	if f&FlagH != 0 || a&0x0F > 0x09 {
		diff = 0x06
	}
	if carry != 0 || a > 0x99 {
		diff |= 0x60
		carry = FlagC
	}

	var res, half byte
	if f&FlagN != 0 {
		res = a - diff
		if f&FlagH != 0 && a&0x0F < 0x06 {
			half = FlagH
		}
	} else {
		res = a + diff
		if a&0x0F > 0x09 {
			half = FlagH
		}
	}
	return res, sz53pTable[res] | half | f&FlagN | carry
}

func cpl(a, f byte) (byte, byte) {
	res := ^a
	return res, f&(FlagS|FlagZ|FlagPV|FlagC) | FlagH | FlagN | res&flagsXY
}

func scf(a, f byte) byte {
	return f&(FlagS|FlagZ|FlagPV) | FlagC | a&flagsXY
}

// ccf moves the old carry into H and inverts C.
func ccf(a, f byte) byte {
	return f&(FlagS|FlagZ|FlagPV) | a&flagsXY | (f&FlagC)<<4 | (f&FlagC)^FlagC
}

// ldirFlags covers LDI/LDD/LDIR/LDDR. n = A + transferred byte supplies
// bit 3 and, shifted, bit 1 as flag bit 5.
func ldirFlags(a, value, f byte, bc uint16) byte {
	n := a + value
	nf := f&(FlagS|FlagZ|FlagC) | n&FlagX | (n&0x02)<<4
	if bc != 0 {
		nf |= FlagPV
	}
	return nf
}

// cpirFlags covers CPI/CPD/CPIR/CPDR with n = A - value - H.
func cpirFlags(a, value, f byte, bc uint16) byte {
	res := a - value
	half := (a ^ value ^ res) & FlagH
	n := res - half>>4
	nf := FlagN | f&FlagC | sz53Table[res]&(FlagS|FlagZ) | half | n&FlagX | (n&0x02)<<4
	if bc != 0 {
		nf |= FlagPV
	}
	return nf
}

// ioBlockFlags covers INI/IND/OUTI/OUTD and their repeats. k is the sum of
// the transferred byte and the adjusted C (input) or L (output).
func ioBlockFlags(value, b byte, k int) byte {
	f := sz53Table[b]
	if value&0x80 != 0 {
		f |= FlagN
	}
	if k > 0xFF {
		f |= FlagH | FlagC
	}
	return f | parityTable[byte(k&0x07)^b]
}

// ldAIRFlags is LD A,I / LD A,R: PV reflects IFF2.
func ldAIRFlags(value, f byte, iff2 bool) byte {
	nf := f&FlagC | sz53Table[value]
	if iff2 {
		nf |= FlagPV
	}
	return nf
}

// szpFlags is the common S/Z/5/3/P pattern with carry preserved, used by
// IN r,(C), RRD and RLD.
func szpFlags(value, f byte) byte {
	return sz53pTable[value] | f&FlagC
}
