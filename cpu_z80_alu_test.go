package z80

import (
	"math/bits"
	"testing"
)

// The reference models below restate each flag from its arithmetic
// definition (signed overflow, nibble borrow, popcount) instead of the
// bitwise shortcuts the engine uses, and are compared over every input.

func refSZXY(v byte) byte {
	f := v & (FlagS | FlagY | FlagX)
	if v == 0 {
		f |= FlagZ
	}
	return f
}

func refParity(v byte) byte {
	if bits.OnesCount8(v)%2 == 0 {
		return FlagPV
	}
	return 0
}

func refAdd(a, b, c byte) (byte, byte) {
	res := a + b + c
	f := refSZXY(res)
	if int(a&0x0F)+int(b&0x0F)+int(c) > 0x0F {
		f |= FlagH
	}
	if s := int(int8(a)) + int(int8(b)) + int(c); s < -128 || s > 127 {
		f |= FlagPV
	}
	if int(a)+int(b)+int(c) > 0xFF {
		f |= FlagC
	}
	return res, f
}

func refSub(a, b, c byte) (byte, byte) {
	res := a - b - c
	f := refSZXY(res) | FlagN
	if int(a&0x0F)-int(b&0x0F)-int(c) < 0 {
		f |= FlagH
	}
	if s := int(int8(a)) - int(int8(b)) - int(c); s < -128 || s > 127 {
		f |= FlagPV
	}
	if int(a)-int(b)-int(c) < 0 {
		f |= FlagC
	}
	return res, f
}

func TestZ80ArithmeticMatchesReference(t *testing.T) {
	for a := range 256 {
		for b := range 256 {
			for c := range byte(2) {
				ua, ub := byte(a), byte(b)
				res, f := add8(ua, ub, c)
				wantRes, wantF := refAdd(ua, ub, c)
				if res != wantRes || f != wantF {
					t.Fatalf("add8(%02X,%02X,%d) = %02X/%02X, want %02X/%02X", ua, ub, c, res, f, wantRes, wantF)
				}
				res, f = sub8(ua, ub, c)
				wantRes, wantF = refSub(ua, ub, c)
				if res != wantRes || f != wantF {
					t.Fatalf("sub8(%02X,%02X,%d) = %02X/%02X, want %02X/%02X", ua, ub, c, res, f, wantRes, wantF)
				}
			}
		}
	}
}

func TestZ80CompareTakesBits53FromOperand(t *testing.T) {
	for a := range 256 {
		for b := range 256 {
			ua, ub := byte(a), byte(b)
			_, subF := refSub(ua, ub, 0)
			want := subF&^(FlagY|FlagX) | ub&(FlagY|FlagX)
			if got := cp8(ua, ub); got != want {
				t.Fatalf("cp8(%02X,%02X) = %02X, want %02X", ua, ub, got, want)
			}
		}
	}
}

func TestZ80LogicMatchesReference(t *testing.T) {
	ops := []struct {
		name string
		fn   func(a, b byte) (byte, byte)
		ref  func(a, b byte) byte
		half byte
	}{
		{"AND", and8, func(a, b byte) byte { return a & b }, FlagH},
		{"XOR", xor8, func(a, b byte) byte { return a ^ b }, 0},
		{"OR", or8, func(a, b byte) byte { return a | b }, 0},
	}
	for _, op := range ops {
		for a := range 256 {
			for b := range 256 {
				res, f := op.fn(byte(a), byte(b))
				wantRes := op.ref(byte(a), byte(b))
				wantF := refSZXY(wantRes) | refParity(wantRes) | op.half
				if res != wantRes || f != wantF {
					t.Fatalf("%s %02X,%02X = %02X/%02X, want %02X/%02X", op.name, a, b, res, f, wantRes, wantF)
				}
			}
		}
	}
}

func TestZ80IncDecMatchReference(t *testing.T) {
	for v := range 256 {
		for _, carry := range []byte{0, FlagC} {
			// INC/DEC are ADD/SUB of one that leave C alone.
			value := byte(v)
			inFlags := carry | FlagS | FlagZ | FlagH | FlagPV | FlagN

			res, f := inc8(value, inFlags)
			wantRes, wantF := refAdd(value, 1, 0)
			wantF = wantF&^FlagC | carry
			if res != wantRes || f != wantF {
				t.Fatalf("inc8(%02X, C=%d) = %02X/%02X, want %02X/%02X", value, carry, res, f, wantRes, wantF)
			}

			res, f = dec8(value, inFlags)
			wantRes, wantF = refSub(value, 1, 0)
			wantF = wantF&^FlagC | carry
			if res != wantRes || f != wantF {
				t.Fatalf("dec8(%02X, C=%d) = %02X/%02X, want %02X/%02X", value, carry, res, f, wantRes, wantF)
			}
		}
	}
}

func TestZ80Arithmetic16MatchesReference(t *testing.T) {
	for a := 0; a < 0x10000; a += 0x0123 {
		for b := 0; b < 0x10000; b += 0x0105 {
			for c := range uint16(2) {
				ua, ub := uint16(a), uint16(b)

				sum := ua + ub + c
				want := byte(sum>>8)&(FlagS|FlagY|FlagX) | boolFlag(sum == 0, FlagZ) |
					boolFlag(int(ua&0x0FFF)+int(ub&0x0FFF)+int(c) > 0x0FFF, FlagH) |
					boolFlag(overflows16(int(int16(ua))+int(int16(ub))+int(c)), FlagPV) |
					boolFlag(int(ua)+int(ub)+int(c) > 0xFFFF, FlagC)
				if res, f := adc16(ua, ub, byte(c)); res != sum || f != want {
					t.Fatalf("adc16(%04X,%04X,%d) = %04X/%02X, want %04X/%02X", ua, ub, c, res, f, sum, want)
				}

				diff := ua - ub - c
				want = FlagN | byte(diff>>8)&(FlagS|FlagY|FlagX) | boolFlag(diff == 0, FlagZ) |
					boolFlag(int(ua&0x0FFF)-int(ub&0x0FFF)-int(c) < 0, FlagH) |
					boolFlag(overflows16(int(int16(ua))-int(int16(ub))-int(c)), FlagPV) |
					boolFlag(int(ua)-int(ub)-int(c) < 0, FlagC)
				if res, f := sbc16(ua, ub, byte(c)); res != diff || f != want {
					t.Fatalf("sbc16(%04X,%04X,%d) = %04X/%02X, want %04X/%02X", ua, ub, c, res, f, diff, want)
				}
			}

			// ADD rr,rr keeps S, Z and PV from the incoming flags.
			ua, ub := uint16(a), uint16(b)
			sum := ua + ub
			keep := FlagS | FlagPV
			want := keep | byte(sum>>8)&(FlagY|FlagX) |
				boolFlag(int(ua&0x0FFF)+int(ub&0x0FFF) > 0x0FFF, FlagH) |
				boolFlag(int(ua)+int(ub) > 0xFFFF, FlagC)
			if res, f := add16(ua, ub, keep|FlagN); res != sum || f != want {
				t.Fatalf("add16(%04X,%04X) = %04X/%02X, want %04X/%02X", ua, ub, res, f, sum, want)
			}
		}
	}
}

func boolFlag(on bool, flag byte) byte {
	if on {
		return flag
	}
	return 0
}

func overflows16(v int) bool {
	return v < -0x8000 || v > 0x7FFF
}

func TestZ80ShiftsMatchReference(t *testing.T) {
	// Each op as a 9-bit rotate through a carry slot: in is the bit fed
	// into the vacated end, out is the bit that leaves.
	ref := map[shiftOp]func(v, c byte) (res, out byte){
		shiftRLC: func(v, _ byte) (byte, byte) { return bits.RotateLeft8(v, 1), v >> 7 },
		shiftRRC: func(v, _ byte) (byte, byte) { return bits.RotateLeft8(v, -1), v & 1 },
		shiftRL:  func(v, c byte) (byte, byte) { return v<<1 | c, v >> 7 },
		shiftRR:  func(v, c byte) (byte, byte) { return v>>1 | c<<7, v & 1 },
		shiftSLA: func(v, _ byte) (byte, byte) { return v << 1, v >> 7 },
		shiftSRA: func(v, _ byte) (byte, byte) { return byte(int8(v) >> 1), v & 1 },
		shiftSLL: func(v, _ byte) (byte, byte) { return v<<1 | 1, v >> 7 },
		shiftSRL: func(v, _ byte) (byte, byte) { return v >> 1, v & 1 },
	}
	for op, fn := range ref {
		for v := range 256 {
			for c := range byte(2) {
				res, f := shift8(op, byte(v), c|FlagH|FlagN)
				wantRes, out := fn(byte(v), c)
				wantF := refSZXY(wantRes) | refParity(wantRes) | out
				if res != wantRes || f != wantF {
					t.Fatalf("%s %02X (C=%d) = %02X/%02X, want %02X/%02X", shiftNames[op], v, c, res, f, wantRes, wantF)
				}

				// The accumulator forms keep S, Z and PV and take 5/3 from the result.
				if op > shiftRR {
					continue
				}
				in := c | FlagS | FlagZ | FlagPV | FlagH | FlagN
				res, f = rotateA(op, byte(v), in)
				wantF = FlagS | FlagZ | FlagPV | wantRes&(FlagY|FlagX) | out
				if res != wantRes || f != wantF {
					t.Fatalf("%sA %02X (C=%d) = %02X/%02X, want %02X/%02X", shiftNames[op], v, c, res, f, wantRes, wantF)
				}
			}
		}
	}
}

// refDAA follows the published correction-factor table for DAA.
func refDAA(a, f byte) (byte, byte) {
	hi, lo := a>>4, a&0x0F
	carry, half, neg := f&FlagC != 0, f&FlagH != 0, f&FlagN != 0

	var diff byte
	switch {
	case carry:
		diff = 0x60
		if half || lo > 9 {
			diff = 0x66
		}
	case lo > 9:
		diff = 0x06
		if hi > 8 {
			diff = 0x66
		}
	case hi > 9:
		diff = 0x60
		if half {
			diff = 0x66
		}
	case half:
		diff = 0x06
	}

	outCarry := carry || (hi > 8 && lo > 9) || (hi > 9 && lo <= 9)
	var outHalf bool
	if neg {
		outHalf = half && lo < 6
	} else {
		outHalf = lo > 9
	}

	res := a + diff
	if neg {
		res = a - diff
	}
	nf := refSZXY(res) | refParity(res) | f&FlagN | boolFlag(outHalf, FlagH) | boolFlag(outCarry, FlagC)
	return res, nf
}

func TestZ80DAAMatchesCorrectionTable(t *testing.T) {
	for a := range 256 {
		for _, f := range []byte{0, FlagC, FlagH, FlagC | FlagH, FlagN, FlagN | FlagC, FlagN | FlagH, FlagN | FlagH | FlagC} {
			res, nf := daa(byte(a), f)
			wantRes, wantF := refDAA(byte(a), f)
			if res != wantRes || nf != wantF {
				t.Fatalf("daa(%02X, F=%02X) = %02X/%02X, want %02X/%02X", a, f, res, nf, wantRes, wantF)
			}
		}
	}
}

func TestZ80BitFlags(t *testing.T) {
	tests := []struct {
		n, value, xy, f byte
		want            byte
	}{
		{0, 0x01, 0x00, 0x00, FlagH},
		{0, 0x00, 0x00, FlagC, FlagZ | FlagPV | FlagH | FlagC},
		{7, 0x80, 0x00, 0x00, FlagS | FlagH},
		{7, 0x7F, 0x00, 0x00, FlagZ | FlagPV | FlagH},
		{3, 0x08, 0x28, 0x00, FlagH | FlagY | FlagX},
		{5, 0x00, 0xFF, FlagN, FlagZ | FlagPV | FlagH | FlagY | FlagX},
	}
	for _, tc := range tests {
		if got := bit8(tc.n, tc.value, tc.xy, tc.f); got != tc.want {
			t.Errorf("bit8(%d, %02X, xy=%02X, F=%02X) = %02X, want %02X", tc.n, tc.value, tc.xy, tc.f, got, tc.want)
		}
	}
}

func TestZ80FlagTablesAgreeWithPopcount(t *testing.T) {
	for v := range 256 {
		if got, want := parityTable[v], refParity(byte(v)); got != want {
			t.Fatalf("parityTable[%02X] = %02X, want %02X", v, got, want)
		}
		if got, want := sz53pTable[v], refSZXY(byte(v))|refParity(byte(v)); got != want {
			t.Fatalf("sz53pTable[%02X] = %02X, want %02X", v, got, want)
		}
	}
}
