package z80

import (
	"strings"
	"testing"
)

func TestZ80DescriptorTablesComplete(t *testing.T) {
	for state := stateBase; state <= stateIndexedBitY; state++ {
		table := opTable(state)
		for op, entry := range table {
			if entry.exec == nil {
				t.Fatalf("%s table: opcode %02X has no executor", state, op)
			}
			if entry.mnemonic == "" {
				t.Fatalf("%s table: opcode %02X has no mnemonic", state, op)
			}
		}
	}
	if got := decodeState(42).String(); got != "state(42)" {
		t.Fatalf("unknown state name = %q", got)
	}
}

func TestZ80IndexedBitCopiesToRegister(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xDD, 0xCB, 0x05, 0x00}) // RLC (IX+5),B
	rig.cpu.IX = 0x1000
	rig.sys.RAM[0x1005] = 0x81

	if got := rig.cpu.Step(); got != 23 {
		t.Fatalf("RLC (IX+d),B took %d T-states, want 23", got)
	}
	requireZ80EqualU8(t, "mem[1005]", rig.sys.RAM[0x1005], 0x03)
	requireZ80EqualU8(t, "B", rig.cpu.B, 0x03)
	requireZ80EqualU16(t, "WZ", rig.cpu.WZ, 0x1005)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0004)
	requireZ80EqualU8(t, "R", rig.cpu.R, 2)
	if rig.cpu.F&FlagC == 0 {
		t.Fatalf("carry should be set, F=%02X", rig.cpu.F)
	}
}

func TestZ80UndefinedEDReportsAndContinues(t *testing.T) {
	var msgs []string
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00, 0xED, 0x77, 0x3C})
	rig.cpu = New(rig.sys, WithDebug(func(msg string) { msgs = append(msgs, msg) }))

	rig.cpu.Step()
	if got := rig.cpu.Step(); got != 8 {
		t.Fatalf("undefined ED opcode took %d T-states, want 8", got)
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0003)
	if len(msgs) != 1 || msgs[0] != "z80: undefined ED opcode at 0001" {
		t.Fatalf("debug messages = %q", msgs)
	}

	rig.cpu.Step()
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x01)
}

func TestZ80IndexPrefixChainEndsStep(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xDD, 0xFD, 0x21, 0x34, 0x12}) // LD IY,0x1234
	rig.cpu.SP = 0x8000
	rig.cpu.IM = 1
	rig.cpu.IFF1, rig.cpu.IFF2 = true, true

	if got := rig.cpu.Step(); got != 4 {
		t.Fatalf("DD before FD took %d T-states, want 4", got)
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0001)
	requireZ80EqualU8(t, "R", rig.cpu.R, 1)

	// not accepted between the prefixes
	rig.cpu.RequestInterrupt()
	if got := rig.cpu.Step(); got != 14 {
		t.Fatalf("FD LD IY,nn took %d T-states, want 14", got)
	}
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0x1234)
	requireZ80EqualU16(t, "IX", rig.cpu.IX, 0x0000)
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x0000)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0005)
	requireZ80EqualU8(t, "R", rig.cpu.R, 3)

	if got := rig.cpu.Step(); got != 13 {
		t.Fatalf("IM 1 acknowledge took %d T-states, want 13", got)
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0038)
}

func TestZ80PrefixFloodKeepsStepping(t *testing.T) {
	for _, prefix := range []byte{0xDD, 0xFD} {
		rig := newCPUZ80TestRig()
		for i := range rig.sys.RAM {
			rig.sys.RAM[i] = prefix
		}

		for i := range 0x10001 {
			if got := rig.cpu.Step(); got != 4 {
				t.Fatalf("%02X step %d took %d T-states, want 4", prefix, i, got)
			}
		}
		requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0001)
		requireZ80Cycles(t, rig.cpu, 4*0x10001)
	}
}

func TestZ80Disassemble(t *testing.T) {
	tests := []struct {
		addr  uint16
		bytes []byte
		want  string
		size  int
	}{
		{0x0000, []byte{0x00}, "NOP", 1},
		{0x0000, []byte{0x3E, 0x42}, "LD A, $42", 2},
		{0x0000, []byte{0x21, 0x34, 0x12}, "LD HL, $1234", 3},
		{0x0100, []byte{0x18, 0xFE}, "JR $0100", 2},
		{0x0100, []byte{0x20, 0x03}, "JR NZ, $0105", 2},
		{0x0000, []byte{0xDD, 0x7E, 0x05}, "LD A, (IX+$05)", 3},
		{0x0000, []byte{0xFD, 0x36, 0xFD, 0x99}, "LD (IY-$03), $99", 4},
		{0x0000, []byte{0xDD, 0x66, 0x02}, "LD H, (IX+$02)", 3},
		{0x0000, []byte{0xDD, 0x44}, "LD B, IXH", 2},
		{0x0000, []byte{0xDD, 0xE9}, "JP (IX)", 2},
		{0x0000, []byte{0xDD, 0xCB, 0x05, 0x00}, "RLC (IX+$05), B", 4},
		{0x0000, []byte{0xFD, 0xCB, 0x80, 0x7E}, "BIT 7, (IY-$80)", 4},
		{0x0000, []byte{0xCB, 0x7E}, "BIT 7, (HL)", 2},
		{0x0000, []byte{0xED, 0xB0}, "LDIR", 2},
		{0x0000, []byte{0xED, 0x5E}, "IM 2", 2},
		{0x0000, []byte{0xED, 0x6E}, "IM 0/1", 2},
		{0x0000, []byte{0xED, 0x43, 0x00, 0x80}, "LD ($8000), BC", 4},
		{0x0000, []byte{0xED, 0x77}, "NOP*", 2},
		{0x0000, []byte{0xDD, 0xDD, 0x00}, "DEFB $DD", 1},
		{0x0000, []byte{0xD3, 0xFE}, "OUT ($FE), A", 2},
		{0x0000, []byte{0xFF}, "RST $38", 1},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			var mem [0x10000]byte
			copy(mem[tc.addr:], tc.bytes)
			got, size := Disassemble(func(addr uint16) byte { return mem[addr] }, tc.addr)
			if got != tc.want || size != tc.size {
				t.Fatalf("Disassemble(% X) = %q/%d, want %q/%d", tc.bytes, got, size, tc.want, tc.size)
			}
		})
	}
}

func TestZ80TraceEmitsOneLinePerInstruction(t *testing.T) {
	var lines []string
	sys := newTestSystem()
	copy(sys.RAM[:], []byte{0x3E, 0x42, 0x76})
	cpu := New(sys, WithTrace(true), WithDebug(func(msg string) { lines = append(lines, msg) }))

	cpu.Step()
	cpu.Step()
	cpu.Step() // halted: no instruction is decoded

	if len(lines) != 2 {
		t.Fatalf("trace lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "0000  LD A, $42") {
		t.Fatalf("first trace line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "AF=4200") {
		t.Fatalf("second trace line = %q", lines[1])
	}
}
