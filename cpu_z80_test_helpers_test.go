package z80

import (
	"sort"
	"testing"
)

type portWrite struct {
	port  byte
	value byte
}

// testSystem is a Memory that counts T-states and records port traffic.
// Queued input bytes are served ahead of the port latches.
type testSystem struct {
	*Memory
	ticks  uint64
	queue  []byte
	writes []portWrite
}

func newTestSystem() *testSystem {
	s := &testSystem{Memory: NewMemory()}
	s.OnIn = func(byte) (byte, bool) {
		if len(s.queue) == 0 {
			return 0, false
		}
		value := s.queue[0]
		s.queue = s.queue[1:]
		return value, true
	}
	s.OnOut = func(port, value byte) {
		s.writes = append(s.writes, portWrite{port: port, value: value})
	}
	return s
}

func (s *testSystem) Tick(cycles int) {
	s.ticks += uint64(cycles)
}

type cpuZ80TestRig struct {
	sys *testSystem
	cpu *CPU
}

func newCPUZ80TestRig(opts ...Option) *cpuZ80TestRig {
	sys := newTestSystem()
	return &cpuZ80TestRig{sys: sys, cpu: New(sys, opts...)}
}

// resetAndLoad installs program at start on a fresh system and points PC
// at it. CPU options given to newCPUZ80TestRig are not carried over.
func (r *cpuZ80TestRig) resetAndLoad(start uint16, program []byte) {
	r.sys = newTestSystem()
	r.cpu = New(r.sys)
	copy(r.sys.RAM[start:], program)
	r.cpu.PC = start
}

// steps runs n instructions and returns the T-states they consumed.
func (r *cpuZ80TestRig) steps(n int) int {
	total := 0
	for range n {
		total += r.cpu.Step()
	}
	return total
}

// regs names register values through the same accessors the test-vector
// harness uses, so cases stay readable: regs{"HL": 0x4000, "F": FlagC}.
type regs map[string]int

// z80Case is one instruction-level scenario: load code at org (default
// 0x0000), apply the register and memory setup, run steps instructions
// and compare whatever the case names.
type z80Case struct {
	name   string
	org    uint16
	code   []byte
	set    regs
	mem    map[uint16]byte
	ports  map[byte]byte
	steps  int // 1 when zero
	want   regs
	memOut map[uint16]byte
	out    []portWrite
	cycles int // total T-states; skipped when zero
}

func (tc z80Case) run(t *testing.T) *cpuZ80TestRig {
	t.Helper()
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(tc.org, tc.code)
	for addr, value := range tc.mem {
		rig.sys.RAM[addr] = value
	}
	for port, value := range tc.ports {
		rig.sys.Ports[port] = value
	}
	for _, name := range sortedNames(tc.set) {
		if !rig.cpu.SetRegister(name, tc.set[name]) {
			t.Fatalf("unknown register %q in setup", name)
		}
	}

	n := tc.steps
	if n == 0 {
		n = 1
	}
	total := rig.steps(n)

	if tc.cycles != 0 && total != tc.cycles {
		t.Errorf("T-states = %d, want %d", total, tc.cycles)
	}
	if rig.sys.ticks != uint64(total) {
		t.Errorf("ticker saw %d T-states, Step returned %d", rig.sys.ticks, total)
	}
	for _, name := range sortedNames(tc.want) {
		got, ok := rig.cpu.Register(name)
		if !ok {
			t.Fatalf("unknown register %q in expectation", name)
		}
		if int(got) != tc.want[name] {
			t.Errorf("%s = 0x%02X, want 0x%02X", name, got, tc.want[name])
		}
	}
	for addr, want := range tc.memOut {
		if got := rig.sys.RAM[addr]; got != want {
			t.Errorf("mem[%04X] = 0x%02X, want 0x%02X", addr, got, want)
		}
	}
	if tc.out != nil {
		if len(rig.sys.writes) != len(tc.out) {
			t.Fatalf("port writes = %v, want %v", rig.sys.writes, tc.out)
		}
		for i := range tc.out {
			if rig.sys.writes[i] != tc.out[i] {
				t.Errorf("port write %d = %v, want %v", i, rig.sys.writes[i], tc.out[i])
			}
		}
	}
	return rig
}

func runZ80Cases(t *testing.T, cases []z80Case) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t)
		})
	}
}

// sortedNames applies pairs before their halves so {"HL": x, "L": y}
// behaves the same on every run.
func sortedNames(r regs) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

func requireZ80EqualU16(t *testing.T, name string, got, want uint16) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%04X, want 0x%04X", name, got, want)
	}
}

func requireZ80EqualU8(t *testing.T, name string, got, want byte) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%02X, want 0x%02X", name, got, want)
	}
}

func requireZ80Cycles(t *testing.T, cpu *CPU, want uint64) {
	t.Helper()
	if cpu.Cycles != want {
		t.Fatalf("Cycles = %d, want %d", cpu.Cycles, want)
	}
}
