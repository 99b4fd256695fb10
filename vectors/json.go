// json.go - JSON single-step test cases (name/initial/final format)

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

package vectors

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	z80 "github.com/intuitionamiga/z80"
)

// StepState is the register and memory state on either side of a step.
// JSON keys are the lower-case register names; shadow pairs carry a
// trailing underscore.
type StepState struct {
	PC   uint16 `json:"pc"`
	SP   uint16 `json:"sp"`
	A    byte   `json:"a"`
	B    byte   `json:"b"`
	C    byte   `json:"c"`
	D    byte   `json:"d"`
	E    byte   `json:"e"`
	F    byte   `json:"f"`
	H    byte   `json:"h"`
	L    byte   `json:"l"`
	I    byte   `json:"i"`
	R    byte   `json:"r"`
	IM   byte   `json:"im"`
	WZ   uint16 `json:"wz"`
	IX   uint16 `json:"ix"`
	IY   uint16 `json:"iy"`
	AF2  uint16 `json:"af_"`
	BC2  uint16 `json:"bc_"`
	DE2  uint16 `json:"de_"`
	HL2  uint16 `json:"hl_"`
	IFF1 int    `json:"iff1"`
	IFF2 int    `json:"iff2"`

	RAM [][2]int `json:"ram"` // [[address, value], ...]
}

// StepTest is one single-instruction case. Ports lists [port, value, "r"|"w"]
// bus transactions; read values are preloaded into the port latches.
type StepTest struct {
	Name    string    `json:"name"`
	Initial StepState `json:"initial"`
	Final   StepState `json:"final"`
	Ports   [][]any   `json:"ports"`
}

// ParseJSON decodes an array of step tests. Entries without a name are
// dropped.
func ParseJSON(r io.Reader) ([]StepTest, error) {
	var raw []StepTest
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode JSON: %v", ErrSyntax, err)
	}
	tests := raw[:0]
	for _, t := range raw {
		if t.Name != "" {
			tests = append(tests, t)
		}
	}
	return tests, nil
}

func (s StepState) state() z80.State {
	return z80.State{
		AF: z80.Pack(s.A, s.F), BC: z80.Pack(s.B, s.C),
		DE: z80.Pack(s.D, s.E), HL: z80.Pack(s.H, s.L),
		AF2: s.AF2, BC2: s.BC2, DE2: s.DE2, HL2: s.HL2,
		IX: s.IX, IY: s.IY, SP: s.SP, PC: s.PC, WZ: s.WZ,
		I: s.I, R: s.R, IM: s.IM,
		IFF1: s.IFF1 != 0, IFF2: s.IFF2 != 0,
	}
}

// Run loads the initial state and executes one Step, returning its
// T-states.
func (t *StepTest) Run(cpu *z80.CPU, mem *z80.Memory) int {
	mem.Clear()
	for _, cell := range t.Initial.RAM {
		mem.Write(uint16(cell[0]), byte(cell[1]))
	}
	for _, p := range t.Ports {
		if len(p) < 3 {
			continue
		}
		port, okPort := p[0].(float64)
		value, okValue := p[1].(float64)
		dir, _ := p[2].(string)
		if okPort && okValue && dir == "r" {
			mem.Ports[byte(int(port))] = byte(int(value))
		}
	}
	cpu.Reset()
	cpu.Restore(t.Initial.state())
	return cpu.Step()
}

// Check compares every final field except R, plus the listed RAM cells.
func (t *StepTest) Check(cpu *z80.CPU, mem *z80.Memory) error {
	var result *multierror.Error
	want := t.Final

	result = compareByte(result, "A", cpu.A, want.A)
	result = compareByte(result, "F", cpu.F, want.F)
	result = compareByte(result, "B", cpu.B, want.B)
	result = compareByte(result, "C", cpu.C, want.C)
	result = compareByte(result, "D", cpu.D, want.D)
	result = compareByte(result, "E", cpu.E, want.E)
	result = compareByte(result, "H", cpu.H, want.H)
	result = compareByte(result, "L", cpu.L, want.L)
	result = compareByte(result, "I", cpu.I, want.I)
	result = compareWord(result, "PC", cpu.PC, want.PC)
	result = compareWord(result, "SP", cpu.SP, want.SP)
	result = compareWord(result, "IX", cpu.IX, want.IX)
	result = compareWord(result, "IY", cpu.IY, want.IY)
	result = compareWord(result, "AF'", cpu.AF2(), want.AF2)
	result = compareWord(result, "BC'", cpu.BC2(), want.BC2)
	result = compareWord(result, "DE'", cpu.DE2(), want.DE2)
	result = compareWord(result, "HL'", cpu.HL2(), want.HL2)
	result = compareFlag(result, "IFF1", cpu.IFF1, want.IFF1 != 0)
	result = compareFlag(result, "IFF2", cpu.IFF2, want.IFF2 != 0)

	for _, cell := range want.RAM {
		addr := uint16(cell[0])
		result = compareByte(result, fmt.Sprintf("ram[%04X]", addr), mem.Read(addr), byte(cell[1]))
	}
	return result.ErrorOrNil()
}
