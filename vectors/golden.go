// golden.go - Before/after register vector files and their runner

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

/*
Vector file format:

	before <mem bytes...> | <end> <cycles> <AF> <BC> <DE> <HL> <AF'> <BC'> <DE'> <HL'> <IX> <IY> <PC> <SP> <I> <R> <R7> <IM> <IFF1> <IFF2>
	after  <mem bytes...> | <end> <cycles> <same 18 register fields>
	memchk <addr> <value>

All numbers are hex except cycles. The before line carries the memory image
loaded at address 0; the after line carries the address execution stops at
and the expected T-state total. memchk lines belong to the case above them.
*/

package vectors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	z80 "github.com/intuitionamiga/z80"
)

var (
	// ErrSyntax wraps every parse failure; the message carries the line.
	ErrSyntax = errors.New("vectors: syntax error")

	// ErrRunaway is returned when a case never reaches its end address.
	ErrRunaway = errors.New("vectors: step limit reached")
)

// maxCaseSteps bounds Case.Run. Every generated case is a handful of
// instructions, so hitting this means the PC escaped.
const maxCaseSteps = 1 << 20

const registerFields = 18

// Regs is one register dump in file order.
type Regs struct {
	AF, BC, DE, HL     uint16
	AF2, BC2, DE2, HL2 uint16
	IX, IY, PC, SP     uint16
	I, R, R7, IM       byte
	IFF1, IFF2         bool
}

// State converts the dump to a CPU snapshot. R7 supplies bit 7 of R.
func (r Regs) State() z80.State {
	return z80.State{
		AF: r.AF, BC: r.BC, DE: r.DE, HL: r.HL,
		AF2: r.AF2, BC2: r.BC2, DE2: r.DE2, HL2: r.HL2,
		IX: r.IX, IY: r.IY, SP: r.SP, PC: r.PC,
		I: r.I, R: r.R&0x7F | r.R7&0x80, IM: r.IM,
		IFF1: r.IFF1, IFF2: r.IFF2,
	}
}

type MemCheck struct {
	Addr  uint16
	Value byte
}

// Case is one before/after pair.
type Case struct {
	Line      int
	Memory    []byte
	MemoryOut []byte
	End       uint16
	Cycles    int
	Before    Regs
	After     Regs
	Checks    []MemCheck
}

// Parse reads a vector file. Blank lines and lines starting with '#' are
// ignored.
func Parse(r io.Reader) ([]Case, error) {
	var (
		cases   []Case
		pending *Case
		lineNo  int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "before":
			if pending != nil {
				return nil, syntaxError(lineNo, "before line at %d has no after line", pending.Line)
			}
			mem, _, _, regs, err := parseDump(fields[1:])
			if err != nil {
				return nil, syntaxError(lineNo, "%v", err)
			}
			pending = &Case{Line: lineNo, Memory: mem, Before: regs}

		case "after":
			if pending == nil {
				return nil, syntaxError(lineNo, "after line without before line")
			}
			mem, end, cycles, regs, err := parseDump(fields[1:])
			if err != nil {
				return nil, syntaxError(lineNo, "%v", err)
			}
			pending.MemoryOut = mem
			pending.End = end
			pending.Cycles = cycles
			pending.After = regs
			cases = append(cases, *pending)
			pending = nil

		case "memchk":
			if pending != nil || len(cases) == 0 {
				return nil, syntaxError(lineNo, "memchk outside a completed case")
			}
			if len(fields) != 3 {
				return nil, syntaxError(lineNo, "memchk wants 2 fields, got %d", len(fields)-1)
			}
			addr, err := parseHex(fields[1], 16)
			if err != nil {
				return nil, syntaxError(lineNo, "%v", err)
			}
			value, err := parseHex(fields[2], 8)
			if err != nil {
				return nil, syntaxError(lineNo, "%v", err)
			}
			last := &cases[len(cases)-1]
			last.Checks = append(last.Checks, MemCheck{Addr: uint16(addr), Value: byte(value)})

		default:
			return nil, syntaxError(lineNo, "unknown record %q", fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vectors: read: %w", err)
	}
	if pending != nil {
		return nil, syntaxError(pending.Line, "before line has no after line")
	}
	return cases, nil
}

func syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

func parseHex(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("bad hex field %q", s)
	}
	return v, nil
}

func parseDump(fields []string) (mem []byte, end uint16, cycles int, regs Regs, err error) {
	sep := -1
	for i, f := range fields {
		if f == "|" {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, 0, 0, regs, errors.New("missing '|' separator")
	}
	for _, f := range fields[:sep] {
		v, err := parseHex(f, 8)
		if err != nil {
			return nil, 0, 0, regs, err
		}
		mem = append(mem, byte(v))
	}

	rest := fields[sep+1:]
	if len(rest) != 2+registerFields {
		return nil, 0, 0, regs, fmt.Errorf("want %d fields after '|', got %d", 2+registerFields, len(rest))
	}
	e, err := parseHex(rest[0], 16)
	if err != nil {
		return nil, 0, 0, regs, err
	}
	cycles, err = strconv.Atoi(rest[1])
	if err != nil || cycles < 0 {
		return nil, 0, 0, regs, fmt.Errorf("bad cycle count %q", rest[1])
	}

	var words [registerFields]uint16
	for i, f := range rest[2:] {
		v, err := parseHex(f, 16)
		if err != nil {
			return nil, 0, 0, regs, err
		}
		words[i] = uint16(v)
	}
	regs = Regs{
		AF: words[0], BC: words[1], DE: words[2], HL: words[3],
		AF2: words[4], BC2: words[5], DE2: words[6], HL2: words[7],
		IX: words[8], IY: words[9], PC: words[10], SP: words[11],
		I: byte(words[12]), R: byte(words[13]), R7: byte(words[14]), IM: byte(words[15]),
		IFF1: words[16] != 0, IFF2: words[17] != 0,
	}
	return mem, uint16(e), cycles, regs, nil
}

// Run loads the before state and steps until PC reaches the end address.
// It returns the T-states consumed.
func (c *Case) Run(cpu *z80.CPU, mem *z80.Memory) (int, error) {
	mem.Clear()
	if err := mem.Load(0, c.Memory); err != nil {
		return 0, fmt.Errorf("vectors: case at line %d: %w", c.Line, err)
	}
	cpu.Reset()
	cpu.Restore(c.Before.State())

	cycles := 0
	for steps := 0; cpu.PC < c.End; steps++ {
		if steps == maxCaseSteps {
			return cycles, fmt.Errorf("%w: case at line %d, PC=%04X", ErrRunaway, c.Line, cpu.PC)
		}
		cycles += cpu.Step()
	}
	return cycles, nil
}

// Check compares the CPU and memory against the after line. All mismatches
// are returned together; R, I and the interrupt flip-flops are not
// compared.
func (c *Case) Check(cpu *z80.CPU, mem *z80.Memory, cycles int) error {
	var result *multierror.Error
	want := c.After
	got := cpu.Snapshot()

	result = compareWord(result, "AF", got.AF, want.AF)
	result = compareWord(result, "BC", got.BC, want.BC)
	result = compareWord(result, "DE", got.DE, want.DE)
	result = compareWord(result, "HL", got.HL, want.HL)
	result = compareWord(result, "AF'", got.AF2, want.AF2)
	result = compareWord(result, "BC'", got.BC2, want.BC2)
	result = compareWord(result, "DE'", got.DE2, want.DE2)
	result = compareWord(result, "HL'", got.HL2, want.HL2)
	result = compareWord(result, "IX", got.IX, want.IX)
	result = compareWord(result, "IY", got.IY, want.IY)
	result = compareWord(result, "PC", got.PC, want.PC)
	result = compareWord(result, "SP", got.SP, want.SP)
	result = compareByte(result, "IM", got.IM, want.IM)

	for i, value := range c.MemoryOut {
		result = compareByte(result, fmt.Sprintf("mem[%04X]", i), mem.Read(uint16(i)), value)
	}
	for _, chk := range c.Checks {
		result = compareByte(result, fmt.Sprintf("mem[%04X]", chk.Addr), mem.Read(chk.Addr), chk.Value)
	}
	if c.Cycles != 0 && cycles != c.Cycles {
		result = multierror.Append(result, &Mismatch{Field: "cycles", Got: cycles, Want: c.Cycles, decimal: true})
	}
	return result.ErrorOrNil()
}
