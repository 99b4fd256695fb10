// cpu_z80_disasm.go - Disassembler over the descriptor tables, used for tracing

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

import (
	"fmt"
	"strings"
)

// Disassemble decodes the instruction at addr and returns its text and
// length in bytes. Every byte sequence decodes to something.
func Disassemble(read func(addr uint16) byte, addr uint16) (string, int) {
	pc := addr
	next := func() byte {
		b := read(pc)
		pc++
		return b
	}

	table := &baseOps
	op := next()
	var disp byte
	hasDisp := false

decode:
	for {
		switch {
		case op == 0xDD || op == 0xFD:
			if table != &baseOps {
				// a prefix chain: the earlier prefix acts as a NOP
				return fmt.Sprintf("DEFB $%02X", read(addr)), 1
			}
			table = &ixOps
			if op == 0xFD {
				table = &iyOps
			}
			op = next()
		case op == 0xED:
			table = &edOps
			op = next()
			break decode
		case op == 0xCB && table == &baseOps:
			table = &cbOps
			op = next()
			break decode
		case op == 0xCB:
			disp = next()
			hasDisp = true
			if table == &ixOps {
				table = &ixcbOps
			} else {
				table = &iycbOps
			}
			op = next()
			break decode
		default:
			break decode
		}
	}

	tmpl := table[op].mnemonic
	var sb strings.Builder
	for len(tmpl) > 0 {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			sb.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end < 0 {
			sb.WriteString(tmpl)
			break
		}
		sb.WriteString(tmpl[:start])
		switch tmpl[start+1 : start+end] {
		case "n":
			fmt.Fprintf(&sb, "$%02X", next())
		case "nn":
			low := next()
			fmt.Fprintf(&sb, "$%04X", Pack(next(), low))
		case "e":
			e := int8(next())
			fmt.Fprintf(&sb, "$%04X", pc+uint16(e))
		case "d":
			if !hasDisp {
				disp = next()
			}
			d := int8(disp)
			if d < 0 {
				fmt.Fprintf(&sb, "-$%02X", -int(d))
			} else {
				fmt.Fprintf(&sb, "+$%02X", d)
			}
		}
		tmpl = tmpl[start+end+1:]
	}
	return sb.String(), int(pc - addr)
}

// traceLine renders the instruction about to execute with the register
// file, in the layout used by the debug sink.
func (c *CPU) traceLine() string {
	text, _ := Disassemble(c.bus.Read, c.PC)
	return fmt.Sprintf("%04X  %-20s AF=%04X BC=%04X DE=%04X HL=%04X IX=%04X IY=%04X SP=%04X",
		c.PC, text, c.AF(), c.BC(), c.DE(), c.HL(), c.IX, c.IY, c.SP)
}
