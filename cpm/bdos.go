// bdos.go - BDOS console functions

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

package cpm

import "strings"

// completeMarker is printed by zexdoc/zexall when every group has run.
const completeMarker = "Tests complete"

// Handler is one emulated BDOS function.
type Handler struct {
	// Desc is the CP/M name of the call, used in logs.
	Desc    string
	Handler func(m *Machine) error
}

func defaultSyscalls() map[uint8]Handler {
	return map[uint8]Handler{
		0:  {Desc: "P_TERMCPM", Handler: sysExit},
		1:  {Desc: "C_READ", Handler: sysReadChar},
		2:  {Desc: "C_WRITE", Handler: sysWriteChar},
		6:  {Desc: "C_RAWIO", Handler: sysRawIO},
		9:  {Desc: "C_WRITESTR", Handler: sysWriteString},
		11: {Desc: "C_STAT", Handler: sysConsoleStatus},
		12: {Desc: "S_BDOSVER", Handler: sysVersion},
	}
}

func sysExit(m *Machine) error {
	m.finish(ReasonExit)
	return nil
}

// sysReadChar waits for a key and echoes it.
func sysReadChar(m *Machine) error {
	b, err := m.console.ReadByte()
	if err != nil {
		return err
	}
	m.setReturn(b)
	return m.emit(b)
}

func sysWriteChar(m *Machine) error {
	return m.emit(m.CPU.E)
}

// sysRawIO: E=0xFF reads a key without echo (0 if none is waiting),
// E=0xFE reports status, anything else is written.
func sysRawIO(m *Machine) error {
	switch e := m.CPU.E; e {
	case 0xFF:
		if !m.console.Ready() {
			m.setReturn(0)
			return nil
		}
		b, err := m.console.ReadByte()
		if err != nil {
			return err
		}
		m.setReturn(b)
		return nil
	case 0xFE:
		m.setReturn(readyByte(m.console.Ready()))
		return nil
	default:
		return m.emit(e)
	}
}

// sysWriteString prints the '$'-terminated string at DE. Seeing the
// completion banner ends the run.
func sysWriteString(m *Machine) error {
	var sb strings.Builder
	addr := m.CPU.DE()
	for n := 0; n < 0x10000; n++ {
		c := m.Mem.Read(addr)
		if c == '$' {
			break
		}
		sb.WriteByte(c)
		if err := m.emit(c); err != nil {
			return err
		}
		addr++
	}
	if strings.Contains(sb.String(), completeMarker) {
		m.finish(ReasonComplete)
	}
	return nil
}

func sysConsoleStatus(m *Machine) error {
	m.setReturn(readyByte(m.console.Ready()))
	return nil
}

// sysVersion reports CP/M 2.2.
func sysVersion(m *Machine) error {
	m.setReturn(0x22)
	return nil
}

func readyByte(ready bool) byte {
	if ready {
		return 0xFF
	}
	return 0
}
