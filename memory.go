// memory.go - Flat 64K memory bus with 256 IO ports

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
	"errors"
	"fmt"

	"github.com/cespare/xxhash"
)

const AddressSpace = 0x10000

// ErrImageTooLarge is returned by Load when the image does not fit above
// the load address.
var ErrImageTooLarge = errors.New("z80: image does not fit in the address space")

// Memory maps the whole 16-bit address space onto one RAM array. IO ports
// are latched in Ports unless the OnIn/OnOut hooks claim them.
type Memory struct {
	RAM   [AddressSpace]byte
	Ports [0x100]byte

	// OnIn may supply a port value; returning false falls back to Ports.
	OnIn  func(port byte) (byte, bool)
	OnOut func(port, value byte)
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Read(addr uint16) byte {
	return m.RAM[addr]
}

func (m *Memory) Write(addr uint16, value byte) {
	m.RAM[addr] = value
}

func (m *Memory) In(port byte) byte {
	if m.OnIn != nil {
		if value, ok := m.OnIn(port); ok {
			return value
		}
	}
	return m.Ports[port]
}

func (m *Memory) Out(port byte, value byte) {
	m.Ports[port] = value
	if m.OnOut != nil {
		m.OnOut(port, value)
	}
}

// Load copies data into RAM starting at addr.
func (m *Memory) Load(addr uint16, data []byte) error {
	if end := int(addr) + len(data); end > AddressSpace {
		return fmt.Errorf("%w: end=0x%X", ErrImageTooLarge, end)
	}
	copy(m.RAM[addr:], data)
	return nil
}

// Clear zeroes RAM and the port latches. Hooks are kept.
func (m *Memory) Clear() {
	m.RAM = [AddressSpace]byte{}
	m.Ports = [0x100]byte{}
}

// Digest hashes the full RAM contents.
func (m *Memory) Digest() uint64 {
	return xxhash.Sum64(m.RAM[:])
}
