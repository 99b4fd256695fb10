// console.go - CP/M console device over a host reader/writer

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

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ctrlZ is what console input returns once the host stream is exhausted.
const ctrlZ = 0x1A

// Console is the BDOS console. When the input is a terminal it can be put
// into raw mode so single keystrokes reach the program unechoed.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
	raw   *term.State

	// Interactive inputs are drained by a reader goroutine so Ready never
	// blocks on the host. keys is closed after the first read error.
	keys    chan key
	pending *key
}

type key struct {
	b   byte
	err error
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.fd = int(f.Fd())
		c.isTTY = true
		c.startReader()
	}
	return c
}

// startReader hands input to a goroutine that lives until the input fails
// or ends. A terminal read cannot be interrupted, so it may outlive the
// console.
func (c *Console) startReader() {
	c.keys = make(chan key, 64)
	go func() {
		defer close(c.keys)
		for {
			b, err := c.in.ReadByte()
			c.keys <- key{b: b, err: err}
			if err != nil {
				return
			}
		}
	}()
}

// MakeRaw disables host echo and line buffering. It is a no-op when the
// input is not a terminal.
func (c *Console) MakeRaw() error {
	if !c.isTTY || c.raw != nil {
		return nil
	}
	st, err := term.MakeRaw(c.fd)
	if err != nil {
		return fmt.Errorf("cpm: raw console: %w", err)
	}
	c.raw = st
	return nil
}

// Restore undoes MakeRaw.
func (c *Console) Restore() error {
	if c.raw == nil {
		return nil
	}
	err := term.Restore(c.fd, c.raw)
	c.raw = nil
	if err != nil {
		return fmt.Errorf("cpm: restore console: %w", err)
	}
	return nil
}

// ReadByte blocks for one key. Host newlines become CR and DEL becomes
// backspace; end of input reads as ^Z.
func (c *Console) ReadByte() (byte, error) {
	var b byte
	var err error
	switch {
	case c.pending != nil:
		b, err = c.pending.b, c.pending.err
		c.pending = nil
	case c.keys != nil:
		k, ok := <-c.keys
		if !ok {
			k.err = io.EOF
		}
		b, err = k.b, k.err
	default:
		b, err = c.in.ReadByte()
	}
	if errors.Is(err, io.EOF) {
		return ctrlZ, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cpm: console read: %w", err)
	}
	switch b {
	case '\n':
		b = '\r'
	case 0x7F:
		b = 0x08
	}
	return b, nil
}

// Ready reports whether a key is waiting. On a terminal it only looks at
// what the reader goroutine has already delivered; other inputs are ready
// until they are exhausted.
func (c *Console) Ready() bool {
	if c.keys != nil {
		if c.pending == nil {
			select {
			case k, ok := <-c.keys:
				if !ok {
					k.err = io.EOF
				}
				c.pending = &k
			default:
				return false
			}
		}
		return c.pending.err == nil
	}
	_, err := c.in.Peek(1)
	return err == nil
}

func (c *Console) WriteByte(b byte) error {
	if _, err := c.out.Write([]byte{b}); err != nil {
		return fmt.Errorf("cpm: console write: %w", err)
	}
	return nil
}
