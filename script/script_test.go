package script

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	z80 "github.com/intuitionamiga/z80"
	"github.com/intuitionamiga/z80/cpm"
)

func slogText(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}

func TestOnStepStops(t *testing.T) {
	s, err := NewString(`
function on_step(pc)
  return pc == 3
end`, nil)
	require.NoError(t, err)
	defer s.Close()

	mem := z80.NewMemory()
	cpu := z80.New(mem)
	s.Attach(cpu, mem)
	require.True(t, s.HasStepHook())
	require.False(t, s.HasBDOSHook())

	steps := 0
	for !s.OnStep(cpu) {
		cpu.Step()
		steps++
	}
	assert.Equal(t, 3, steps)
	assert.Equal(t, uint16(3), cpu.PC)
	assert.NoError(t, s.Err())
}

func TestRegistersAndMemory(t *testing.T) {
	var logs bytes.Buffer
	logger := slogText(&logs)
	s, err := NewString(`
function on_bdos(fn)
  poke(0x8000, fn)
  set_reg("HL", reg("DE") + 1)
  set_reg("a", peek(0x8001))
  log("bdos " .. fn)
end`, logger)
	require.NoError(t, err)
	defer s.Close()

	mem := z80.NewMemory()
	cpu := z80.New(mem)
	cpu.SetDE(0x1233)
	mem.Write(0x8001, 0x5A)
	s.Attach(cpu, mem)

	s.OnBDOS(9)
	require.NoError(t, s.Err())
	assert.Equal(t, byte(9), mem.Read(0x8000))
	assert.Equal(t, uint16(0x1234), cpu.HL())
	assert.Equal(t, byte(0x5A), cpu.A)
	assert.Contains(t, logs.String(), "bdos 9")
}

func TestHookErrors(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"out of range", `function on_bdos(fn) set_reg("A", 256) end`, "out of range"},
		{"unknown register", `function on_bdos(fn) reg("Q") end`, "unknown register Q"},
		{"bad poke", `function on_bdos(fn) poke(0x10000, 1) end`, "address out of range"},
		{"runtime error", `function on_bdos(fn) error("boom") end`, "boom"},
	}
	for _, tc := range tests {
		s, err := NewString(tc.src, nil)
		if !assert.NoError(err, tc.name) {
			continue
		}
		mem := z80.NewMemory()
		s.Attach(z80.New(mem), mem)
		s.OnBDOS(1)
		if assert.Error(s.Err(), tc.name) {
			assert.Contains(s.Err().Error(), tc.want, tc.name)
		}
		s.Close()
	}
}

func TestNotAttached(t *testing.T) {
	s, err := NewString(`function on_step(pc) return false end`, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.OnStep(z80.New(z80.NewMemory())))
	assert.ErrorIs(t, s.Err(), ErrNotAttached)
}

func TestLoadErrors(t *testing.T) {
	_, err := NewString(`function on_step(`, nil)
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing.lua"), nil)
	assert.Error(t, err)
}

func TestScriptDrivesCPMMachine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
calls = 0
function on_bdos(fn)
  calls = calls + 1
  poke(0x9000, calls)
end
function on_step(pc)
  return pc == 0x0108
end`), 0o644))

	s, err := New(path, nil)
	require.NoError(t, err)
	defer s.Close()

	program := append([]byte{
		0x11, 0x0B, 0x01, // LD DE,0x010B
		0x0E, 0x09, // LD C,9
		0xCD, 0x05, 0x00, // CALL 5
		0xC3, 0x00, 0x00, // JP 0
	}, []byte("hi$")...)

	var out bytes.Buffer
	m := cpm.New(
		cpm.WithConsole(cpm.NewConsole(strings.NewReader(""), &out)),
		cpm.WithStepHook(s.OnStep),
		cpm.WithBDOSHook(s.OnBDOS),
	)
	require.NoError(t, m.Load(program))
	s.Attach(m.CPU, m.Mem)

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Err())
	assert.Equal(t, cpm.ReasonStopped, res.Reason)
	assert.Equal(t, "hi", out.String())
	assert.Equal(t, byte(1), m.Mem.Read(0x9000))
}
