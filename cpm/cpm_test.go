package cpm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	z80 "github.com/intuitionamiga/z80"
)

func newTestMachine(t *testing.T, input string, program []byte, opts ...Option) (*Machine, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{WithConsole(NewConsole(strings.NewReader(input), out))}, opts...)
	m := New(opts...)
	require.NoError(t, m.Load(program))
	return m, out
}

// printBanner prints "Tests complete" through BDOS 9 and would warm boot
// afterwards.
var printBanner = append([]byte{
	0x11, 0x0B, 0x01, // LD DE,0x010B
	0x0E, 0x09, // LD C,9
	0xCD, 0x05, 0x00, // CALL 5
	0xC3, 0x00, 0x00, // JP 0
}, []byte("Tests complete$")...)

func TestRunStopsOnCompletionBanner(t *testing.T) {
	m, out := newTestMachine(t, "", printBanner)

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonComplete, res.Reason)
	assert.Equal(t, "Tests complete", res.Output)
	assert.Equal(t, "Tests complete", out.String())
	assert.Equal(t, uint64(10+7+17), res.Cycles)
	assert.Equal(t, uint64(3), res.Instructions)
}

func TestLoadSetsUpZeroPage(t *testing.T) {
	m, _ := newTestMachine(t, "", []byte{0x00})

	assert.Equal(t, uint16(LoadAddress), m.CPU.PC)
	assert.Equal(t, uint16(StackTop), m.CPU.SP)
	assert.Equal(t, byte(0xC3), m.Mem.Read(0x0005))
	assert.Equal(t, uint16(bdosStub), z80.Pack(m.Mem.Read(0x0007), m.Mem.Read(0x0006)))
	assert.Equal(t, byte(0xC9), m.Mem.Read(bdosStub))
}

func TestLoadRejectsOversizedImage(t *testing.T) {
	m := New(WithConsole(NewConsole(strings.NewReader(""), &bytes.Buffer{})))
	err := m.Load(make([]byte, bdosStub))
	assert.ErrorIs(t, err, z80.ErrImageTooLarge)

	_, err = m.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoProgram)
}

func TestRejectedLoadKeepsMemoryAndUnloads(t *testing.T) {
	m, _ := newTestMachine(t, "", printBanner)
	before := m.Mem.RAM

	err := m.Load(make([]byte, bdosStub))
	require.ErrorIs(t, err, z80.ErrImageTooLarge)
	assert.Equal(t, before, m.Mem.RAM, "memory untouched by a rejected image")

	_, err = m.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoProgram)
}

func TestWithPerfOption(t *testing.T) {
	m := New(WithConsole(NewConsole(strings.NewReader(""), &bytes.Buffer{})), WithPerf(true))
	assert.True(t, m.perf)
	assert.False(t, New(WithConsole(NewConsole(strings.NewReader(""), &bytes.Buffer{}))).perf)
}

func TestWriteCharThenExit(t *testing.T) {
	m, _ := newTestMachine(t, "", []byte{
		0x1E, 'A', // LD E,'A'
		0x0E, 0x02, // LD C,2
		0xCD, 0x05, 0x00, // CALL 5
		0x0E, 0x00, // LD C,0
		0xCD, 0x05, 0x00, // CALL 5
	})

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonExit, res.Reason)
	assert.Equal(t, "A", res.Output)
}

func TestReadCharEchoes(t *testing.T) {
	m, out := newTestMachine(t, "x\n", []byte{
		0x0E, 0x01, // LD C,1
		0xCD, 0x05, 0x00, // CALL 5
		0x5F,       // LD E,A
		0x0E, 0x02, // LD C,2
		0xCD, 0x05, 0x00, // CALL 5
		0x0E, 0x01, // LD C,1
		0xCD, 0x05, 0x00, // CALL 5
		0xC3, 0x00, 0x00, // JP 0
	})

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonWarmBoot, res.Reason)
	assert.Equal(t, "xx\r", out.String())
	assert.Equal(t, byte('\r'), m.CPU.A)
	assert.Equal(t, m.CPU.A, m.CPU.L)
}

func TestConsoleStatusAndRawIO(t *testing.T) {
	program := []byte{
		0x0E, 0x0B, // LD C,11
		0xCD, 0x05, 0x00, // CALL 5
		0x32, 0x00, 0x80, // LD (0x8000),A
		0x1E, 0xFF, // LD E,0xFF
		0x0E, 0x06, // LD C,6
		0xCD, 0x05, 0x00, // CALL 5
		0x32, 0x01, 0x80, // LD (0x8001),A
		0x1E, 0xFF, // LD E,0xFF
		0x0E, 0x06, // LD C,6
		0xCD, 0x05, 0x00, // CALL 5
		0x32, 0x02, 0x80, // LD (0x8002),A
		0xC3, 0x00, 0x00, // JP 0
	}
	m, out := newTestMachine(t, "k", program)

	_, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), m.Mem.Read(0x8000), "status with a key waiting")
	assert.Equal(t, byte('k'), m.Mem.Read(0x8001), "raw read")
	assert.Equal(t, byte(0x00), m.Mem.Read(0x8002), "raw read with no input")
	assert.Empty(t, out.String(), "raw reads do not echo")
}

// A terminal console reads through its goroutine, so a key typed after the
// program started polling still shows up in Ready.
func TestInteractiveConsoleSeesLateInput(t *testing.T) {
	pr, pw := io.Pipe()
	c := NewConsole(pr, io.Discard)
	c.startReader()

	assert.False(t, c.Ready(), "nothing typed yet")

	go func() {
		_, _ = pw.Write([]byte("\n"))
	}()
	require.Eventually(t, c.Ready, time.Second, time.Millisecond)
	assert.True(t, c.Ready(), "a waiting key stays ready until read")

	b, err := c.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('\r'), b)
	assert.False(t, c.Ready())

	require.NoError(t, pw.Close())
	b, err = c.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(ctrlZ), b, "closed input reads as ^Z")
	assert.False(t, c.Ready())
}

func TestVersion(t *testing.T) {
	m, _ := newTestMachine(t, "", []byte{
		0x0E, 0x0C, // LD C,12
		0xCD, 0x05, 0x00, // CALL 5
		0xC3, 0x00, 0x00, // JP 0
	})

	_, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0022), m.CPU.HL())
	assert.Equal(t, byte(0x22), m.CPU.A)
}

func TestUnsupportedCall(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, _ := newTestMachine(t, "", []byte{
		0x0E, 0x63, // LD C,99
		0xCD, 0x05, 0x00, // CALL 5
	}, WithLogger(logger))

	_, err := m.Run(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedCall)
	assert.Contains(t, err.Error(), "function 99 (0x63) at PC=0102")
	assert.Contains(t, logs.String(), "unsupported BDOS call")
}

func TestBDOSCallsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	var calls []uint8
	m, _ := newTestMachine(t, "", printBanner,
		WithLogger(logger),
		WithBDOSHook(func(fn uint8) { calls = append(calls, fn) }))

	_, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint8{9}, calls)
	assert.Contains(t, logs.String(), "name=C_WRITESTR")
}

func TestStepHookStops(t *testing.T) {
	m, _ := newTestMachine(t, "", printBanner,
		WithStepHook(func(c *z80.CPU) bool { return c.PC == 0x0103 }))

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonStopped, res.Reason)
	assert.Equal(t, uint16(0x0103), m.CPU.PC)
	assert.Equal(t, uint16(0x010B), m.CPU.DE())
}

func TestCycleBudget(t *testing.T) {
	m, _ := newTestMachine(t, "", []byte{0x18, 0xFE}, WithMaxCycles(1200)) // JR -2

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonCycleBudget, res.Reason)
	assert.Equal(t, uint64(1200), res.Cycles)
	assert.Equal(t, "cycle budget exhausted", res.Reason.String())
}

func TestCancelledRun(t *testing.T) {
	m, _ := newTestMachine(t, "", []byte{0x18, 0xFE})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := m.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, ReasonCancelled, res.Reason)
}

// TestZexdoc runs the documented-flags exerciser when it is available
// under testdata/. It takes several minutes.
func TestZexdoc(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping zexdoc in short mode")
	}
	path := filepath.Join("testdata", "zexdoc.com")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not present", path)
	}

	m := New(WithConsole(NewConsole(strings.NewReader(""), &bytes.Buffer{})))
	require.NoError(t, m.LoadFile(path))

	res, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonComplete, res.Reason)
	assert.NotContains(t, res.Output, "ERROR")
}
