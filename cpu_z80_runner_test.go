package z80

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestZ80RunnerStopsOnPredicate(t *testing.T) {
	mem := NewMemory()
	if err := mem.Load(0x0000, []byte{0x3C, 0x18, 0xFD}); err != nil { // INC A; JR -3
		t.Fatalf("Load: %v", err)
	}
	r := NewRunner(New(mem))
	r.Stop = func(c *CPU) bool { return c.A == 10 }

	reason, err := r.Run(context.Background())
	if err != nil || reason != StopPredicate {
		t.Fatalf("Run = %v, %v", reason, err)
	}
	if r.Instructions != 19 {
		t.Fatalf("Instructions = %d, want 19", r.Instructions)
	}
	requireZ80Cycles(t, r.CPU(), 10*4+9*12)
}

func TestZ80RunnerCycleBudget(t *testing.T) {
	r := NewRunner(New(NewMemory()))
	r.MaxCycles = 100

	reason, err := r.Run(context.Background())
	if err != nil || reason != StopCycleBudget {
		t.Fatalf("Run = %v, %v", reason, err)
	}
	requireZ80Cycles(t, r.CPU(), 100)
	if r.Instructions != 25 {
		t.Fatalf("Instructions = %d, want 25", r.Instructions)
	}
	if reason.String() != "cycle budget exhausted" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestZ80RunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(New(NewMemory()))
	reason, err := r.Run(ctx)
	if reason != StopCancelled || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, %v", reason, err)
	}
	if r.Instructions != 0 {
		t.Fatalf("Instructions = %d, want 0", r.Instructions)
	}
}

func TestZ80RunnerBackgroundExecution(t *testing.T) {
	r := NewRunner(New(NewMemory()))
	r.StartExecution(context.Background())
	r.StartExecution(context.Background()) // already running: ignored

	reason, err := r.StopExecution()
	if reason != StopCancelled || !errors.Is(err, context.Canceled) {
		t.Fatalf("StopExecution = %v, %v", reason, err)
	}
	if r.IsRunning() {
		t.Fatalf("runner still active after StopExecution")
	}

	again, againErr := r.StopExecution()
	if again != reason || !errors.Is(againErr, context.Canceled) {
		t.Fatalf("second StopExecution = %v, %v", again, againErr)
	}
}

func TestZ80MemoryLoadBounds(t *testing.T) {
	mem := NewMemory()
	if err := mem.Load(0xFFFE, []byte{1, 2}); err != nil {
		t.Fatalf("Load at top of memory: %v", err)
	}
	requireZ80EqualU8(t, "mem[FFFF]", mem.Read(0xFFFF), 2)

	err := mem.Load(0xFFFE, []byte{1, 2, 3})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("Load past the end = %v, want ErrImageTooLarge", err)
	}
}

func TestZ80MemoryPortHooks(t *testing.T) {
	mem := NewMemory()
	var outs []portWrite
	mem.OnIn = func(port byte) (byte, bool) {
		if port == 0xFE {
			return 0xBF, true
		}
		return 0, false
	}
	mem.OnOut = func(port, value byte) {
		outs = append(outs, portWrite{port: port, value: value})
	}

	mem.Ports[0x10] = 0x55
	requireZ80EqualU8(t, "in FE", mem.In(0xFE), 0xBF)
	requireZ80EqualU8(t, "in 10", mem.In(0x10), 0x55)

	mem.Out(0x20, 0x99)
	requireZ80EqualU8(t, "port 20", mem.Ports[0x20], 0x99)
	if len(outs) != 1 || outs[0] != (portWrite{port: 0x20, value: 0x99}) {
		t.Fatalf("OnOut saw %v", outs)
	}
}

func TestZ80MemoryDigest(t *testing.T) {
	mem := NewMemory()
	empty := mem.Digest()

	mem.Write(0x8000, 0x01)
	if mem.Digest() == empty {
		t.Fatalf("digest unchanged after write")
	}

	mem.Clear()
	if mem.Digest() != empty {
		t.Fatalf("digest after Clear = %x, want %x", mem.Digest(), empty)
	}
}

func TestZ80RunnerPerfReportUsesDebugSink(t *testing.T) {
	var msgs []string
	r := NewRunner(New(NewMemory(), WithDebug(func(msg string) { msgs = append(msgs, msg) })))
	r.Instructions = 4_000_000
	r.perfStartTime = time.Now().Add(-2 * time.Second)
	r.lastPerfReport = r.perfStartTime

	r.reportPerf()
	r.reportPerf() // within a second of the last report
	if len(msgs) != 1 {
		t.Fatalf("reports = %q, want one", msgs)
	}
	if !strings.HasPrefix(msgs[0], "Z80: ") || !strings.HasSuffix(msgs[0], "(4000000 instructions in 2.0s)") {
		t.Fatalf("report = %q", msgs[0])
	}
}

func TestZ80RunnerPerfReportWithoutDebugSink(t *testing.T) {
	r := NewRunner(New(NewMemory()))
	r.Instructions = 1
	r.perfStartTime = time.Now().Add(-2 * time.Second)
	r.lastPerfReport = r.perfStartTime

	r.reportPerf()
	if !r.lastPerfReport.After(r.perfStartTime) {
		t.Fatalf("report time not advanced")
	}
}
