// cpu_z80_runner.go - Step loop with cancellation, stop predicate and MIPS reporting

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
	"context"
	"sync"
	"time"
)

// StopReason says why Run returned.
type StopReason int

const (
	StopCancelled StopReason = iota
	StopPredicate
	StopCycleBudget
)

func (r StopReason) String() string {
	switch r {
	case StopPredicate:
		return "stopped"
	case StopCycleBudget:
		return "cycle budget exhausted"
	}
	return "cancelled"
}

// cancelCheckInterval is how many instructions run between context checks.
const cancelCheckInterval = 4096

// Runner owns the step loop for one CPU.
type Runner struct {
	cpu         *CPU
	PerfEnabled bool

	// Stop is evaluated before every instruction; returning true ends Run.
	Stop func(*CPU) bool
	// MaxCycles ends Run once the CPU's cycle total reaches it. Zero means
	// no limit.
	MaxCycles uint64

	Instructions uint64

	perfStartTime  time.Time
	lastPerfReport time.Time

	execMu     sync.Mutex
	execDone   chan struct{}
	execCancel context.CancelFunc
	execActive bool
	lastReason StopReason
	lastErr    error
}

func NewRunner(cpu *CPU) *Runner {
	return &Runner{cpu: cpu}
}

func (r *Runner) CPU() *CPU {
	return r.cpu
}

// Run steps the CPU until the stop predicate fires, the cycle budget runs
// out or ctx is cancelled. A cancelled run returns ctx.Err().
func (r *Runner) Run(ctx context.Context) (StopReason, error) {
	if r.PerfEnabled {
		r.perfStartTime = time.Now()
		r.lastPerfReport = r.perfStartTime
	}

	for {
		if r.Instructions%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return StopCancelled, ctx.Err()
			default:
			}
		}
		if r.Stop != nil && r.Stop(r.cpu) {
			return StopPredicate, nil
		}
		if r.MaxCycles != 0 && r.cpu.Cycles >= r.MaxCycles {
			return StopCycleBudget, nil
		}

		r.cpu.Step()
		r.Instructions++

		if r.PerfEnabled && r.Instructions&0xFFFFFF == 0 { // Every ~16M instructions
			r.reportPerf()
		}
	}
}

func (r *Runner) reportPerf() {
	now := time.Now()
	if now.Sub(r.lastPerfReport) < time.Second {
		return
	}
	elapsed := now.Sub(r.perfStartTime).Seconds()
	mips := float64(r.Instructions) / elapsed / 1_000_000
	r.cpu.notify("Z80: %.2f MIPS (%.0f instructions in %.1fs)", mips, float64(r.Instructions), elapsed)
	r.lastPerfReport = now
}

func (r *Runner) IsRunning() bool {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	return r.execActive
}

// StartExecution runs the loop on its own goroutine. It is a no-op when a
// run is already active.
func (r *Runner) StartExecution(ctx context.Context) {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	if r.execActive {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.execActive = true
	r.execCancel = cancel
	r.execDone = make(chan struct{})
	go func() {
		reason, err := r.Run(ctx)
		r.execMu.Lock()
		r.execActive = false
		r.lastReason, r.lastErr = reason, err
		close(r.execDone)
		r.execMu.Unlock()
		cancel()
	}()
}

// StopExecution cancels a background run and waits for it to finish,
// returning how that run ended.
func (r *Runner) StopExecution() (StopReason, error) {
	r.execMu.Lock()
	if !r.execActive {
		reason, err := r.lastReason, r.lastErr
		r.execMu.Unlock()
		return reason, err
	}
	r.execCancel()
	done := r.execDone
	r.execMu.Unlock()
	<-done

	r.execMu.Lock()
	defer r.execMu.Unlock()
	return r.lastReason, r.lastErr
}
