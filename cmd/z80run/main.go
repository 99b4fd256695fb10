// main.go - z80run: run CP/M programs, test vectors and raw images

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

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	z80 "github.com/intuitionamiga/z80"
	"github.com/intuitionamiga/z80/cpm"
	"github.com/intuitionamiga/z80/internal/translate"
	"github.com/intuitionamiga/z80/loader"
	"github.com/intuitionamiga/z80/script"
	"github.com/intuitionamiga/z80/vectors"
)

// errFailures is returned when any vector case fails.
var errFailures = errors.New("test vectors failed")

type runConfig struct {
	Profile
	digest bool
	perf   bool
	path   string
}

func main() {
	configPath := flag.String("config", "", "TOML run profile")
	mode := flag.String("mode", "", "cpm, vectors, json or raw (default cpm)")
	load := flag.String("load", "", "Load address for raw images")
	trace := flag.Bool("trace", false, "Log every instruction")
	verbose := flag.Bool("v", false, "Verbose logging")
	maxCycles := flag.Uint64("max-cycles", 0, "Stop after this many T-states (0 = no limit)")
	scriptPath := flag.String("script", "", "Lua script with on_step/on_bdos hooks")
	digest := flag.Bool("digest", false, "Print register and memory digests when done")
	perf := flag.Bool("perf", false, "Report MIPS while running")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: z80run [options] file\n\nRuns a Z80 program or test file.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  z80run zexdoc.com.gz\n")
		fmt.Fprintf(os.Stderr, "  z80run -mode vectors tests.expected\n")
		fmt.Fprintf(os.Stderr, "  z80run -mode json 3c.json\n")
		fmt.Fprintf(os.Stderr, "  z80run -mode raw -load 0x8000 image.bin\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := runConfig{Profile: defaultProfile(), path: flag.Arg(0)}
	if *configPath != "" {
		p, err := loadProfile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg.Profile = p
	}

	// Explicit flags override the profile.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "load":
			cfg.Load = *load
		case "trace":
			cfg.Trace = *trace
		case "max-cycles":
			cfg.MaxCycles = *maxCycles
		case "script":
			cfg.Script = *scriptPath
		}
	})
	cfg.digest = *digest
	cfg.perf = *perf

	level := slog.LevelInfo
	if *verbose || cfg.Trace {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg runConfig, logger *slog.Logger, out io.Writer) error {
	switch cfg.Mode {
	case "", "cpm":
		return runCPM(ctx, cfg, logger, out)
	case "vectors":
		return runVectors(cfg, logger, out)
	case "json":
		return runJSON(cfg, logger, out)
	case "raw":
		return runRaw(ctx, cfg, logger, out)
	}
	return fmt.Errorf("unknown mode %q", cfg.Mode)
}

func cpuOptions(cfg runConfig, logger *slog.Logger) ([]z80.Option, error) {
	vector, err := parseAddr(cfg.IM0Vector)
	if err != nil {
		return nil, fmt.Errorf("im0_vector: %w", err)
	}
	return []z80.Option{
		z80.WithIM0Vector(vector),
		z80.WithTrace(cfg.Trace),
		z80.WithDebug(func(msg string) { logger.Debug(msg) }),
	}, nil
}

func openScript(cfg runConfig, logger *slog.Logger) (*script.Script, error) {
	if cfg.Script == "" {
		return nil, nil
	}
	return script.New(cfg.Script, logger)
}

func runCPM(ctx context.Context, cfg runConfig, logger *slog.Logger, out io.Writer) error {
	image, err := loader.Load(cfg.path)
	if err != nil {
		return err
	}
	cpuOpts, err := cpuOptions(cfg, logger)
	if err != nil {
		return err
	}

	console := cpm.NewConsole(os.Stdin, out)
	if err := console.MakeRaw(); err != nil {
		return err
	}
	defer console.Restore()

	opts := []cpm.Option{
		cpm.WithLogger(logger),
		cpm.WithConsole(console),
		cpm.WithMaxCycles(cfg.MaxCycles),
		cpm.WithPerf(cfg.perf),
		cpm.WithCPUOptions(cpuOpts...),
	}
	s, err := openScript(cfg, logger)
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
		opts = append(opts, cpm.WithStepHook(s.OnStep), cpm.WithBDOSHook(s.OnBDOS))
	}

	m := cpm.New(opts...)
	if err := m.Load(image); err != nil {
		return err
	}
	if s != nil {
		s.Attach(m.CPU, m.Mem)
	}

	res, err := m.Run(ctx)
	fmt.Fprintln(out)
	translate.Fprintf(out, "%s: %d instructions, %d cycles\n", res.Reason, res.Instructions, res.Cycles)
	if cfg.digest {
		printDigest(out, m.CPU, m.Mem)
	}
	if err != nil {
		return err
	}
	if s != nil {
		return s.Err()
	}
	return nil
}

func runRaw(ctx context.Context, cfg runConfig, logger *slog.Logger, out io.Writer) error {
	image, err := loader.Load(cfg.path)
	if err != nil {
		return err
	}
	base, err := parseAddr(cfg.Load)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	cpuOpts, err := cpuOptions(cfg, logger)
	if err != nil {
		return err
	}

	mem := z80.NewMemory()
	if err := mem.Load(base, image); err != nil {
		return err
	}
	cpu := z80.New(mem, cpuOpts...)
	cpu.PC = base
	if cfg.Entry != "" {
		if cpu.PC, err = parseAddr(cfg.Entry); err != nil {
			return fmt.Errorf("entry: %w", err)
		}
	}
	if cfg.SP != "" {
		if cpu.SP, err = parseAddr(cfg.SP); err != nil {
			return fmt.Errorf("sp: %w", err)
		}
	}

	s, err := openScript(cfg, logger)
	if err != nil {
		return err
	}
	runner := z80.NewRunner(cpu)
	runner.PerfEnabled = cfg.perf
	runner.MaxCycles = cfg.MaxCycles
	runner.Stop = func(c *z80.CPU) bool { return c.Halted && !c.IFF1 }
	if s != nil {
		defer s.Close()
		s.Attach(cpu, mem)
		runner.Stop = func(c *z80.CPU) bool {
			return (c.Halted && !c.IFF1) || s.OnStep(c)
		}
	}

	reason, err := runner.Run(ctx)
	translate.Fprintf(out, "%s: %d instructions, %d cycles\n", reason, runner.Instructions, cpu.Cycles)
	if cfg.digest {
		printDigest(out, cpu, mem)
	}
	if err != nil {
		return err
	}
	if s != nil {
		return s.Err()
	}
	return nil
}

func runVectors(cfg runConfig, logger *slog.Logger, out io.Writer) error {
	data, err := loader.Load(cfg.path)
	if err != nil {
		return err
	}
	cases, err := vectors.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	cpuOpts, err := cpuOptions(cfg, logger)
	if err != nil {
		return err
	}

	failures := 0
	var cycles uint64
	for i := range cases {
		c := &cases[i]
		mem := z80.NewMemory()
		cpu := z80.New(mem, cpuOpts...)
		n, err := c.Run(cpu, mem)
		if err == nil {
			err = c.Check(cpu, mem, n)
		}
		cycles += uint64(n)
		if err != nil {
			failures++
			logger.Error("vector failed", slog.Int("line", c.Line), slog.Any("err", err))
		}
	}
	return summarize(out, len(cases), failures, cycles)
}

func runJSON(cfg runConfig, logger *slog.Logger, out io.Writer) error {
	data, err := loader.Load(cfg.path)
	if err != nil {
		return err
	}
	tests, err := vectors.ParseJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	cpuOpts, err := cpuOptions(cfg, logger)
	if err != nil {
		return err
	}

	failures := 0
	var cycles uint64
	for i := range tests {
		t := &tests[i]
		mem := z80.NewMemory()
		cpu := z80.New(mem, cpuOpts...)
		cycles += uint64(t.Run(cpu, mem))
		if err := t.Check(cpu, mem); err != nil {
			failures++
			logger.Error("test failed", slog.String("name", t.Name), slog.Any("err", err))
		}
	}
	return summarize(out, len(tests), failures, cycles)
}

func summarize(out io.Writer, total, failures int, cycles uint64) error {
	translate.Fprintf(out, "%d cases, %d failures, %d cycles\n", total, failures, cycles)
	if failures > 0 {
		return fmt.Errorf("%w: %d of %d", errFailures, failures, total)
	}
	return nil
}

func printDigest(out io.Writer, cpu *z80.CPU, mem *z80.Memory) {
	fmt.Fprintf(out, "registers %016x\nmemory    %016x\n", cpu.Snapshot().Digest(), mem.Digest())
}
