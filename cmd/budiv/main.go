// Command budiv compiles and runs one budiv source file on a headless host
// loop, ticking the scheduler at the configured frame rate until the run
// list holds no alive process, a native calls exit, or the user interrupts
// with Ctrl-C (§1 Host responsibilities).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"github.com/akadjoker/budiv/internal/compiler"
	"github.com/akadjoker/budiv/internal/config"
	"github.com/akadjoker/budiv/internal/diag"
	"github.com/akadjoker/budiv/internal/hostdemo"
	"github.com/akadjoker/budiv/internal/vm"
)

func main() {
	var (
		file       string
		fps        int
		configPath string
		colorFlag  string
		demo       bool
	)
	flag.StringVar(&file, "file", "", "budiv source file to run")
	flag.IntVar(&fps, "fps", 0, "override the host frame rate (0 = use config/default)")
	flag.StringVar(&configPath, "config", "", "optional budiv.toml host configuration")
	flag.StringVar(&colorFlag, "color", "auto", "diagnostic coloring: auto, always, never")
	flag.BoolVar(&demo, "demo", false, "register the headless demo native functions (sin/cos/sqrt/clock/exit/kill/sleep/...)")
	flag.Parse()
	if file == "" && flag.NArg() > 0 {
		file = flag.Arg(0)
	}

	sessionID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("session", sessionID)

	if file == "" {
		logger.Error("no source file given, pass -file or a positional argument")
		os.Exit(2)
	}

	var forceColor *bool
	switch colorFlag {
	case "always":
		v := true
		forceColor = &v
	case "never":
		v := false
		forceColor = &v
	}
	renderer := diag.NewRenderer(forceColor)

	host := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Error("failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		host = loaded
	}
	if fps > 0 {
		host.Scheduler.FPS = fps
	}

	src, err := os.ReadFile(file)
	if err != nil {
		logger.Error("cannot read source file", "path", file, "error", err)
		os.Exit(1)
	}

	prog, diags := compiler.Compile(string(src))
	if len(diags) > 0 {
		fmt.Fprint(os.Stderr, renderer.Compile(file, diags))
		os.Exit(1)
	}

	logger.Info("compiled", "file", file, "fps", host.Scheduler.FPS)

	interp := vm.New(prog)
	interp.Log = logger
	interp.SetMaxProcesses(host.Scheduler.MaxProcesses)
	if demo {
		hostdemo.Register(interp)
	}
	interp.Start()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)

	frameDuration := time.Second / time.Duration(host.Scheduler.FPS)
	dt := frameDuration.Seconds()

runLoop:
	for {
		select {
		case <-sigc:
			logger.Info("interrupted, shutting down")
			break runLoop
		default:
		}

		errs, stop := interp.Tick(dt)
		for _, e := range errs {
			fmt.Fprint(os.Stderr, renderer.Runtime(e))
		}
		if stop {
			break
		}
		time.Sleep(frameDuration)
	}

	logger.Info("exited", "code", interp.ExitValue())
	os.Exit(interp.ExitValue())
}
