// Package main is the entry point for the infopane demo.
//
// It runs the infoview engine against a tcell terminal surface (or the
// headless simulator with -sim) and a static content provider, for manual
// smoke testing of panel lifecycle and refresh behavior.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/tidwall/sjson"

	"github.com/dshills/infopane/internal/config"
	"github.com/dshills/infopane/internal/editor"
	"github.com/dshills/infopane/internal/format"
	"github.com/dshills/infopane/internal/infoview"
	"github.com/dshills/infopane/internal/log"
	"github.com/dshills/infopane/internal/provider"
	"github.com/dshills/infopane/internal/verify"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		simMode     bool
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&simMode, "sim", false, "Run a scripted session on the headless surface")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("infopane %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.Log.Level),
		Output: os.Stderr,
		Prefix: "infopane",
	})
	log.SetDefault(logger)

	opts := []infoview.Option{
		infoview.WithLogger(logger.WithComponent("engine")),
		infoview.WithQueryTimeout(cfg.QueryTimeout()),
		infoview.WithDebounce(cfg.Debounce()),
	}

	if cfg.Lua.FormatScript != "" {
		hook, err := format.LoadHook(cfg.Lua.FormatScript, func(err error) {
			logger.Warn("format hook disabled: %v", err)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer hook.Close()
		opts = append(opts, infoview.WithFormatter(hook.Apply))
	}

	if simMode {
		return runSim(cfg, opts)
	}
	return runTerminal(opts)
}

// runTerminal drives an interactive session: o opens the panel, c closes
// it, r pushes new server content, q quits.
func runTerminal(opts []infoview.Option) int {
	term, err := editor.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init terminal: %v\n", err)
		return 1
	}
	defer term.Shutdown()

	srcBuf, err := term.CreateBuffer("demo.lean")
	if err != nil {
		return 1
	}
	_ = term.SetBufferLines(srcBuf, []string{
		"example : True := trivial",
		"",
		"[o] open panel  [c] close panel  [r] push server update  [d] server done  [q] quit",
	})
	srcWin, err := term.CreateWindow(srcBuf)
	if err != nil {
		return 1
	}

	pos := provider.At("demo.lean", 0, 0)
	prov := provider.NewStatic()
	prov.Set(pos, "⊢ True")

	progress := provider.NewProgressTracker()
	opts = append(opts, infoview.WithProgress(progress))

	engine := infoview.NewEngine(term, prov, opts...)
	defer engine.Shutdown()
	engine.SetPosition(pos)

	updates := 0
	for {
		ev := term.PollEvent()
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			term.Draw()
			continue
		}

		switch key.Rune() {
		case 'q':
			return 0
		case 'o':
			if _, err := engine.Open(); err != nil {
				log.Default().Error("open: %v", err)
				continue
			}
			_ = engine.Refresh(context.Background(), pos)
			_ = term.FocusWindow(srcWin)
			term.Draw()
		case 'c':
			if err := engine.Close(); err != nil {
				log.Default().Error("close: %v", err)
			}
		case 'r':
			updates++
			// Shape the update like a raw plain-goal payload and run it
			// through the extraction path the real server feed uses.
			raw, _ := sjson.Set("{}", "goals.0", fmt.Sprintf("⊢ True  -- update %d", updates))
			prov.Set(pos, provider.ExtractContents([]byte(raw)))
			progress.ApplyNotification(provider.FileProgressNotification(pos.URI, [2]uint32{0, 1}))
			engine.NotifyServerEvent()
		case 'd':
			progress.ApplyNotification(provider.FileProgressNotification(pos.URI))
			if err := engine.Redraw(); err != nil {
				log.Default().Error("redraw: %v", err)
			}
		}
	}
}

// runSim runs the scripted lifecycle once on the headless surface and
// verifies every step with the oracle, printing each transition.
func runSim(cfg config.Config, opts []infoview.Option) int {
	sim := editor.NewSim()

	srcBuf, _ := sim.CreateBuffer("demo.lean")
	_, _ = sim.CreateWindow(srcBuf)

	pos := provider.At("demo.lean", 0, 0)
	prov := provider.NewStatic()
	prov.Set(pos, "⊢ True")

	engine := infoview.NewEngine(sim, prov, opts...)
	defer engine.Shutdown()
	engine.SetPosition(pos)

	oracle := verify.NewOracle(engine.Store(), sim,
		verify.WithChangeTimeout(cfg.ChangeTimeout()),
		verify.WithStableWindow(cfg.StableWindow()),
	)

	step := func(name string, decl verify.Decl, op func() error) bool {
		if err := op(); err != nil {
			fmt.Fprintf(os.Stderr, "%s: operation failed: %v\n", name, err)
			return false
		}
		if err := oracle.Check(decl); err != nil {
			fmt.Fprintf(os.Stderr, "%s: check failed: %v\n", name, err)
			return false
		}
		fmt.Printf("ok %s\n", name)
		return true
	}

	v, err := engine.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !step("closed-from-init", verify.Decl{
		Views: map[infoview.ViewID]verify.ViewTransition{v.ID(): verify.ClosedFromInit},
	}, func() error { return nil }) {
		return 1
	}

	if !step("opened", verify.Decl{
		Views: map[infoview.ViewID]verify.ViewTransition{v.ID(): verify.Opened},
		Infos: map[infoview.InfoID]verify.InfoTransition{v.Info().ID(): verify.ContentKept},
	}, func() error { _, err := engine.Open(); return err }) {
		return 1
	}

	if !step("content-changed", verify.Decl{
		Infos: map[infoview.InfoID]verify.InfoTransition{v.Info().ID(): verify.ContentChanged},
	}, func() error { return engine.Refresh(context.Background(), pos) }) {
		return 1
	}

	if !step("closed", verify.Decl{
		Views: map[infoview.ViewID]verify.ViewTransition{v.ID(): verify.Closed},
	}, func() error { return engine.Close() }) {
		return 1
	}

	if !step("torn-down", verify.Decl{
		Torn: []infoview.ViewID{v.ID()},
	}, func() error { return engine.Teardown() }) {
		return 1
	}

	fmt.Println("scripted session complete")
	return 0
}
