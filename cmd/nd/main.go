package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/neurodeck/internal/datasource"
	_ "github.com/vanderheijden86/neurodeck/internal/termguard"
	"github.com/vanderheijden86/neurodeck/pkg/config"
	"github.com/vanderheijden86/neurodeck/pkg/debug"
	"github.com/vanderheijden86/neurodeck/pkg/export"
	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
	"github.com/vanderheijden86/neurodeck/pkg/ui"
	"github.com/vanderheijden86/neurodeck/pkg/version"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	statusFlag := flag.Bool("status", false, "Print artefact status and exit")
	exportPath := flag.String("export", "", "Export the dirty/clean comparison chart (svg or png) and exit")
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: nd [options]")
		fmt.Println("\nA TUI dashboard for the operant conditioning pipeline.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("nd %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *statusFlag {
		printStatus(cfg)
		os.Exit(0)
	}

	if *exportPath != "" {
		dirty, clean := pipeline.Compare(
			cfg.Pipeline.Artefacts.ResultsDirty,
			cfg.Pipeline.Artefacts.ResultsClean,
		)
		if err := export.SaveChart(export.ChartOptions{
			Path:  *exportPath,
			Dirty: dirty,
			Clean: clean,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *exportPath)
		os.Exit(0)
	}

	// Run history is best-effort: the dashboard works without it.
	var history *datasource.History
	if h, err := datasource.OpenHistory(cfg.ResolvedHistoryPath()); err != nil {
		debug.Log("opening run history: %v", err)
	} else {
		history = h
	}

	m := ui.NewModel(cfg, history)
	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running neurodeck: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func printStatus(cfg config.Config) {
	status := cfg.Pipeline.Artefacts.Check()
	for _, step := range pipeline.Steps() {
		mark := "pending"
		if status.StepReady(step.ID) {
			mark = "ready"
		}
		fmt.Printf("%-10s %s\n", step.ID, mark)
	}
	if h, err := datasource.OpenHistory(cfg.ResolvedHistoryPath()); err == nil {
		defer h.Close()
		if mod, err := h.LastModified(); err == nil && !mod.IsZero() {
			fmt.Printf("history last updated %s\n", mod.Format(time.RFC3339))
		}
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set ND_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("ND_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
