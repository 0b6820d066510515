package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/strandview/strand/internal/datasource"
	"github.com/strandview/strand/pkg/analysis"
	"github.com/strandview/strand/pkg/bd"
	"github.com/strandview/strand/pkg/board"
	"github.com/strandview/strand/pkg/config"
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/debug"
	"github.com/strandview/strand/pkg/export"
	"github.com/strandview/strand/pkg/hooks"
	"github.com/strandview/strand/pkg/model"
	"github.com/strandview/strand/pkg/query"
	"github.com/strandview/strand/pkg/ui"
	"github.com/strandview/strand/pkg/version"
	"github.com/strandview/strand/pkg/watcher"
)

func main() {
	dir := flag.String("dir", "", "Project directory (defaults to the working directory)")
	robot := flag.Bool("robot", false, "Print a plain snapshot and exit instead of running the TUI")
	robotFormat := flag.String("robot-format", "text", "Snapshot format for --robot: text or json")
	exportGraph := flag.String("export-graph", "", "Render the dependency graph to a file (.svg or .png) and exit")
	themeFlag := flag.String("theme", "", "Color scheme: auto, dark, or light (overrides config)")
	noWatch := flag.Bool("no-watch", false, "Disable live reload on data file changes")
	noHooks := flag.Bool("no-hooks", false, "Disable .strand/hooks.yaml hooks")
	checkSources := flag.Bool("check-sources", false, "Compare all discovered data sources for drift and exit")
	debugFlag := flag.Bool("debug", false, "Enable debug logging to stderr (same as STRAND_DEBUG=1)")
	versionFlag := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("Usage: strand [options]")
		fmt.Println("\nA live-updating TUI for beads issue graphs.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("strand %s\n", version.String())
		os.Exit(0)
	}

	if *debugFlag {
		debug.SetEnabled(true)
	}

	projectDir := *dir
	if projectDir == "" {
		projectDir = "."
	}
	if abs, err := filepath.Abs(projectDir); err == nil {
		projectDir = abs
	}

	if *checkSources {
		os.Exit(runCheckSources(projectDir))
	}

	result, err := datasource.Load(projectDir, debug.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading beads: %v\n", err)
		if errors.Is(err, datasource.ErrNoSource) {
			fmt.Fprintln(os.Stderr, "Make sure you are in a project initialized with 'bd init'.")
		}
		os.Exit(1)
	}
	ds := dataset.New(result.Issues, dataset.CollectEdges(result.Issues))
	ds.Warnings = len(result.Warnings)

	if *exportGraph != "" {
		stats := analysis.Analyze(ds)
		opts := export.SnapshotOptions{Path: *exportGraph, Title: filepath.Base(projectDir)}
		if err := export.SaveSnapshot(ds, stats, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *exportGraph)
		os.Exit(0)
	}

	// A piped stdout means a script or agent is reading; never paint ANSI
	// at them.
	if *robot || os.Getenv("STRAND_ROBOT") == "1" || !term.IsTerminal(int(os.Stdout.Fd())) {
		snap := buildRobotSnapshot(ds, analysis.Analyze(ds), result.Source.Label())
		if err := writeRobotSnapshot(os.Stdout, snap, *robotFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if ds.IsEmpty() {
		fmt.Println("No issues found. Create some with 'bd create'!")
		os.Exit(0)
	}

	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		appCfg = config.DefaultConfig()
	}

	theme := ui.DefaultTheme(makeRenderer(resolveTheme(*themeFlag, appCfg.Theme)))

	warnings := result.Warnings
	runner, hookWarnings, hookErr := hooks.NewRunnerFor(projectDir, *noHooks)
	if hookErr != nil {
		warnings = append(warnings, fmt.Sprintf("hooks: %v", hookErr))
	}
	warnings = append(warnings, hookWarnings...)

	var w *watcher.Watcher
	if !*noWatch && result.Source.Path != "" {
		w, err = watcher.New(result.Source.Path,
			watcher.WithDebounce(appCfg.Watcher.Debounce()),
			watcher.WithPollInterval(appCfg.Watcher.PollInterval()),
			watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			debug.Log("live reload unavailable: %v", err)
			warnings = append(warnings, fmt.Sprintf("live reload unavailable: %v", err))
			w = nil
		} else {
			defer w.Stop()
		}
	}

	bdClient, bdErr := bd.NewClient(bd.WithDir(projectDir))
	if bdErr != nil {
		// The viewer still works read-only without the bd binary.
		debug.Log("bd unavailable: %v", bdErr)
		bdClient = nil
	}

	m := ui.NewModel(ui.Options{
		RepoPath:     projectDir,
		Theme:        theme,
		Dataset:      ds,
		Source:       result.Source.Label(),
		Warnings:     warnings,
		Watcher:      w,
		Hooks:        runner,
		Bd:           bdClient,
		SortSpecs:    loadSortSpecs(projectDir, appCfg),
		PersistSorts: sortPersister(projectDir),
		AutoClose:    autoCloseFromEnv(),
	})

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error running strand: %v\n", err)
		os.Exit(1)
	}
}

// runCheckSources prints every discovered source and the pairwise drift
// between them. Exit status 1 means at least one pair disagrees.
func runCheckSources(projectDir string) int {
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		RepoPath:       projectDir,
		Validate:       true,
		IncludeInvalid: true,
		Logf:           debug.Log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering sources: %v\n", err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Println("No data sources found.")
		return 1
	}

	fmt.Printf("Found %d source(s):\n", len(sources))
	valid := 0
	for _, src := range sources {
		fmt.Printf("  %s\n", src)
		if src.Valid {
			valid++
		}
	}

	if valid < 2 {
		fmt.Println("\nNothing to compare.")
		return 0
	}

	diffs := datasource.CheckAllSourcesConsistent(sources, datasource.DefaultDiffOptions())
	if len(diffs) == 0 {
		fmt.Println("\nAll sources consistent.")
		return 0
	}

	fmt.Println()
	for _, diff := range diffs {
		fmt.Println(diff.Summary())
	}
	return 1
}

// resolveTheme applies the flag-over-config precedence. Anything
// unrecognized falls back to auto so a config typo never blocks startup.
func resolveTheme(flagValue, configValue string) string {
	v := flagValue
	if v == "" {
		v = configValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "dark":
		return "dark"
	case "light":
		return "light"
	default:
		return "auto"
	}
}

func makeRenderer(theme string) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(os.Stdout)
	switch theme {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return r
}

// loadSortSpecs seeds every bucket with the config default, then overlays
// whatever the last session persisted for this project.
func loadSortSpecs(projectDir string, cfg config.Config) board.SortSpecs {
	specs := board.SortSpecs{}
	for _, bucket := range board.Buckets() {
		specs[bucket] = cfg.SortSpec()
	}
	st, err := config.LoadViewState(projectDir)
	if err != nil {
		return specs
	}
	for name, spec := range st.Sorts {
		specs[model.Status(name)] = spec
	}
	return specs
}

func sortPersister(projectDir string) func(board.SortSpecs) {
	return func(specs board.SortSpecs) {
		st := config.ViewState{Sorts: make(map[string]query.SortSpec, len(specs))}
		for bucket, spec := range specs {
			st.Sorts[string(bucket)] = spec
		}
		if err := config.SaveViewState(projectDir, st); err != nil {
			debug.Log("persist sort state: %v", err)
		}
	}
}

// autoCloseFromEnv reads the STRAND_TUI_AUTOCLOSE_MS test hook. Zero means
// run until quit.
func autoCloseFromEnv() time.Duration {
	v := os.Getenv("STRAND_TUI_AUTOCLOSE_MS")
	if v == "" {
		return 0
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM: the first signal asks the model
	// to quit, a second one or five seconds of silence force-kills.
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

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
