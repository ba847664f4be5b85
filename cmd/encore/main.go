// Package main provides the CLI entrypoint for encore.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ojansen/encore/internal/capture"
	"github.com/ojansen/encore/internal/config"
	"github.com/ojansen/encore/internal/model"
	"github.com/ojansen/encore/internal/score"
	"github.com/ojansen/encore/internal/tui"
	"github.com/ojansen/encore/internal/version"
)

const (
	defaultServer = "http://localhost:8000"
	defaultTempo  = 90.0

	serviceTimeout = 10 * time.Second
)

var (
	practiceServer string
	practiceTempo  float64
	practiceDevice string
	practiceFile   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "encore [excerpt]",
		Short:         "TUI music practice companion",
		Version:       version.Full(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceServer, "server", defaultServer, "analysis service base URL")
	rootCmd.Flags().Float64Var(&practiceTempo, "tempo", defaultTempo, "practice tempo in BPM")
	rootCmd.Flags().StringVar(&practiceDevice, "device", "", "capture device name (default: system input)")
	rootCmd.Flags().StringVar(&practiceFile, "file", "", "load the excerpt from a local JSON file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newExcerptsCmd())
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newDoctorCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &practiceServer, fileCfg.Practice.Server)
	applyFloatConfig(cmd, "tempo", &practiceTempo, fileCfg.Practice.Tempo)
	applyStringConfig(cmd, "device", &practiceDevice, fileCfg.Practice.Device)

	cfg := model.Config{
		ServerURL: practiceServer,
		Tempo:     practiceTempo,
		Device:    practiceDevice,
	}

	if err := validateConfig(cfg); err != nil {
		return err
	}
	if practiceFile == "" && len(args) == 0 {
		return fmt.Errorf("an excerpt title or --file is required (list titles with: encore excerpts)")
	}

	excerpt, loadErr := loadExcerpt(cfg, args)

	graph := capture.New(cfg.Device)
	m := tui.NewModel(cfg, excerpt, loadErr, graph)
	program := tea.NewProgram(m, tea.WithAltScreen())
	m.SetSender(program.Send)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadExcerpt resolves the score from --file or the practice service.
// A load failure is rendered inside the TUI rather than aborting.
func loadExcerpt(cfg model.Config, args []string) (*score.Excerpt, error) {
	if practiceFile != "" {
		return score.LoadFile(practiceFile)
	}
	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	return score.NewClient(cfg.ServerURL).Excerpt(ctx, args[0])
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newExcerptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "excerpts",
		Short: "List excerpts on the practice service",
		Args:  cobra.NoArgs,
		RunE:  runExcerptsCmd,
	}
	cmd.Flags().StringVar(&practiceServer, "server", defaultServer, "analysis service base URL")
	return cmd
}

func runExcerptsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &practiceServer, fileCfg.Practice.Server)

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	excerpts, err := score.NewClient(practiceServer).Excerpts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list excerpts: %w", err)
	}
	if len(excerpts) == 0 {
		logErrln("No excerpts found on the practice service.")
		return fmt.Errorf("no excerpts found")
	}
	for _, ex := range excerpts {
		line := ex.Title
		if ex.Composer != "" {
			line += " — " + ex.Composer
		}
		if ex.Tempo > 0 {
			line += fmt.Sprintf(" (%.0f BPM)", ex.Tempo)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		Args:  cobra.NoArgs,
		RunE:  runDevicesCmd,
	}
}

func runDevicesCmd(cmd *cobra.Command, _ []string) error {
	names, err := capture.Devices()
	if err != nil {
		return fmt.Errorf("failed to list capture devices: %w", err)
	}
	if len(names) == 0 {
		logErrln("No capture devices found.")
		return fmt.Errorf("no capture devices found")
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		Args:  cobra.NoArgs,
		RunE:  runDoctorCmd,
	}
	cmd.Flags().StringVar(&practiceServer, "server", defaultServer, "analysis service base URL")
	return cmd
}

func runDoctorCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &practiceServer, fileCfg.Practice.Server)

	ok := true
	names, err := capture.Devices()
	switch {
	case err != nil:
		doctorCheck(cmd, false, fmt.Sprintf("capture: %v", err))
		ok = false
	case len(names) == 0:
		doctorCheck(cmd, false, "capture: no input devices found")
		ok = false
	default:
		doctorCheck(cmd, true, fmt.Sprintf("capture: %d input device(s)", len(names)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	instruments, err := score.NewClient(practiceServer).Instruments(ctx)
	if err != nil {
		doctorCheck(cmd, false, fmt.Sprintf("practice service: %v", err))
		ok = false
	} else {
		doctorCheck(cmd, true, fmt.Sprintf("practice service: %s (%d instrument(s))", practiceServer, len(instruments)))
	}

	if !ok {
		return fmt.Errorf("some prerequisites are missing")
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "\nReady to practice."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func doctorCheck(cmd *cobra.Command, ok bool, detail string) {
	mark := "✓"
	if !ok {
		mark = "✗"
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, detail); err != nil {
		// Best-effort output.
		_ = err
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# encore configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# server = %q    # Analysis service base URL
# tempo = %.0f                       # Practice tempo in BPM
# device = ""                      # Capture device name (empty: system input)
`,
		defaultServer,
		defaultTempo,
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return fmt.Errorf("--server must not be empty")
	}
	if cfg.Tempo <= 0 {
		return fmt.Errorf("--tempo must be > 0")
	}
	return nil
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
