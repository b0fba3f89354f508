// Package main is the entry point for the Z.ai usage monitor. Without a
// subcommand it runs the terminal dashboard.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-monitor/internal/app"
	"github.com/j-veylop/zai-usage-monitor/internal/config"
	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/services"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/tabs/dashboard"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/tabs/history"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/tabs/settings"
	"github.com/j-veylop/zai-usage-monitor/internal/ui/tabs/tools"
	"github.com/j-veylop/zai-usage-monitor/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   version.Name,
		Short: "Z.ai usage monitor: quota limits, model and tool usage in your terminal",
		Long: `zum polls the Z.ai monitor API for quota limits, model usage and tool usage,
alerts when a quota crosses 70% or 90%, and keeps a local usage history.

Environment variables (also read from a .env file):
  ZUM_CONFIG_PATH     config file location
  ZUM_DATABASE_PATH   history database location
  ZUM_LOG_LEVEL       debug, info, warn or error
  ZUM_LOG_FILE        log file for the dashboard
  ZUM_NOTIFICATIONS   desktop notifications (default true)`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDashboard()
		},
	}

	root.AddCommand(
		newFetchCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// loadRuntime reads runtime options, initializes logging to logOut (or the
// configured log file) and loads the persisted config. A config that cannot
// be read falls back to defaults.
func loadRuntime(logOut io.Writer) (*config.Options, config.Config, io.Closer, error) {
	rt, err := config.LoadOptions()
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("failed to load options: %w", err)
	}

	closer, err := logger.Init(rt.LogLevel, rt.LogFile, logOut)
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	cfg, err := config.Load(rt.ConfigPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", rt.ConfigPath, "error", err)
		cfg = config.Default()
	}

	return rt, cfg, closer, nil
}

// runDashboard runs the terminal dashboard until the user quits.
func runDashboard() error {
	// The dashboard owns the terminal, so logs only go to a file.
	rt, cfg, logCloser, err := loadRuntime(io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	opts := services.OptionsFrom(rt, cfg)
	opts.WatchConfig = true

	svcManager, err := services.NewManager(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			logger.Error("error closing services", "error", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state),
		tools.New(state),
		history.New(state, svcManager),
		settings.New(state, settings.Paths{
			ConfigPath:   rt.ConfigPath,
			DatabasePath: rt.DatabasePath,
			LogPath:      rt.LogFile,
		}),
	})

	// The model subscribed in NewModel, so no event of the first poll is lost.
	svcManager.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	logger.Info("dashboard started", "version", version.GetVersion(), "config", rt.ConfigPath)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
