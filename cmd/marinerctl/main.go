package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mariner3d/marinerctl/api"
	"github.com/mariner3d/marinerctl/internal/config"
	"github.com/mariner3d/marinerctl/pkg/controller"
	"github.com/mariner3d/marinerctl/pkg/ui"
)

type options struct {
	configPath string
	url        string
	timeout    time.Duration
	logFile    string

	cfg     *config.Config
	logSink *os.File
}

func main() {
	opts := &options{}
	cmd := newRootCmd(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := fang.Execute(ctx, cmd)
	stop()
	opts.closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marinerctl",
		Short: "Terminal client for the mariner 3D printer server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts.cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the config file")
	cmd.PersistentFlags().StringVar(&opts.url, "url", config.DefaultServerURL, "Base URL of the mariner server")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "debug.log", "File to write logs to")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Start the interactive terminal UI",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTUI(opts.cfg)
			},
		},
		newStatusCmd(opts),
		newListCmd(opts),
		newDetailsCmd(opts),
		newPreviewCmd(opts),
		newPrintCmd(opts),
		newPrinterCommandCmd(opts, "pause", "Pause the current print", (*api.Client).PausePrint),
		newPrinterCommandCmd(opts, "resume", "Resume the paused print", (*api.Client).ResumePrint),
		newPrinterCommandCmd(opts, "cancel", "Stop the current print", (*api.Client).CancelPrint),
		newPrinterCommandCmd(opts, "reboot", "Reboot the printer", (*api.Client).RebootPrinter),
		newDeleteCmd(opts),
		newUploadCmd(opts),
		newDiscoverCmd(opts),
		newAnnounceCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// load reads the config file, applies flag overrides and redirects logging.
// The TUI owns the terminal, so logs always go to a file.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Server.URL = o.url
	}
	if flags.Changed("timeout") {
		cfg.Server.Timeout = o.timeout
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	o.logSink = f
	log.SetOutput(f)
	slog.SetLogLoggerLevel(cfg.Log.SlogLevel())
	slog.Info("Starting marinerctl", "command", cmd.Name(), "server", cfg.Server.URL, "config", cfg.ConfigPath)
	return nil
}

func (o *options) closeLog() {
	if o.logSink == nil {
		return
	}
	if err := o.logSink.Close(); err != nil {
		slog.Warn("failed to close log file", "error", err)
	}
}

// client creates an API client without a notifier: failures are returned
// to the command and end up on stderr.
func (o *options) client() (*api.Client, error) {
	return api.NewClient(o.cfg.Server.URL,
		api.WithTimeout(o.cfg.Server.Timeout),
		api.WithCSRFToken(o.cfg.Server.CSRFToken),
	)
}

func runTUI(cfg *config.Config) error {
	app, err := controller.NewApp(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(ui.InitialModel(app), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
