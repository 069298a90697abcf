// manoonchai scores Thai keyboard layouts with a carpalx-style effort model
// and searches for layouts that lower it.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"manoonchai/internal/config"
	"manoonchai/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// app holds the state shared by every command: global flags, the loaded
// configuration and the logger built from it.
type app struct {
	cfgPath  string
	logLevel string

	loader *config.Loader
	cfg    *config.Config
	log    *logging.Logger
	crash  *logging.CrashHandler
}

func main() {
	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{Version: version})
	defer crash.RecoverAndExit(2)

	root, a := newRootCmd()
	if err := execute(root, a); err != nil {
		os.Exit(1)
	}
}

// execute runs root and then releases what setup opened. Cobra skips post
// hooks when a command fails, so this cannot live in PersistentPostRun.
func execute(root *cobra.Command, a *app) error {
	defer a.close()
	return root.Execute()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "manoonchai",
		Short: "Score and optimize Thai keyboard layouts",
		Long: `manoonchai measures how much effort it takes to type a Thai corpus on a
keyboard layout, using the carpalx model: per-key base effort, finger/row/hand
penalties, and a stroke path effort for every three-key sequence.

It can compare layouts, explain the effort of single keys and triads, and run
a parallel hill-climbing search for a layout with lower effort.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default: ~/.manoonchai/config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newScoreCmd(a),
		newKeyCmd(a),
		newTriadCmd(a),
		newOptimizeCmd(a),
		newLayoutsCmd(a),
		newRunsCmd(a),
		newWatchCmd(a),
		newMCPCmd(a),
		newCrashesCmd(a),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.loader = config.NewLoader(a.cfgPath)
	cfg, err := a.loader.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", a.loader.Path(), err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	// stdout carries command output, and the MCP protocol in mcp mode.
	if strings.EqualFold(cfg.Logging.Output, "stdout") {
		cfg.Logging.Output = "stderr"
	}

	lc, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	a.log, err = logging.New(lc)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.SetDefault(a.log)
	a.cfg = cfg
	a.crash = logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version: version,
		Stderr:  cmd.ErrOrStderr(),
	})

	if m := a.loader.Migration(); m != nil {
		a.log.Info("config migrated",
			"from", m.FromVersion,
			"to", m.ToVersion,
			"changes", len(m.Changes),
		)
		for _, w := range m.Warnings {
			a.log.Warn("config migration", "warning", w)
		}
	}
	for _, w := range config.CheckConfig(cfg).Warnings() {
		a.log.Warn("config", "field", w.Field, "warning", w.Message)
	}
	return nil
}

// close releases the config watcher and the log file. It is safe to call
// more than once.
func (a *app) close() {
	if a.loader != nil {
		a.loader.Close()
		a.loader = nil
	}
	if a.log != nil {
		a.log.Close()
		a.log = nil
	}
}
