package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-optipath/pkg/config"
	"github.com/dd0wney/cluso-optipath/pkg/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "optipath",
		Short: "Place regenerators and optical power compensators on simulated paths",
		Long: `optipath reads the path listings of the Simon optical network simulator and,
for every path, decides where regenerators and optical power compensators (OPCs)
go and how much distance is left uncompensated.

Settings come from flags, then OPTIPATH_* environment variables, then a YAML
config file (optipath.yaml), then built-in defaults.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("optipath version {{.Version}}\n")

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default: ./optipath.yaml if present)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(
		newAnalyzeCmd(g),
		newReplayCmd(g),
		newRunsCmd(g),
		newViewCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadConfig merges config sources with the flags bound by the caller.
func (g *globalFlags) loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	loader := config.NewLoader()
	if err := loader.BindFlag("logging.level", cmd.Flags().Lookup("log-level")); err != nil {
		return nil, err
	}
	for key, flag := range bindings {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, err
		}
	}
	return loader.Load(g.configPath)
}

func newLogger(w io.Writer, cfg *config.Config) logging.Logger {
	return logging.NewJSONLogger(w, cfg.LogLevel()).With(logging.Component("optipath"))
}
