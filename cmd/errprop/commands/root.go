package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/njchilds90/errprop/internal/config"
	"github.com/njchilds90/errprop/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

// app carries state shared by one command tree.
type app struct {
	configFile string
	cfg        *config.Config
}

// flagKeys binds command-line flags to configuration keys. Flags absent from
// the running command are skipped.
var flagKeys = map[string]string{
	"log-json":  "log.json",
	"log-level": "log.level",
	"precision": "format.precision",
	"addr":      "server.addr",
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "errprop",
		Short: "errprop - linear uncertainty propagation with LaTeX derivations",
		Long: `errprop propagates measurement uncertainty through a formula with the
first-order worst-case law

    Δf = Σ Δxᵢ·|∂f/∂xᵢ|

and renders the derivation as a LaTeX align* block.

Examples:
  errprop eval --file request.json   # evaluate a JSON request
  errprop serve --addr :8080         # serve POST /propagate
  errprop schema                     # print the request schema`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if err := logger.Initialize(a.cfg.Log.JSON, a.cfg.Log.Level); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: ./errprop.toml or ~/.errprop/errprop.toml)")
	root.PersistentFlags().Bool("log-json", false, "Log as JSON")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(newEvalCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
