package command

import (
	"fmt"
	"io"
	"os"

	"kunena-discord/config"
	"kunena-discord/models"
	"kunena-discord/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Command is implemented by every CLI subcommand.
type Command interface {
	Definition(rt *Runtime) *cobra.Command
}

// AllCommands holds all the command instances.
var AllCommands = []Command{
	&ServeCommand{},
	&CheckCommand{},
	&NotifyCommand{},
	&HealthCommand{},
}

// Runtime is the state shared by subcommands once the root has loaded config.
type Runtime struct {
	ConfigPath string
	Config     *models.Config
	Log        zerolog.Logger
	Out        io.Writer
}

// NewRootCommand builds the kunena-discord CLI with every registered subcommand.
func NewRootCommand() *cobra.Command {
	rt := &Runtime{Out: os.Stdout}

	root := &cobra.Command{
		Use:           "kunena-discord",
		Short:         "Kunena forum to Discord notifier",
		Long:          "Watches a Kunena forum database and posts new topics and replies to a Discord webhook.",
		Example:       fmt.Sprintf("  %s serve --config config.yaml", os.Args[0]),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rt.ConfigPath)
			if err != nil {
				return err
			}
			rt.Config = cfg
			rt.Out = cmd.OutOrStdout()
			rt.Log = utils.NewLogger(cmd.ErrOrStderr(), cfg.Debug, cfg.Log.Level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rt.ConfigPath, "config", "", "Config file (default ./config.yaml or ./config/config.yaml)")

	for _, c := range AllCommands {
		root.AddCommand(c.Definition(rt))
	}
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
