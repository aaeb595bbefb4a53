package commands

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/config"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/daemon"
)

func newGatewayCmd(opts *rootOpts) *cobra.Command {
	var noCLI bool

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the agent daemon",
		Long: `Starts the hub, the agent loop, the configured channels and the
heartbeat, then blocks until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			config.LoadDotenv(nil)

			// The terminal channel only makes sense when one is attached.
			enableCLI := !noCLI && term.IsTerminal(int(os.Stdin.Fd()))

			d, err := daemon.New(cfg, daemon.Options{
				StateDir:  opts.stateDir(),
				EnableCLI: enableCLI,
			})
			if err != nil {
				return err
			}
			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&noCLI, "no-cli", false, "disable the terminal channel even when attached")
	return cmd
}
