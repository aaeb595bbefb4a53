package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/config"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/daemon"
)

func newAgentCmd(opts *rootOpts) *cobra.Command {
	var message string
	var model string

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Send one message and print the reply",
		Long: `Runs a single turn without starting the daemon. The message comes
from --message or stdin; the reply goes to stdout. Useful from scripts
and cron jobs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.TrimSpace(message)
			if content == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				content = strings.TrimSpace(string(data))
			}
			if content == "" {
				return &UsageError{Err: fmt.Errorf("no message given: use --message or pipe stdin")}
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			config.LoadDotenv(nil)

			d, err := daemon.New(cfg, daemon.Options{
				StateDir: opts.stateDir(),
				OneShot:  true,
				Model:    model,
			})
			if err != nil {
				return err
			}
			reply, err := d.ProcessOnce(cmd.Context(), content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "the message to send")
	cmd.Flags().StringVar(&model, "model", "", "override the configured model for this turn")
	return cmd
}
