package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/config"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
)

func newModelsCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the configured provider offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			config.LoadDotenv(nil)

			providerCfg, err := cfg.ResolvedProviderConfig()
			if err != nil {
				return err
			}
			provider, err := llm.NewProvider(cfg.ProviderType, providerCfg, nil)
			if err != nil {
				return err
			}

			models, err := provider.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing models from %s: %w", provider.Name(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "provider: %s (default model %s)\n", provider.Name(), provider.DefaultModel())
			for _, m := range models {
				marker := " "
				if m == provider.DefaultModel() {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, m)
			}
			return nil
		},
	}
}
