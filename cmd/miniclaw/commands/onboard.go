package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/channels/telegram"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/config"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/workspace"
)

func newOnboardCmd(opts *rootOpts) *cobra.Command {
	var yes bool
	var workspacePath string

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Interactive first-time setup",
		Long: `Walks through provider and channel setup, writes config.json and
creates the agent workspace. API keys go to the OS keyring when one is
available; otherwise they are stored in the config file with owner-only
permissions. With --yes the defaults are accepted without prompting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workspacePath != "" && !filepath.IsAbs(workspacePath) {
				return &UsageError{Err: fmt.Errorf("--path must be absolute, got %q", workspacePath)}
			}
			return runOnboard(opts.stateDir(), workspacePath, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept the defaults without prompting")
	cmd.Flags().StringVarP(&workspacePath, "path", "p", "", "workspace directory (absolute; default <state-dir>/workspace)")
	return cmd
}

func runOnboard(stateDir, workspacePath string, yes bool) error {
	var (
		providerType  = llm.ProviderOpenRouter
		apiKey        string
		model         string
		telegramToken string
		allowFromRaw  string
		confirmed     bool
	)

	if yes {
		return writeOnboardConfig(stateDir, workspacePath, providerType, "", "", "", nil)
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LLM provider").
				Options(
					huh.NewOption("OpenRouter (hosted, needs an API key)", llm.ProviderOpenRouter),
					huh.NewOption("Ollama (local, no key)", llm.ProviderOllama),
				).
				Value(&providerType),
		),
	)
	if err := providerForm.Run(); err != nil {
		return fmt.Errorf("onboarding aborted: %w", err)
	}

	var fields []huh.Field
	if providerType == llm.ProviderOpenRouter {
		fields = append(fields,
			huh.NewInput().
				Title("OpenRouter API key").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("the key cannot be empty")
					}
					return nil
				}).
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Placeholder("anthropic/claude-sonnet-4").
				Value(&model),
		)
	} else {
		fields = append(fields,
			huh.NewInput().
				Title("Ollama model").
				Placeholder("llama3.1").
				Value(&model),
		)
	}
	fields = append(fields,
		huh.NewInput().
			Title("Telegram bot token (leave empty to skip Telegram)").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				return telegram.ValidateToken(strings.TrimSpace(s))
			}).
			Value(&telegramToken),
		huh.NewInput().
			Title("Allowed Telegram user IDs (comma separated, -1 for everyone)").
			Value(&allowFromRaw),
	)

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("onboarding aborted: %w", err)
	}

	allowFrom, err := parseAllowFrom(allowFromRaw)
	if err != nil {
		return err
	}

	confirmForm := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Write configuration to %s?", config.Path(stateDir))).
			Value(&confirmed),
	))
	if err := confirmForm.Run(); err != nil {
		return fmt.Errorf("onboarding aborted: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("onboarding cancelled")
	}

	return writeOnboardConfig(stateDir, workspacePath, providerType, apiKey, model, telegramToken, allowFrom)
}

// writeOnboardConfig persists the config and creates the workspace tree.
func writeOnboardConfig(stateDir, workspacePath, providerType, apiKey, model, telegramToken string, allowFrom []int64) error {
	if model == "" {
		if providerType == llm.ProviderOpenRouter {
			model = "anthropic/claude-sonnet-4"
		} else {
			model = "llama3.1"
		}
	}

	cfg := &config.Config{
		TelegramToken:  strings.TrimSpace(telegramToken),
		AllowFrom:      allowFrom,
		DefaultChannel: "cli",
		ProviderType:   providerType,
		Workspace:      workspacePath,
	}

	providerSection := map[string]string{"default_model": model}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey != "" {
		if err := config.StoreCredential(config.CredAPIKey, apiKey); err != nil {
			// No keyring on this machine; keep the key in the file.
			providerSection["api_key"] = apiKey
		}
	}
	raw, err := json.Marshal(providerSection)
	if err != nil {
		return err
	}
	cfg.ProviderConfig = raw
	cfg.Defaults()

	if err := config.Save(stateDir, cfg); err != nil {
		return err
	}

	wsDir := workspacePath
	if wsDir == "" {
		wsDir = filepath.Join(stateDir, "workspace")
	}
	if err := workspace.New(wsDir, slog.Default()).Initialize(); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	fmt.Printf("Configuration written to %s\nWorkspace created at %s\nRun `miniclaw gateway` to start the daemon.\n",
		config.Path(stateDir), wsDir)
	return nil
}

// parseAllowFrom parses "42, 77" or "-1" into the whitelist slice.
func parseAllowFrom(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, &UsageError{Err: fmt.Errorf("invalid user id %q", part)}
		}
		out = append(out, id)
	}
	return out, nil
}
