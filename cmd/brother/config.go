package main

import (
	"fmt"
	"strings"

	"github.com/sandevgo/brotherbot/internal/config"
	"github.com/sandevgo/brotherbot/pkg/env"
	"github.com/spf13/cobra"
)

const masked = "********"

var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Print the effective configuration in .env form",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		appCfg := config.NewAppConfig(ctx)
		llmCfg := config.NewLLMConfig(ctx)
		if llmCfg.APIKey != "" {
			llmCfg.APIKey = masked
		}

		sections := []any{
			appCfg,
			llmCfg,
			config.NewSandboxConfig(ctx),
			config.NewTimersConfig(ctx),
			config.NewArticlesConfig(ctx),
		}
		if appCfg.IsTelegramSelected() {
			tgCfg := config.NewTelegramConfig(ctx)
			tgCfg.Token = masked
			sections = append(sections, tgCfg)
		}

		var out strings.Builder
		for _, s := range sections {
			content, err := env.MarshalEnv(s)
			if err != nil {
				return err
			}
			out.WriteString(content)
		}
		fmt.Fprint(cmd.OutOrStdout(), out.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
