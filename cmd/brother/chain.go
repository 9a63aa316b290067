package main

import (
	"encoding/json"

	"github.com/sandevgo/brotherbot/pkg/log"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:          "chain <message-id>",
	Short:        "Print the conversation chain the model would see for a message",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		g, closeStore, err := openGraph(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.FromCtx(ctx).Warn().Err(err).Msg("failed to close store")
			}
		}()

		chain, err := g.Chain(args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(chain)
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
}
