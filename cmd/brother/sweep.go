package main

import (
	"fmt"

	"github.com/sandevgo/brotherbot/pkg/log"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:          "sweep",
	Short:        "Evict conversation nodes past the retention window",
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

		removed, err := g.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d nodes, %d left\n", removed, g.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
