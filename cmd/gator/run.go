package main

import (
	"context"

	"github.com/aretw0/gator/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Visit the selected circuits and log the signal at each",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterOptions(cmd)
		if err != nil {
			return err
		}
		var opts cli.BatchOptions
		opts.Filter = f
		opts.Refine, _ = cmd.Flags().GetBool("refine")
		opts.Channel, _ = cmd.Flags().GetInt("channel")
		opts.Timeout, _ = cmd.Flags().GetDuration("timeout")
		opts.Exec, _ = cmd.Flags().GetString("exec")
		return withEnv(cmd, func(ctx context.Context, env *cli.Env) error {
			return cli.RunBatch(ctx, env, cmd.OutOrStdout(), opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addFilterFlags(runCmd)
	runCmd.Flags().Bool("refine", false, "Auto scan at every circuit before measuring")
	runCmd.Flags().Int("channel", 0, "Also capture a trace of this acquisition channel")
	runCmd.Flags().Duration("timeout", 0, "Trace acquisition timeout")
	runCmd.Flags().String("exec", "", "Experiment file (YAML or JSON) whose commands run at every circuit")
}
