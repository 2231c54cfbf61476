package main

import (
	"context"

	"github.com/aretw0/gator"
	"github.com/aretw0/gator/internal/cli"
	"github.com/spf13/cobra"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate the stage by centering three reference circuits from the keyboard",
	Long: `Moves through the three calibration targets of the catalog. Jog the stage
onto each one and press the quit key to record it. With --refine an auto scan
polishes each recorded position. The solved matrix is saved with the profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		banner(cmd)
		refine, _ := cmd.Flags().GetBool("refine")
		opts := options(cmd)
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		env, err := cli.Open(ctx, opts, refineOption(refine)...)
		if err != nil {
			return err
		}
		defer env.Close()
		return cli.RunCalibrate(ctx, env, cmd.OutOrStdout())
	},
}

var jogCmd = &cobra.Command{
	Use:   "jog",
	Short: "Drive the stage from the keyboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		banner(cmd)
		return withEnv(cmd, func(ctx context.Context, env *cli.Env) error {
			return cli.RunJog(ctx, env, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd, jogCmd)
	calibrateCmd.Flags().Bool("refine", false, "Auto scan around each centered target")
}

func refineOption(refine bool) []gator.Option {
	if refine {
		return []gator.Option{gator.WithTargetRefinement()}
	}
	return nil
}
