package main

import (
	"context"
	"fmt"

	"github.com/aretw0/gator/internal/cli"
	"github.com/spf13/cobra"
)

var transformCmd = &cobra.Command{
	Use:   "transform <x> <y>",
	Short: "Convert a design coordinate to stage coordinates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cli.ParseLocation(args[0], args[1])
		if err != nil {
			return err
		}
		inverse, _ := cmd.Flags().GetBool("inverse")
		move, _ := cmd.Flags().GetBool("move")
		return withEnv(cmd, func(ctx context.Context, env *cli.Env) error {
			sess := env.Session
			if inverse {
				design, err := sess.ToDesign(loc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.6f %.6f\n", design.X, design.Y)
				return nil
			}
			stage, err := sess.ToStage(loc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f %.6f\n", stage.X, stage.Y)
			if move {
				_, err = sess.Stage().GoToDesign(ctx, loc.X, loc.Y)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().Bool("inverse", false, "Convert a stage coordinate back to design coordinates")
	transformCmd.Flags().Bool("move", false, "Also move the stage there")
}
