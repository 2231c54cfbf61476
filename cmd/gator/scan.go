package main

import (
	"context"
	"fmt"

	"github.com/aretw0/gator/internal/cli"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [x y]",
	Short: "Optimize the coupling around the current or a given position",
	Long: `Runs an auto scan (box scan followed by x and y line scans) around the current
stage position, or around x y when given. With --box only the box scan runs.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("want no arguments or x y")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts cli.ScanOptions
		if len(args) == 2 {
			at, err := cli.ParseLocation(args[0], args[1])
			if err != nil {
				return err
			}
			opts.At = &at
		}
		opts.Design, _ = cmd.Flags().GetBool("design")
		opts.Box, _ = cmd.Flags().GetBool("box")
		opts.Span, _ = cmd.Flags().GetFloat64("span")
		opts.Step, _ = cmd.Flags().GetFloat64("step")
		return withEnv(cmd, func(ctx context.Context, env *cli.Env) error {
			return cli.RunScan(ctx, env, cmd.OutOrStdout(), opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("design", false, "Read x y as design coordinates")
	scanCmd.Flags().Bool("box", false, "Box scan only")
	scanCmd.Flags().Float64("span", 0, "Scan window width (default: profile or built-in)")
	scanCmd.Flags().Float64("step", 0, "Coarse grid step (default: profile or built-in)")
}
