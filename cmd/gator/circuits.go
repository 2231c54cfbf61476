package main

import (
	"github.com/aretw0/gator/internal/cli"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/spf13/cobra"
)

var circuitsCmd = &cobra.Command{
	Use:     "circuits",
	Aliases: []string{"c"},
	Short:   "Inspect and edit circuit catalogs",
}

func filterOptions(cmd *cobra.Command) (cli.FilterOptions, error) {
	by, _ := cmd.Flags().GetStringArray("by")
	out, _ := cmd.Flags().GetStringArray("out")
	var f cli.FilterOptions
	var err error
	if f.By, err = cli.ParsePairs(by); err != nil {
		return f, err
	}
	f.Out, err = cli.ParsePairs(out)
	return f, err
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("by", nil, "Keep circuits with key=value (repeatable, all must match)")
	cmd.Flags().StringArray("out", nil, "Drop circuits with key=value (repeatable)")
}

var circuitsListCmd = &cobra.Command{
	Use:     "list <catalog>",
	Aliases: []string{"filter"},
	Short:   "Print the circuits of a catalog, optionally filtered",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterOptions(cmd)
		if err != nil {
			return err
		}
		return cli.ListCircuits(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], f)
	},
}

var circuitsMergeCmd = &cobra.Command{
	Use:   "merge <catalog>...",
	Short: "Print the union of catalogs; earlier files win on shared locations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.MergeCircuits(cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

var circuitsStampCmd = &cobra.Command{
	Use:   "stamp <catalog> key=value...",
	Short: "Set parameters on the selected circuits and print the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterOptions(cmd)
		if err != nil {
			return err
		}
		params, err := cli.ParsePairs(args[1:])
		if err != nil {
			return err
		}
		dx, _ := cmd.Flags().GetFloat64("dx")
		dy, _ := cmd.Flags().GetFloat64("dy")
		return cli.StampCircuits(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], f, params, domain.Loc(dx, dy))
	},
}

func init() {
	rootCmd.AddCommand(circuitsCmd)
	circuitsCmd.AddCommand(circuitsListCmd, circuitsMergeCmd, circuitsStampCmd)
	addFilterFlags(circuitsListCmd)
	addFilterFlags(circuitsStampCmd)
	circuitsStampCmd.Flags().Float64("dx", 0, "Shift every circuit by dx")
	circuitsStampCmd.Flags().Float64("dy", 0, "Shift every circuit by dy")
}
