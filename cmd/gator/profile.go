package main

import (
	"fmt"

	"github.com/aretw0/gator/internal/cli"
	"github.com/aretw0/gator/pkg/config"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stage profiles",
}

func profiles(cmd *cobra.Command) (*config.Profiles, error) {
	dir, _ := cmd.Flags().GetString("profiles-dir")
	return config.NewProfiles(dir)
}

var profileInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a profile from a file, or a simulated stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := profiles(cmd)
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		raw, _ := cmd.Flags().GetFloat64Slice("peak")
		if len(raw)%2 != 0 {
			return fmt.Errorf("--peak takes x,y pairs")
		}
		var peaks []domain.Location
		for i := 0; i < len(raw); i += 2 {
			peaks = append(peaks, domain.Loc(raw[i], raw[i+1]))
		}
		return cli.InitProfile(ps, cmd.OutOrStdout(), args[0], from, peaks)
	},
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles; * marks the default",
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := profiles(cmd)
		if err != nil {
			return err
		}
		return cli.ListProfiles(cmd.Context(), ps, cmd.OutOrStdout())
	},
}

var profileDefaultCmd = &cobra.Command{
	Use:   "default [name]",
	Short: "Show or set the default profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := profiles(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			name, err := ps.Default()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		}
		return ps.SetDefault(args[0])
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := profiles(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("profile")
		if len(args) == 1 {
			name = args[0]
		}
		p, err := ps.Resolve(name)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		return enc.Encode(p)
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile and its calibration",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := profiles(cmd)
		if err != nil {
			return err
		}
		return ps.Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileInitCmd, profileListCmd, profileDefaultCmd, profileShowCmd, profileDeleteCmd)
	profileInitCmd.Flags().String("from", "", "Read the profile from a YAML or JSON file")
	profileInitCmd.Flags().Float64Slice("peak", nil, "Simulated signal peak x,y in stage coordinates (repeatable)")
}
