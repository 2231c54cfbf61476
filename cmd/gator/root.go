package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/gator/internal/cli"
	"github.com/aretw0/gator/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gator",
	Short: "Gator aligns photonic chips on motorized stages",
	Long: `Gator maps circuit coordinates from a chip layout onto a motorized stage,
calibrates the mapping from three reference circuits and optimizes the optical
coupling with box, line and auto scans.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("profile", "p", "", "Stage profile (default: the registered default profile)")
	flags.String("profiles-dir", "", "Directory holding the profiles (default: user config dir)")
	flags.StringP("map", "m", "", "Circuit catalog file")
	flags.String("redis", "", "Redis URL for shared calibrations and axis locks, e.g. redis://localhost:6379/0")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Bool("no-banner", false, "Do not print the banner on interactive commands")
}

func options(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	profile, _ := flags.GetString("profile")
	dir, _ := flags.GetString("profiles-dir")
	cmap, _ := flags.GetString("map")
	redis, _ := flags.GetString("redis")
	debug, _ := flags.GetBool("debug")
	return cli.Options{ProfileDir: dir, Profile: profile, Map: cmap, RedisURL: redis, Debug: debug}
}

// withEnv opens the session described by the flags, runs fn under a signal
// aware context and closes the session.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *cli.Env) error) error {
	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	env, err := cli.Open(ctx, options(cmd))
	if err != nil {
		return err
	}
	defer env.Close()

	err = fn(ctx, env)
	if ctx.Signal() != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nInterrupted (%v)\n", ctx.Signal())
		return nil
	}
	return err
}

func banner(cmd *cobra.Command) {
	if off, _ := cmd.Flags().GetBool("no-banner"); !off {
		tui.PrintBanner(cmd.OutOrStdout())
	}
}
