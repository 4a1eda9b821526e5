package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const releaseRepository = "s0up4200/calc-consumer"

var (
	version   = "dev"
	buildTime = "unknown"

	checkOnly bool
)

// SetVersion records the build metadata injected by the linker
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = v
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "calc-consumer %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update calc-consumer to the latest release",
	Long:  `Check GitHub releases for a newer version and replace the running binary with it.`,
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd, updateCmd)
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only check whether an update is available")
}

// currentVersion parses the build version, rejecting development builds
func currentVersion() (semver.Version, error) {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return semver.Version{}, fmt.Errorf("cannot update a development build (version %q)", version)
	}
	return v, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	current, err := currentVersion()
	if err != nil {
		return err
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(releaseRepository))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found || latest.LessOrEqual(current.String()) {
		fmt.Fprintf(out, "calc-consumer %s is up to date.\n", current)
		return nil
	}

	if checkOnly {
		fmt.Fprintf(out, "Update available: %s -> %s\n", current, latest.Version())
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}

	logger.Info().Str("from", current.String()).Str("to", latest.Version()).Msg("Updating calc-consumer")
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Fprintf(out, "✓ Updated to %s\n", latest.Version())
	return nil
}
