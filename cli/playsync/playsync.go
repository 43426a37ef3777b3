package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/playsync/internal/cli"
)

var (
	configPath   string
	verbose      bool
	destDir      string
	lockfilePath string
	concurrency  int
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playsync [upgrade]",
		Short: "Vendor Google Play Services archives with pinned integrity hashes",
		Long: `playsync keeps a directory of Google Play Services .aar archives in sync
with a lockfile of SRI integrity hashes.

  playsync upgrade   list the repository, download the newest archives and
                     rewrite the lockfile
  playsync           restore the archives pinned in the lockfile, verifying
                     every download`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          cli.RunSync,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path (default: ./playsync.yaml when present)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&destDir, "dest", "", "directory receiving the archives (overrides paths.dest_dir)")
	cmd.Flags().StringVar(&lockfilePath, "lockfile", "", "lockfile path (overrides paths.lockfile)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "libraries processed at once (0 = all at once)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.DestDir = &destDir
	cli.LockfilePath = &lockfilePath
	cli.Concurrency = &concurrency

	cmd.AddCommand(cli.NewVersionCmd())

	return cmd
}
