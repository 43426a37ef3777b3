package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/playsync/internal/logger"
	"github.com/glorpus-work/playsync/pkg/artifact"
	"github.com/glorpus-work/playsync/pkg/config"
	"github.com/glorpus-work/playsync/pkg/download"
	"github.com/glorpus-work/playsync/pkg/listing"
	"github.com/glorpus-work/playsync/pkg/orchestrator"
)

// RunSync is the root command action. "upgrade" refreshes the lockfile from
// the repository; anything else, including no argument, restores the
// destination directory from the lockfile.
func RunSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags().Changed("concurrency"))
	if err != nil {
		return err
	}
	initLogger(cfg)

	directive := ""
	if len(args) > 0 {
		directive = args[0]
	}
	mode := orchestrator.ParseMode(directive)

	logger.Debug("Loaded configuration", logger.Fields{
		"repository":  cfg.Repository.URL,
		"dest":        cfg.Paths.DestDir,
		"lockfile":    cfg.Paths.Lockfile,
		"concurrency": cfg.Settings.Concurrency,
	})

	if err := newOrchestrator(cfg).Run(cmd.Context(), mode); err != nil {
		return fmt.Errorf("%s failed: %w", mode, err)
	}
	logger.Success(fmt.Sprintf("%s finished", mode), logger.Fields{"dest": cfg.Paths.DestDir})
	return nil
}

func newOrchestrator(cfg *config.Config) *orchestrator.Orchestrator {
	fetcher := download.NewFetcher(cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent)
	lister := listing.NewMavenRepository(cfg.Settings.HTTPTimeout, cfg.Settings.UserAgent, cfg.Settings.MaxPages)

	opts := orchestrator.Options{
		BaseURL:         cfg.Repository.URL,
		RepoQuery:       cfg.Repository.RepoQuery,
		DestDir:         cfg.Paths.DestDir,
		LockfilePath:    cfg.Paths.Lockfile,
		Policy:          cfg.Policy(),
		Extension:       cfg.Libraries.Extension,
		Pins:            cfg.Libraries.Pins,
		Concurrency:     cfg.Settings.Concurrency,
		Algorithm:       cfg.Settings.IntegrityAlgorithm,
		VerifyArchives:  cfg.Settings.VerifyArchives,
		RequiredEntries: cfg.Libraries.RequiredEntries,
	}
	return orchestrator.New(lister, fetcher, artifact.NewVerifier(fetcher), opts, orchestrator.Hooks{OnEvent: logEvent})
}

func logEvent(e orchestrator.Event) {
	fields := logger.Fields{"phase": e.Phase}
	if e.ID != "" {
		fields["id"] = e.ID
	}
	if e.Msg != "" {
		fields["detail"] = e.Msg
	}

	switch e.Phase {
	case "resolving", "resolved", "downloading", "verifying":
		logger.Debug("Progress", fields)
	default:
		logger.Info("Progress", fields)
	}
}
