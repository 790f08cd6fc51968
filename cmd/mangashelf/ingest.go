package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kerbaras/mangashelf/pkg/app"
	"github.com/kerbaras/mangashelf/pkg/app/components"
	"github.com/kerbaras/mangashelf/pkg/integrations"
	"github.com/kerbaras/mangashelf/pkg/services"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingest pass over the source directory",
	Long: `Parse every chapter under the source directory, link its series to an AniList
entry, archive chapters that are not yet in the ledger and report missing chapters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateIngest(); err != nil {
			return err
		}

		lock, err := services.AcquireRunLock(cfg.LockPath())
		if err != nil {
			return err
		}
		defer lock.Release()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		archiver, err := integrations.NewArchiver(cfg.Archive.Format)
		if err != nil {
			return err
		}
		notifier, err := integrations.NewNotifier(cfg.Notify.URLs, cfg.Notify.Timeout)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		var ambiguity services.AmbiguityResolver = services.SkipResolver{}
		interactive := cfg.Ingest.Interactive
		if interactive && !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			logger.Warn("stdin is not a terminal, running headless")
			interactive = false
		}
		if interactive {
			ambiguity = app.NewPrompter(os.Stdin, os.Stdout, cancel)
		}

		keepSource, _ := cmd.Flags().GetBool("keep-source")

		orchestrator := services.NewOrchestrator(services.IngestConfig{
			SourceDir:    cfg.SourceDir,
			ArchiveDir:   cfg.ArchiveDir,
			Layout:       cfg.Archive.Layout,
			Policy:       services.UnresolvedPolicy(cfg.Ingest.UnresolvedPolicy),
			Numbering:    services.Numbering(cfg.Ingest.Numbering),
			RemoveSource: cfg.Ingest.RemoveSource && !keepSource,
		}, services.OrchestratorDeps{
			Catalog:   newCatalog(),
			Store:     repo,
			Ambiguity: ambiguity,
			AlwaysAsk: interactive,
			Archiver:  archiver,
			Mover:     integrations.NewFilesystem(cfg.SourceDir, cfg.QuarantineDir),
			Notifier:  notifier,
			Logger:    logger,
		})

		report := orchestrator.Run(ctx)
		fmt.Println(components.RenderReport(report, 60))

		if report.Err != nil && !isCancelled(ctx) {
			logger.Error("ingest pass incomplete", zap.Error(report.Err))
			return report.Err
		}
		return nil
	},
}

func isCancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}

func init() {
	ingestCmd.Flags().Bool("interactive", false, "confirm every series match in a terminal prompt")
	ingestCmd.Flags().String("policy", "halt", "what to do with unresolved series (halt, skip)")
	ingestCmd.Flags().String("numbering", "volume", "chapter numbering (volume, chapter)")
	ingestCmd.Flags().Bool("keep-source", false, "keep chapter sources after import")

	cobra.CheckErr(v.BindPFlag("ingest.interactive", ingestCmd.Flags().Lookup("interactive")))
	cobra.CheckErr(v.BindPFlag("ingest.unresolved_policy", ingestCmd.Flags().Lookup("policy")))
	cobra.CheckErr(v.BindPFlag("ingest.numbering", ingestCmd.Flags().Lookup("numbering")))

	rootCmd.AddCommand(ingestCmd)
}
