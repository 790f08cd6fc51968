package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kerbaras/mangashelf/pkg/chapter"
	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/integrations"
	"github.com/kerbaras/mangashelf/pkg/parser"
	"github.com/kerbaras/mangashelf/pkg/sources"
	"go.uber.org/zap"
)

// UnresolvedPolicy decides what a pass does after a series fails to resolve.
type UnresolvedPolicy string

const (
	// PolicyHalt stops the pass at the first unresolved series.
	PolicyHalt UnresolvedPolicy = "halt"
	// PolicySkip skips every file of that series and keeps going.
	PolicySkip UnresolvedPolicy = "skip"
)

// Numbering selects where the ledger chapter number comes from.
type Numbering string

const (
	// NumberingVolume uses the number the filename parser extracted.
	NumberingVolume Numbering = "volume"
	// NumberingChapter runs the chapter heuristic over the raw name.
	NumberingChapter Numbering = "chapter"
)

// ResultKind classifies what happened to one discovered file.
type ResultKind string

const (
	KindImported    ResultKind = "imported"
	KindSkipped     ResultKind = "skipped"
	KindQuarantined ResultKind = "quarantined"
	KindUnresolved  ResultKind = "unresolved"
	KindFailed      ResultKind = "failed"
)

// ItemResult is the outcome for one discovered file.
type ItemResult struct {
	File        ChapterFile
	Series      string
	Chapter     chapter.Number
	TrackerID   int
	ArchivePath string
	Kind        ResultKind
	Err         error
}

// RunReport aggregates one ingest pass.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemResult
	Gaps       []data.MissingChapter
	Halted     bool
	Err        error
}

// Count returns how many items ended with kind.
func (r *RunReport) Count(kind ResultKind) int {
	n := 0
	for _, item := range r.Items {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

// Imported returns the ledger records created by the pass.
func (r *RunReport) Imported() []*data.ImportRecord {
	var out []*data.ImportRecord
	for _, item := range r.Items {
		if item.Kind != KindImported {
			continue
		}
		out = append(out, &data.ImportRecord{
			Series:      item.Series,
			Chapter:     item.Chapter,
			ArchivePath: item.ArchivePath,
			SourcePath:  item.File.SourcePath,
		})
	}
	return out
}

// SourceMover relocates chapter sources. *integrations.Filesystem satisfies it.
type SourceMover interface {
	Quarantine(path string) (string, error)
	Remove(path string) error
}

// IngestConfig holds the per-pass settings of an Orchestrator.
type IngestConfig struct {
	SourceDir    string
	ArchiveDir   string
	Layout       string
	Policy       UnresolvedPolicy
	Numbering    Numbering
	RemoveSource bool
}

// Orchestrator runs one ingest pass: discover, parse, resolve, dedupe,
// archive, record, then look for gaps and send a summary.
type Orchestrator struct {
	cfg       IngestConfig
	catalog   sources.Catalog
	ledger    *Ledger
	resolver  *Resolver
	gaps      *GapDetector
	heuristic *parser.Heuristic
	archiver  integrations.Archiver
	mover     SourceMover
	notifier  integrations.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// OrchestratorDeps are the collaborators of an Orchestrator. Notifier and
// Logger may be nil.
type OrchestratorDeps struct {
	Catalog   sources.Catalog
	Store     Store
	Ambiguity AmbiguityResolver
	AlwaysAsk bool
	Archiver  integrations.Archiver
	Mover     SourceMover
	Notifier  integrations.Notifier
	Logger    *zap.Logger
}

// NewOrchestrator wires a pass from its collaborators.
func NewOrchestrator(cfg IngestConfig, deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = integrations.NopNotifier{}
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyHalt
	}
	if cfg.Numbering == "" {
		cfg.Numbering = NumberingVolume
	}
	if cfg.Layout == "" {
		cfg.Layout = integrations.LayoutMirror
	}

	ledger := NewLedger(deps.Store)
	return &Orchestrator{
		cfg:       cfg,
		catalog:   deps.Catalog,
		ledger:    ledger,
		resolver:  NewResolver(ledger, deps.Ambiguity, deps.AlwaysAsk, logger),
		gaps:      NewGapDetector(deps.Store),
		heuristic: parser.NewHeuristic(deps.Catalog, logger),
		archiver:  deps.Archiver,
		mover:     deps.Mover,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Ledger exposes the ledger the orchestrator records into.
func (o *Orchestrator) Ledger() *Ledger { return o.ledger }

// Resolver exposes the series resolver.
func (o *Orchestrator) Resolver() *Resolver { return o.resolver }

// Run performs one pass. It never panics; per-file problems end up in the
// report and only a failure to list the source root sets report.Err before
// any file is processed.
func (o *Orchestrator) Run(ctx context.Context) *RunReport {
	report := &RunReport{RunID: uuid.NewString(), StartedAt: o.now()}
	logger := o.logger.With(zap.String("run_id", report.RunID))
	logger.Info("ingest started", zap.String("path", o.cfg.SourceDir))

	files, err := Discover(o.cfg.SourceDir)
	if err != nil {
		report.Err = err
		report.FinishedAt = o.now()
		logger.Error("discovery failed", zap.Error(err))
		return report
	}

	pass := &ingestPass{
		logger:     logger,
		unresolved: make(map[string]bool),
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}

		res := o.processFile(ctx, pass, file)
		report.Items = append(report.Items, res)

		if res.Kind == KindUnresolved && o.cfg.Policy == PolicyHalt {
			report.Halted = true
			report.Err = res.Err
			logger.Warn("halting pass on unresolved series", zap.String("series", res.Series))
			break
		}
	}

	gaps, err := o.gaps.FindGapsSince(report.StartedAt)
	if err != nil {
		logger.Error("gap detection failed", zap.Error(err))
		if report.Err == nil {
			report.Err = err
		}
	}
	report.Gaps = gaps
	for _, gap := range gaps {
		logger.Info("missing chapter", zap.String("series", gap.Series), zap.Int("chapter", gap.Number))
	}

	if imported := report.Imported(); len(imported) > 0 {
		summary := integrations.BuildSummary(imported, report.Gaps)
		if err := o.notifier.Send(ctx, integrations.SummaryTitle, summary); err != nil {
			logger.Warn("failed to send summary", zap.Error(err))
		}
	}

	report.FinishedAt = o.now()
	logger.Info("ingest finished",
		zap.Int("imported", report.Count(KindImported)),
		zap.Int("skipped", report.Count(KindSkipped)),
		zap.Int("quarantined", report.Count(KindQuarantined)),
		zap.Int("unresolved", report.Count(KindUnresolved)),
		zap.Int("failed", report.Count(KindFailed)),
		zap.Int("gaps", len(report.Gaps)))
	return report
}

// ingestPass is the state shared by the files of one Run.
type ingestPass struct {
	logger     *zap.Logger
	unresolved map[string]bool
	entries    []sources.TrackerSeries
	loaded     bool
}

func (o *Orchestrator) catalogEntries(ctx context.Context, pass *ingestPass) ([]sources.TrackerSeries, error) {
	if pass.loaded {
		return pass.entries, nil
	}
	entries, err := o.catalog.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracker list: %w", err)
	}
	pass.entries = entries
	pass.loaded = true
	return entries, nil
}

func (o *Orchestrator) processFile(ctx context.Context, pass *ingestPass, file ChapterFile) (res ItemResult) {
	res = ItemResult{File: file}
	logger := pass.logger.With(zap.String("path", file.SourcePath))

	defer func() {
		if r := recover(); r != nil {
			res.Kind = KindFailed
			res.Err = fmt.Errorf("panic while processing %s: %v", file.SourcePath, r)
			logger.Error("recovered panic", zap.Any("panic", r))
		}
	}()
	fail := func(err error) ItemResult {
		res.Kind = KindFailed
		res.Err = err
		logger.Error("chapter failed", zap.Error(err))
		return res
	}

	parsed := parser.ParseFilename(file.ChapterFileName)
	if parsed.Unparsed {
		dest, err := o.mover.Quarantine(file.SourcePath)
		if err != nil {
			return fail(err)
		}
		res.Kind = KindQuarantined
		res.Err = fmt.Errorf("%w: %s", ErrParseFailure, file.ChapterFileName)
		logger.Warn("quarantined unparsable chapter", zap.String("quarantine", dest))
		return res
	}

	res.Series = parsed.Series
	logger = logger.With(zap.String("series", parsed.Series))
	if pass.unresolved[parsed.Series] {
		res.Kind = KindUnresolved
		res.Err = fmt.Errorf("%w: %s", ErrUnresolvedSeries, parsed.Series)
		return res
	}

	trackerID, ok, err := o.ledger.TrackerIDFor(parsed.Series)
	if err != nil {
		return fail(fmt.Errorf("failed to look up series link: %w", err))
	}
	if !ok {
		entries, err := o.catalogEntries(ctx, pass)
		if err != nil {
			return fail(err)
		}
		trackerID, ok, err = o.resolver.Resolve(ctx, parsed.Series, entries)
		if err != nil {
			return fail(err)
		}
		if !ok {
			pass.unresolved[parsed.Series] = true
			res.Kind = KindUnresolved
			res.Err = fmt.Errorf("%w: %s", ErrUnresolvedSeries, parsed.Series)
			logger.Warn("series unresolved")
			return res
		}
	}
	res.TrackerID = trackerID

	number := parsed.Number
	if o.cfg.Numbering == NumberingChapter {
		if n := o.heuristic.ChapterNumber(ctx, file.ChapterFileName, trackerID); !n.Empty() {
			number = n
		}
	}
	res.Chapter = number
	logger = logger.With(zap.Int("tracker_id", trackerID), zap.String("chapter", number.String()))

	unlock := o.ledger.Lock(trackerID)
	defer unlock()

	exists, err := o.ledger.Exists(trackerID, number)
	if err != nil {
		return fail(err)
	}
	if exists {
		res.Kind = KindSkipped
		logger.Debug("chapter already in ledger")
		return res
	}

	archivePath, err := o.archivePath(file, trackerID)
	if err != nil {
		return fail(err)
	}
	res.ArchivePath = archivePath

	info, err := o.comicInfo(ctx, file, parsed, number, trackerID)
	if err != nil {
		return fail(err)
	}
	if err := o.archiver.Archive(file.SourcePath, archivePath, info); err != nil {
		return fail(fmt.Errorf("failed to archive: %w", err))
	}
	if err := o.ledger.Record(parsed.Series, number, archivePath, file.SourcePath); err != nil {
		return fail(err)
	}

	if o.cfg.RemoveSource {
		if err := o.mover.Remove(file.SourcePath); err != nil {
			logger.Warn("failed to remove imported source", zap.Error(err))
		}
	}

	res.Kind = KindImported
	logger.Info("chapter imported", zap.String("archive", archivePath))
	return res
}

func (o *Orchestrator) archivePath(file ChapterFile, trackerID int) (string, error) {
	ext := o.archiver.Extension()
	if o.cfg.Layout == integrations.LayoutTracker {
		return integrations.TrackerPath(o.cfg.ArchiveDir, trackerID, file.ChapterFileName, ext), nil
	}
	return integrations.MirrorPath(o.cfg.SourceDir, o.cfg.ArchiveDir, file.SourcePath, ext)
}

// comicInfo fetches tracker metadata for the archive. A tracker with no data
// for the id degrades to filename-only metadata; any other failure fails the
// item so it is retried next run.
func (o *Orchestrator) comicInfo(ctx context.Context, file ChapterFile, parsed parser.ParsedChapter, number chapter.Number, trackerID int) (*integrations.ComicInfo, error) {
	media, err := o.catalog.Media(ctx, trackerID)
	if errors.Is(err, sources.ErrNoData) {
		media = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	return integrations.NewComicInfo(file.ChapterFileName, parsed, number, media), nil
}
