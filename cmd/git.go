package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/samber/lo"
	"github.com/speakeasy-api/pkgmerge/internal/charm/styles"
	"github.com/speakeasy-api/pkgmerge/internal/config"
	"github.com/speakeasy-api/pkgmerge/internal/fs"
	"github.com/speakeasy-api/pkgmerge/internal/git"
	"github.com/speakeasy-api/pkgmerge/internal/github"
	"github.com/speakeasy-api/pkgmerge/internal/log"
	"github.com/speakeasy-api/pkgmerge/internal/merging"
	"github.com/speakeasy-api/pkgmerge/internal/model"
	"github.com/speakeasy-api/pkgmerge/internal/model/flag"
	"go.uber.org/zap"
)

const manifestFileName = "package.json"

type GitFlags struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Paths       []string `json:"path"`
	Dir         string   `json:"dir"`
	DryRun      bool     `json:"dry-run"`
	Concurrency int      `json:"concurrency"`
	Report      string   `json:"report"`
	MergeSettings
}

var gitCmd = &model.ExecutableCommand[GitFlags]{
	Usage: "git",
	Short: "Replay manifest changes between two revisions onto the working tree",
	Long: `Git takes every package.json changed between --from and --to (or the manifests
named with --path) and merges the change into the working tree copy:

  base   = the manifest at --from
  theirs = the manifest at --to
  ours   = the manifest in the working tree

Manifests missing from the working tree are created. Manifests deleted at --to
are left untouched.`,
	Run: runGit,
	Flags: append([]flag.Flag{
		flag.StringFlag{
			Name:        "from",
			Description: "revision holding the base version of the manifests",
			Required:    true,
		},
		flag.StringFlag{
			Name:        "to",
			Description: "revision holding the incoming version of the manifests",
			Required:    true,
		},
		flag.StringSliceFlag{
			Name:        "path",
			Description: "manifests to merge, relative to the repository root (default: every changed package.json)",
		},
		flag.StringFlag{
			Name:         "dir",
			Description:  "directory inside the repository",
			DefaultValue: ".",
		},
		flag.BooleanFlag{
			Name:        "dry-run",
			Description: "compute the merges without writing them",
		},
		flag.IntFlag{
			Name:        "concurrency",
			Description: "number of manifests merged at once (default: the config file or 8)",
		},
		reportFlag,
	}, settingsFlags...),
}

func runGit(ctx context.Context, flags GitFlags) error {
	logger := log.From(ctx)

	opts, err := flags.options()
	if err != nil {
		return err
	}

	repo, err := git.NewLocalRepository(flags.Dir)
	if err != nil {
		return err
	}
	if repo.IsNil() {
		return fmt.Errorf("%s: %w", flags.Dir, git.ErrNoRepository)
	}
	root, err := repo.Root()
	if err != nil {
		return err
	}

	paths := lo.Uniq(lo.Map(flags.Paths, func(p string, _ int) string {
		return filepath.ToSlash(filepath.Clean(p))
	}))
	if len(paths) == 0 {
		if paths, err = repo.ChangedFiles(flags.From, flags.To, manifestFileName); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		logger.Info(fmt.Sprintf("No %s changed between %s and %s", manifestFileName, flags.From, flags.To))
		return nil
	}

	engine := merging.NewEngine(
		merging.NewGitHistoryProvider(repo, flags.From, flags.To),
		merging.NewManifestMerger(opts...),
		fs.NewFileSystem(),
	)
	engine.Root = root
	engine.DryRun = flags.DryRun
	engine.Concurrency = flags.Concurrency
	if engine.Concurrency <= 0 {
		engine.Concurrency = config.Concurrency()
	}

	jobs := lo.Map(paths, func(p string, _ int) merging.Job {
		return merging.Job{Path: p}
	})

	results, batchErr := engine.ProcessBatch(ctx, jobs)

	var rows []collisionRow
	for _, res := range results {
		rows = append(rows, collisionRows(res.Path, res.Collisions)...)
		logResult(logger, res, flags.DryRun)
	}

	printReport(ctx, flags.Report, rows)
	printSummary(logger, results, flags.DryRun)
	github.GenerateMergeSummary(ctx, mergeSummary(flags.From, flags.To, results, rows))

	if batchErr != nil {
		failed := lo.CountBy(results, func(r merging.MergeResult) bool { return r.Error != nil })
		return fmt.Errorf("%s failed to merge: %w", english.Plural(failed, "manifest", ""), batchErr)
	}

	return nil
}

func logResult(logger log.Logger, res merging.MergeResult, dryRun bool) {
	fields := []zap.Field{zap.String("status", string(res.Status))}

	switch {
	case res.Error != nil:
		logger.WithAssociatedFile(res.Path).Error(fmt.Sprintf("Failed to merge %s", res.Path), zap.Error(res.Error))
	case res.Status == merging.MergeStatusSkipped:
		logger.Info(fmt.Sprintf("Skipped %s, it was deleted upstream", res.Path), fields...)
	case dryRun:
		logger.Info(fmt.Sprintf("Would update %s", res.Path), fields...)
	case res.Written:
		logger.Info(fmt.Sprintf("Updated %s", res.Path), fields...)
	default:
		logger.Info(fmt.Sprintf("%s is up to date", res.Path), fields...)
	}

	if res.Error == nil {
		logCollisions(logger, res.Path, res.Collisions)
	}
}

func printSummary(logger log.Logger, results []merging.MergeResult, dryRun bool) {
	written := lo.Filter(results, func(r merging.MergeResult, _ int) bool { return r.Written })
	bytesWritten := lo.SumBy(written, func(r merging.MergeResult) int { return len(r.Content) })
	collisions := lo.SumBy(results, func(r merging.MergeResult) int { return len(r.Collisions) })
	created := lo.CountBy(results, func(r merging.MergeResult) bool { return r.Status == merging.MergeStatusCreated })

	heading := fmt.Sprintf("Merged %s", english.Plural(len(results), "manifest", ""))
	if dryRun {
		heading = fmt.Sprintf("Dry run over %s", english.Plural(len(results), "manifest", ""))
	}

	lines := []string{
		fmt.Sprintf("%s written (%s)", english.Plural(len(written), "file", ""), humanize.Bytes(uint64(bytesWritten))),
		fmt.Sprintf("%s created", english.Plural(created, "file", "")),
		fmt.Sprintf("%s resolved in favour of theirs", english.Plural(collisions, "collision", "")),
	}

	box := styles.RenderSuccessMessage(heading, lines...)
	if failed := lo.CountBy(results, func(r merging.MergeResult) bool { return r.Error != nil }); failed > 0 || collisions > 0 {
		lines = append(lines, fmt.Sprintf("%s failed", english.Plural(failed, "file", "")))
		box = styles.RenderWarningMessage(heading, lines...)
	}
	logger.WithInteractiveOnly().Println(box)
	logger.Info(heading, zap.Int("written", len(written)), zap.Int("created", created), zap.Int("collisions", collisions))
}

func mergeSummary(from, to string, results []merging.MergeResult, rows []collisionRow) github.MergeSummary {
	summary := github.MergeSummary{From: from, To: to}

	for _, res := range results {
		summary.Files = append(summary.Files, github.FileSummary{
			Path:       res.Path,
			Status:     string(res.Status),
			Collisions: len(res.Collisions),
			Error:      res.Error,
		})
	}
	for _, row := range rows {
		summary.Collisions = append(summary.Collisions, github.CollisionSummary{
			File:   row.File,
			Path:   row.Path,
			Base:   summaryValue(row.Base),
			Ours:   summaryValue(row.Ours),
			Theirs: summaryValue(row.Theirs),
		})
	}

	return summary
}

func summaryValue(v any) string {
	if v == nil {
		return "(absent)"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
