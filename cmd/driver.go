package cmd

import (
	"context"
	"fmt"

	"github.com/speakeasy-api/pkgmerge/internal/fs"
	"github.com/speakeasy-api/pkgmerge/internal/log"
	"github.com/speakeasy-api/pkgmerge/internal/model"
	"github.com/speakeasy-api/pkgmerge/internal/model/flag"
	"github.com/speakeasy-api/pkgmerge/internal/utils"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type DriverFlags struct {
	Base   string `json:"base"`
	Ours   string `json:"ours"`
	Theirs string `json:"theirs"`
	Path   string `json:"path"`
	MergeSettings
}

var driverCmd = &model.ExecutableCommand[DriverFlags]{
	Usage: "driver <base> <ours> <theirs> [<path>]",
	Short: "Run as a git merge driver",
	Long: `Driver merges the three temporary files git hands to a custom merge driver and
writes the result over <ours>. Collisions are resolved in favour of theirs, so the
merge always succeeds unless a manifest cannot be parsed.

Register it with:

  git config merge.pkgmerge.driver "pkgmerge driver %O %A %B %P"
  echo "package.json merge=pkgmerge" >> .gitattributes`,
	Args:     cobra.RangeArgs(3, 4),
	ArgNames: []string{"base", "ours", "theirs", "path"},
	Run:      runDriver,
	Flags: append([]flag.Flag{
		flag.StringFlag{Name: "base", Description: "common ancestor version (%O)", Hidden: true},
		flag.StringFlag{Name: "ours", Description: "current version, overwritten with the result (%A)", Hidden: true},
		flag.StringFlag{Name: "theirs", Description: "other branch version (%B)", Hidden: true},
		flag.StringFlag{Name: "path", Description: "pathname the merge is for (%P)", Hidden: true},
	}, settingsFlags...),
}

func runDriver(ctx context.Context, flags DriverFlags) error {
	display := flags.Path
	if display == "" {
		display = flags.Ours
	}
	logger := log.From(ctx)

	opts, err := flags.options()
	if err != nil {
		return err
	}

	fsys := fs.NewFileSystem()
	in := manifest.Input{}
	for _, f := range []struct {
		path string
		dst  *[]byte
	}{{flags.Base, &in.Base}, {flags.Ours, &in.Ours}, {flags.Theirs, &in.Theirs}} {
		data, err := fsys.ReadFile(f.path)
		if err != nil {
			return &fileError{path: display, err: err}
		}
		*f.dst = data
	}

	res, err := manifest.Merge(in, opts...)
	if err != nil {
		return &fileError{path: display, err: err}
	}

	if err := fsys.WriteFile(flags.Ours, res.Content, utils.FileMode(flags.Ours, 0o644)); err != nil {
		return &fileError{path: display, err: err}
	}

	logCollisions(logger, display, res.Collisions)
	logger.Info(fmt.Sprintf("Merged %s", display), zap.String("status", string(res.Status)))

	return nil
}
