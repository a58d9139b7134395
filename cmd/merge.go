package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/speakeasy-api/pkgmerge/internal/fs"
	"github.com/speakeasy-api/pkgmerge/internal/log"
	"github.com/speakeasy-api/pkgmerge/internal/model"
	"github.com/speakeasy-api/pkgmerge/internal/model/flag"
	"github.com/speakeasy-api/pkgmerge/internal/utils"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
	"go.uber.org/zap"
)

const (
	reportNone = "none"
	reportText = "text"
	reportJSON = "json"
)

type MergeFlags struct {
	Base   string `json:"base"`
	Ours   string `json:"ours"`
	Theirs string `json:"theirs"`
	Out    string `json:"out"`
	Report string `json:"report"`
	MergeSettings
}

var settingsFlags = []flag.Flag{
	flag.StringSliceFlag{
		Name:        "dependency-fields",
		Description: "manifest keys merged as name to version maps, overrides the defaults and the config file",
	},
	flag.BooleanFlag{
		Name:        "no-dependency-fields",
		Description: "merge every field structurally, including dependency maps",
	},
	flag.StringFlag{
		Name:        "line-ending",
		Description: fmt.Sprintf("line terminator of the merged manifest (one of: %s), defaults to the config file or native", strings.Join(manifest.LineEndings, ", ")),
	},
}

var reportFlag = flag.EnumFlag{
	Name:          "report",
	Description:   "print the collisions that were resolved in favour of theirs",
	DefaultValue:  reportNone,
	AllowedValues: []string{reportNone, reportText, reportJSON},
}

var mergeCmd = &model.ExecutableCommand[MergeFlags]{
	Usage: "merge",
	Short: "Merge three versions of a package manifest",
	Long: `Merge applies the changes between the base and theirs manifests to ours.

Dependency fields are merged by package name and sorted. All other fields follow
the structure of theirs while keeping the key order of ours. When ours and theirs
both changed a value, theirs wins and the collision can be printed with --report.`,
	Run: runMerge,
	Flags: append([]flag.Flag{
		flag.StringFlag{
			Name:                       "base",
			Shorthand:                  "b",
			Description:                "path to the common ancestor manifest",
			Required:                   true,
			AutocompleteFileExtensions: []string{"json"},
		},
		flag.StringFlag{
			Name:                       "ours",
			Shorthand:                  "o",
			Description:                "path to the locally edited manifest",
			Required:                   true,
			AutocompleteFileExtensions: []string{"json"},
		},
		flag.StringFlag{
			Name:                       "theirs",
			Shorthand:                  "t",
			Description:                "path to the incoming manifest",
			Required:                   true,
			AutocompleteFileExtensions: []string{"json"},
		},
		flag.StringFlag{
			Name:        "out",
			Description: "write the merged manifest to this path instead of stdout",
		},
		reportFlag,
	}, settingsFlags...),
}

func runMerge(ctx context.Context, flags MergeFlags) error {
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
			return &fileError{path: f.path, err: err}
		}
		*f.dst = data
	}

	res, err := manifest.Merge(in, opts...)
	if err != nil {
		return inputError(err, flags.Base, flags.Ours, flags.Theirs)
	}

	if flags.Out == "" {
		if _, err := outputFrom(ctx).Write(res.Content); err != nil {
			return err
		}
	} else {
		if err := utils.CreateDirectory(flags.Out); err != nil {
			return err
		}
		if err := fsys.WriteFile(flags.Out, res.Content, utils.FileMode(flags.Out, 0o644)); err != nil {
			return &fileError{path: flags.Out, err: err}
		}
		logger.Success(fmt.Sprintf("Merged manifest written to %s", flags.Out), zap.String("status", string(res.Status)))
	}

	logCollisions(logger, flags.Ours, res.Collisions)
	printReport(ctx, flags.Report, collisionRows("", res.Collisions))

	return nil
}

func logCollisions(logger log.Logger, path string, collisions []manifest.Collision) {
	if len(collisions) == 0 {
		return
	}

	logger.WithAssociatedFile(path).Warn(
		english.Plural(len(collisions), "conflicting change", "")+" resolved in favour of theirs",
		zap.String("file", path),
	)
}
