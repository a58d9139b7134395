package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/speakeasy-api/pkgmerge/internal/config"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
)

type outputKey struct{}

func withOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// outputFrom returns where merged manifests are printed.
func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return os.Stdout
}

// fileError ties an error to the manifest it concerns so it can be annotated.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string {
	return fmt.Sprintf("%s: %s", e.path, e.err.Error())
}

func (e *fileError) Unwrap() error {
	return e.err
}

// inputError attributes a merge error to the file of the input that caused it.
func inputError(err error, base, ours, theirs string) error {
	files := map[string]string{
		manifest.InputBase:   base,
		manifest.InputOurs:   ours,
		manifest.InputTheirs: theirs,
	}

	var mErr *manifest.MalformedInputError
	if errors.As(err, &mErr) {
		return &fileError{path: files[mErr.Input], err: err}
	}
	var uErr *manifest.UnsupportedFieldShapeError
	if errors.As(err, &uErr) {
		return &fileError{path: files[uErr.Input], err: err}
	}
	return err
}

type MergeSettings struct {
	DependencyFields   []string `json:"dependency-fields"`
	NoDependencyFields bool     `json:"no-dependency-fields"`
	LineEnding         string   `json:"line-ending"`
}

// options resolves merge options, letting flags override the config file.
func (s MergeSettings) options() ([]manifest.Option, error) {
	var opts []manifest.Option

	switch {
	case s.NoDependencyFields:
		opts = append(opts, manifest.WithDependencyFields())
	case len(s.DependencyFields) > 0:
		opts = append(opts, manifest.WithDependencyFields(s.DependencyFields...))
	default:
		if fields := config.DependencyFields(); fields != nil {
			opts = append(opts, manifest.WithDependencyFields(fields...))
		}
	}

	lineEnding, err := config.LineEnding()
	if s.LineEnding != "" {
		lineEnding, err = manifest.ParseLineEnding(s.LineEnding)
	}
	if err != nil {
		return nil, err
	}
	opts = append(opts, manifest.WithLineEnding(lineEnding))

	return opts, nil
}
