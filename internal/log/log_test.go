package log_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/speakeasy-api/pkgmerge/internal/log"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLogger(buf *bytes.Buffer) log.Logger {
	return log.New().WithFormatter(log.PrefixedFormatter).WithWriter(buf)
}

func TestLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf).WithLevel(log.LevelWarn)

	l.Info("hidden")
	l.Success("hidden too")
	l.Warn("shown")
	l.Error("always")

	assert.Equal(t, "WARN\tshown\nERROR\talways\n", buf.String())
}

func TestLogger_Fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf).With(zap.String("path", "package.json"))

	l.Info("merged", zap.Int("collisions", 2))

	assert.Equal(t, "INFO\tmerged\t{\"collisions\":2,\"path\":\"package.json\"}\n", buf.String())
}

func TestLogger_ErrorBecomesMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Error("", zap.Error(errors.New("boom")))
	l.Error("merge failed", zap.Error(errors.New("boom")))

	assert.Equal(t, "ERROR\tboom\nERROR\tmerge failed\t{\"error\":\"boom\"}\n", buf.String())
}

func TestLogger_Context(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := log.With(context.Background(), newTestLogger(&buf).WithLevel(log.LevelErr))

	assert.Equal(t, log.LevelErr, log.From(ctx).Level())
	assert.Equal(t, log.LevelInfo, log.From(context.Background()).Level())
}

func TestGithubFormatter(t *testing.T) {
	t.Parallel()

	malformed := &manifest.MalformedInputError{Input: manifest.InputOurs, Err: errors.New("unexpected end of JSON input")}
	shape := &manifest.UnsupportedFieldShapeError{Input: manifest.InputTheirs, Field: "dependencies", Reason: "expected an object"}

	tests := []struct {
		name string
		file string
		err  error
		want string
	}{
		{name: "no error", file: "package.json", want: "::error file=package.json::failed"},
		{name: "no file", err: malformed, want: "::error::failed"},
		{name: "malformed", file: "/repo/app/package.json", err: malformed, want: "::error file=app/package.json,title=Malformed ours manifest::failed"},
		{name: "wrapped shape", file: "package.json", err: fmt.Errorf("merge: %w", shape), want: "::error file=package.json,title=Unsupported dependencies::failed"},
		{name: "other", file: "package.json", err: errors.New("io"), want: "::error file=package.json::failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := log.New().WithAssociatedFile(tt.file)
			assert.Equal(t, tt.want, log.GithubFormatter(l, log.LevelErr, "failed", tt.err))
		})
	}
}

func TestGithubFormatter_Warning(t *testing.T) {
	t.Parallel()

	l := log.New().WithAssociatedFile("package.json")
	assert.Equal(t, "::warning file=package.json::1 conflict", log.GithubFormatter(l, log.LevelWarn, "1 conflict", nil))
	assert.Equal(t, "done", log.GithubFormatter(l, log.LevelInfo, "done", nil))
}

type record struct {
	Path   string
	Theirs any
	Ours   any
}

func TestPrettyPrintArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := log.With(context.Background(), newTestLogger(&buf))

	log.PrettyPrintArray(ctx, []record{{Path: "/version", Theirs: "2.0.0"}}, map[string]string{"Path": "path"})

	assert.Equal(t, "--------------------------------------\npath: \"/version\"\nTheirs: \"2.0.0\"\nOurs: (absent)\n--------------------------------------\n", buf.String())
}

func TestPrintArray_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := log.With(context.Background(), newTestLogger(&buf))

	log.PrintArray[record](ctx, nil, true, nil)

	assert.Equal(t, "[]\n", buf.String())
}
