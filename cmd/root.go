package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/speakeasy-api/pkgmerge/internal/charm/styles"
	"github.com/speakeasy-api/pkgmerge/internal/config"
	"github.com/speakeasy-api/pkgmerge/internal/env"
	"github.com/speakeasy-api/pkgmerge/internal/log"
	"github.com/speakeasy-api/pkgmerge/internal/model"
	"github.com/speakeasy-api/pkgmerge/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var l = log.New().WithLevel(log.LevelInfo)

func init() {
	// We want our commands to be sorted in defined order, not alphabetically
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("failed to load configuration", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCmd(version, artifactArch string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgmerge",
		Short: "Three-way merge for package.json manifests",
		Long: `pkgmerge replays the changes between two versions of a package manifest onto a locally edited copy:
	- Dependency maps are merged by package name and written in sorted order
	- Every other field follows a structural edit script, keeping the local key order
	- When both sides changed the same value the incoming version wins and the collision is reported
`,
		Version:       version + "\n" + artifactArch,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("logLevel", string(log.LevelInfo), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(withOutput(ctx, cmd.OutOrStdout()))

		if err := setLogLevel(cmd); err != nil {
			return err
		}
		return checkMinVersion(version)
	}

	addCommand(rootCmd, mergeCmd)
	addCommand(rootCmd, driverCmd)
	addCommand(rootCmd, gitCmd)

	return rootCmd
}

func addCommand(cmd *cobra.Command, command model.Command) {
	c, err := command.Init()
	if err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
	cmd.AddCommand(c)
}

func CmdForTest(version, artifactArch string) *cobra.Command {
	return newRootCmd(version, artifactArch)
}

func Execute(version, artifactArch string) {
	rootCmd := newRootCmd(version, artifactArch)

	if err := rootCmd.Execute(); err != nil {
		logger := l
		var fErr *fileError
		if errors.As(err, &fErr) {
			logger = logger.WithAssociatedFile(fErr.path)
		}
		logger.Error("", zap.Error(err))
		l.WithInteractiveOnly().PrintfStyled(styles.DimmedItalic, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		os.Exit(1)
	}
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel)).WithWriter(cmd.ErrOrStderr())
	// Styles are lost when piped, so keep the level visible as a prefix
	if !env.IsGithubAction() && !utils.IsInteractive() {
		l = l.WithFormatter(log.PrefixedFormatter)
	}
	ctx := log.With(cmd.Context(), l)
	cmd.SetContext(ctx)

	return nil
}

// checkMinVersion fails when the config pins a newer pkgmerge than the one
// running. Development builds without a semantic version are not checked.
func checkMinVersion(currentVersion string) error {
	required := config.MinVersion()
	if required == "" {
		return nil
	}

	minVer, err := version.NewVersion(required)
	if err != nil {
		return fmt.Errorf("invalid min_version %q: %w", required, err)
	}

	curVer, err := version.NewVersion(currentVersion)
	if err != nil {
		return nil
	}

	if curVer.LessThan(minVer) {
		return fmt.Errorf("this project requires pkgmerge v%s or newer, running v%s", minVer, curVer)
	}

	return nil
}
