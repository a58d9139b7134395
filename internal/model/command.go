package model

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/fatih/structs"
	"github.com/speakeasy-api/pkgmerge/internal/model/flag"
	"github.com/speakeasy-api/pkgmerge/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type Command interface {
	Init() (*cobra.Command, error)
}

// ExecutableCommand is a runnable "leaf" command that can be executed directly and has no subcommands
// F is a struct type that represents the flags for the command. The json tags on the struct fields are used to map to the command line flags
type ExecutableCommand[F any] struct {
	Usage, Short, Long string
	Flags              []flag.Flag
	// ArgNames binds positional arguments, in order, to the flags of the same name.
	ArgNames []string
	Args     cobra.PositionalArgs
	PreRun   func(cmd *cobra.Command, flags *F) error
	Run      func(ctx context.Context, flags F) error
	Hidden   bool
}

func (c ExecutableCommand[F]) Init() (*cobra.Command, error) {
	preRun := func(cmd *cobra.Command, args []string) error {
		if err := c.bindArgs(cmd, args); err != nil {
			return err
		}

		flags, err := c.GetFlagValues(cmd)
		if err != nil {
			return err
		}

		if c.PreRun != nil {
			if err := c.PreRun(cmd, flags); err != nil {
				return err
			}
		}

		return nil
	}

	run := func(cmd *cobra.Command, args []string) error {
		if c.Run == nil {
			return fmt.Errorf("command %s has nothing to run", c.Usage)
		}

		flags, err := c.GetFlagValues(cmd)
		if err != nil {
			return err
		}

		// Usage is only useful for flag errors caught above
		cmd.SilenceUsage = true

		return c.Run(cmd.Context(), *flags)
	}

	// Assert that the flags are valid
	if err := c.checkFlags(); err != nil {
		return nil, err
	}

	args := c.Args
	if args == nil {
		args = cobra.NoArgs
	}

	cmd := &cobra.Command{
		Use:     c.Usage,
		Short:   c.Short,
		Long:    c.Long,
		Args:    args,
		PreRunE: preRun,
		RunE:    run,
		Hidden:  c.Hidden,
	}

	for _, flag := range c.Flags {
		if err := flag.Init(cmd); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func (c ExecutableCommand[F]) checkFlags() error {
	var f F
	tags := jsonTags(structs.Fields(f))

	for _, flag := range c.Flags {
		if !slices.Contains(tags, flag.GetName()) {
			return fmt.Errorf("flag %s is missing from flags type for command %s", flag.GetName(), c.Usage)
		}
	}

	for _, name := range c.ArgNames {
		if !slices.ContainsFunc(c.Flags, func(f flag.Flag) bool { return f.GetName() == name }) {
			return fmt.Errorf("argument %s has no matching flag for command %s", name, c.Usage)
		}
	}

	return nil
}

// jsonTags collects the json tags of fields, descending into embedded structs
// whose fields are promoted when decoding.
func jsonTags(fields []*structs.Field) []string {
	var tags []string
	for _, field := range fields {
		if field.IsEmbedded() && field.Kind() == reflect.Struct {
			tags = append(tags, jsonTags(field.Fields())...)
			continue
		}
		tags = append(tags, field.Tag("json"))
	}
	return tags
}

func (c ExecutableCommand[F]) bindArgs(cmd *cobra.Command, args []string) error {
	for i, arg := range args {
		if i >= len(c.ArgNames) {
			break
		}
		if err := cmd.Flags().Set(c.ArgNames[i], arg); err != nil {
			return err
		}
	}
	return nil
}

func (c ExecutableCommand[F]) GetFlagValues(cmd *cobra.Command) (*F, error) {
	var flagValues F

	findFlagDef := func(name string) flag.Flag {
		if slices.Contains(utils.FlagsToIgnore, name) {
			return nil
		}
		for _, f := range c.Flags {
			if f.GetName() == name {
				return f
			}
		}
		return nil
	}

	var parseErr error
	jsonFlags := make(map[string]any)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		flag := findFlagDef(f.Name)
		if flag == nil || parseErr != nil {
			return
		}

		v, err := flag.ParseValue(f.Value.String())
		if err != nil {
			parseErr = err
			return
		}
		jsonFlags[f.Name] = v
	})
	if parseErr != nil {
		return nil, parseErr
	}

	jsonBytes, err := json.Marshal(jsonFlags)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(jsonBytes, &flagValues); err != nil {
		return nil, err
	}

	return &flagValues, nil
}

// Verify that the command type implements the Command interface
var _ Command = &ExecutableCommand[any]{}
