package flag

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumFlag_Init(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flag    EnumFlag
		wantErr string
	}{
		{name: "valid", flag: EnumFlag{Name: "line-ending", DefaultValue: "native", AllowedValues: []string{"native", "lf"}}},
		{name: "no values", flag: EnumFlag{Name: "x"}, wantErr: "allowed values must not be empty"},
		{name: "bad default", flag: EnumFlag{Name: "x", DefaultValue: "cr", AllowedValues: []string{"lf"}}, wantErr: "default value cr is not in the list of allowed values"},
		{name: "required without default", flag: EnumFlag{Name: "x", Required: true, AllowedValues: []string{"lf"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.flag.Init(&cobra.Command{Use: "test"})
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEnumFlag_ParseValue(t *testing.T) {
	t.Parallel()

	f := EnumFlag{Name: "line-ending", AllowedValues: []string{"native", "lf", "crlf"}}

	v, err := f.ParseValue("crlf")
	require.NoError(t, err)
	assert.Equal(t, "crlf", v)

	_, err = f.ParseValue("cr")
	assert.EqualError(t, err, `invalid value "cr" for --line-ending, must be one of: native, lf, crlf`)
}

func TestStringSliceFlag_ParseValue(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	f := StringSliceFlag{Name: "path"}
	require.NoError(t, f.Init(cmd))

	v, err := f.ParseValue(cmd.Flags().Lookup("path").Value.String())
	require.NoError(t, err)
	assert.Equal(t, []string{}, v)

	require.NoError(t, cmd.Flags().Set("path", "package.json,web/package.json"))
	v, err = f.ParseValue(cmd.Flags().Lookup("path").Value.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"package.json", "web/package.json"}, v)
}

func TestBooleanAndIntFlags(t *testing.T) {
	t.Parallel()

	b, err := BooleanFlag{Name: "dry-run"}.ParseValue("true")
	require.NoError(t, err)
	assert.Equal(t, true, b)

	i, err := IntFlag{Name: "concurrency"}.ParseValue("4")
	require.NoError(t, err)
	assert.Equal(t, 4, i)

	_, err = IntFlag{Name: "concurrency"}.ParseValue("four")
	assert.Error(t, err)
}
