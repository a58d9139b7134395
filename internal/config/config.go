package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
	"github.com/spf13/viper"
)

var (
	vCfg   = newViper()
	cfgDir string
)

const (
	dependencyFieldsKey = "dependency_fields"
	lineEndingKey       = "line_ending"
	concurrencyKey      = "concurrency"
	minVersionKey       = "min_version"

	DefaultConcurrency = 8
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("pkgmerge")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PKGMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(lineEndingKey, string(manifest.LineEndingNative))
	v.SetDefault(concurrencyKey, DefaultConcurrency)

	return v
}

// Load reads pkgmerge.yaml from the working directory, falling back to
// ~/.pkgmerge. A missing file is not an error.
func Load() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	cfgDir = filepath.Join(home, ".pkgmerge")

	return LoadFrom(".", cfgDir)
}

// LoadFrom resets the configuration and searches dirs in order.
func LoadFrom(dirs ...string) error {
	vCfg = newViper()
	for _, dir := range dirs {
		vCfg.AddConfigPath(dir)
	}

	if err := vCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return nil
}

// ConfigFileUsed returns the path of the loaded file, if any.
func ConfigFileUsed() string {
	return vCfg.ConfigFileUsed()
}

// DependencyFields returns the configured dependency fields, or nil when the
// defaults apply. Environment values are comma separated.
func DependencyFields() []string {
	if !vCfg.IsSet(dependencyFieldsKey) {
		return nil
	}

	var fields []string
	switch v := vCfg.Get(dependencyFieldsKey).(type) {
	case string:
		fields = strings.Split(v, ",")
	default:
		fields = vCfg.GetStringSlice(dependencyFieldsKey)
	}

	return lo.Uniq(lo.Compact(lo.Map(fields, func(f string, _ int) string {
		return strings.TrimSpace(f)
	})))
}

func LineEnding() (manifest.LineEnding, error) {
	return manifest.ParseLineEnding(vCfg.GetString(lineEndingKey))
}

func Concurrency() int {
	if n := vCfg.GetInt(concurrencyKey); n > 0 {
		return n
	}
	return DefaultConcurrency
}

// MinVersion is the oldest pkgmerge release the project accepts, or "".
func MinVersion() string {
	return strings.TrimPrefix(strings.TrimSpace(vCfg.GetString(minVersionKey)), "v")
}
