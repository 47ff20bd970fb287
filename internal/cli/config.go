package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/cqlc/internal/cassandra"
	"github.com/roach88/cqlc/internal/schema"
)

const (
	configFileName = "cqlc"
	configFileType = "yaml"
	envPrefix      = "CQLC"

	cfgKeyIdentity      = "identity"
	cfgKeyKeyspace      = "keyspace"
	cfgKeyContactPoints = "contact_points"
	cfgKeyPort          = "port"
	cfgKeyUser          = "user"
	cfgKeyPassword      = "password"
	cfgKeyLocalDC       = "local_dc"
	cfgKeyConsistency   = "consistency"
	cfgKeyTimeout       = "timeout"
	cfgKeyModels        = "models"
	cfgKeyJournal       = "journal"

	defaultIdentity = "default"
	defaultModels   = "models"
)

// Settings is the resolved CLI configuration.
type Settings struct {
	Identity string `mapstructure:"identity"`
	Models   string `mapstructure:"models"`
	Journal  string `mapstructure:"journal"`

	schema.Config `mapstructure:",squash"`
}

// loadSettings reads cqlc.yaml (or opts.Config), applies CQLC_* environment
// variables and flag overrides. A missing default config file is not an
// error; an explicitly named one is.
func loadSettings(opts *RootOptions) (*Settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyIdentity, defaultIdentity)
	v.SetDefault(cfgKeyModels, defaultModels)
	v.SetDefault(cfgKeyPort, cassandra.DefaultPort)
	v.SetDefault(cfgKeyTimeout, cassandra.DefaultTimeout)
	v.SetDefault(cfgKeyConsistency, "QUORUM")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{cfgKeyKeyspace, cfgKeyContactPoints, cfgKeyUser, cfgKeyPassword, cfgKeyLocalDC, cfgKeyJournal} {
		_ = v.BindEnv(key)
	}

	if opts.Config != "" {
		v.SetConfigFile(opts.Config)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.Config != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Models != "" {
		v.Set(cfgKeyModels, opts.Models)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Relative paths in a config file are relative to that file.
	if used := v.ConfigFileUsed(); used != "" && opts.Models == "" && !filepath.IsAbs(s.Models) {
		s.Models = filepath.Join(filepath.Dir(used), s.Models)
	}
	return &s, nil
}
