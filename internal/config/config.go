// Package config holds the user-level CLI configuration. It tunes how
// the librarian binary behaves; what a project contains lives in that
// project's manifest instead.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// FileName is the user config file under Dir.
const FileName = "config.toml"

// Config is the resolved user configuration. Precedence: flags, then
// LIBRARIAN_* environment variables, then the file, then defaults.
type Config struct {
	DefaultProject string        `mapstructure:"default_project"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	Log            LogConfig     `mapstructure:"log"`
}

// LogConfig selects diagnostic output behavior.
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
	JSON    bool `mapstructure:"json"`
}

// Dir returns the absolute path to ~/.librarian/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	return filepath.Join(home, ".librarian"), nil
}

// Path returns the absolute path to ~/.librarian/config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot expand ~")
	}
	return filepath.Join(home, p[1:]), nil
}

// SetDefaults installs the built-in defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("default_project", ".")
	v.SetDefault("lock_timeout", "5s")
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.json", false)
}

// Init wires a viper instance to the config file and environment.
// A missing file is fine; the defaults carry.
func Init(v *viper.Viper, explicitFile string) error {
	SetDefaults(v)
	v.SetEnvPrefix("LIBRARIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "cannot read config %s", explicitFile)
		}
		return nil
	}

	path, err := Path()
	if err != nil {
		return err
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "cannot read config %s", path)
	}
	return nil
}

// Load resolves the configuration from an initialized viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal config")
	}
	expanded, err := ExpandPath(cfg.DefaultProject)
	if err != nil {
		return nil, err
	}
	cfg.DefaultProject = expanded
	return &cfg, nil
}

// fileDoc is the shape written to a fresh config file. The duration is
// spelled as a string there so the file stays hand-editable.
type fileDoc struct {
	DefaultProject string `toml:"default_project"`
	LockTimeout    string `toml:"lock_timeout"`
	Log            logDoc `toml:"log"`
}

type logDoc struct {
	Verbose bool `toml:"verbose"`
	JSON    bool `toml:"json"`
}

// WriteDefault writes the default config file, creating ~/.librarian/
// as needed. An existing file is left alone; created reports which case
// ran.
func WriteDefault() (path string, created bool, err error) {
	dir, err := Dir()
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, errors.Wrapf(err, "cannot create config dir %s", dir)
	}
	path = filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	doc := fileDoc{DefaultProject: ".", LockTimeout: "5s"}
	data, err := toml.Marshal(doc)
	if err != nil {
		return "", false, errors.Wrap(err, "cannot encode default config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, errors.Wrapf(err, "cannot write config %s", path)
	}
	return path, true, nil
}
