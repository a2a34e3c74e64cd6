package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/opcall-go/opcall/pkg/logging"
)

// Config is the file-plus-flags configuration of the opcall command.
// Flags override file values.
type Config struct {
	BaseURL     string        `koanf:"base-url"`
	Descriptors string        `koanf:"descriptors"`
	Redis       RedisConfig   `koanf:"redis"`
	Log         LogConfig     `koanf:"log"`
	Paging      PagingConfig  `koanf:"paging"`
	Polling     PollingConfig `koanf:"polling"`
	Serve       ServeConfig   `koanf:"serve"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
	DB   int    `koanf:"db"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

type PagingConfig struct {
	MaxPages int `koanf:"max-pages"`
}

type PollingConfig struct {
	Interval time.Duration `koanf:"interval"`
}

type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// LoadConfig merges the optional YAML config file with the command's
// flags and configures global logging.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		if _, err := os.Stat("opcall.yaml"); err == nil {
			configFile = "opcall.yaml"
		}
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyFlags(cmd, &cfg)

	logCfg := logging.DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = logging.LogLevel(cfg.Log.Level)
	}
	logCfg.Pretty = cfg.Log.Pretty
	logging.Setup(logCfg)

	return &cfg, nil
}

// applyFlags overlays set flags onto the file configuration.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()

	if v, _ := flags.GetString("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v, _ := flags.GetString("descriptors"); v != "" {
		cfg.Descriptors = v
	}
	if v, _ := flags.GetString("redis-addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty, _ = flags.GetBool("log-pretty")
	}
}

// validateClient checks the fields an invocation needs.
func (c *Config) validateClient() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required (--base-url or config file)")
	}
	if c.Descriptors == "" {
		return fmt.Errorf("descriptor set file is required (--descriptors or config file)")
	}
	return nil
}
