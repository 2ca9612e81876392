// Package config loads operator settings. Sources are layered with later ones
// winning: built-in defaults, an optional YAML file, FT_OPERATOR_* environment
// variables and finally command-line flags that were set explicitly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"ftoperator/pkg/core"
)

// EnvPrefix prefixes every environment variable the operator reads.
const EnvPrefix = "FT_OPERATOR_"

// FileFlag names the flag that points at the YAML config file.
const FileFlag = "config"

// Config holds operator-wide settings.
type Config struct {
	MetricsBindAddress     string        `yaml:"metricsBindAddress"`
	HealthProbeBindAddress string        `yaml:"healthProbeBindAddress"`
	LeaderElect            bool          `yaml:"leaderElect"`
	LeaderElectionID       string        `yaml:"leaderElectionID"`
	EnableWebhooks         bool          `yaml:"enableWebhooks"`
	WebhookPort            int           `yaml:"webhookPort"`
	WatchNamespace         string        `yaml:"watchNamespace"`
	Workers                int           `yaml:"workers"`
	RequestTimeout         time.Duration `yaml:"requestTimeout"`
	ResyncPeriod           time.Duration `yaml:"resyncPeriod"`
	PermanentRequeue       time.Duration `yaml:"permanentRequeue"`
	RetryBaseDelay         time.Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay          time.Duration `yaml:"retryMaxDelay"`
	QPS                    float64       `yaml:"qps"`
	Burst                  int           `yaml:"burst"`
	ImageRepository        string        `yaml:"imageRepository"`
	ImageTag               string        `yaml:"imageTag"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		MetricsBindAddress:     ":8080",
		HealthProbeBindAddress: ":8081",
		LeaderElectionID:       "freqtrade-operator.freqtrade.io",
		EnableWebhooks:         true,
		WebhookPort:            9443,
		Workers:                4,
		RequestTimeout:         10 * time.Second,
		ResyncPeriod:           10 * time.Minute,
		PermanentRequeue:       5 * time.Minute,
		RetryBaseDelay:         500 * time.Millisecond,
		RetryMaxDelay:          5 * time.Minute,
		QPS:                    10,
		Burst:                  100,
		ImageRepository:        core.DefaultImageRepository,
		ImageTag:               core.DefaultImageTag,
	}
}

// setting ties one Config field to its flag and environment variable.
type setting struct {
	flag  string
	usage string
	// register defines the flag with its default taken from d.
	register func(fs *pflag.FlagSet, d Config, usage string)
	// set parses a string from the environment or a flag into cfg.
	set func(cfg *Config, value string) error
}

func (s setting) env() string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(s.flag, "-", "_"))
}

func stringSetting(flag, usage string, field func(*Config) *string) setting {
	return setting{
		flag: flag, usage: usage,
		register: func(fs *pflag.FlagSet, d Config, usage string) { fs.String(flag, *field(&d), usage) },
		set: func(cfg *Config, value string) error {
			*field(cfg) = value
			return nil
		},
	}
}

func boolSetting(flag, usage string, field func(*Config) *bool) setting {
	return setting{
		flag: flag, usage: usage,
		register: func(fs *pflag.FlagSet, d Config, usage string) { fs.Bool(flag, *field(&d), usage) },
		set: func(cfg *Config, value string) error {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*field(cfg) = parsed
			return nil
		},
	}
}

func intSetting(flag, usage string, field func(*Config) *int) setting {
	return setting{
		flag: flag, usage: usage,
		register: func(fs *pflag.FlagSet, d Config, usage string) { fs.Int(flag, *field(&d), usage) },
		set: func(cfg *Config, value string) error {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*field(cfg) = parsed
			return nil
		},
	}
}

func floatSetting(flag, usage string, field func(*Config) *float64) setting {
	return setting{
		flag: flag, usage: usage,
		register: func(fs *pflag.FlagSet, d Config, usage string) { fs.Float64(flag, *field(&d), usage) },
		set: func(cfg *Config, value string) error {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			*field(cfg) = parsed
			return nil
		},
	}
}

func durationSetting(flag, usage string, field func(*Config) *time.Duration) setting {
	return setting{
		flag: flag, usage: usage,
		register: func(fs *pflag.FlagSet, d Config, usage string) { fs.Duration(flag, *field(&d), usage) },
		set: func(cfg *Config, value string) error {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*field(cfg) = parsed
			return nil
		},
	}
}

var settings = []setting{
	stringSetting("metrics-bind-address", "The address the metric endpoint binds to.", func(c *Config) *string { return &c.MetricsBindAddress }),
	stringSetting("health-probe-bind-address", "The address the health probe endpoint binds to.", func(c *Config) *string { return &c.HealthProbeBindAddress }),
	boolSetting("leader-elect", "Enable leader election so only one active controller manager reconciles.", func(c *Config) *bool { return &c.LeaderElect }),
	stringSetting("leader-election-id", "Name of the lease used for leader election.", func(c *Config) *string { return &c.LeaderElectionID }),
	boolSetting("enable-webhooks", "Serve the validating admission webhook.", func(c *Config) *bool { return &c.EnableWebhooks }),
	intSetting("webhook-port", "Webhook server port.", func(c *Config) *int { return &c.WebhookPort }),
	stringSetting("watch-namespace", "Only reconcile Bots in this namespace. Empty watches all namespaces.", func(c *Config) *string { return &c.WatchNamespace }),
	intSetting("workers", "Number of Bots reconciled in parallel.", func(c *Config) *int { return &c.Workers }),
	durationSetting("request-timeout", "Timeout for each API server request.", func(c *Config) *time.Duration { return &c.RequestTimeout }),
	durationSetting("resync-period", "Interval at which healthy Bots are re-checked for drift.", func(c *Config) *time.Duration { return &c.ResyncPeriod }),
	durationSetting("permanent-requeue", "Retry interval for failures that need a spec change.", func(c *Config) *time.Duration { return &c.PermanentRequeue }),
	durationSetting("retry-base-delay", "Initial backoff after a transient failure.", func(c *Config) *time.Duration { return &c.RetryBaseDelay }),
	durationSetting("retry-max-delay", "Maximum backoff after repeated transient failures.", func(c *Config) *time.Duration { return &c.RetryMaxDelay }),
	floatSetting("qps", "Overall requeue rate limit across all Bots.", func(c *Config) *float64 { return &c.QPS }),
	intSetting("burst", "Burst size of the overall requeue rate limit.", func(c *Config) *int { return &c.Burst }),
	stringSetting("image-repository", "Default freqtrade image repository.", func(c *Config) *string { return &c.ImageRepository }),
	stringSetting("image-tag", "Default freqtrade image tag.", func(c *Config) *string { return &c.ImageTag }),
}

// BindFlags registers one flag per setting plus --config on fs.
func BindFlags(fs *pflag.FlagSet) {
	defaults := Default()
	fs.String(FileFlag, "", "Path to a YAML operator config file (env: "+EnvPrefix+"CONFIG).")
	for _, s := range settings {
		s.register(fs, defaults, fmt.Sprintf("%s (env: %s)", s.usage, s.env()))
	}
}

// Load resolves the effective Config from every source. lookup reads the
// environment; pass os.LookupEnv outside tests.
func Load(fs *pflag.FlagSet, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	path, _ := lookup(EnvPrefix + "CONFIG")
	if flag := fs.Lookup(FileFlag); flag != nil && flag.Changed {
		path = flag.Value.String()
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	for _, s := range settings {
		value, ok := lookup(s.env())
		if !ok {
			continue
		}
		if err := s.set(&cfg, value); err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.env(), err)
		}
	}

	var flagErr error
	fs.Visit(func(flag *pflag.Flag) {
		for _, s := range settings {
			if s.flag != flag.Name {
				continue
			}
			if err := s.set(&cfg, flag.Value.String()); err != nil {
				flagErr = errors.Join(flagErr, fmt.Errorf("--%s: %w", flag.Name, err))
			}
		}
	})
	if flagErr != nil {
		return Config{}, flagErr
	}

	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto cfg. Unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every setting that cannot work.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers))
	}
	for name, d := range map[string]time.Duration{
		"requestTimeout":   cfg.RequestTimeout,
		"resyncPeriod":     cfg.ResyncPeriod,
		"permanentRequeue": cfg.PermanentRequeue,
		"retryBaseDelay":   cfg.RetryBaseDelay,
		"retryMaxDelay":    cfg.RetryMaxDelay,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		errs = append(errs, fmt.Errorf("retryMaxDelay %s is below retryBaseDelay %s", cfg.RetryMaxDelay, cfg.RetryBaseDelay))
	}
	if cfg.QPS <= 0 || cfg.Burst < 1 {
		errs = append(errs, fmt.Errorf("qps and burst must be positive, got %v and %d", cfg.QPS, cfg.Burst))
	}
	if cfg.WebhookPort < 1 || cfg.WebhookPort > 65535 {
		errs = append(errs, fmt.Errorf("webhookPort %d is out of range", cfg.WebhookPort))
	}
	if cfg.ImageRepository == "" || cfg.ImageTag == "" {
		errs = append(errs, errors.New("imageRepository and imageTag must not be empty"))
	}
	return errors.Join(errs...)
}
