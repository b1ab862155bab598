package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/turtlewatch/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Input archives.
	SSTDataDir      string `envconfig:"SST_DATA_DIR" default:"/data/turtlewatch/sst"`
	CurrentsDataDir string `envconfig:"CURRENTS_DATA_DIR" default:"/data/turtlewatch/currents"`

	// Composite grid naming convention (see domain.NamingSchema).
	GridPrefix string `envconfig:"GRID_PREFIX" default:"AG"`
	GridSuffix string `envconfig:"GRID_SUFFIX" default:"_sst.grd"`

	// Current-vector naming convention: prefix + YYYYDDD token + component suffix.
	CurrentsPrefix     string `envconfig:"CURRENTS_PREFIX" default:"oscar"`
	CurrentsUSuffix    string `envconfig:"CURRENTS_U_SUFFIX" default:"_u.grd"`
	CurrentsVSuffix    string `envconfig:"CURRENTS_V_SUFFIX" default:"_v.grd"`
	CurrentsSearchDays int    `envconfig:"CURRENTS_SEARCH_DAYS" default:"30"`

	// Outputs.
	StagingDir string `envconfig:"STAGING_DIR" default:"/var/www/turtlewatch"`
	AssetsDir  string `envconfig:"ASSETS_DIR" default:"/usr/share/turtlewatch/assets"`
	WorkRoot   string `envconfig:"WORK_ROOT" default:""` // empty = system temp dir

	// External tools.
	FerretBin    string        `envconfig:"FERRET_BIN" default:"pyferret"`
	ConvertBin   string        `envconfig:"CONVERT_BIN" default:"convert"`
	CompositeBin string        `envconfig:"COMPOSITE_BIN" default:"composite"`
	SendmailBin  string        `envconfig:"SENDMAIL_BIN" default:"/usr/sbin/sendmail"`
	ToolTimeout  time.Duration `envconfig:"TOOL_TIMEOUT" default:"5m"`
	RunTimeout   time.Duration `envconfig:"RUN_TIMEOUT" default:"45m"`

	// Status email.
	MailFrom string   `envconfig:"MAIL_FROM" default:"turtlewatch@localhost"`
	MailTo   []string `envconfig:"MAIL_TO" default:""`

	// Product-event publishing (optional, platform Kafka bus).
	KafkaEnabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"turtlewatch-products"`

	// Serve mode.
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	RunAtUTC        string        `envconfig:"RUN_AT_UTC" default:"14:30"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Observability.
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if cfg.CurrentsSearchDays <= 0 {
		return nil, errors.New("CURRENTS_SEARCH_DAYS must be positive")
	}
	if cfg.ToolTimeout <= 0 {
		return nil, errors.New("TOOL_TIMEOUT must be positive")
	}
	if cfg.RunTimeout <= 0 {
		return nil, errors.New("RUN_TIMEOUT must be positive")
	}
	if cfg.GridPrefix == "" || cfg.GridSuffix == "" {
		return nil, errors.New("GRID_PREFIX and GRID_SUFFIX are required")
	}
	if cfg.CurrentsUSuffix == cfg.CurrentsVSuffix {
		return nil, errors.New("CURRENTS_U_SUFFIX and CURRENTS_V_SUFFIX must differ")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}
	if _, _, err := ParseRunAt(cfg.RunAtUTC); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CompositeSchema builds the filename schema for the composite grid archive.
func (c *Config) CompositeSchema() domain.NamingSchema {
	s := domain.DefaultCompositeSchema()
	s.Prefix = c.GridPrefix
	s.Suffix = c.GridSuffix
	return s
}

// MailEnabled reports whether a status email can be sent at all. The
// --nomail and --debug flags suppress mail per run on top of this.
func (c *Config) MailEnabled() bool {
	return len(c.MailTo) > 0
}

// ParseRunAt validates an "HH:MM" UTC wall-clock time for serve mode.
func ParseRunAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid RUN_AT_UTC %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
