package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// Config holds the settings shared by the alarm-server and alarmctl binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alarm server.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `yaml:"log_level,omitempty"`
	// HistoryFile enables the fire journal when set.
	HistoryFile string `yaml:"history_file,omitempty"`
	// Alarms are created by the server at startup.
	Alarms []AlarmPreset `yaml:"alarms,omitempty"`
}

// AlarmPreset describes an alarm the server creates on startup.
// Unset optional fields stay nil, so "period_in_minutes: 0" and an absent
// period are different things.
type AlarmPreset struct {
	// Name of the alarm, empty for the default alarm.
	Name string `yaml:"name"`
	// When is the absolute time of the first fire.
	When *time.Time `yaml:"when,omitempty"`
	// DelayInMinutes is the delay before the first fire.
	DelayInMinutes *float64 `yaml:"delay_in_minutes,omitempty"`
	// PeriodInMinutes makes the alarm recur.
	PeriodInMinutes *float64 `yaml:"period_in_minutes,omitempty"`
}

// Info converts the preset to domain create options.
func (p *AlarmPreset) Info() *domain.Info {
	info := &domain.Info{
		When:            p.When,
		DelayInMinutes:  p.DelayInMinutes,
		PeriodInMinutes: p.PeriodInMinutes,
	}

	return info.Clone()
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-scheduler-settings.yaml"

	// DefaultServerAddress is used by alarmctl when no settings file exists.
	DefaultServerAddress = "127.0.0.1:50051"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is the level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config and history files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
	// errDuplicateAlarm is returned when two presets share a name.
	errDuplicateAlarm = errors.New("duplicate alarm name")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault is like Load but falls back to defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = &Config{
		ServerAddress: DefaultServerAddress,
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	seen := make(map[string]struct{}, len(settings.Alarms))

	for i := range settings.Alarms {
		preset := &settings.Alarms[i]

		if _, ok := seen[preset.Name]; ok {
			return fmt.Errorf("%w: %q", errDuplicateAlarm, preset.Name)
		}

		seen[preset.Name] = struct{}{}

		if err := preset.Info().Validate(); err != nil {
			return fmt.Errorf("alarm %q: %w", preset.Name, err)
		}
	}

	return nil
}
