// =============================================================================
// recordmove - Configuration Module
// =============================================================================
//
// This module loads the migration settings. Every setting has a built-in
// default matching the one-off migration the tool was written for, so the
// tool runs without any configuration file at all. A YAML file can override
// individual settings.
//
// LOAD ORDER:
//   1. Read and parse the YAML file (skipped when no path is given)
//   2. Apply defaults for anything left unset
//   3. Validate the result
//
// =============================================================================

package config

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultDataDir         = "public/data"
	DefaultSourceFile      = "day_trips_standardized.csv"
	DefaultDestinationFile = "special_events_standardized.csv"
	DefaultRecordID        = "dt733250_dragshowsa"
	DefaultIDField         = "id"
	DefaultTypeField       = "type"
	DefaultFromPrefix      = "dt"
	DefaultToPrefix        = "sp"
	DefaultDestinationType = "special events"
	DefaultDelimiter       = "|"
	DefaultBackupSuffix    = ".bak"
	DefaultLogLevel        = "info"
)

// Write modes for the persist stage.
const (
	// WriteModeAtomic stages both files and renames them into place only
	// after both staged writes succeed.
	WriteModeAtomic = "atomic"

	// WriteModeDirect truncates and rewrites each file in place.
	WriteModeDirect = "direct"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.Base("invalid configuration")

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds every setting of a migration run.
type Config struct {
	// =========================================================================
	// FILE SETTINGS
	// =========================================================================

	// DataDir is the directory holding both datasets.
	// Default: "public/data"
	DataDir string `yaml:"data_dir"`

	// SourceFile is the dataset the record is moved out of.
	// Default: "day_trips_standardized.csv"
	SourceFile string `yaml:"source_file"`

	// DestinationFile is the dataset the record is appended to.
	// Default: "special_events_standardized.csv"
	DestinationFile string `yaml:"destination_file"`

	// Delimiter is the single field separator character.
	// Default: "|"
	Delimiter string `yaml:"delimiter"`

	// BackupSuffix is appended to each dataset path to name its backup.
	// Default: ".bak"
	BackupSuffix string `yaml:"backup_suffix"`

	// WriteMode is either "atomic" or "direct".
	// Default: "atomic"
	WriteMode string `yaml:"write_mode"`

	// =========================================================================
	// MOVE RULE
	// =========================================================================

	// RecordID is the id of the record to move.
	RecordID string `yaml:"record_id"`

	// IDField names the identifier column.
	IDField string `yaml:"id_field"`

	// TypeField names the category column.
	TypeField string `yaml:"type_field"`

	// FromPrefix is the id prefix the record must carry in the source.
	FromPrefix string `yaml:"from_prefix"`

	// ToPrefix replaces FromPrefix on the moved record.
	ToPrefix string `yaml:"to_prefix"`

	// DestinationType is written into TypeField on the moved record.
	DestinationType string `yaml:"destination_type"`

	// =========================================================================
	// LOGGING
	// =========================================================================

	// LogLevel is a zerolog level name: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// SourcePath returns the full path of the source dataset.
func (c *Config) SourcePath() string {
	return filepath.Join(c.DataDir, c.SourceFile)
}

// DestinationPath returns the full path of the destination dataset.
func (c *Config) DestinationPath() string {
	return filepath.Join(c.DataDir, c.DestinationFile)
}

// DelimiterRune returns the delimiter as a rune. It is only meaningful on a
// validated configuration.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at configPath.
//
// PARAMETERS:
//   - configPath: The path to a YAML file. An empty path means no file, and
//     the built-in defaults are used.
//
// RETURNS:
//   - A pointer to the validated Config.
//   - An error if the file cannot be read, parsed, or fails validation.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, errors.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.SourceFile == "" {
		cfg.SourceFile = DefaultSourceFile
	}
	if cfg.DestinationFile == "" {
		cfg.DestinationFile = DefaultDestinationFile
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = DefaultDelimiter
	}
	if cfg.BackupSuffix == "" {
		cfg.BackupSuffix = DefaultBackupSuffix
	}
	if cfg.WriteMode == "" {
		cfg.WriteMode = WriteModeAtomic
	}
	if cfg.RecordID == "" {
		cfg.RecordID = DefaultRecordID
	}
	if cfg.IDField == "" {
		cfg.IDField = DefaultIDField
	}
	if cfg.TypeField == "" {
		cfg.TypeField = DefaultTypeField
	}
	if cfg.FromPrefix == "" {
		cfg.FromPrefix = DefaultFromPrefix
	}
	if cfg.ToPrefix == "" {
		cfg.ToPrefix = DefaultToPrefix
	}
	if cfg.DestinationType == "" {
		cfg.DestinationType = DefaultDestinationType
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if utf8.RuneCountInString(cfg.Delimiter) != 1 {
		return errors.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, cfg.Delimiter)
	}
	switch cfg.DelimiterRune() {
	case '"', '\r', '\n', utf8.RuneError:
		return errors.Errorf("%w: delimiter %q is not usable", ErrInvalidConfig, cfg.Delimiter)
	}

	if cfg.SourcePath() == cfg.DestinationPath() {
		return errors.Errorf("%w: source and destination are the same file: %s", ErrInvalidConfig, cfg.SourcePath())
	}

	if cfg.IDField == cfg.TypeField {
		return errors.Errorf("%w: id_field and type_field must differ", ErrInvalidConfig)
	}

	if cfg.FromPrefix == cfg.ToPrefix {
		return errors.Errorf("%w: from_prefix and to_prefix must differ", ErrInvalidConfig)
	}

	switch cfg.WriteMode {
	case WriteModeAtomic, WriteModeDirect:
	default:
		return errors.Errorf("%w: unknown write_mode %q", ErrInvalidConfig, cfg.WriteMode)
	}

	return nil
}
