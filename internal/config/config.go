// Package config loads annotator settings from a JSON file and environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/obb-annotate-mcp/internal/classes"
	"github.com/ironsheep/obb-annotate-mcp/internal/labels"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OBB_ANNOTATE_"

// Preview formats, matching the imaging encoders.
const (
	previewPNG  = "png"
	previewWebP = "webp"
)

// Config holds annotator settings.
type Config struct {
	// LabelDir receives label files; empty writes them next to each image.
	LabelDir string `json:"label_dir"`
	LabelExt string `json:"label_ext"`
	// AngleMode selects rotated boxes with a sixth angle column.
	AngleMode      bool     `json:"angle_mode"`
	ClassesFile    string   `json:"classes_file"`
	DefaultClasses []string `json:"default_classes"`
	// LedgerPath enables the progress ledger when non-empty.
	LedgerPath    string   `json:"ledger_path"`
	Resume        bool     `json:"resume"`
	OCRLanguage   string   `json:"ocr_language"`
	PreviewFormat string   `json:"preview_format"`
	HTTPAddr      string   `json:"http_addr"`
	ReadTimeout   Duration `json:"read_timeout"`
	WriteTimeout  Duration `json:"write_timeout"`
	LogLevel      string   `json:"log_level"`
}

// Duration is a time.Duration that reads and writes as a string such as "10s".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LabelExt:       labels.DefaultExt,
		AngleMode:      true,
		DefaultClasses: append([]string(nil), classes.DefaultNames...),
		OCRLanguage:    "eng",
		PreviewFormat:  previewPNG,
		HTTPAddr:       ":8080",
		ReadTimeout:    Duration(10 * time.Second),
		WriteTimeout:   Duration(30 * time.Second),
		LogLevel:       "info",
	}
}

// Load reads the JSON config at path over the defaults, then applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.Validate()
	return cfg, nil
}

// Validate replaces out-of-range values with defaults.
func (c *Config) Validate() {
	def := DefaultConfig()

	if c.LabelExt == "" {
		c.LabelExt = def.LabelExt
	} else if !strings.HasPrefix(c.LabelExt, ".") {
		c.LabelExt = "." + c.LabelExt
	}

	names := c.DefaultClasses[:0:0]
	for _, n := range c.DefaultClasses {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		names = def.DefaultClasses
	}
	c.DefaultClasses = names

	if c.OCRLanguage == "" {
		c.OCRLanguage = def.OCRLanguage
	}

	switch strings.ToLower(c.PreviewFormat) {
	case previewPNG, previewWebP:
		c.PreviewFormat = strings.ToLower(c.PreviewFormat)
	default:
		c.PreviewFormat = def.PreviewFormat
	}

	if c.HTTPAddr == "" {
		c.HTTPAddr = def.HTTPAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		c.LogLevel = def.LogLevel
	}
}

// Classes returns the starting class list: the manifest when ClassesFile is set,
// else DefaultClasses.
func (c *Config) Classes() (*classes.List, error) {
	if c.ClassesFile == "" {
		return classes.New(c.DefaultClasses...), nil
	}
	l, err := classes.LoadYAML(c.ClassesFile)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func (c *Config) applyEnv() {
	c.LabelDir = getEnv("LABEL_DIR", c.LabelDir)
	c.LabelExt = getEnv("LABEL_EXT", c.LabelExt)
	c.AngleMode = getEnvAsBool("ANGLE_MODE", c.AngleMode)
	c.ClassesFile = getEnv("CLASSES_FILE", c.ClassesFile)
	if v := getEnv("DEFAULT_CLASSES", ""); v != "" {
		c.DefaultClasses = strings.Split(v, ",")
	}
	c.LedgerPath = getEnv("LEDGER_PATH", c.LedgerPath)
	c.Resume = getEnvAsBool("RESUME", c.Resume)
	c.OCRLanguage = getEnv("OCR_LANGUAGE", c.OCRLanguage)
	c.PreviewFormat = getEnv("PREVIEW_FORMAT", c.PreviewFormat)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.ReadTimeout = Duration(getEnvAsDuration("READ_TIMEOUT", time.Duration(c.ReadTimeout)))
	c.WriteTimeout = Duration(getEnvAsDuration("WRITE_TIMEOUT", time.Duration(c.WriteTimeout)))
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
