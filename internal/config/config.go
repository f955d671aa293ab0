// Package config loads the settings shared by the morceus commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cours-de-latin/morceus"
)

type Config struct {
	// TemplateDirs hold the .end files, dependency tables first.
	TemplateDirs []string `yaml:"template_dirs"`
	StemFiles    []string `yaml:"stem_files"`
	// Tables is a snapshot written by build-tables. When it exists it is
	// loaded instead of expanding the templates.
	Tables  string                  `yaml:"tables"`
	Mode    string                  `yaml:"mode"`
	Server  ServerConfig            `yaml:"server"`
	Options morceus.CruncherOptions `yaml:"options"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	CacheSize      int      `yaml:"cache_size"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		TemplateDirs: []string{"data/templates/dependency", "data/templates/target"},
		StemFiles:    []string{"data/stems/nouns.stems", "data/stems/verbs.stems"},
		Mode:         string(morceus.IndexAll),
		Server: ServerConfig{
			Addr:           ":8080",
			CacheSize:      4096,
			AllowedOrigins: []string{"*"},
		},
		Options: morceus.DefaultOptions(),
	}
}

// Load reads .env, then the YAML file at path if path is not empty, then
// MORCEUS_* environment overrides. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("MORCEUS_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := envList("MORCEUS_TEMPLATE_DIRS"); v != nil {
		c.TemplateDirs = v
	}
	if v := envList("MORCEUS_STEM_FILES"); v != nil {
		c.StemFiles = v
	}
	if v := strings.TrimSpace(os.Getenv("MORCEUS_TABLES")); v != "" {
		c.Tables = v
	}
	if v := strings.TrimSpace(os.Getenv("MORCEUS_MODE")); v != "" {
		c.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("MORCEUS_ADDR")); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.Server.Addr = v
	}
	if v := envList("MORCEUS_ALLOWED_ORIGINS"); v != nil {
		c.Server.AllowedOrigins = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MORCEUS_CACHE_SIZE", &c.Server.CacheSize},
		{"MORCEUS_MIN_STEM_LENGTH", &c.Options.MinStemLength},
	}
	for _, e := range ints {
		raw := strings.TrimSpace(os.Getenv(e.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, e.name, raw, err)
		}
		*e.dst = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"MORCEUS_GREEDY", &c.Options.Greedy},
		{"MORCEUS_VOWEL_LENGTH_SENSITIVE", &c.Options.VowelLengthSensitive},
		{"MORCEUS_RELAX_CASE", &c.Options.RelaxCase},
		{"MORCEUS_RELAX_I_AND_J", &c.Options.RelaxIAndJ},
		{"MORCEUS_RELAX_U_AND_V", &c.Options.RelaxUAndV},
		{"MORCEUS_ENCLITICS", &c.Options.Enclitics},
	}
	for _, e := range bools {
		raw := strings.TrimSpace(os.Getenv(e.name))
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, e.name, raw, err)
		}
		*e.dst = b
	}
	return nil
}

func envList(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the values a command cannot run without.
func (c *Config) Validate() error {
	if _, err := morceus.ParseIndexMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Options.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("%w: negative cache size %d", ErrInvalid, c.Server.CacheSize)
	}
	if c.Tables == "" && (len(c.TemplateDirs) == 0 || len(c.StemFiles) == 0) {
		return fmt.Errorf("%w: need a tables snapshot or both template dirs and stem files", ErrInvalid)
	}
	return nil
}

// TablesConfig returns the build inputs for morceus.BuildTables.
func (c *Config) TablesConfig(log *zap.Logger) morceus.TablesConfig {
	return morceus.TablesConfig{
		TemplateDirs: c.TemplateDirs,
		StemFiles:    c.StemFiles,
		Mode:         morceus.IndexMode(c.Mode),
		Logger:       log,
	}
}

// OpenTables loads the snapshot named by Tables when the file exists, and
// builds the tables from templates and stems otherwise.
func (c *Config) OpenTables(log *zap.Logger) (*morceus.Tables, error) {
	if c.Tables != "" {
		if _, err := os.Stat(c.Tables); err == nil {
			log.Info("loading tables snapshot", zap.String("path", c.Tables))
			return morceus.LoadTablesFile(c.Tables)
		}
		log.Warn("tables snapshot missing, building from sources", zap.String("path", c.Tables))
	}
	return morceus.BuildTables(c.TablesConfig(log))
}
