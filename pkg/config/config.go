// Package config loads scriptcheck settings from a YAML file, a .env file
// and SCRIPTCHECK_* environment variables, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/rules"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

// FileName is the default config file name.
const FileName = "scriptcheck.yaml"

// Config is the full scriptcheck configuration.
type Config struct {
	Checks    ChecksConfig    `yaml:"checks"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Rules     []rules.Rule    `yaml:"rules"  validate:"dive"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type ChecksConfig struct {
	Disable     []string `yaml:"disable"      env:"SCRIPTCHECK_DISABLE" envSeparator:","`
	ScriptOrder bool     `yaml:"script_order" env:"SCRIPTCHECK_SCRIPT_ORDER"`
}

type KnowledgeConfig struct {
	// Dir overrides the embedded knowledge base.
	Dir string `yaml:"dir" env:"SCRIPTCHECK_KNOWLEDGE_DIR"`
}

type OutputConfig struct {
	Format      string `yaml:"format"       env:"SCRIPTCHECK_FORMAT"       validate:"oneof=text json markdown"`
	MinSeverity string `yaml:"min_severity" env:"SCRIPTCHECK_MIN_SEVERITY" validate:"oneof=low medium high"`
}

type ServerConfig struct {
	Addr          string  `yaml:"addr"            env:"SCRIPTCHECK_ADDR"  validate:"required,hostname_port"`
	RatePerSecond float64 `yaml:"rate_per_second" env:"SCRIPTCHECK_RATE"  validate:"gte=0"`
	Burst         int     `yaml:"burst"           env:"SCRIPTCHECK_BURST" validate:"gte=1"`
	MaxBodyBytes  int64   `yaml:"max_body_bytes"  env:"SCRIPTCHECK_MAX_BODY_BYTES" validate:"gte=1024"`
	// TrustedProxies are CIDRs whose X-Forwarded-For headers are believed.
	TrustedProxies []string `yaml:"trusted_proxies" env:"SCRIPTCHECK_TRUSTED_PROXIES" envSeparator:"," validate:"dive,cidr"`
}

// Proxies parses TrustedProxies. Entries are validated as CIDRs on load.
func (c ServerConfig) Proxies() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
		}
	}
	return out
}

type LogConfig struct {
	Format string `yaml:"format" env:"SCRIPTCHECK_LOG_FORMAT" validate:"oneof=text json"`
	Level  string `yaml:"level"  env:"SCRIPTCHECK_LOG_LEVEL"  validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Format: "text", MinSeverity: "low"},
		Server: ServerConfig{Addr: "127.0.0.1:8080", RatePerSecond: 5, Burst: 10, MaxBodyBytes: 1 << 20},
		Log:    LogConfig{Format: "text", Level: "info"},
	}
}

// Path resolves the config file location: explicit, then
// $SCRIPTCHECK_CONFIG, then $XDG_CONFIG_HOME/scriptcheck, then
// ~/.config/scriptcheck. The second result reports whether the path was
// requested explicitly.
func Path(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if p := os.Getenv("SCRIPTCHECK_CONFIG"); p != "" {
		return p, true
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scriptcheck", FileName), false
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".config", "scriptcheck", FileName), false
}

// Load reads configuration. A missing default-location file is not an
// error; a missing explicitly requested file is.
func Load(explicit string) (*Config, error) {
	_ = godotenv.Load() // optional

	cfg := Default()
	path, required := Path(explicit)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.decode(bytes.NewReader(data)); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. It does
// not consult the environment.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ParseEnv applies SCRIPTCHECK_* environment overrides to target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks field constraints and rule references.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	known := map[string]bool{}
	for _, r := range validate.Labels() {
		known[string(r.ID)] = true
	}
	for _, r := range c.Rules {
		known[r.ID] = true
	}
	for _, id := range c.Checks.Disable {
		if !known[id] {
			return fmt.Errorf("checks.disable: unknown rule %q", id)
		}
	}
	return nil
}

// MinSeverity returns the parsed output.min_severity.
func (c *Config) MinSeverity() kb.Severity {
	s, err := kb.ParseSeverity(c.Output.MinSeverity)
	if err != nil {
		return kb.SeverityLow
	}
	return s
}

// KnowledgeBase loads knowledge.dir, or returns the embedded knowledge base.
func (c *Config) KnowledgeBase() (*kb.KnowledgeBase, error) {
	if c.Knowledge.Dir == "" {
		return kb.Default(), nil
	}
	return kb.LoadDir(c.Knowledge.Dir)
}

// Options builds validator options, compiling the expression rules.
func (c *Config) Options() (validate.Options, error) {
	checks, err := rules.Compile(c.Rules)
	if err != nil {
		return validate.Options{}, err
	}
	opts := validate.Options{ScriptOrder: c.Checks.ScriptOrder, Extra: checks}
	for _, id := range c.Checks.Disable {
		opts.Disable = append(opts.Disable, validate.RuleID(id))
	}
	return opts, nil
}

// Validator builds a validator from the knowledge base and check settings.
func (c *Config) Validator() (*validate.Validator, *kb.KnowledgeBase, error) {
	base, err := c.KnowledgeBase()
	if err != nil {
		return nil, nil, err
	}
	opts, err := c.Options()
	if err != nil {
		return nil, nil, err
	}
	return validate.New(base, opts), base, nil
}

// Logger builds a slog logger per log.format and log.level.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
