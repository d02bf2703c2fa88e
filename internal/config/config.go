package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed policies.yaml
var policiesYAML []byte

type Config struct {
	Ledger   LedgerConfig
	Database DatabaseConfig
	Legacy   LegacyConfig
	Server   ServerConfig
	Policy   Policy
}

type LedgerConfig struct {
	Dir string // directory for date-scoped CSV ledger files (default "attendance")
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; when set, records go to PostgreSQL instead of CSV files
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type LegacyConfig struct {
	DatabaseDSN string // MariaDB DSN of an old HRIS installation, used only by `face-clock import`
}

type ServerConfig struct {
	APIToken string // bearer token required by the API (empty disables auth)
}

// Policy bundles every tunable the recording pipeline consults: stability
// thresholds, confidence floors, cooldowns and the daily cap. A profile from
// policies.yaml provides the base values and AT_* environment variables
// override individual fields.
type Policy struct {
	Name string

	// Stability
	WindowSize            int
	MinSamples            int
	MaxPositionVariance   float64 // variance of face-center coordinates, px^2
	MaxConfidenceVariance float64
	MinStreakAge          time.Duration // tracking age required for Stable
	FlexibleStreakAge     time.Duration // looser age that alone yields Flexible
	AllowFlexible         bool
	MinStableRuns         int // consecutive stable evaluations before reporting Stable
	StreakBreakGap        time.Duration // sample gap that resets the streak

	// Recording
	AutoConfidenceFloor   float64
	ManualConfidenceFloor float64
	ManualCooldown        time.Duration
	AutoCooldown          time.Duration
	SuspiciousInterval    time.Duration
	DailyCap              int
	EnforceDailyCap       bool
	QualityFloor          float64
}

// profile is the YAML-facing shape of a policy; durations are plain seconds
// so the file stays editable without Go duration syntax.
type profile struct {
	WindowSize            int     `yaml:"window_size"`
	MinSamples            int     `yaml:"min_samples"`
	MaxPositionVariance   float64 `yaml:"max_position_variance"`
	MaxConfidenceVariance float64 `yaml:"max_confidence_variance"`
	MinStreakSeconds      float64 `yaml:"min_streak_seconds"`
	FlexibleStreakSeconds float64 `yaml:"flexible_streak_seconds"`
	AllowFlexible         bool    `yaml:"allow_flexible"`
	MinStableRuns         int     `yaml:"min_stable_runs"`
	StreakBreakSeconds    float64 `yaml:"streak_break_seconds"`
	AutoConfidenceFloor   float64 `yaml:"auto_confidence_floor"`
	ManualConfidenceFloor float64 `yaml:"manual_confidence_floor"`
	ManualCooldownSeconds float64 `yaml:"manual_cooldown_seconds"`
	AutoCooldownSeconds   float64 `yaml:"auto_cooldown_seconds"`
	SuspiciousSeconds     float64 `yaml:"suspicious_interval_seconds"`
	DailyCap              int     `yaml:"daily_cap"`
	QualityFloor          float64 `yaml:"quality_floor"`
}

type profilesFile struct {
	Profiles map[string]profile `yaml:"profiles"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float, keeping the default on
// unset or unparseable values.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration string ("3s").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

// envBool treats "true" and "1" as true, anything else as the default.
func envBool(key string, defaultVal bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return defaultVal
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func Load() *Config {
	var file profilesFile
	if err := yaml.Unmarshal(policiesYAML, &file); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded policies.yaml: " + err.Error())
	}

	name := os.Getenv("AT_POLICY")
	if name == "" {
		name = "strict"
	}
	base, ok := file.Profiles[name]
	if !ok {
		base = file.Profiles["strict"]
		name = "strict"
	}

	ledgerDir := os.Getenv("AT_LEDGER_DIR")
	if ledgerDir == "" {
		ledgerDir = "attendance"
	}

	return &Config{
		Ledger: LedgerConfig{
			Dir: ledgerDir,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("AT_DATABASE_URL"),
			MaxOpenConns: envInt("AT_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("AT_DATABASE_MAX_IDLE_CONNS", 5),
		},
		Legacy: LegacyConfig{
			DatabaseDSN: os.Getenv("AT_LEGACY_DATABASE_URL"),
		},
		Server: ServerConfig{
			APIToken: os.Getenv("AT_API_TOKEN"),
		},
		Policy: resolvePolicy(name, base),
	}
}

// resolvePolicy applies AT_* environment overrides on top of a profile.
func resolvePolicy(name string, p profile) Policy {
	return Policy{
		Name:                  name,
		WindowSize:            envInt("AT_WINDOW_SIZE", p.WindowSize),
		MinSamples:            envInt("AT_MIN_SAMPLES", p.MinSamples),
		MaxPositionVariance:   envFloat("AT_MAX_POSITION_VARIANCE", p.MaxPositionVariance),
		MaxConfidenceVariance: envFloat("AT_MAX_CONFIDENCE_VARIANCE", p.MaxConfidenceVariance),
		MinStreakAge:          envDuration("AT_MIN_STREAK_AGE", seconds(p.MinStreakSeconds)),
		FlexibleStreakAge:     envDuration("AT_FLEXIBLE_STREAK_AGE", seconds(p.FlexibleStreakSeconds)),
		AllowFlexible:         envBool("AT_ALLOW_FLEXIBLE", p.AllowFlexible),
		MinStableRuns:         envInt("AT_MIN_STABLE_RUNS", p.MinStableRuns),
		StreakBreakGap:        envDuration("AT_STREAK_BREAK_GAP", seconds(p.StreakBreakSeconds)),
		AutoConfidenceFloor:   envFloat("AT_AUTO_CONFIDENCE_FLOOR", p.AutoConfidenceFloor),
		ManualConfidenceFloor: envFloat("AT_MANUAL_CONFIDENCE_FLOOR", p.ManualConfidenceFloor),
		ManualCooldown:        envDuration("AT_MANUAL_COOLDOWN", seconds(p.ManualCooldownSeconds)),
		AutoCooldown:          envDuration("AT_AUTO_COOLDOWN", seconds(p.AutoCooldownSeconds)),
		SuspiciousInterval:    envDuration("AT_SUSPICIOUS_INTERVAL", seconds(p.SuspiciousSeconds)),
		DailyCap:              envInt("AT_DAILY_CAP", p.DailyCap),
		EnforceDailyCap:       envBool("AT_DAILY_CAP_ENFORCE", false),
		QualityFloor:          envFloat("AT_QUALITY_FLOOR", p.QualityFloor),
	}
}

// PolicyNames lists the profiles available in the embedded policies.yaml.
func PolicyNames() []string {
	var file profilesFile
	if err := yaml.Unmarshal(policiesYAML, &file); err != nil {
		panic("failed to unmarshal embedded policies.yaml: " + err.Error())
	}
	names := make([]string, 0, len(file.Profiles))
	for name := range file.Profiles {
		names = append(names, name)
	}
	return names
}

// Validate reports configuration combinations that cannot work.
func (c *Config) Validate() error {
	p := c.Policy
	if p.WindowSize < p.MinSamples {
		return fmt.Errorf("window size %d smaller than min samples %d", p.WindowSize, p.MinSamples)
	}
	if p.AutoConfidenceFloor < p.ManualConfidenceFloor {
		return fmt.Errorf("auto confidence floor %.2f below manual floor %.2f", p.AutoConfidenceFloor, p.ManualConfidenceFloor)
	}
	if c.Database.URL == "" && c.Ledger.Dir == "" {
		return fmt.Errorf("no storage configured: set AT_DATABASE_URL or AT_LEDGER_DIR")
	}
	return nil
}
