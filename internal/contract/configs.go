package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/mergespot/schema"
)

// Default values for configuration.
const (
	DefaultSince = "2 years"
	DefaultRatio = 0.25
	DefaultSlack = 5
)

// CacheGranularity defines the time granularity for caching analysis results.
// Window bounds are truncated to it so repeated runs within the hour share a cache key.
const CacheGranularity = time.Hour

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct is the "final, validated" config.
type Config struct {
	RepoPath   string
	Since      time.Time // Start of the merge window (zero = full history)
	Until      time.Time // End of the merge window (zero = now)
	Ratio      float64   // Share of all conflicts the selected files must cover
	Slack      int       // Max gap between flagged lines within one cluster
	PathFilter string
	Excludes   []string
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in progress output
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Filter            string `mapstructure:"filter"`
	Exclude           string `mapstructure:"exclude"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Width             int    `mapstructure:"width"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`

	// --- Fields from conflictsCmd.Flags() ---
	Since string  `mapstructure:"since"`
	Until string  `mapstructure:"until"`
	Ratio float64 `mapstructure:"ratio"`
	Slack int     `mapstructure:"slack"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// GetAnalysisSince returns the configured window start, truncated to the caching granularity.
func (c *Config) GetAnalysisSince() time.Time {
	return c.Since.Truncate(CacheGranularity)
}

// GetAnalysisUntil returns the configured window end, truncated to the caching granularity.
func (c *Config) GetAnalysisUntil() time.Time {
	return c.Until.Truncate(CacheGranularity)
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input.Since, input.Until, time.Now()); err != nil {
		return err
	}
	return resolveGitPathAndFilter(ctx, cfg, client, input)
}

// RevalidateConflicts applies per-request overrides (used by the MCP server) on top of a validated config.
func RevalidateConflicts(cfg *Config, since string, ratio float64, slack int) error {
	if since != "" {
		if err := processTimeRange(cfg, since, "", time.Now()); err != nil {
			return err
		}
	}
	if ratio != 0 {
		if err := validateRatio(ratio); err != nil {
			return err
		}
		cfg.Ratio = ratio
	}
	if slack != 0 {
		if err := validateSlack(slack); err != nil {
			return err
		}
		cfg.Slack = slack
	}
	return nil
}

// ResolveRepoPath points cfg at the repository containing repoPath (used by the MCP server).
// The implicit path filter is derived again, so a subdirectory narrows the analysis the
// same way it does on the command line.
func ResolveRepoPath(ctx context.Context, cfg *Config, client GitClient, repoPath string) error {
	cfg.PathFilter = ""
	return resolveGitPathAndFilter(ctx, cfg, client, &ConfigRawInput{RepoPathStr: repoPath})
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.PathFilter = input.Filter
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := parseOptionalBool(input.Emoji, false)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := parseOptionalBool(input.Color, true)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Ratio and Slack Validation ---
	if err := validateRatio(input.Ratio); err != nil {
		return err
	}
	cfg.Ratio = input.Ratio

	if err := validateSlack(input.Slack); err != nil {
		return err
	}
	cfg.Slack = input.Slack

	// --- 2. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, table, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	// --- 3. Excludes Processing ---
	cfg.Excludes = nil
	for p := range strings.SplitSeq(input.Exclude, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Excludes = append(cfg.Excludes, trimmed)
		}
	}

	return nil
}

// parseOptionalBool parses s with ParseBoolString, returning fallback when s is empty.
func parseOptionalBool(s string, fallback bool) (bool, error) {
	if s == "" {
		return fallback, nil
	}
	return ParseBoolString(s)
}

// validateRatio checks that the ratio is in (0, 1].
func validateRatio(ratio float64) error {
	if !(ratio > 0 && ratio <= 1) { // also rejects NaN
		return fmt.Errorf("ratio must be greater than 0 and at most 1 (received %g)", ratio)
	}
	return nil
}

// validateSlack checks that the slack is non-negative.
func validateSlack(slack int) error {
	if slack < 0 {
		return fmt.Errorf("slack must be zero or greater (received %d)", slack)
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a database
	if cfg.CacheBackend == cfg.AnalysisBackend && cfg.CacheBackend != schema.NoneBackend {
		cachePath, analysisPath := cfg.CacheDBConnect, cfg.AnalysisDBConnect
		if cfg.CacheBackend == schema.SQLiteBackend {
			if cachePath == "" {
				cachePath = GetCacheDBFilePath()
			}
			if analysisPath == "" {
				analysisPath = GetAnalysisDBFilePath()
			}
		}
		if cachePath == analysisPath {
			return fmt.Errorf("cache and analysis storage must use different databases. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// processTimeRange resolves the since/until strings into the merge window.
func processTimeRange(cfg *Config, since, until string, now time.Time) error {
	if since == "" {
		since = DefaultSince
	}
	start, err := ParseTimePoint(since, now)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}
	cfg.Since = start

	cfg.Until = time.Time{}
	if until != "" {
		end, err := ParseTimePoint(until, now)
		if err != nil {
			return fmt.Errorf("invalid --until value: %w", err)
		}
		cfg.Until = end
	}

	if !cfg.Until.IsZero() && cfg.Since.After(cfg.Until) {
		return fmt.Errorf("since (%s) cannot be after until (%s)", cfg.Since.Format(DateTimeFormat), cfg.Until.Format(DateTimeFormat))
	}
	return nil
}

// resolveGitPathAndFilter resolves the Git repository path and sets the implicit path filter.
func resolveGitPathAndFilter(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	gitContextPath := absSearchPath
	if statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot

	if cfg.PathFilter != "" { // User-provided --filter flag takes precedence
		return nil
	}

	if absSearchPath != gitRoot {
		relativePath, err := filepath.Rel(gitRoot, absSearchPath)
		if err != nil {
			return err
		}
		if relativePath != "." {
			filter := relativePath
			if statErr == nil && info.IsDir() {
				filter += "/"
			}
			cfg.PathFilter = filepath.ToSlash(filter)
		}
	}
	return nil
}
