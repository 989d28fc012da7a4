// Package config provides configuration management for the inliner using
// Viper for flexible configuration loading from files, environment variables,
// and command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with INLINER_ prefix, validation, and security checks. It manages
// the inline trigger surface, markup scanning paths, nested-build overrides,
// and watch-mode options.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Struct tags carry both yaml (file serialization) and mapstructure
// (viper.Unmarshal decoding) so multi-word keys like trigger_attr bind.

type Config struct {
	Inline      InlineConfig `mapstructure:"inline" yaml:"inline"`
	Markup      MarkupConfig `mapstructure:"markup" yaml:"markup"`
	Build       BuildConfig  `mapstructure:"build" yaml:"build"`
	Watch       WatchConfig  `mapstructure:"watch" yaml:"watch"`
	TargetFiles []string     `mapstructure:"-" yaml:"-"` // CLI arguments, not from config file
}

type InlineConfig struct {
	TriggerAttr  string `mapstructure:"trigger_attr" yaml:"trigger_attr"`
	Property     string `mapstructure:"property" yaml:"property"`
	ImportSuffix string `mapstructure:"import_suffix" yaml:"import_suffix"`
}

type MarkupConfig struct {
	ScanPaths       []string `mapstructure:"scan_paths" yaml:"scan_paths"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
	Extensions      []string `mapstructure:"extensions" yaml:"extensions"`
}

type BuildConfig struct {
	Overrides map[string]interface{} `mapstructure:"overrides" yaml:"overrides"`
	Fallback  bool                   `mapstructure:"fallback" yaml:"fallback"`
	OutputDir string                 `mapstructure:"output_dir" yaml:"output_dir"`
}

type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Apply defaults for the inline trigger surface if not explicitly set
	if config.Inline.TriggerAttr == "" {
		config.Inline.TriggerAttr = "inline"
	}
	if config.Inline.Property == "" {
		config.Inline.Property = "innerHTML"
	}
	if config.Inline.ImportSuffix == "" {
		config.Inline.ImportSuffix = "?inline"
	}

	// Handle scan_paths set via viper (workaround for viper slice handling)
	if viper.IsSet("markup.scan_paths") && len(config.Markup.ScanPaths) == 0 {
		scanPaths := viper.GetStringSlice("markup.scan_paths")
		if len(scanPaths) > 0 {
			config.Markup.ScanPaths = scanPaths
		}
	}
	if len(config.Markup.ScanPaths) == 0 {
		config.Markup.ScanPaths = []string{"."}
	}

	// Handle exclude patterns set via viper (workaround for viper slice handling)
	if viper.IsSet("markup.exclude_patterns") && len(config.Markup.ExcludePatterns) == 0 {
		excludePatterns := viper.GetStringSlice("markup.exclude_patterns")
		if len(excludePatterns) > 0 {
			config.Markup.ExcludePatterns = excludePatterns
		}
	}
	if len(config.Markup.ExcludePatterns) == 0 {
		config.Markup.ExcludePatterns = []string{"node_modules", ".git"}
	}

	if viper.IsSet("markup.extensions") && len(config.Markup.Extensions) == 0 {
		extensions := viper.GetStringSlice("markup.extensions")
		if len(extensions) > 0 {
			config.Markup.Extensions = extensions
		}
	}
	if len(config.Markup.Extensions) == 0 {
		config.Markup.Extensions = []string{".html", ".htm"}
	}

	// Handle build settings set via viper (workaround for viper bool handling)
	if viper.IsSet("build.fallback") {
		config.Build.Fallback = viper.GetBool("build.fallback")
	}
	if config.Build.Overrides == nil {
		config.Build.Overrides = make(map[string]interface{})
	}

	// Apply default values for WatchConfig if not set
	if config.Watch.DebounceMs <= 0 {
		config.Watch.DebounceMs = 300
	}

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateInlineConfig(&config.Inline); err != nil {
		return fmt.Errorf("inline config: %w", err)
	}

	if err := validateMarkupConfig(&config.Markup); err != nil {
		return fmt.Errorf("markup config: %w", err)
	}

	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	return nil
}

// validateInlineConfig validates the inline trigger surface
func validateInlineConfig(config *InlineConfig) error {
	// The trigger must survive the attribute scanner: a plain name with no
	// quoting or spacing metacharacters.
	for _, char := range []string{" ", "\t", "=", "\"", "'", "<", ">", "/"} {
		if strings.Contains(config.TriggerAttr, char) {
			return fmt.Errorf("trigger_attr contains invalid character: %q", char)
		}
	}

	if !strings.HasPrefix(config.ImportSuffix, "?") {
		return fmt.Errorf("import_suffix must start with '?': %s", config.ImportSuffix)
	}

	return nil
}

// validateMarkupConfig validates markup scanning configuration values
func validateMarkupConfig(config *MarkupConfig) error {
	for _, path := range config.ScanPaths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid scan path '%s': %w", path, err)
		}
	}

	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension must start with '.': %s", ext)
		}
	}

	return nil
}

// validateBuildConfig validates build configuration values
func validateBuildConfig(config *BuildConfig) error {
	if config.OutputDir != "" {
		cleanPath := filepath.Clean(config.OutputDir)

		// Reject path traversal attempts
		if strings.Contains(cleanPath, "..") {
			return fmt.Errorf("output_dir contains path traversal: %s", config.OutputDir)
		}
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	// Clean the path
	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
