// Package cmd provides the command-line interface for the inliner with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --output, etc.) - highest priority
//	2. INLINER_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (INLINER_INLINE_TRIGGER_ATTR, etc.)
//	4. Configuration files (.inliner.yml) - lowest priority
//
// Environment Variables:
//
//	INLINER_CONFIG_FILE: Path to custom configuration file
//	INLINER_INLINE_TRIGGER_ATTR: Override the trigger attribute
//	INLINER_MARKUP_SCAN_PATHS: Override markup scan paths
//	And more following the INLINER_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inliner",
	Short: "Inline externally referenced scripts and stylesheets at build time",
	Long: `Inliner replaces marked <script src> and <link rel="stylesheet"> references
in markup with the referenced file's actual content, producing self-contained
documents with no extra network requests.

Quick Start:
  inliner inline ./public          Inline marked references under ./public
  inliner watch                    Re-run the inline pass on file changes
  inliner version                  Show version information

Mark a tag for inlining with the trigger attribute:
  <script inline src="/js/app.js"></script>
  <link inline rel="stylesheet" href="/css/site.css">`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .inliner.yml, can also use INLINER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. INLINER_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .inliner.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("INLINER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".inliner")
	}

	// Enable automatic environment variable binding with INLINER_ prefix
	// Examples: INLINER_INLINE_TRIGGER_ATTR, INLINER_WATCH_DEBOUNCE_MS
	viper.SetEnvPrefix("INLINER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file degrades to defaults without failing.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
