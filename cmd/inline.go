package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/inliner/internal/config"
	"github.com/conneroisu/inliner/internal/inline"
	"github.com/conneroisu/inliner/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/net/html/charset"
	"gopkg.in/yaml.v3"
)

var inlineCmd = &cobra.Command{
	Use:   "inline [paths...]",
	Short: "Inline marked references in markup documents",
	Long: `Scan markup documents for tags carrying the trigger attribute and replace
each external reference with the referenced file's content.

Paths given as arguments override the configured scan paths. Rooted
references (/js/app.js) resolve against the project root; relative
references resolve against the document's own directory.

Examples:
  inliner inline                       # Inline under the configured scan paths
  inliner inline ./public ./pages      # Inline under explicit paths
  inliner inline --output ./dist       # Write transformed copies to ./dist
  inliner inline --report report.yml   # Write a YAML processing summary`,
	RunE: runInline,
}

var (
	inlineOutputDir  string
	inlineReportFile string
)

func init() {
	rootCmd.AddCommand(inlineCmd)
	addInlineFlags(inlineCmd.Flags())
}

func addInlineFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&inlineOutputDir, "output", "o", "", "Write transformed documents under this directory instead of in place")
	flags.StringVarP(&inlineReportFile, "report", "r", "", "Write a YAML processing report to this file")
}

// documentReport records the outcome for one processed document.
type documentReport struct {
	Path        string `yaml:"path"`
	Changed     bool   `yaml:"changed"`
	BytesBefore int    `yaml:"bytes_before"`
	BytesAfter  int    `yaml:"bytes_after"`
}

// inlineReport is the YAML summary written by --report.
type inlineReport struct {
	GeneratedAt time.Time        `yaml:"generated_at"`
	TriggerAttr string           `yaml:"trigger_attr"`
	Documents   []documentReport `yaml:"documents"`
}

func runInline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(args) > 0 {
		cfg.Markup.ScanPaths = args
	}

	logger := newCommandLogger()

	docs, err := runInlinePass(cfg, logger, inlineOutputDir)
	if err != nil {
		return err
	}

	changed := 0
	for _, doc := range docs {
		if doc.Changed {
			changed++
		}
	}
	fmt.Printf("Processed %d document(s), %d changed\n", len(docs), changed)

	if inlineReportFile != "" {
		report := inlineReport{
			GeneratedAt: time.Now().UTC(),
			TriggerAttr: cfg.Inline.TriggerAttr,
			Documents:   docs,
		}
		data, err := yaml.Marshal(&report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := os.WriteFile(inlineReportFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", inlineReportFile)
	}

	return nil
}

// runInlinePass transforms every markup document under the configured scan
// paths and returns per-document outcomes. Shared between the inline and
// watch commands.
func runInlinePass(cfg *config.Config, logger logging.Logger, outputDir string) ([]documentReport, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	var docs []documentReport
	for _, scanPath := range cfg.Markup.ScanPaths {
		files, err := collectMarkupFiles(scanPath, cfg.Markup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to scan %s: %v\n", scanPath, err)
			continue
		}

		for _, file := range files {
			doc, err := transformDocument(file, scanPath, root, outputDir, cfg, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to process %s: %v\n", file, err)
				continue
			}
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// collectMarkupFiles walks one scan path and returns the markup documents it
// contains, honoring extensions and exclude patterns.
func collectMarkupFiles(scanPath string, cfg config.MarkupConfig) ([]string, error) {
	info, err := os.Stat(scanPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{scanPath}, nil
	}

	var files []string
	err = filepath.Walk(scanPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if excluded(path, cfg.ExcludePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if hasExtension(path, cfg.Extensions) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func excluded(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(path, string(filepath.Separator)+pattern+string(filepath.Separator)) || base == pattern {
			return true
		}
	}
	return false
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// transformDocument inlines one document and writes the result either in
// place or under outputDir, preserving the path relative to the scan root.
func transformDocument(path, scanRoot, projectRoot, outputDir string, cfg *config.Config, logger logging.Logger) (documentReport, error) {
	text, err := readMarkup(path)
	if err != nil {
		return documentReport{}, err
	}

	docDir := filepath.Dir(path)
	resolve := func(ref string) (string, bool) {
		var target string
		if strings.HasPrefix(ref, "/") {
			target = filepath.Join(projectRoot, ref)
		} else {
			target = filepath.Join(docDir, ref)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			return "", false
		}
		return string(data), true
	}

	result := inline.Transform(text, resolve, inline.Options{
		TriggerAttr: cfg.Inline.TriggerAttr,
		Logger:      logger,
	})

	doc := documentReport{
		Path:        path,
		Changed:     result != text,
		BytesBefore: len(text),
		BytesAfter:  len(result),
	}

	dest := path
	if outputDir != "" {
		rel, err := filepath.Rel(scanRoot, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(path)
		}
		dest = filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return doc, err
		}
	} else if !doc.Changed {
		// In-place mode: leave untouched documents alone.
		return doc, nil
	}

	if err := os.WriteFile(dest, []byte(result), 0644); err != nil {
		return doc, err
	}
	return doc, nil
}

// readMarkup reads a document, transcoding to UTF-8 when it carries a
// non-UTF-8 encoding declaration.
func readMarkup(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := charset.NewReader(f, "text/html")
	if err != nil {
		return "", fmt.Errorf("detecting charset: %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// newCommandLogger builds the CLI logger from the persistent log-level flag.
func newCommandLogger() logging.Logger {
	level := logging.LevelInfo
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: "text",
		Output: os.Stderr,
	})
}
