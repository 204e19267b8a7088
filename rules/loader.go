package rules

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultSetName is the rule-set identifier used when no named profile is
// requested. It is also the cache key for the active rule set.
const DefaultSetName = "default"

// Loader loads rule sets: the built-in defaults overlaid with YAML rule files
// discovered through glob patterns (doublestar syntax, e.g. "rules/**/*.yaml").
type Loader struct {
	patterns []string
	logger   *slog.Logger
}

// NewLoader creates a loader for the given glob patterns. An empty pattern
// list yields the built-in defaults only.
func NewLoader(patterns []string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{patterns: patterns, logger: logger}
}

// Load builds the active rule set: defaults first, then each discovered file
// overlaid in path order. The returned set is compiled and ready to evaluate.
func (l *Loader) Load(name string) (*Set, error) {
	set := DefaultSet()

	files, err := l.discover()
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		overlay, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load rule file %s: %w", path, err)
		}
		set.Merge(overlay)
		l.logger.Debug("Merged rule file", "path", path, "rules", overlay.Len())
	}

	if err := set.Compile(); err != nil {
		return nil, err
	}

	l.logger.Info("Loaded rule set",
		"name", name,
		"version", set.Version,
		"rules", set.Len(),
		"files", len(files))

	return set, nil
}

// discover resolves the glob patterns to a sorted, de-duplicated file list.
func (l *Loader) discover() ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range l.patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// loadFile parses a single YAML rule file.
func loadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &set, nil
}
