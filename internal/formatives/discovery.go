package formatives

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileSuffix is the suffix of raw formatives files: <language>_formatives.csv.
const FileSuffix = "_formatives.csv"

// RawFileName returns the raw formatives file name for a language.
func RawFileName(language string) string {
	return language + FileSuffix
}

// SimulatedFileName returns the file name of a simulated table.
func SimulatedFileName(language string, dt DataType) string {
	return fmt.Sprintf("%s_formatives_%s.csv", language, dt)
}

// LanguageFromFile extracts the language from a raw formatives file name.
// Returns "" when the name does not follow the convention.
func LanguageFromFile(name string) string {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, FileSuffix) {
		return ""
	}
	return strings.TrimSuffix(base, FileSuffix)
}

// DiscoverLanguages lists languages with a raw formatives file in rawDir,
// sorted by name. Files matched by a .gitignore in rawDir are skipped.
func DiscoverLanguages(rawDir string) ([]string, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawDir, err)
	}

	matcher, err := LoadIgnoreMatcher(rawDir)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var languages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lang := LanguageFromFile(entry.Name())
		if lang == "" {
			continue
		}
		if matcher != nil && matcher.Match([]string{entry.Name()}, false) {
			continue
		}
		languages = append(languages, lang)
	}

	sort.Strings(languages)
	return languages, nil
}

// ValidateLanguage checks that a language has a raw formatives file.
func ValidateLanguage(rawDir, language string) error {
	if err := CheckLanguageName(language); err != nil {
		return err
	}
	available, err := DiscoverLanguages(rawDir)
	if err != nil {
		return err
	}
	for _, l := range available {
		if l == language {
			return nil
		}
	}
	return fmt.Errorf("language %q not found (available: %s): %w",
		language, strings.Join(available, ", "), ErrUnknownLanguage)
}

// CheckLanguageName rejects names that cannot stand as the stem of a data
// file, such as those with path separators or dot segments.
func CheckLanguageName(language string) error {
	if language == "" || language == "." || language == ".." ||
		strings.ContainsAny(language, `/\:`) || strings.Contains(language, "..") {
		return fmt.Errorf("%q: %w", language, ErrInvalidLanguage)
	}
	return nil
}

// LoadIgnoreMatcher loads .gitignore patterns from dir.
// Returns nil when the directory has no .gitignore.
func LoadIgnoreMatcher(dir string) (gitignore.Matcher, error) {
	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	return gitignore.NewMatcher(patterns), nil
}
