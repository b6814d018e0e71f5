package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"

	"github.com/Benny93/morphnet/internal/formatives"
)

// DefaultDebounce is the quiet period before a batch of changes is processed.
const DefaultDebounce = 2 * time.Second

// ChangeHandler processes the languages whose formatives files changed.
type ChangeHandler func(ctx context.Context, languages []string) error

// WatchFormatives monitors rawDir for changed <lang>_formatives.csv files and
// calls handle with the affected languages once writes settle for debounce.
// Handler errors are logged and watching continues. Blocks until ctx is
// cancelled.
func WatchFormatives(ctx context.Context, rawDir string, debounce time.Duration, handle ChangeHandler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	matcher, err := formatives.LoadIgnoreMatcher(rawDir)
	if err != nil {
		logger.Warn("ignoring .gitignore", zap.Error(err))
		matcher = nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(rawDir); err != nil {
		return fmt.Errorf("watching %s: %w", rawDir, err)
	}

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop()

	logger.Info("watching formatives", zap.String("dir", rawDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			lang := watchedLanguage(event.Name, matcher)
			if lang == "" {
				continue
			}
			changed[lang] = true
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-batchTimer.C:
			if len(changed) == 0 {
				continue
			}
			languages := sortedKeys(changed)
			changed = make(map[string]bool)

			logger.Info("formatives changed", zap.Strings("languages", languages))
			if err := handle(ctx, languages); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("processing changes", zap.Error(err))
			}
		}
	}
}

// watchedLanguage returns the language of a formatives file event, or "" for
// files that are not formatives tables or are ignored.
func watchedLanguage(path string, matcher gitignore.Matcher) string {
	name := filepath.Base(path)
	lang := formatives.LanguageFromFile(name)
	if lang == "" {
		return ""
	}
	if matcher != nil && matcher.Match([]string{name}, false) {
		return ""
	}
	return lang
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
