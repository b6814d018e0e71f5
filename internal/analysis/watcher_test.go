package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchedLanguage(t *testing.T) {
	t.Parallel()

	matcher := gitignore.NewMatcher([]gitignore.Pattern{
		gitignore.ParsePattern("draft_*", nil),
	})

	tests := []struct {
		path string
		want string
	}{
		{"/data/raw/formatives/latin_formatives.csv", "latin"},
		{"/data/raw/formatives/old_norse_formatives.csv", "old_norse"},
		{"/data/raw/formatives/notes.txt", ""},
		{"/data/raw/formatives/latin_formatives.csv.swp", ""},
		{"/data/raw/formatives/draft_latin_formatives.csv", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, watchedLanguage(tt.path, matcher), tt.path)
	}

	assert.Equal(t, "draft_latin", watchedLanguage("draft_latin_formatives.csv", nil))
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(map[string]bool{"c": true, "a": true, "b": true}))
	assert.Empty(t, sortedKeys(nil))
}

func TestWatchFormatives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchFormatives(ctx, dir, 50*time.Millisecond, func(_ context.Context, languages []string) error {
			batches <- languages
			return nil
		}, nil)
	}()

	// Writes may race the watcher registration; keep writing until a batch arrives.
	var got []string
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case got = <-batches:
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(dir, "latin_formatives.csv"), []byte(latinFormatives), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644))
		case <-deadline:
			t.Fatal("no change batch received")
		}
	}
	assert.Equal(t, []string{"latin"}, got)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchFormatives_MissingDir(t *testing.T) {
	t.Parallel()

	err := WatchFormatives(context.Background(), filepath.Join(t.TempDir(), "missing"), time.Millisecond, func(context.Context, []string) error {
		return nil
	}, nil)
	assert.Error(t, err)
}
