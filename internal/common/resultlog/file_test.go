package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEntry(i int) Entry {
	return NewEntry(
		fmt.Sprintf("https://x/job/%d", i),
		"Backend Engineer",
		[]string{"Built APIs serving 1M requests/day"},
		i%2 == 0,
		map[string]interface{}{"status": "submitted", "n": float64(i)},
	)
}

func TestFileStore_AppendAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "applications.jsonl")
	store := NewFileStore(path)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, createTestEntry(i)))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "https://x/job/2", entries[0].URL)
	assert.Equal(t, "https://x/job/4", entries[2].URL)
	assert.Equal(t, []string{"Built APIs serving 1M requests/day"}, entries[0].Bullets)
	assert.Nil(t, entries[1].Bullets)
	assert.Equal(t, "submitted", entries[2].Result["status"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.NotContains(t, lines[1], `"bullets"`)
}

func TestFileStore_RecentMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-written.jsonl"))

	entries, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestFileStore_RecentFewerThanN(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "a.jsonl"))
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, createTestEntry(1)))
	require.NoError(t, store.Append(ctx, createTestEntry(2)))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	none, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileStore_RecentIsRepeatable(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "a.jsonl"))
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Append(ctx, createTestEntry(i)))
	}

	first, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	second, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jsonl")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, createTestEntry(1)))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, store.Append(ctx, createTestEntry(3)))

	entries, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://x/job/1", entries[0].URL)
	assert.Equal(t, "https://x/job/3", entries[1].URL)
}

func TestFileStore_SkipsOversizedLines(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "applications.jsonl"))
	ctx := context.Background()

	huge := createTestEntry(1)
	huge.Result = map[string]interface{}{"body": strings.Repeat("x", 5<<20)}

	require.NoError(t, store.Append(ctx, createTestEntry(0)))
	require.NoError(t, store.Append(ctx, huge))
	require.NoError(t, store.Append(ctx, createTestEntry(2)))

	entries, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://x/job/2", entries[0].URL)

	entries, err = store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://x/job/0", entries[0].URL)
	assert.Equal(t, "https://x/job/2", entries[1].URL)
}

func TestFileStore_RecentWithoutTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.jsonl")
	store := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, createTestEntry(0)))
	last, err := json.Marshal(createTestEntry(1))
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write(last)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://x/job/1", entries[1].URL)
}

func TestFileStore_ConcurrentAppendsStayWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jsonl")
	// two stores on one path stand in for two processes
	stores := []*FileStore{NewFileStore(path), NewFileStore(path)}
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := createTestEntry(i)
			e.Result["padding"] = strings.Repeat("x", 8192)
			assert.NoError(t, stores[i%2].Append(ctx, e))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, writers)
	for _, line := range lines {
		var e Entry
		assert.NoError(t, json.Unmarshal([]byte(line), &e))
	}
}

func TestFileStore_AppendFailsWhenDirIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "logs")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewFileStore(filepath.Join(blocker, "applications.jsonl"))
	err := store.Append(context.Background(), createTestEntry(1))
	assert.Error(t, err)
}
