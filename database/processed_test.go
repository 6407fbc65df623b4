package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessedFileMarkAndHas(t *testing.T) {
	ctx := context.Background()
	set := NewProcessedFile(filepath.Join(t.TempDir(), "cache", "processed.txt"))

	seen, err := set.HasProcessed(ctx, 7)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, set.MarkProcessed(ctx, 7))
	seen, err = set.HasProcessed(ctx, 7)
	require.NoError(t, err)
	require.True(t, seen)
}

func TestProcessedFileDelimiterBoundary(t *testing.T) {
	ctx := context.Background()
	set := NewProcessedFile(filepath.Join(t.TempDir(), "processed.txt"))

	require.NoError(t, set.MarkProcessed(ctx, 123))

	seen, err := set.HasProcessed(ctx, 12)
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = set.HasProcessed(ctx, 23)
	require.NoError(t, err)
	require.False(t, seen)
}

func TestProcessedFileTrim(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.txt")
	set := NewProcessedFile(path)

	for id := int64(1); id <= 101; id++ {
		require.NoError(t, set.MarkProcessed(ctx, id))
	}

	ids, err := set.IDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, ProcessedKeep)
	require.Equal(t, int64(52), ids[0])
	require.Equal(t, int64(101), ids[len(ids)-1])

	seen, err := set.HasProcessed(ctx, 51)
	require.NoError(t, err)
	require.False(t, seen)
	seen, err = set.HasProcessed(ctx, 101)
	require.NoError(t, err)
	require.True(t, seen)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte('|'), data[0])
	require.Equal(t, byte('|'), data[len(data)-1])
}

func TestProcessedFileReadsLegacyLayout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.txt")
	require.NoError(t, os.WriteFile(path, []byte("|4||5||6|"), 0o644))
	set := NewProcessedFile(path)

	seen, err := set.HasProcessed(ctx, 5)
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, set.MarkProcessed(ctx, 8))
	ids, err := set.IDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5, 6, 8}, ids)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "|4|5|6|8|", string(data))
}

func TestProcessedFileLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	set := NewProcessedFile(filepath.Join(dir, "processed.txt"))
	for id := int64(1); id <= 5; id++ {
		require.NoError(t, set.MarkProcessed(ctx, id))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
