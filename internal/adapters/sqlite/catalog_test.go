package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelstack/internal/domain"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	if err := c.Open(filepath.Join(t.TempDir(), "catalog.db")); err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close catalog: %v", err)
		}
	})
	return c
}

func samplePlugin(id, filename string, internal bool) *domain.Plugin {
	return domain.NewPlugin(domain.PluginMetadata{
		ID:          id,
		Name:        "IITC plugin: " + filename,
		Category:    domain.CategoryMisc,
		Version:     "1.0",
		DownloadURL: "https://example.com/" + filename + ".user.js",
	}, internal, filename)
}

func TestCatalog_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	tx, err := c.BeginTx(ctx)
	require.NoError(t, err)

	internal := samplePlugin("bookmarks@ZasoGD", "bookmarks", true)
	external := samplePlugin("my-plugin@me", "my-plugin", false)
	external.Author = "me"
	require.NoError(t, tx.Insert(internal))
	require.NoError(t, tx.Insert(external))
	assert.NotEmpty(t, internal.Handle)
	assert.NotEqual(t, internal.Handle, external.Handle)

	found, err := tx.FindInternal("bookmarks")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, internal, found)

	found, err = tx.FindExternal("my-plugin@me")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "me", found.Author)
	assert.False(t, found.Enabled)

	missing, err := tx.FindExternal("bookmarks@ZasoGD")
	require.NoError(t, err)
	assert.Nil(t, missing, "internal records are not found by external identifier")

	// Uncommitted rows are invisible outside the transaction
	committed, err := c.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, committed)

	require.NoError(t, tx.Commit())

	committed, err = c.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, committed, 2)

	byHandle, err := c.GetByHandle(ctx, external.Handle)
	require.NoError(t, err)
	assert.Equal(t, "my-plugin@me", byHandle.Identifier)
}

func TestCatalog_PartitionUniqueness(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	tx, err := c.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.Insert(samplePlugin("a", "same-file", true)))
	assert.Error(t, tx.Insert(samplePlugin("b", "same-file", true)), "duplicate internal filename")

	require.NoError(t, tx.Insert(samplePlugin("same-id", "one", false)))
	assert.Error(t, tx.Insert(samplePlugin("same-id", "two", false)), "duplicate external identifier")

	// The same identifier may exist once per partition
	assert.NoError(t, tx.Insert(samplePlugin("same-id", "three", true)))
}

func TestCatalog_UpdatePreservesPartition(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	tx, err := c.BeginTx(ctx)
	require.NoError(t, err)

	p := samplePlugin("a", "a", false)
	require.NoError(t, tx.Insert(p))

	p.Internal = true
	p.Enabled = true
	p.Version = ""
	require.NoError(t, tx.Update(p))

	got, err := tx.FindByHandle(p.Handle)
	require.NoError(t, err)
	assert.False(t, got.Internal, "partition flag must not change")
	assert.True(t, got.Enabled)
	assert.Empty(t, got.Version)

	missing := samplePlugin("ghost", "ghost", false)
	missing.Handle = "no-such-handle"
	assert.Error(t, tx.Update(missing))

	require.NoError(t, tx.Commit())
}

func TestCatalog_ListFilterAndDeleteExternal(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	tx, err := c.BeginTx(ctx)
	require.NoError(t, err)

	b := samplePlugin("b", "b", true)
	b.Enabled = true
	require.NoError(t, tx.Insert(b))
	require.NoError(t, tx.Insert(samplePlugin("a", "a", false)))
	require.NoError(t, tx.Insert(samplePlugin("c", "c", false)))

	all, err := tx.List(domain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Filename, all[1].Filename, all[2].Filename})

	enabled, err := tx.List(domain.Filter{Enabled: domain.BoolPtr(true)})
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "b", enabled[0].Identifier)

	external, err := tx.List(domain.Filter{Internal: domain.BoolPtr(false), Query: "c"})
	require.NoError(t, err)
	require.Len(t, external, 1)

	n, err := tx.DeleteExternal()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, tx.Delete(b.Handle))
	all, err = tx.List(domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, tx.Commit())
}

func TestCatalog_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	c := NewCatalog()
	require.NoError(t, c.Open(path))
	tx, err := c.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(samplePlugin("a", "a", true)))
	require.NoError(t, tx.Commit())
	require.NoError(t, c.Close())

	c = NewCatalog()
	require.NoError(t, c.Open(path))
	defer c.Close()

	all, err := c.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalog_WriteAfterReadWithConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	first := NewCatalog()
	require.NoError(t, first.Open(path))
	defer first.Close()
	second := NewCatalog()
	require.NoError(t, second.Open(path))
	defer second.Close()

	tx, err := first.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	found, err := tx.FindInternal("bookmarks")
	require.NoError(t, err)
	assert.Nil(t, found)

	// The other connection waits for the write lock instead of committing
	// past the open transaction's snapshot
	done := make(chan error, 1)
	go func() {
		other, err := second.BeginTx(ctx)
		if err != nil {
			done <- err
			return
		}
		if err := other.Insert(samplePlugin("toggle@me", "toggle", false)); err != nil {
			other.Rollback()
			done <- err
			return
		}
		done <- other.Commit()
	}()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, tx.Insert(samplePlugin("bookmarks", "bookmarks", true)))
	require.NoError(t, tx.Commit())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("second connection never committed")
	}

	all, err := first.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
