package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

func newSQLiteStore(t *testing.T) DocumentStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "runs.db") + "?_pragma=foreign_keys(1)"
	store, err := NewStore(context.Background(), Config{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(hash string, started time.Time) entity.Run {
	return entity.Run{
		ID:          uuid.New(),
		SourcePath:  "/data/inbox/package.pdf",
		ContentHash: hash,
		Format:      constants.PDF,
		Status:      string(constants.RunStatusRunning),
		StartedAt:   started,
	}
}

func sampleDocs() []entity.DocumentRecord {
	return []entity.DocumentRecord{
		{
			Label:        "Commercial Invoice (inv-001)",
			DocumentType: "Commercial Invoice",
			Pages:        []int{1, 2},
			PageRange:    "Pages 1-2",
			Confidence:   0.75,
			CombinedText: "invoice\n\n--- Page 2 ---\nmore",
			TextLength:   29,
		},
		{
			Label:        "Bill of Lading (Page 3)",
			DocumentType: "Bill of Lading",
			Pages:        []int{3},
			PageRange:    "Page 3",
			Confidence:   0.84,
			CombinedText: "bill of lading",
			TextLength:   14,
		},
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	run := sampleRun("hash-1", time.Now().UTC())

	require.NoError(t, store.SaveRun(ctx, run, nil))
	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusRunning), got.Status)
	assert.Nil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))

	finished := run.StartedAt.Add(2 * time.Second)
	run.Status = string(constants.RunStatusSegmented)
	run.PageCount = 3
	run.FinishedAt = &finished
	require.NoError(t, store.SaveRun(ctx, run, sampleDocs()))

	got, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.SourcePath, got.SourcePath)
	assert.Equal(t, constants.PDF, got.Format)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, string(constants.RunStatusSegmented), got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))

	docs, err := store.ListDocuments(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleDocs(), docs)
}

func TestSQLiteStore_SaveReplacesDocuments(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	run := sampleRun("hash-2", time.Now().UTC())

	require.NoError(t, store.SaveRun(ctx, run, sampleDocs()))
	require.NoError(t, store.SaveRun(ctx, run, sampleDocs()[1:]))

	docs, err := store.ListDocuments(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Bill of Lading", docs[0].DocumentType)
}

func TestSQLiteStore_FailedRunKeepsMessage(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	run := sampleRun("hash-3", time.Now().UTC())
	msg := "read pages: boom"
	run.Status = string(constants.RunStatusFailed)
	run.ErrorMessage = &msg

	require.NoError(t, store.SaveRun(ctx, run, nil))
	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)

	docs, err := store.ListDocuments(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	_, err := store.GetRun(ctx, uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = store.FindSegmentedByHash(ctx, "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSQLiteStore_FindSegmentedByHash(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := sampleRun("same", base)
	older.Status = string(constants.RunStatusSegmented)
	newer := sampleRun("same", base.Add(time.Hour))
	newer.Status = string(constants.RunStatusSegmented)
	failed := sampleRun("same", base.Add(2*time.Hour))
	failed.Status = string(constants.RunStatusFailed)

	for _, r := range []entity.Run{older, newer, failed} {
		require.NoError(t, store.SaveRun(ctx, r, nil))
	}

	got, err := store.FindSegmentedByHash(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestSQLiteStore_Ping(t *testing.T) {
	assert.NoError(t, newSQLiteStore(t).Ping(context.Background()))
}

func TestNewStore_UnknownDriver(t *testing.T) {
	_, err := NewStore(context.Background(), Config{Driver: "mysql"}, nil)
	assert.True(t, common.IsConfigError(err))
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1", rebind("SELECT 1"))
}

func TestPagesFromRange(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5}, pagesFromRange(3, 5))
	assert.Equal(t, []int{7}, pagesFromRange(7, 7))
	assert.Nil(t, pagesFromRange(0, 2))
	assert.Nil(t, pagesFromRange(5, 4))
}

func TestConfigFrom(t *testing.T) {
	c := common.DefaultConfig().Database
	got := ConfigFrom(c)
	assert.Equal(t, "sqlite", got.Driver)
	assert.Equal(t, c.DSN, got.DSN)
	assert.Equal(t, c.MaxConns, got.MaxConns)
}
