package sql

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

var _ storage.SubmissionStore = (*Store)(nil)

// setupSQLiteStore 使用临时 SQLite 文件创建存储
func setupSQLiteStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.DatabaseConfig{
		Type:            "sqlite",
		DSN:             filepath.Join(t.TempDir(), "guestbook.db"),
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStoreUnsupportedDriver(t *testing.T) {
	_, err := NewStore(config.DatabaseConfig{Type: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestSQLStore_InsertMessage(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	sub := &domain.Submission{Name: "Ana Pérez", Message: "Hola, un mensaje de prueba"}
	require.NoError(t, store.InsertMessage(ctx, sub))
	assert.NotZero(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())

	count, err := store.CountSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLStore_ListMediaAssetsOrder(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	inputs := []struct {
		name string
		at   time.Time
	}{
		{"b.png", base.Add(time.Minute)},
		{"a.png", base},
		{"d.png", base.Add(2 * time.Minute)},
		{"c.png", base.Add(time.Minute)},
	}
	for _, in := range inputs {
		asset := &domain.MediaAsset{Filename: in.name, ContentType: "image/png", Size: 1, CreatedAt: in.at}
		require.NoError(t, store.InsertMediaAsset(ctx, asset))
	}

	assets, err := store.ListMediaAssets(ctx)
	require.NoError(t, err)

	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Filename
	}
	assert.Equal(t, []string{"d.png", "c.png", "b.png", "a.png"}, names)
}

func TestSQLStore_EmptyList(t *testing.T) {
	store := setupSQLiteStore(t)

	assets, err := store.ListMediaAssets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestSQLStore_DuplicateFilename(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: "x.png"}))
	err := store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: "x.png"})

	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert media asset", se.Op)
}

func TestSQLStore_ClosedConnection(t *testing.T) {
	store := setupSQLiteStore(t)
	require.NoError(t, store.Health(context.Background()))
	require.NoError(t, store.Close())

	err := store.InsertMessage(context.Background(), &domain.Submission{Name: "Ana", Message: "0123456789"})
	var se *domain.StoreError
	assert.ErrorAs(t, err, &se)
	assert.Error(t, store.Health(context.Background()))
}
