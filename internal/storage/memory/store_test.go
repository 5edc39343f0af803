package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

var _ storage.SubmissionStore = (*Store)(nil)

func TestMemoryStore_InsertMessage(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sub := &domain.Submission{Name: "Ana Pérez", Message: "Hola, un mensaje de prueba"}
	require.NoError(t, store.InsertMessage(ctx, sub))

	assert.NotZero(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())

	all := store.ListSubmissions()
	require.Len(t, all, 1)
	assert.Equal(t, "Ana Pérez", all[0].Name)
}

func TestMemoryStore_ListMediaAssetsOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// 乱序写入，含相同时间戳
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
		require.NoError(t, store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: in.name, CreatedAt: in.at}))
	}

	assets, err := store.ListMediaAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 4)

	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Filename
	}
	// 相同时间戳时后写入（ID 更大）的排在前面
	assert.Equal(t, []string{"d.png", "c.png", "b.png", "a.png"}, names)
}

func TestMemoryStore_DuplicateFilename(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: "x.png"}))
	err := store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: "x.png"})

	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrDuplicateFilename)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Close())

	err := store.InsertMessage(context.Background(), &domain.Submission{Name: "Ana", Message: "0123456789"})
	var se *domain.StoreError
	assert.ErrorAs(t, err, &se)
	assert.ErrorIs(t, store.Health(context.Background()), ErrClosed)
}

func TestMemoryStore_ConcurrentInserts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: fmt.Sprintf("%d.png", i)})
		}(i)
	}
	wg.Wait()

	assets, err := store.ListMediaAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 50)
}

func BenchmarkMemoryStore_ListMediaAssets(b *testing.B) {
	store := NewStore()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		_ = store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: fmt.Sprintf("%d.png", i)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.ListMediaAssets(ctx)
	}
}
