package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	sqlstore "guestbook/backend/internal/storage/sql"
)

// execute 以给定参数运行根命令并返回标准输出
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrationDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"postgres", "postgres", false},
		{"postgresql", "postgres", false},
		{"pgx", "postgres", false},
		{"mysql", "mysql", false},
		{"sqlite", "", true},
		{"", "", true},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		got, err := migrationDialect(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMigrateRequiresDSN(t *testing.T) {
	t.Setenv("GUESTBOOK_DATABASE_TYPE", "")
	_, err := execute(t, "migrate", "up", "--type", "postgres")
	assert.ErrorContains(t, err, "DSN is required")
}

func TestReconcileRemovesOldOrphans(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GUESTBOOK_UPLOAD_DIR", dir)
	t.Setenv("GUESTBOOK_DATABASE_TYPE", "sqlite")
	t.Setenv("GUESTBOOK_DATABASE_DSN", filepath.Join(t.TempDir(), "guestbook.db"))

	old := filepath.Join(dir, "old.png")
	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("y"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	out, err := execute(t, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "orphan  old.png")
	assert.NotContains(t, out, "fresh.png")
	assert.FileExists(t, old)

	out, err = execute(t, "reconcile", "--remove")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 files")
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestReconcileRemoveRefusesMemoryStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GUESTBOOK_UPLOAD_DIR", dir)
	t.Setenv("GUESTBOOK_DATABASE_TYPE", "")

	old := filepath.Join(dir, "old.png")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	_, err := execute(t, "reconcile", "--remove")
	assert.ErrorContains(t, err, "requires a persistent database")
	assert.FileExists(t, old)

	// 只报告时允许使用内存存储
	out, err := execute(t, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "orphan  old.png")
}

func TestReconcileRejectsShortGrace(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GUESTBOOK_UPLOAD_DIR", dir)
	t.Setenv("GUESTBOOK_DATABASE_TYPE", "sqlite")
	t.Setenv("GUESTBOOK_DATABASE_DSN", filepath.Join(t.TempDir(), "guestbook.db"))

	inflight := filepath.Join(dir, "inflight.jpg")
	require.NoError(t, os.WriteFile(inflight, []byte("x"), 0644))

	for _, grace := range []string{"0s", "-5m", "30s"} {
		_, err := execute(t, "reconcile", "--remove", "--grace", grace)
		assert.ErrorContains(t, err, "shorter than the longest upload request", grace)
	}
	assert.FileExists(t, inflight)
}

func TestImagesList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "guestbook.db")
	t.Setenv("GUESTBOOK_DATABASE_TYPE", "sqlite")
	t.Setenv("GUESTBOOK_DATABASE_DSN", dbPath)
	t.Setenv("GUESTBOOK_UPLOAD_DIR", t.TempDir())

	store, err := sqlstore.NewStore(config.DatabaseConfig{Type: "sqlite", DSN: dbPath})
	require.NoError(t, err)
	require.NoError(t, store.InsertMediaAsset(context.Background(), &domain.MediaAsset{
		Filename:    "0b6c1f1e-6b1a-4f0a-9d7e-0f3c2a1b4c5d.webp",
		ContentType: "image/webp",
		Size:        42,
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "images", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/uploads/0b6c1f1e-6b1a-4f0a-9d7e-0f3c2a1b4c5d.webp")
	assert.Contains(t, out, "image/webp")
}
