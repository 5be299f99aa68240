package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a fresh sqlite file under t.TempDir. Tables are not created.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := openDB(&Config{DBDriver: "sqlite", DatabaseDSN: filepath.Join(t.TempDir(), "portfolio.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newMigratedDB is newTestDB with every table in place.
func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	guard := NewSchemaGuard(db, newAdminStore(db), time.Minute)
	require.NoError(t, guard.EnsureSchema(context.Background()))
	return db
}

// countingStore records how many of its methods were called.
type countingStore[T any] struct {
	mu    sync.Mutex
	calls int
}

func (s *countingStore[T]) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore[T]) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore[T]) Insert(context.Context, *T) error { s.hit(); return nil }
func (s *countingStore[T]) List(context.Context) ([]T, error) {
	s.hit()
	return nil, nil
}
func (s *countingStore[T]) Get(context.Context, uint) (*T, error) {
	s.hit()
	return new(T), nil
}
func (s *countingStore[T]) Update(context.Context, uint, map[string]any) (int64, error) {
	s.hit()
	return 1, nil
}
func (s *countingStore[T]) Delete(context.Context, uint) (int64, error) {
	s.hit()
	return 1, nil
}

type fakeImageStore struct {
	mu      sync.Mutex
	urls    []string
	err     error
	uploads []ImageFile
	folders []string
}

func (f *fakeImageStore) Upload(_ context.Context, folder string, img ImageFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, img)
	f.folders = append(f.folders, folder)
	url := "http://cdn.test/image.png"
	if len(f.urls) > 0 {
		url, f.urls = f.urls[0], f.urls[1:]
	}
	return url, nil
}

func (f *fakeImageStore) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}
