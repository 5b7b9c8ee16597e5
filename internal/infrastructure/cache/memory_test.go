package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pauseshop/backend/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCache(t *testing.T) (*MemoryCache, *time.Time) {
	t.Helper()
	cache := NewMemoryCache()
	t.Cleanup(cache.Close)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		pauseID string
		dataURL string
		wantErr error
	}{
		{
			name:    "store and retrieve screenshot",
			pauseID: "pause-1",
			dataURL: "data:image/png;base64,AAAA",
		},
		{
			name:    "overwrite keeps latest",
			pauseID: "pause-1",
			dataURL: "data:image/png;base64,BBBB",
		},
		{
			name:    "empty pause id rejected",
			pauseID: "",
			dataURL: "data:image/png;base64,CCCC",
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cache.Set(ctx, tt.pauseID, tt.dataURL, time.Minute)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Set() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			got, err := cache.Get(ctx, tt.pauseID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.dataURL {
				t.Errorf("Get() = %q, want %q", got, tt.dataURL)
			}
		})
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache, now := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "pause-1", "data:x", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	*now = now.Add(59 * time.Second)
	if _, err := cache.Get(ctx, "pause-1"); err != nil {
		t.Errorf("Get() before expiry error = %v", err)
	}

	*now = now.Add(2 * time.Second)
	if _, err := cache.Get(ctx, "pause-1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}

	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1 before cleanup", cache.Size())
	}
	cache.removeExpired()
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after cleanup", cache.Size())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_ = cache.Set(ctx, "pause-1", "data:x", time.Minute)
	if err := cache.Delete(ctx, "pause-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := cache.Get(ctx, "pause-1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
	}

	// Deleting a missing key is not an error
	if err := cache.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache()
	cache.Close()
	cache.Close()
}
