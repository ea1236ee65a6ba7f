package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/l0p7/regiond/internal/cache"
	"github.com/l0p7/regiond/internal/config"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func storeEntry(t *testing.T, backend cache.ResultCache, key string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, backend.Store(context.Background(), key, cache.Entry{
		Payload:   []byte("{}"),
		StoredAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}))
}

func TestBuildResultCacheMemory(t *testing.T) {
	backend := buildResultCache(discardLogger(), config.CacheConfig{Backend: "memory", TTLSeconds: 60}, nil)
	require.NotNil(t, backend)

	storeEntry(t, backend, "k")
	_, ok, err := backend.Lookup(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, backend.Close(context.Background()))
}

func TestBuildResultCacheRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	cfg := config.CacheConfig{Backend: "redis", TTLSeconds: 60}
	cfg.Redis.Address = server.Addr()

	backend := buildResultCache(discardLogger(), cfg, nil)
	storeEntry(t, backend, "k")
	require.True(t, server.Exists("k"), "entry must land in redis")
	require.NoError(t, backend.Close(context.Background()))
}

func TestBuildResultCacheRedisFallsBackToMemory(t *testing.T) {
	cfg := config.CacheConfig{Backend: "redis", TTLSeconds: 60}
	cfg.Redis.Address = "127.0.0.1:1"

	backend := buildResultCache(discardLogger(), cfg, nil)
	require.NotNil(t, backend)

	// The fallback serves from process memory even with redis unreachable.
	storeEntry(t, backend, "k")
	_, ok, err := backend.Lookup(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, backend.Close(context.Background()))
}

func TestBuildResultCacheUnknownBackendDefaultsToMemory(t *testing.T) {
	backend := buildResultCache(discardLogger(), config.CacheConfig{Backend: "memcached"}, nil)
	require.NotNil(t, backend)

	storeEntry(t, backend, "k")
	_, ok, err := backend.Lookup(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, backend.Close(context.Background()))
}

func TestBuildLocationStoreMemory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "locations.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(
		"locations:\n  - id: 1\n    level: 0\n    name: Country\n"), 0o600))

	locations, cleanup, err := buildLocationStore(context.Background(), discardLogger(),
		config.StoreConfig{Backend: "memory", SeedFile: seed})
	require.NoError(t, err)
	defer cleanup()

	node, ok, err := locations.ByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Country", node.Name)
}

func TestBuildLocationStoreWatchReplacesSnapshot(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "locations.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(
		"locations:\n  - id: 1\n    level: 0\n    name: Country\n"), 0o600))

	locations, cleanup, err := buildLocationStore(context.Background(), discardLogger(),
		config.StoreConfig{Backend: "memory", SeedFile: seed, Watch: true})
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, os.WriteFile(seed, []byte(
		"locations:\n  - id: 1\n    level: 0\n    name: Renamed\n"), 0o600))

	require.Eventually(t, func() bool {
		node, ok, err := locations.ByID(context.Background(), 1)
		return err == nil && ok && node.Name == "Renamed"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestBuildLocationStoreMissingSeed(t *testing.T) {
	_, _, err := buildLocationStore(context.Background(), discardLogger(),
		config.StoreConfig{Backend: "memory", SeedFile: "/nonexistent/locations.yaml"})
	require.Error(t, err)
}

func TestBuildLocationStoreUnknownBackend(t *testing.T) {
	_, _, err := buildLocationStore(context.Background(), discardLogger(),
		config.StoreConfig{Backend: "sqlite"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported store backend")
}
