package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	t.Cleanup(func() { s.Close() })
	return s, server
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "data", "keys.json"))
		},
		"bolt": func(t *testing.T) Store {
			s, err := OpenBolt(filepath.Join(t.TempDir(), "data", "keys.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"redis": func(t *testing.T) Store {
			s, _ := newTestRedisStore(t)
			return s
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, ok, err := s.Get(ctx, APIKey)
			require.NoError(t, err)
			assert.False(t, ok, "fresh store should not have a key")

			require.NoError(t, s.Set(ctx, APIKey, "sk-first"))
			v, ok, err := s.Get(ctx, APIKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "sk-first", v)

			require.NoError(t, s.Set(ctx, APIKey, "sk-second"))
			v, _, err = s.Get(ctx, APIKey)
			require.NoError(t, err)
			assert.Equal(t, "sk-second", v, "Set overwrites")
		})
	}
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")
	ctx := context.Background()

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, APIKey, "sk-persisted"))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, APIKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-persisted", v)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileStore(path).Get(context.Background(), APIKey)
	assert.ErrorContains(t, err, "decode keystore file")
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	s, server := newTestRedisStore(t)
	require.NoError(t, s.Set(context.Background(), APIKey, "sk-redis"))

	v, err := server.Get(redisPrefix + APIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-redis", v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("redis url", func(t *testing.T) {
		server := miniredis.RunT(t)
		s, err := Open(ctx, Options{Backend: BackendRedis, RedisURL: "redis://" + server.Addr()})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &RedisStore{}, s)
	})

	t.Run("redis bare address", func(t *testing.T) {
		server := miniredis.RunT(t)
		s, err := Open(ctx, Options{Backend: BackendRedis, RedisURL: server.Addr()})
		require.NoError(t, err)
		defer s.Close()
	})

	t.Run("default is bolt", func(t *testing.T) {
		s, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "keys.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &BoltStore{}, s)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, Options{Backend: "etcd"})
		assert.ErrorContains(t, err, `unknown keystore backend "etcd"`)
	})
}
