package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersisterProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	tmpDir := t.TempDir()

	properties.Property("file and redis backends load what they saved", prop.ForAll(
		func(payload string) bool {
			data := []byte(payload)
			fileStore := NewFilePersister(filepath.Join(tmpDir, "db.json"))
			redisStore := NewRedisPersister(redisClient, "pancymod:test")

			if err := fileStore.Save(context.Background(), data); err != nil {
				return false
			}
			if err := redisStore.Save(context.Background(), data); err != nil {
				return false
			}

			fromFile, err := fileStore.Load(context.Background())
			if err != nil {
				return false
			}
			fromRedis, err := redisStore.Load(context.Background())
			if err != nil {
				return false
			}
			return string(fromFile) == payload && string(fromRedis) == payload
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPersistersReturnNilWhenEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisStore := NewRedisPersister(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "missing")
	data, err := redisStore.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)

	fileStore := NewFilePersister(filepath.Join(t.TempDir(), "nested", "db.json"))
	data, err = fileStore.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStoreOverRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	newStore := func() *Store {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return New(NewRedisPersister(client, "pancymod:db"))
	}

	s := newStore()
	require.NoError(t, s.Initialize(ctx))
	_, err = s.AddBalance(ctx, "55", 25)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened := newStore()
	require.NoError(t, reopened.Initialize(ctx))
	defer reopened.Close(ctx)

	rec, err := reopened.GetUser(ctx, "55")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 25.0, rec.Balance)
}
