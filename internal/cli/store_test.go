package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/keystone/internal/config"
	"github.com/aretw0/keystone/internal/logging"
	"github.com/aretw0/keystone/pkg/adapters/file"
	"github.com/aretw0/keystone/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func history(value string) *domain.History {
	h := domain.NewHistory()
	h.UndoEvents = append(h.UndoEvents, domain.UndoEvent{
		TargetPath:     domain.Path{},
		ActionName:     "setEmail",
		Patches:        []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"email"}, Value: value}},
		InversePatches: []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"email"}, Value: ""}},
	})
	return h
}

func TestOpenBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		cfg        config.StoreConfig
		withLocker bool
	}{
		{name: "memory", cfg: config.StoreConfig{Backend: config.BackendMemory}},
		{name: "file", cfg: config.StoreConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "files")}},
		{name: "badger", cfg: config.StoreConfig{Backend: config.BackendBadger, Path: filepath.Join(dir, "badger")}},
		{
			name: "redis",
			cfg: config.StoreConfig{
				Backend: config.BackendRedis,
				Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "test:", TTL: time.Minute},
			},
			withLocker: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := OpenBackend(tt.cfg, logging.NewNop())
			require.NoError(t, err)
			defer func() { assert.NoError(t, b.Close()) }()

			assert.Equal(t, tt.withLocker, b.Locker != nil)

			ctx := context.Background()
			require.NoError(t, b.Store.Save(ctx, "s1", history("a@b.c")))
			loaded, err := b.Store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "a@b.c", loaded.UndoEvents[0].Patches[0].Value)

			sessions := b.Sessions(tt.cfg, logging.NewNop())
			ids, err := sessions.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"s1"}, ids)
		})
	}
}

func TestOpenBackendDecorators(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StoreConfig{
		Backend:       config.BackendFile,
		Path:          dir,
		EncryptionKey: testKey,
		PIIPatterns:   []string{"email"},
	}
	b, err := OpenBackend(cfg, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Store.Save(ctx, "s1", history("a@b.c")))

	raw, err := file.New(dir).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, raw.UndoEvents)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := b.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.UndoEvents[0].Patches[0].Value, "masked before sealing")
}

func TestOpenBackendUnknown(t *testing.T) {
	_, err := OpenBackend(config.StoreConfig{Backend: "s3"}, logging.NewNop())
	assert.Error(t, err)
}
