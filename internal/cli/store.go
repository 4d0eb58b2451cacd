package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/keystone/internal/config"
	"github.com/aretw0/keystone/pkg/adapters/badger"
	"github.com/aretw0/keystone/pkg/adapters/file"
	"github.com/aretw0/keystone/pkg/adapters/memory"
	"github.com/aretw0/keystone/pkg/adapters/redis"
	"github.com/aretw0/keystone/pkg/persistence/middleware"
	"github.com/aretw0/keystone/pkg/ports"
	"github.com/aretw0/keystone/pkg/session"
)

// Backend is an opened history store with its decorators applied.
type Backend struct {
	Store  ports.HistoryStore
	Locker ports.DistributedLocker // nil unless the backend supports distributed locks

	closers []func() error
}

// Close releases the underlying connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Sessions returns a session manager over the backend.
func (b *Backend) Sessions(cfg config.StoreConfig, logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
	}
	if cfg.LockTTL > 0 {
		opts = append(opts, session.WithLockTTL(cfg.LockTTL))
	}
	return session.NewManager(b.Store, opts...)
}

// OpenBackend builds the store selected by cfg. PII masking runs before encryption
// so masked values never reach the ciphertext.
func OpenBackend(cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.Backend {
	case config.BackendMemory:
		b.Store = memory.NewStore()
	case "", config.BackendFile:
		b.Store = file.New(cfg.Path)
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		b.Store = rs
		b.Locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix+"lock:")
		b.closers = append(b.closers, rs.Close)
	case config.BackendBadger:
		bcfg := badger.DefaultConfig(cfg.Path)
		bcfg.Logger = logger
		bs, err := badger.Open(bcfg)
		if err != nil {
			return nil, err
		}
		b.Store = bs
		b.closers = append(b.closers, bs.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	b.Store = middleware.Chain(b.Store, mws...)

	logger.Debug("history store opened", "backend", cfg.Backend, "encrypted", active != nil, "pii_patterns", len(cfg.PIIPatterns))
	return b, nil
}
