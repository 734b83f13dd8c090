package cache

import (
	"fmt"
	"time"

	"github.com/campus/docgen/internal/domain/document"
	"go.uber.org/zap"
)

// FactoryConfig selects and tunes the signature cache
type FactoryConfig struct {
	Driver          string // redis or memory
	Redis           RedisConfig
	KeyPrefix       string
	TTL             time.Duration
	CleanupInterval time.Duration
}

// SignatureCacheFactory creates signature caches based on configuration
type SignatureCacheFactory struct {
	cfg                   FactoryConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*SignatureCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *SignatureCacheFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *SignatureCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSignatureCacheFactory creates a new factory
func NewSignatureCacheFactory(cfg FactoryConfig, opts ...FactoryOption) *SignatureCacheFactory {
	f := &SignatureCacheFactory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured cache. With the redis driver it connects
// first and falls back to memory when allowed.
func (f *SignatureCacheFactory) Create() (document.SignatureCache, error) {
	if f.cfg.Driver != "redis" {
		f.logger.Info("using in-memory signature cache", zap.Duration("ttl", f.cfg.TTL))
		return NewInMemorySignatureCache(f.cfg.TTL, f.cfg.CleanupInterval), nil
	}

	c, err := NewRedisSignatureCache(f.cfg.Redis, f.cfg.KeyPrefix, f.cfg.TTL)
	if err == nil {
		f.logger.Info("using Redis signature cache", zap.String("addr", f.cfg.Redis.Addr))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for signature cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory signature cache. "+
		"Sessions will not be shared between instances.",
		zap.Error(err),
	)
	return NewInMemorySignatureCache(f.cfg.TTL, f.cfg.CleanupInterval), nil
}
