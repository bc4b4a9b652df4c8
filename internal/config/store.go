package config

import (
	"encoding/hex"
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/bolt"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

// Backend is an opened snapshot store with its optional distributed locker.
type Backend struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend's connections or files.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the configured snapshot store. Redis also provides a
// locker so sessions are serialized across replicas.
func (c *Config) OpenStore() (*Backend, error) {
	b := &Backend{}
	switch c.Store.Driver {
	case "", "memory":
		b.Store = memory.NewStore()
	case "redis":
		if c.Store.Address == "" {
			return nil, fmt.Errorf("store: redis requires an address")
		}
		prefix := c.Store.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		opts := []redis.Option{redis.WithPrefix(prefix)}
		if c.Store.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Store.TTL))
		}
		s := redis.New(c.Store.Address, c.Store.Password, c.Store.DB, opts...)
		b.Store = s
		b.Locker = redis.NewLocker(s.Client(), prefix)
		b.close = s.Close
	case "bolt":
		if c.Store.Path == "" {
			return nil, fmt.Errorf("store: bolt requires a path")
		}
		s, err := bolt.Open(c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		b.Store = s
		b.close = s.Close
	case "file":
		b.Store = file.New(c.Store.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}

	if c.Store.EncryptionKey == "" {
		return b, nil
	}
	enc, err := c.encryption()
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, middleware.NewEncryptionMiddleware(enc))
	return b, nil
}

func (c *Config) encryption() (middleware.EncryptionConfig, error) {
	var enc middleware.EncryptionConfig
	key, err := decodeKey(c.Store.EncryptionKey)
	if err != nil {
		return enc, fmt.Errorf("store: encryption_key: %w", err)
	}
	enc.ActiveKey = key
	for i, k := range c.Store.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return enc, fmt.Errorf("store: fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}
