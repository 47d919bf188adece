package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"DreamAI/pkg/config"
)

var ErrNotFound = errors.New("not found")

// Backend is a string key-value store. Get returns ErrNotFound for a
// missing key.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options selects and configures a Backend.
type Options struct {
	Kind        string // sqlite | mysql | bolt | redis | memory
	SQLitePath  string
	MySQLDSN    string
	BoltPath    string
	RedisAddr   string
	RedisPrefix string
}

// OptionsFromConfig reads the backend settings loaded by config.Load.
func OptionsFromConfig() Options {
	return Options{
		Kind:        config.StorageBackend,
		SQLitePath:  config.SQLitePath,
		MySQLDSN:    config.MySQLDSN,
		BoltPath:    config.BoltPath,
		RedisAddr:   config.RedisAddr,
		RedisPrefix: config.RedisPrefix,
	}
}

func Open(ctx context.Context, o Options) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(strings.TrimSpace(o.Kind)) {
	case "", "sqlite":
		b, err = unwrap(OpenSQLite(o.SQLitePath))
	case "mysql":
		b, err = unwrap(OpenMySQL(o.MySQLDSN))
	case "bolt", "bbolt":
		b, err = unwrap(OpenBolt(o.BoltPath))
	case "redis":
		b, err = unwrap(OpenRedis(ctx, o.RedisAddr, o.RedisPrefix))
	case "memory":
		b = NewMemory()
	default:
		err = fmt.Errorf("unknown storage backend %q", o.Kind)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// unwrap keeps a typed nil pointer out of the Backend interface.
func unwrap[T Backend](b T, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Memory keeps values in a map. Used by tests and STORAGE_BACKEND=memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
