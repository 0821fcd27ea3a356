package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryKVStore keeps values in process memory. It is the default store for
// development and tests.
type MemoryKVStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ KVStore = (*MemoryKVStore)(nil)

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{values: make(map[string]string)}
}

func (m *MemoryKVStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKVStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKVStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileKVStore persists every key into a single JSON file. Each write replaces
// the file atomically through a temporary sibling.
type FileKVStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

var _ KVStore = (*FileKVStore)(nil)

func NewFileKVStore(path string) (*FileKVStore, error) {
	if path == "" {
		return nil, errors.New("file kv store: empty path")
	}
	values, err := readKVFile(path)
	if err != nil {
		return nil, err
	}
	return &FileKVStore{path: path, values: values}, nil
}

func (f *FileKVStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileKVStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := cloneValues(f.values)
	next[key] = value
	if err := writeKVFile(f.path, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *FileKVStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}
	next := cloneValues(f.values)
	delete(next, key)
	if err := writeKVFile(f.path, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func readKVFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return values, nil
}

func writeKVFile(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func cloneValues(src map[string]string) map[string]string {
	out := make(map[string]string, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	return out
}

// RedisKVStore stores values under "<prefix>:<key>". A zero ttl keeps keys
// until they are deleted.
type RedisKVStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ KVStore = (*RedisKVStore)(nil)

func NewRedisKVStore(client *redis.Client, prefix string, ttl time.Duration) *RedisKVStore {
	return &RedisKVStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.GenerateKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.GenerateKey(key), value, r.ttl).Err()
}

func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.GenerateKey(key)).Err()
}

func (r *RedisKVStore) GenerateKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// NamespacedKV scopes every key of an underlying store to one namespace,
// typically a session id.
type NamespacedKV struct {
	kv        KVStore
	namespace string
}

var _ KVStore = (*NamespacedKV)(nil)

func NewNamespacedKV(kv KVStore, namespace string) *NamespacedKV {
	return &NamespacedKV{kv: kv, namespace: namespace}
}

func (n *NamespacedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return n.kv.Get(ctx, n.key(key))
}

func (n *NamespacedKV) Set(ctx context.Context, key, value string) error {
	return n.kv.Set(ctx, n.key(key), value)
}

func (n *NamespacedKV) Delete(ctx context.Context, key string) error {
	return n.kv.Delete(ctx, n.key(key))
}

func (n *NamespacedKV) key(key string) string {
	return n.namespace + ":" + key
}
