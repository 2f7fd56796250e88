package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBStore is an embedded Store for single-node deployments that
// do not run Redis. Entries are JSON-encoded under "<namespace>:<key>".
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (or creates) a LevelDB-backed store at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

func levelKey(ns Namespace, key Key) []byte {
	return []byte(ns.String() + ":" + key.String())
}

// Get retrieves an entry. Returns ErrCacheMiss if the key doesn't exist.
func (s *LevelDBStore) Get(ctx context.Context, ns Namespace, key Key) (*Entry, error) {
	data, err := s.db.Get(levelKey(ns, key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			CacheMisses.WithLabelValues(ns.Family).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("leveldb get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(ns.Family).Inc()
	return &entry, nil
}

// Set stores an entry, overwriting any existing one.
func (s *LevelDBStore) Set(ctx context.Context, ns Namespace, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.db.Put(levelKey(ns, key), data, nil); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("leveldb put: %w", err)
	}

	CacheWriteBytes.Add(float64(len(data)))
	return nil
}

// Delete removes an entry. Idempotent.
func (s *LevelDBStore) Delete(ctx context.Context, ns Namespace, key Key) error {
	if err := s.db.Delete(levelKey(ns, key), nil); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

// Namespaces enumerates all namespaces holding at least one entry.
func (s *LevelDBStore) Namespaces(ctx context.Context) ([]Namespace, error) {
	seen := make(map[string]struct{})
	var out []Namespace

	it := s.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		k := string(it.Key())
		i := strings.Index(k, ":")
		if i <= 0 {
			continue
		}
		name := k[:i]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if ns, ok := ParseNamespace(name); ok {
			out = append(out, ns)
		}
	}
	if err := it.Error(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	return out, nil
}

// DropNamespace deletes every entry in the namespace in one batch.
func (s *LevelDBStore) DropNamespace(ctx context.Context, ns Namespace) error {
	batch := new(leveldb.Batch)

	it := s.db.NewIterator(util.BytesPrefix([]byte(ns.String()+":")), nil)
	for it.Next() {
		k := make([]byte, len(it.Key()))
		copy(k, it.Key())
		batch.Delete(k)
	}
	err := it.Error()
	it.Release()
	if err != nil {
		CacheErrors.WithLabelValues("drop").Inc()
		return fmt.Errorf("leveldb iterate: %w", err)
	}

	if err := s.db.Write(batch, nil); err != nil {
		CacheErrors.WithLabelValues("drop").Inc()
		return fmt.Errorf("leveldb write: %w", err)
	}
	return nil
}

// Len reports the number of entries in the namespace.
func (s *LevelDBStore) Len(ctx context.Context, ns Namespace) (int, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(ns.String()+":")), nil)
	defer it.Release()

	n := 0
	for it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, fmt.Errorf("leveldb iterate: %w", err)
	}
	return n, nil
}

// Keys lists the key strings stored in the namespace.
func (s *LevelDBStore) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	prefix := ns.String() + ":"
	it := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key())[len(prefix):])
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("leveldb iterate: %w", err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

var _ Store = (*LevelDBStore)(nil)
