package store

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var (
	// ErrNotFound is returned if there is nothing stored under the key.
	ErrNotFound = model.ErrNotFound

	// ErrZeroKey is returned if an attempt was made to use a 0-length key.
	ErrZeroKey = errors.New("0-length key")
)

// Backend is a flat key-value store for opaque values.
type Backend interface {
	// Get returns the stored value or ErrNotFound.
	Get(key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// LevelDB is a Backend over a goleveldb database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a database in dir.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// NewMemory returns a LevelDB backend kept entirely in memory.
func NewMemory() *LevelDB {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		// Memory storage cannot fail to open
		panic(fmt.Sprintf("failed to open memory store: %v", err))
	}
	return &LevelDB{db: db}
}

func (l *LevelDB) Get(key string) ([]byte, error) {
	value, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (l *LevelDB) Put(key string, value []byte) error {
	if err := l.db.Put([]byte(key), value, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (l *LevelDB) Delete(key string) error {
	if err := l.db.Delete([]byte(key), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
