// Package catalog caches JPEG scan results of source files in a badger database,
// so that repeated runs over the same files skip the streaming scan.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/vearutop/cr3"
)

const (
	// Ref: https://godoc.org/github.com/dgraph-io/badger#DB.RunValueLogGC
	gcDiscardRatio = 0.5
	gcInterval     = 10 * time.Minute
)

var nsRanges = []byte("ranges")

// Catalog is a scan result cache.
type Catalog struct {
	db     *badger.DB
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

// Open opens or creates the catalog in dir; an empty dir keeps it in memory.
func Open(dir string, logger *log.Logger) (*Catalog, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c := &Catalog{db: db, logger: logger}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	if dir != "" {
		go c.runGC()
	}
	return c, nil
}

// Key identifies a file version by absolute path, size and modification time.
func Key(path string, size int64, modTime time.Time) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())
}

// Ranges returns the cached scan result for key.
func (c *Catalog) Ranges(key string) ([]cr3.JPEGRange, bool, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(namespaceKey(nsRanges, []byte(key)))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	ranges := []cr3.JPEGRange{}
	if err := json.Unmarshal(value, &ranges); err != nil {
		return nil, false, fmt.Errorf("decode cached ranges: %w", err)
	}
	return ranges, true, nil
}

// StoreRanges records the scan result for key.
func (c *Catalog) StoreRanges(key string, ranges []cr3.JPEGRange) error {
	if ranges == nil {
		ranges = []cr3.JPEGRange{}
	}
	value, err := json.Marshal(ranges)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(namespaceKey(nsRanges, []byte(key)), value))
	})
}

// Close stops the garbage collector and closes the database.
func (c *Catalog) Close() error {
	c.cancel()
	return c.db.Close()
}

func (c *Catalog) runGC() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := c.db.RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && c.logger != nil {
				c.logger.Printf("failed to GC catalog: %v", err)
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func namespaceKey(namespace, key []byte) []byte {
	prefix := append(append([]byte{}, namespace...), '/')
	return append(prefix, key...)
}
