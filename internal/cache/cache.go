// Package cache stores per-file analysis summaries on disk so unchanged
// files can be skipped.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// schemaVersion must be bumped whenever Summary changes shape.
const schemaVersion uint16 = 1

type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Key hashes file content together with the options that affect the
// analysis result.
func Key(content []byte, options string) Digest {
	h := sha256.New()
	_, _ = h.Write(content)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(options))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Summary is what a check run remembers about one file.
type Summary struct {
	Schema uint16 `msgpack:"schema"`
	Path   string `msgpack:"path"`

	Funcs      int    `msgpack:"funcs"`
	QubitCount uint64 `msgpack:"qubits"`
	Unreliable bool   `msgpack:"unreliable"`

	Must     int `msgpack:"must"`
	May      int `msgpack:"may"`
	Errors   int `msgpack:"errors"`
	Warnings int `msgpack:"warnings"`
	Segments int `msgpack:"segments"`
}

// Disk is a directory of msgpack summaries. Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/app, or ~/.cache/app.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open creates dir if needed.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (c *Disk) Dir() string { return c.dir }

func (c *Disk) pathFor(key Digest) string {
	return filepath.Join(c.dir, "summaries", key.String()+".mp")
}

// Put writes s atomically under key. A nil cache ignores the call.
func (c *Disk) Put(key Digest, s *Summary) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload := *s
	payload.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the summary stored under key. Entries written with another
// schema are misses.
func (c *Disk) Get(key Digest, out *Summary) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var s Summary
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return false, fmt.Errorf("cache: %s: %w", key, err)
	}
	if s.Schema != schemaVersion {
		return false, nil
	}
	*out = s
	return true, nil
}

// DropAll removes every entry.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
