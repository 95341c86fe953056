package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/amishk599/jobscout/internal/model"
)

// cacheFile is the on-disk layout of the proxy cache.
type cacheFile struct {
	Timestamp float64      `json:"timestamp"` // epoch seconds
	Proxies   []cacheEntry `json:"proxies"`
}

type cacheEntry struct {
	PlaywrightFormat struct {
		Server   string `json:"server"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"playwright_format"`
	Location string `json:"location"`
}

// FileCache stores proxy snapshots as a JSON file. Access is serialised
// across processes by a lock file next to it and writes are atomic.
type FileCache struct {
	path string
	lock *flock.Flock
}

// NewFileCache returns a cache backed by the file at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the cache file location.
func (c *FileCache) Path() string {
	return c.path
}

// Get reads the snapshot. A missing file is a miss; a malformed one is an error.
func (c *FileCache) Get() (Snapshot, bool, error) {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return Snapshot{}, false, fmt.Errorf("create cache dir: %w", err)
	}
	if err := c.lock.RLock(); err != nil {
		return Snapshot{}, false, fmt.Errorf("lock proxy cache: %w", err)
	}
	defer c.lock.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read proxy cache: %w", err)
	}

	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Snapshot{}, false, fmt.Errorf("parse proxy cache: %w", err)
	}

	snap := Snapshot{FetchedAt: fromEpoch(f.Timestamp)}
	for _, e := range f.Proxies {
		snap.Proxies = append(snap.Proxies, model.ProxyCredential{
			Server:   e.PlaywrightFormat.Server,
			Username: e.PlaywrightFormat.Username,
			Password: e.PlaywrightFormat.Password,
			Location: e.Location,
		})
	}
	return snap, true, nil
}

// Put writes the snapshot to a temp file in the same directory and renames it into place.
func (c *FileCache) Put(s Snapshot) error {
	f := cacheFile{
		Timestamp: float64(s.FetchedAt.UnixNano()) / float64(time.Second),
		Proxies:   make([]cacheEntry, 0, len(s.Proxies)),
	}
	for _, p := range s.Proxies {
		var e cacheEntry
		e.PlaywrightFormat.Server = p.Server
		e.PlaywrightFormat.Username = p.Username
		e.PlaywrightFormat.Password = p.Password
		e.Location = p.Location
		f.Proxies = append(f.Proxies, e)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode proxy cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock proxy cache: %w", err)
	}
	defer c.lock.Unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace proxy cache: %w", err)
	}
	return nil
}

func fromEpoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
