package cache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/varalys/entroscan/internal/types"
)

// Entry is the cached outcome of scanning one device with one set of
// parameters.
type Entry struct {
	Device     string        `json:"device"`
	Matches    []types.Match `json:"matches"`
	Undersized int           `json:"undersized"`
	Created    time.Time     `json:"created"`
}

// DB maps fingerprints to cached entries.
type DB struct {
	Entries map[string]Entry `json:"entries"`
}

// Params are the scan parameters that change a result.
type Params struct {
	StartByte     int64
	EndByte       int64
	MinSizeBytes  int64
	Threshold     float64
	SamplingFloor int64
}

// Fingerprint hashes the device identity (name, size and the raw bytes of
// its first and last sectors) together with params. A device rewritten in
// the middle keeps its fingerprint; callers that care pass --no-cache.
func Fingerprint(name string, size int64, head, tail []byte, p Params) string {
	d := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	_, _ = d.WriteString(name)
	_, _ = d.Write([]byte{0})
	putInt(size)
	putInt(int64(len(head)))
	_, _ = d.Write(head)
	putInt(int64(len(tail)))
	_, _ = d.Write(tail)
	putInt(p.StartByte)
	putInt(p.EndByte)
	putInt(p.MinSizeBytes)
	putInt(int64(math.Float64bits(p.Threshold)))
	putInt(p.SamplingFloor)
	return fmt.Sprintf("%016x", d.Sum64())
}

// Dir returns $XDG_CACHE_HOME/entroscan, falling back to os.UserCacheDir.
func Dir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		var err error
		base, err = os.UserCacheDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(base, "entroscan"), nil
}

func defaultPath(dir string) string {
	return filepath.Join(dir, "results.json")
}

// Load reads the cache from dir. On error it still returns a usable empty DB.
func Load(dir string) (DB, error) {
	var db DB
	f, err := os.ReadFile(defaultPath(dir))
	if err != nil {
		return DB{Entries: map[string]Entry{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]Entry{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]Entry{}
	}
	return db, nil
}

// Save writes db to dir, creating it if needed.
func Save(dir string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(dir), b, 0o644)
}

// Lookup returns the entry stored under key.
func (db DB) Lookup(key string) (Entry, bool) {
	e, ok := db.Entries[key]
	return e, ok
}

// Put stores e under key.
func (db DB) Put(key string, e Entry) {
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	db.Entries[key] = e
}
