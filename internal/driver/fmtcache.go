package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when VerdictPayload format changes.
const verdictSchemaVersion uint16 = 1

// Digest identifies one (options, content) pair.
type Digest [sha256.Size]byte

// VerdictKey hashes the option fingerprint together with the file content.
// Any option change invalidates every cached verdict.
func VerdictKey(optionsFingerprint string, content []byte) Digest {
	h := sha256.New()
	h.Write([]byte(optionsFingerprint))
	h.Write([]byte{0})
	h.Write(content)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// VerdictPayload records that a given content was already clean under a
// given option set, so an unchanged file can be skipped entirely.
// Only clean verdicts are stored: anything else must be recomputed.
type VerdictPayload struct {
	Schema    uint16
	Clean     bool
	LineCount uint32
	CheckedAt int64
}

// VerdictCache хранит чистые вердикты по хэшу содержимого на диске.
// Thread-safe for concurrent access.
type VerdictCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenVerdictCache initializes the cache at the standard XDG location.
func OpenVerdictCache(app string) (*VerdictCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &VerdictCache{dir: dir}, nil
}

// OpenVerdictCacheAt initializes the cache at an explicit directory.
func OpenVerdictCacheAt(dir string) (*VerdictCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &VerdictCache{dir: dir}, nil
}

func (c *VerdictCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "verdicts", hexKey+".mp")
}

// Put serializes and writes a payload. Writes go through a temp file plus
// rename, so a concurrent reader never sees a torn entry.
func (c *VerdictCache) Put(key Digest, payload *VerdictPayload) error {
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
	tmpName := f.Name()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Get reads a payload. A missing entry is (false, nil), not an error.
func (c *VerdictCache) Get(key Digest, out *VerdictPayload) (bool, error) {
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
	defer func() {
		_ = f.Close()
	}()

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != verdictSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after option-fingerprint changes.
func (c *VerdictCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// cleanPayload builds the verdict stored after a file is known clean.
func cleanPayload(lineCount int) *VerdictPayload {
	lines, err := safecast.Conv[uint32](lineCount)
	if err != nil {
		lines = 0
	}
	return &VerdictPayload{
		Schema:    verdictSchemaVersion,
		Clean:     true,
		LineCount: lines,
		CheckedAt: time.Now().Unix(),
	}
}
