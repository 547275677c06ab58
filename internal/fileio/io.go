// Package fileio implements the write side of the formatter's contract:
// strict text decoding (a lossy decode must abort before the engine runs),
// timestamped backups, and atomic in-place replacement.
package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// backupTimestamp is the layout for backup file names.
const backupTimestamp = "20060102-150405"

func isUTF8Name(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8":
		return true
	}
	return false
}

func lookup(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("fileio: unknown encoding %q", name)
	}
	return enc, nil
}

// Decode converts raw bytes to a string under the named encoding, strictly:
// any byte sequence the encoding cannot represent losslessly is an error,
// never a replacement character. The x/text decoders substitute U+FFFD
// instead of failing, so strictness is enforced by round-tripping.
func Decode(data []byte, encodingName string) (string, error) {
	if isUTF8Name(encodingName) {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("fileio: input is not valid UTF-8")
		}
		return string(data), nil
	}

	enc, err := lookup(encodingName)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("fileio: decode %s: %w", encodingName, err)
	}
	reencoded, err := enc.NewEncoder().Bytes(decoded)
	if err != nil || string(reencoded) != string(data) {
		return "", fmt.Errorf("fileio: input is not valid %s", encodingName)
	}
	return string(decoded), nil
}

// Encode converts text back to the named encoding, failing on any rune the
// target cannot represent.
func Encode(text string, encodingName string) ([]byte, error) {
	if isUTF8Name(encodingName) {
		return []byte(text), nil
	}
	enc, err := lookup(encodingName)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("fileio: encode %s: %w", encodingName, err)
	}
	return out, nil
}

// splitStemExt splits "demo.cfg.old.cfg" into ("demo.cfg.old", ".cfg") so
// inserted markers never replace an interior ".cfg" fragment.
func splitStemExt(path string) (string, string) {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}

// Backup copies path to a timestamped sibling ("<stem>.bak.<ts><ext>"),
// preserving the file mode, and returns the backup path.
func Backup(path string) (string, error) {
	stem, ext := splitStemExt(path)
	bak := fmt.Sprintf("%s.bak.%s%s", stem, time.Now().Format(backupTimestamp), ext)

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = src.Close()
	}()

	info, err := src.Stat()
	if err != nil {
		return "", err
	}
	dst, err := os.OpenFile(bak, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(bak)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return bak, nil
}

// AtomicWrite replaces the contents of path without ever exposing a partial
// file: data goes to "<stem>.tmp.<pid><ext>" in the same directory, then the
// temp file is renamed over the target.
func AtomicWrite(path string, data []byte) error {
	stem, ext := splitStemExt(path)
	tmp := fmt.Sprintf("%s.tmp.%d%s", stem, os.Getpid(), ext)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
