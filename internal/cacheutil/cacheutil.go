// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EntryExt is the file extension used for every cache entry on disk.
const EntryExt = ".json"

// Dir resolves the base cache directory.
// Precedence:
//  1. FONTSLIM_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/fontslim
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("FONTSLIM_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "fontslim"), true
	}
	return "", false
}

// Enabled returns true unless FONTSLIM_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("FONTSLIM_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// EntryPath returns the path where the entry for the clear-text key lives
// beneath base.
func EntryPath(base, clearKey string) string {
	return filepath.Join(base, EncodeKey(clearKey)+EntryExt)
}

// IsEntryName reports whether name is an entry file name: an encoded key
// followed by EntryExt. Anything else under base is not ours.
func IsEntryName(name string) bool {
	key, ok := strings.CutSuffix(name, EntryExt)
	if !ok || len(key) != 2*md5.Size {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil && strings.ToLower(key) == key
}

// Entries lists the entry files directly beneath base, sorted by name. A
// missing base yields no entries and no error.
func Entries(base string) ([]string, error) {
	des, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, de := range des {
		if de.IsDir() || !IsEntryName(de.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(base, de.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteAtomic writes data to p through a temp file in the same directory
// followed by a rename, so readers never observe a partial entry. Parent
// directories are created as needed.
func WriteAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write to cache: %w", err)
	}

	if err := os.Chmod(tmpName, os.FileMode(0o600)); err != nil { //nolint:mnd
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod cache entry: %w", err)
	}

	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}

// EncodeKey hashes k with MD5 and returns the hex string.
func EncodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
