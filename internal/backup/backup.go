// file: internal/backup/backup.go
// version: 2.0.0
// guid: 8f9e0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

// Package backup writes and restores compressed snapshots of the reader's
// data: a consistent copy of the SQLite object store plus a dump of every
// key in the legacy key-value store.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/speed-reader/internal/logger"
)

const (
	// DatabaseEntry is the archive member holding the object store copy.
	DatabaseEntry = "speedreader.db"
	// LegacyEntry is the archive member holding the legacy key dump.
	LegacyEntry = "legacy.json"

	archiveSuffix  = ".tar.gz"
	checksumSuffix = ".sha256"
	filePrefix     = "speedreader_"
	timeLayout     = "20060102_150405"
)

var (
	// ErrChecksumMismatch is returned when an archive does not match its
	// recorded checksum.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
	// ErrInvalidArchive is returned for archives that are not snapshots.
	ErrInvalidArchive = errors.New("invalid backup archive")
)

var log = logger.ForModule("backup")

// KeyValueSource is the read side of the legacy store.
type KeyValueSource interface {
	Keys() ([]string, error)
	Get(key string) (string, bool, error)
}

// KeyValueSink is the write side of the legacy store.
type KeyValueSink interface {
	Set(key, value string) error
}

// Info describes one snapshot archive.
type Info struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum"`
	LegacyKeys int       `json:"legacy_keys"`
	CreatedAt  time.Time `json:"created_at"`
}

// Config holds snapshot settings.
type Config struct {
	Dir              string
	MaxBackups       int
	CompressionLevel int
}

// DefaultConfig returns the default settings rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// Create snapshots db and the legacy keys into cfg.Dir. legacy may be nil.
func Create(ctx context.Context, db *sql.DB, legacy KeyValueSource, cfg Config) (*Info, error) {
	if db == nil {
		return nil, errors.New("object store is not open")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := time.Now()
	name := filePrefix + now.Format(timeLayout) + archiveSuffix
	path := filepath.Join(cfg.Dir, name)
	if _, err := os.Stat(path); err == nil {
		name = fmt.Sprintf("%s%s_%03d%s", filePrefix, now.Format(timeLayout), now.Nanosecond()/1e6, archiveSuffix)
		path = filepath.Join(cfg.Dir, name)
	}

	tmp, err := os.MkdirTemp(cfg.Dir, ".snapshot-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	dbCopy := filepath.Join(tmp, DatabaseEntry)
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dbCopy); err != nil {
		return nil, fmt.Errorf("failed to copy object store: %w", err)
	}

	dump, err := dumpLegacy(legacy)
	if err != nil {
		return nil, err
	}
	dumpJSON, err := json.Marshal(dump)
	if err != nil {
		return nil, fmt.Errorf("failed to encode legacy keys: %w", err)
	}

	if err := writeArchive(path, cfg.CompressionLevel, dbCopy, dumpJSON, now); err != nil {
		os.Remove(path)
		return nil, err
	}

	checksum, err := fileChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}
	if err := os.WriteFile(path+checksumSuffix, []byte(checksum+"  "+name+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write checksum: %w", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	if cfg.MaxBackups > 0 {
		if _, err := Prune(cfg.Dir, cfg.MaxBackups); err != nil {
			log.Warn("failed to prune old backups: %v", err)
		}
	}

	log.Info("created backup %s (%d bytes, %d legacy keys)", name, fi.Size(), len(dump))
	return &Info{
		Filename:   name,
		Path:       path,
		Size:       fi.Size(),
		Checksum:   checksum,
		LegacyKeys: len(dump),
		CreatedAt:  now,
	}, nil
}

func dumpLegacy(src KeyValueSource) (map[string]string, error) {
	dump := map[string]string{}
	if src == nil {
		return dump, nil
	}
	keys, err := src.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy keys: %w", err)
	}
	for _, k := range keys {
		v, ok, err := src.Get(k)
		if err != nil {
			return nil, fmt.Errorf("failed to read legacy key %s: %w", k, err)
		}
		if ok {
			dump[k] = v
		}
	}
	return dump, nil
}

func writeArchive(path string, level int, dbFile string, legacyJSON []byte, modTime time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	if err := addFile(tw, dbFile, DatabaseEntry); err != nil {
		return fmt.Errorf("failed to archive object store: %w", err)
	}
	hdr := &tar.Header{
		Name:    LegacyEntry,
		Mode:    0o644,
		Size:    int64(len(legacyJSON)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to archive legacy keys: %w", err)
	}
	if _, err := tw.Write(legacyJSON); err != nil {
		return fmt.Errorf("failed to archive legacy keys: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return f.Close()
}

func addFile(tw *tar.Writer, path, name string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(tw, src)
	return err
}

// Verify compares an archive against its checksum file. Archives without a
// checksum file are accepted.
func Verify(path string) error {
	raw, err := os.ReadFile(path + checksumSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty checksum file", ErrChecksumMismatch)
	}
	got, err := fileChecksum(path)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	if got != fields[0] {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

// Extract verifies an archive and unpacks its members into targetDir.
// It returns the extracted file paths.
func Extract(path, targetDir string) ([]string, error) {
	if err := Verify(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", targetDir, err)
	}

	var written []string
	err := walkArchive(path, func(hdr *tar.Header, r io.Reader) error {
		target := filepath.Join(targetDir, hdr.Name)
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// RestoreLegacy writes the legacy keys stored in an archive into dst and
// returns how many keys were written.
func RestoreLegacy(path string, dst KeyValueSink) (int, error) {
	if err := Verify(path); err != nil {
		return 0, err
	}
	var dump map[string]string
	found := false
	err := walkArchive(path, func(hdr *tar.Header, r io.Reader) error {
		if hdr.Name != LegacyEntry {
			return nil
		}
		found = true
		return json.NewDecoder(r).Decode(&dump)
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidArchive, LegacyEntry)
	}

	keys := make([]string, 0, len(dump))
	for k := range dump {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if err := dst.Set(k, dump[k]); err != nil {
			return i, fmt.Errorf("failed to restore %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// walkArchive calls fn for every regular snapshot member of the archive.
func walkArchive(path string, fn func(*tar.Header, io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if hdr.Name != DatabaseEntry && hdr.Name != LegacyEntry {
			return fmt.Errorf("%w: unexpected member %q", ErrInvalidArchive, hdr.Name)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

// List returns the snapshots in dir, newest first.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		created := fi.ModTime()
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), archiveSuffix)
		if len(stamp) >= len(timeLayout) {
			if t, err := time.ParseInLocation(timeLayout, stamp[:len(timeLayout)], time.Local); err == nil {
				created = t
			}
		}
		var checksum string
		if raw, err := os.ReadFile(path + checksumSuffix); err == nil {
			if f := strings.Fields(string(raw)); len(f) > 0 {
				checksum = f[0]
			}
		}
		backups = append(backups, Info{
			Filename:  name,
			Path:      path,
			Size:      fi.Size(),
			Checksum:  checksum,
			CreatedAt: created,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].Filename > backups[j].Filename
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Delete removes an archive and its checksum file.
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	if err := os.Remove(path + checksumSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete checksum: %w", err)
	}
	return nil
}

// Prune keeps the newest keep snapshots in dir and returns how many were
// deleted.
func Prune(dir string, keep int) (int, error) {
	backups, err := List(dir)
	if err != nil {
		return 0, err
	}
	if keep < 0 || len(backups) <= keep {
		return 0, nil
	}
	removed := 0
	for _, b := range backups[keep:] {
		if err := Delete(b.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
