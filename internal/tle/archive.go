package tle

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyArchive is returned when the archive directory holds no TLE files.
var ErrEmptyArchive = errors.New("no TLE files in archive")

// Archive is a directory of TLE snapshots named tle_<unix seconds>.txt.
type Archive struct {
	dir      string
	maxFiles int
	logger   *slog.Logger
}

// NewArchive opens an archive rooted at dir. Write keeps at most maxFiles
// snapshots; zero or less means unlimited.
func NewArchive(dir string, maxFiles int, logger *slog.Logger) *Archive {
	return &Archive{
		dir:      dir,
		maxFiles: maxFiles,
		logger:   logger,
	}
}

// Write saves a snapshot taken at ts and prunes the oldest files beyond maxFiles.
func (a *Archive) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	path := filepath.Join(a.dir, fmt.Sprintf("tle_%d.txt", ts.Unix()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing archive file: %w", err)
	}
	return a.prune()
}

// Nearest returns the path and timestamp of the snapshot closest to t.
func (a *Archive) Nearest(t time.Time) (string, time.Time, error) {
	files, err := a.listFiles()
	if err != nil {
		return "", time.Time{}, err
	}
	if len(files) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: %s", ErrEmptyArchive, a.dir)
	}

	// First snapshot at or after t; compare with its predecessor.
	i := sort.Search(len(files), func(i int) bool { return !files[i].ts.Before(t) })
	switch {
	case i == len(files):
		i--
	case i > 0 && t.Sub(files[i-1].ts) <= files[i].ts.Sub(t):
		i--
	}
	return filepath.Join(a.dir, files[i].name), files[i].ts, nil
}

// Load parses the snapshot nearest t and returns the entry for noradID with
// the epoch closest to t.
func (a *Archive) Load(noradID int, t time.Time) (TLEEntry, error) {
	path, ts, err := a.Nearest(t)
	if err != nil {
		return TLEEntry{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("reading archive file: %w", err)
	}

	entries, err := Parse(bytes.NewReader(data), a.logger)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	entry, err := Nearest(entries, noradID, t)
	if err != nil {
		return TLEEntry{}, fmt.Errorf("%s: %w", path, err)
	}

	a.logger.Debug("selected TLE",
		"file", filepath.Base(path),
		"snapshot", ts.UTC().Format(time.RFC3339),
		"norad_id", noradID,
		"epoch", entry.Epoch.Format(time.RFC3339),
		"epoch_offset_hours", entry.Epoch.Sub(t).Hours(),
	)
	return entry, nil
}

type archiveFile struct {
	name string
	ts   time.Time
}

func (a *Archive) listFiles() ([]archiveFile, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing archive dir: %w", err)
	}

	var files []archiveFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "tle_") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		tsStr := strings.TrimSuffix(strings.TrimPrefix(name, "tle_"), ".txt")
		unix, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, archiveFile{name: name, ts: time.Unix(unix, 0).UTC()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}

func (a *Archive) prune() error {
	if a.maxFiles <= 0 {
		return nil
	}
	files, err := a.listFiles()
	if err != nil {
		return err
	}
	if len(files) <= a.maxFiles {
		return nil
	}

	for _, f := range files[:len(files)-a.maxFiles] {
		if err := os.Remove(filepath.Join(a.dir, f.name)); err != nil {
			return fmt.Errorf("pruning archive file %s: %w", f.name, err)
		}
	}
	return nil
}
