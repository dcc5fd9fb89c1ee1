// Package disk reads and writes the front-desk folder tree: one JSON file per
// check-in, checkout, reservation, rent payment and expense, grouped into date
// folders, plus scanned identity documents and a shared snapshot.
package disk

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Folder names at the top of the tree.
const (
	ScannedFolder = "ScannedDocuments"
	SharedFolder  = "Shared"
	SnapshotFile  = "sharedSnapshot.json"
)

var (
	// ErrNotFound is returned when a record file does not exist.
	ErrNotFound = errors.Base("record file not found")

	// ErrNoBase is returned when the store has no base folder to work in.
	ErrNoBase = errors.Base("storage folder not connected")
)

// Store is a folder tree rooted at a base directory.
// Store methods are safe for concurrent use as long as callers do not write the same file at once.
type Store struct {
	base string
}

// New returns a store rooted at base. An empty base yields a store that is never Available.
func New(base string) *Store {
	return &Store{base: base}
}

// Base returns the root directory.
func (s *Store) Base() string {
	return s.base
}

// Available reports whether the base folder exists.
func (s *Store) Available() bool {
	if s == nil || s.base == "" {
		return false
	}
	fi, err := os.Stat(s.base)
	return err == nil && fi.IsDir()
}

// Folders lists the fixed top-level folders of a tree.
func Folders() []string {
	folders := make([]string, 0, len(desk.Collections)+2)
	for _, c := range desk.Collections {
		folders = append(folders, c.Folder())
	}
	return append(folders, ScannedFolder, SharedFolder)
}

// Init creates the base folder and the fixed top-level folders.
func (s *Store) Init() error {
	if s.base == "" {
		return ErrNoBase
	}
	for _, f := range Folders() {
		if err := os.MkdirAll(filepath.Join(s.base, f), 0o755); err != nil {
			return errors.Errorf("failed to create %s folder: %w", f, err)
		}
	}
	return nil
}

func (s *Store) path(parts ...string) string {
	return filepath.Join(append([]string{s.base}, parts...)...)
}

func (s *Store) rel(path string) string {
	r, err := filepath.Rel(s.base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}

func (s *Store) ensure() error {
	if !s.Available() {
		return ErrNoBase
	}
	return nil
}

// writeJSON writes v as indented JSON via a temp file and rename.
func writeJSON(dir, file string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Errorf("failed to encode %s: %w", file, err)
	}

	path := filepath.Join(dir, file)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", errors.Errorf("failed to write %s: %w", file, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Errorf("failed to write %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Errorf("failed to write %s: %w", file, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Errorf("failed to write %s: %w", file, err)
	}
	return path, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.WithStack(ErrNotFound)
		}
		return errors.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Errorf("malformed %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Record is a decoded file from a date folder.
type Record[T any] struct {
	DateFolder string
	File       string
	ModTime    time.Time
	Data       T
}

// listRecords decodes every .json file one level below root, in folder then file name order.
// Malformed files are logged and skipped. A missing root yields no records.
func listRecords[T any](ctx context.Context, root string, keep func(dateFolder string) bool) ([]Record[T], error) {
	logger := zerolog.Ctx(ctx)

	days, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Errorf("failed to list %s: %w", filepath.Base(root), err)
	}

	var out []Record[T]
	for _, day := range days {
		if !day.IsDir() || (keep != nil && !keep(day.Name())) {
			continue
		}

		files, err := os.ReadDir(filepath.Join(root, day.Name()))
		if err != nil {
			logger.Warn().Err(err).Str("folder", day.Name()).Msg("skipping unreadable date folder")
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".json") {
				continue
			}

			path := filepath.Join(root, day.Name(), f.Name())
			var v T
			if err := readJSON(path, &v); err != nil {
				logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable record")
				continue
			}

			rec := Record[T]{DateFolder: day.Name(), File: f.Name(), Data: v}
			if info, err := f.Info(); err == nil {
				rec.ModTime = info.ModTime()
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// NewestFirst sorts records by modification time, newest first.
func NewestFirst[T any](records []Record[T]) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ModTime.After(records[j].ModTime)
	})
}

// DeleteEntry removes a record file from a collection's date folder.
func (s *Store) DeleteEntry(coll desk.Collection, dateFolder, file string) error {
	if err := s.ensure(); err != nil {
		return err
	}
	if err := checkSegment(dateFolder); err != nil {
		return err
	}
	if err := checkSegment(file); err != nil {
		return err
	}

	err := os.Remove(s.path(coll.Folder(), dateFolder, file))
	if errors.Is(err, os.ErrNotExist) {
		return errors.WithStack(ErrNotFound)
	}
	if err != nil {
		return errors.Errorf("failed to delete %s: %w", file, err)
	}
	return nil
}

// checkSegment rejects path segments that would escape their folder.
func checkSegment(seg string) error {
	if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
		return errors.Errorf("invalid path segment %q", seg)
	}
	return nil
}
