package disk

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// ScanFile is a scanned identity document, addressed relative to ScannedDocuments.
type ScanFile struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// SaveScan copies a scanned document into ScannedDocuments/<yyyy>/<mon>/<dd-mm-yyyy>/<name>-<room>-<date>.<ext>.
func (s *Store) SaveScan(name string, room int, src io.Reader, ext string, at time.Time) (ScanFile, error) {
	if err := s.ensure(); err != nil {
		return ScanFile{}, err
	}

	segments := ScanDir(at)
	dir := s.path(append([]string{ScannedFolder}, segments...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ScanFile{}, errors.Errorf("failed to create scan folder: %w", err)
	}

	file := ScanFileName(name, room, dateFolder(at), ext)
	dst, err := os.Create(filepath.Join(dir, file))
	if err != nil {
		return ScanFile{}, errors.Errorf("failed to create scan file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return ScanFile{}, errors.Errorf("failed to write scan file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return ScanFile{}, errors.Errorf("failed to write scan file: %w", err)
	}

	return ScanFile{Path: path.Join(append(segments, file)...), Name: file}, nil
}

// ReuseScan copies an earlier scan into the folder for at, renamed for the new stay.
func (s *Store) ReuseScan(prev ScanFile, name string, room int, at time.Time) (ScanFile, error) {
	src, err := s.OpenScan(prev.Path)
	if err != nil {
		return ScanFile{}, err
	}
	defer src.Close()

	return s.SaveScan(name, room, src, path.Ext(prev.Name), at)
}

// OpenScan opens a scan by its path relative to ScannedDocuments.
func (s *Store) OpenScan(rel string) (io.ReadCloser, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || !fs.ValidPath(clean) {
		return nil, errors.Errorf("invalid scan path %q", rel)
	}

	f, err := os.Open(s.path(ScannedFolder, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.WithDetails(ErrNotFound, "scan", rel)
	}
	if err != nil {
		return nil, errors.Errorf("failed to open scan: %w", err)
	}
	return f, nil
}

// ListScans returns every file under ScannedDocuments, sorted by path.
func (s *Store) ListScans() ([]ScanFile, error) {
	return s.globScans("**")
}

// FindScans returns scans whose file name contains the sanitized query, ignoring case.
func (s *Store) FindScans(query string) ([]ScanFile, error) {
	needle := strings.ToLower(SafeName(strings.TrimSpace(query)))
	if needle == "" {
		return nil, nil
	}

	all, err := s.globScans("**")
	if err != nil {
		return nil, err
	}

	var out []ScanFile
	for _, f := range all {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ScansOn returns the scans filed under the day of at.
func (s *Store) ScansOn(at time.Time) ([]ScanFile, error) {
	return s.globScans(path.Join(ScanDir(at)...) + "/*")
}

func (s *Store) globScans(pattern string) ([]ScanFile, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	root := s.path(ScannedFolder)
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("failed to search scanned documents: %w", err)
	}
	sort.Strings(matches)

	out := make([]ScanFile, 0, len(matches))
	for _, m := range matches {
		out = append(out, ScanFile{Path: m, Name: path.Base(m)})
	}
	return out, nil
}
