// Package scaffold creates a new front-desk setup: frontdesk.yml and, when a
// storage folder is given, the empty folder tree.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dyluth/frontdesk/internal/config"
	"github.com/dyluth/frontdesk/internal/disk"
	"gitlab.com/tozd/go/errors"
)

// Options controls Initialize.
type Options struct {
	Dir     string // where frontdesk.yml is written
	Hotel   string
	BaseDir string // folder tree root, empty for none
	Force   bool   // overwrite an existing frontdesk.yml
}

// Result lists what Initialize created.
type Result struct {
	ConfigPath string
	BaseDir    string
	Folders    []string
}

// Initialize writes frontdesk.yml and creates the folder tree.
// Without Force an existing frontdesk.yml is an error.
func Initialize(opts Options) (*Result, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Hotel == "" {
		opts.Hotel = "default"
	}

	if !opts.Force {
		if err := CheckExisting(opts.Dir); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(opts.Dir, config.DefaultPath)
	content := fmt.Sprintf(config.Template, strconv.Quote(opts.Hotel), strconv.Quote(opts.BaseDir))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, errors.Errorf("failed to write %s: %w", path, err)
	}

	// Validate created file
	if _, err := config.Load(path); err != nil {
		_ = os.Remove(path)
		return nil, errors.Errorf("created %s is not valid: %w", config.DefaultPath, err)
	}

	res := &Result{ConfigPath: path, BaseDir: opts.BaseDir}
	if opts.BaseDir != "" {
		store := disk.New(opts.BaseDir)
		if err := store.Init(); err != nil {
			return nil, errors.Errorf("failed to create folder tree: %w", err)
		}
		res.Folders = disk.Folders()
	}
	return res, nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(w io.Writer, res *Result) {
	fmt.Fprintln(w, "\n✅ Successfully initialized front desk!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", res.ConfigPath)
	for _, f := range res.Folders {
		fmt.Fprintf(w, "  ✓ %s\n", filepath.Join(res.BaseDir, f))
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Check the room grid and rates in frontdesk.yml")
	fmt.Fprintln(w, "  2. Start Redis, then run 'frontdesk serve'")
	fmt.Fprintln(w, "  3. Run 'frontdesk rooms' to see the grid")
}
