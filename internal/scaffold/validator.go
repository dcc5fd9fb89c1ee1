package scaffold

import (
	"os"
	"path/filepath"

	"github.com/dyluth/frontdesk/internal/config"
	"gitlab.com/tozd/go/errors"
)

// CheckExisting checks if frontdesk.yml already exists in dir
// Returns an error if it does, nil otherwise
func CheckExisting(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	return errors.Errorf("front desk already initialized\n\nFound existing: %s\n\n"+
		"Use 'frontdesk init --force' to reinitialize (this will overwrite existing configuration)", path)
}
