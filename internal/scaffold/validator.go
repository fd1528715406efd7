package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/regent/internal/config"
)

// CheckExisting checks if regent.yml already exists in dir
// Returns an error if it does, nil otherwise
func CheckExisting(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, config.DefaultPath)); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'regent init --force' to reinitialize (this will overwrite existing configuration)", config.DefaultPath)
	}
	return nil
}
