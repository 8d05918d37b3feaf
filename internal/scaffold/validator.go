package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting checks if a hive.yml already exists in the current directory.
// Returns an error if it does, nil otherwise.
func CheckExisting() error {
	if _, err := os.Stat("hive.yml"); err == nil {
		return fmt.Errorf("instance already initialized\n\nFound existing: hive.yml\n\nUse 'hive init --force' to reinitialize (this will overwrite existing configuration)")
	}
	return nil
}
