// Package scaffold creates the on-disk layout of a new hive instance:
// hive.yml plus the honeycomb directories.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backlinkradio/hive/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// Initialize creates the hive instance structure in the current directory.
// If force is true, an existing hive.yml is replaced. The honeycomb
// directories are never removed; they may hold live state and logs.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	content, err := templatesFS.ReadFile("templates/hive.yml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to read hive.yml template: %w", err)
	}

	if err := createDirectories(); err != nil {
		return err
	}

	if err := os.WriteFile("hive.yml", content, 0o644); err != nil {
		return fmt.Errorf("failed to write hive.yml: %w", err)
	}

	return validateCreatedConfig()
}

// handleForce removes the existing hive.yml if --force was specified
func handleForce() error {
	if _, err := os.Stat("hive.yml"); err == nil {
		fmt.Println("⚠️  Removing existing hive.yml...")
		if err := os.Remove("hive.yml"); err != nil {
			return fmt.Errorf("failed to remove hive.yml: %w", err)
		}
	}
	return nil
}

// createDirectories creates the honeycomb directory structure
func createDirectories() error {
	dirs := []string{
		"honeycomb",
		filepath.Join("honeycomb", "logs"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// validateCreatedConfig confirms the generated hive.yml loads cleanly
func validateCreatedConfig() error {
	if _, err := config.Load("hive.yml"); err != nil {
		return fmt.Errorf("created hive.yml failed validation: %w", err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized hive instance!")
	fmt.Println("\nCreated:")
	fmt.Println("  ✓ hive.yml")
	fmt.Println("  ✓ honeycomb/")
	fmt.Println("  ✓ honeycomb/logs/")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set HIVE_SECRET_KEY (or add it to honeycomb/keys.json)")
	fmt.Println("  2. Add 'honeycomb/' and 'keys.json' to your .gitignore file")
	fmt.Println("  3. Run 'hive check' to evaluate an action against the constitution")
}
