// Package scaffold creates the starter files for a new Tessera project:
// tessera.yml and a sample session.yml, written into the current directory.
package scaffold

import (
	"embed"
	"fmt"
	"os"

	"github.com/tessera3d/tessera/internal/config"
	"github.com/tessera3d/tessera/internal/replay"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization.
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates the Tessera project files in the current directory.
// If force is true, existing tessera.yml and session.yml are removed first.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := writeFiles(files); err != nil {
		return err
	}

	return validateCreatedFiles()
}

// handleForce removes existing project files if --force was specified.
func handleForce() error {
	for _, path := range []string{"tessera.yml", "session.yml"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fmt.Printf("⚠️  Removing existing %s...\n", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// getTemplateFiles reads the embedded templates.
func getTemplateFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	for _, tmpl := range []struct {
		name string
		path string
	}{
		{"templates/tessera.yml.tmpl", "tessera.yml"},
		{"templates/session.yml.tmpl", "session.yml"},
	} {
		content, err := templatesFS.ReadFile(tmpl.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", tmpl.path, err)
		}
		files = append(files, FileInfo{
			Path:        tmpl.path,
			Content:     content,
			Permissions: 0644,
		})
	}

	return files, nil
}

// writeFiles writes all template files to disk.
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the created files through the same parsers the
// commands use, so a broken template fails init rather than a later command.
func validateCreatedFiles() error {
	if _, err := config.Load("tessera.yml"); err != nil {
		return fmt.Errorf("created tessera.yml failed validation: %w", err)
	}
	if _, err := replay.LoadScript("session.yml"); err != nil {
		return fmt.Errorf("created session.yml failed validation: %w", err)
	}
	return nil
}

// PrintSuccess prints the success message with created files.
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized Tessera project!")
	fmt.Println("\nCreated:")
	fmt.Println("  ✓ tessera.yml")
	fmt.Println("  ✓ session.yml")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Start Redis (for example 'docker run -p 6379:6379 redis')")
	fmt.Println("  2. Customize tessera.yml with your briefcase name and models")
	fmt.Println("  3. Run 'tessera replay' to walk the sample session locally")
	fmt.Println("  4. Run 'tessera publish' and 'tessera watch' in two terminals to follow it live")
}
