package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting returns an error when tessera.yml or session.yml already
// exist in the current directory, nil otherwise.
func CheckExisting() error {
	var existing []string

	for _, path := range []string{"tessera.yml", "session.yml"} {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}

	if len(existing) > 0 {
		errMsg := "project already initialized\n\nFound existing"
		if len(existing) == 1 {
			errMsg += fmt.Sprintf(": %s", existing[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existing {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'tessera init --force' to reinitialize (this will overwrite existing configuration)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
