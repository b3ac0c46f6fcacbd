package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvVarUser overrides the remembered developer for this machine.
const EnvVarUser = "UDICTI_USER"

// CurrentFileName stores the email of the developer who onboarded here.
const CurrentFileName = "current-user"

// Current returns the email of the developer using this machine.
// Priority order:
//  1. UDICTI_USER environment variable
//  2. <config dir>/current-user
//
// Returns ("", nil) if nobody has onboarded.
func Current(configDir string) (string, error) {
	if email := os.Getenv(EnvVarUser); email != "" {
		return email, nil
	}

	data, err := os.ReadFile(filepath.Join(configDir, CurrentFileName)) //nolint:gosec // G304: path from config dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading current user: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetCurrent remembers email as the developer using this machine.
func SetCurrent(configDir, email string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	path := filepath.Join(configDir, CurrentFileName)
	return os.WriteFile(path, []byte(email+"\n"), 0644) //nolint:gosec // G306: not secret
}
