package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	APIURL   string    `json:"api_url"`
	SavedAt  time.Time `json:"saved_at"`
}

// credentialsPath returns the path to the credentials file
// (~/.contactbook/credentials.json, or CONTACTBOOK_CREDENTIALS if set).
func credentialsPath() (string, error) {
	if p := os.Getenv("CONTACTBOOK_CREDENTIALS"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".contactbook", credentialsFileName), nil
}

func saveCredentials(creds credentials) (string, error) {
	credPath, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(credPath), 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	return credPath, nil
}

func loadCredentials() (credentials, error) {
	var creds credentials
	p, err := credentialsPath()
	if err != nil {
		return creds, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return creds, err
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("parse %s: %w", p, err)
	}
	return creds, nil
}

// removeCredentials deletes the saved token. A missing file is not an error.
func removeCredentials() (string, error) {
	p, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove credentials: %w", err)
	}
	return p, nil
}
