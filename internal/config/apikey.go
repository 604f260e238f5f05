package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	apierrors "github.com/diogo/nimbus/internal/errors"
)

// APIKeyEnvVars are consulted in order; the first non-empty value wins.
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// LoadEnv loads .env files from the working directory and the config
// directory. Variables already present in the environment are not
// overridden, and missing files are ignored.
func LoadEnv() error {
	candidates := []string{".env"}
	if dir, err := GetConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadAPIKey returns the API key from the environment after loading any
// .env files.
func LoadAPIKey() (string, error) {
	if err := LoadEnv(); err != nil {
		return "", err
	}

	for _, name := range APIKeyEnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, nil
		}
	}

	return "", fmt.Errorf("%w: set %s or add it to %s", apierrors.ErrNoAPIKey,
		strings.Join(APIKeyEnvVars, " or "), envFileHint())
}

// SaveAPIKey writes the key to the .env file in the config directory,
// readable only by the owner.
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apierrors.ErrNoAPIKey
	}

	dir, err := EnsureConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, ".env")

	env := map[string]string{}
	if existing, err := godotenv.Read(path); err == nil {
		env = existing
	}
	env[APIKeyEnvVars[0]] = key

	content, err := godotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of a file that already existed.
	return os.Chmod(path, 0o600)
}

// MaskAPIKey hides all but the last four characters of key.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func envFileHint() string {
	dir, err := GetConfigDir()
	if err != nil {
		return ".env"
	}
	return filepath.Join(dir, ".env")
}
