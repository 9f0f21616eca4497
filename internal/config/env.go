package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var errNoEnvFile = errors.New("no .env file found")

// envFiles are tried in order; the first one present wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from the first .env file found.
// Existing process environment variables are not overwritten.
func loadEnvFile() (string, error) {
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return envPath, fmt.Errorf("load %s: %w", envPath, err)
		}
		return envPath, nil
	}
	return "", errNoEnvFile
}
