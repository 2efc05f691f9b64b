package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int
	SecretKey  string // FINTRACK_KEY: session cookies + credential encryption
	MetaDBPath string // bootstrap metadata store (database configs, migration logs)
	LogDir     string
}

func Load() (*Config, error) {
	// Try loading .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	key := os.Getenv("FINTRACK_KEY")
	if len(key) < 32 {
		fmt.Println("FINTRACK_KEY not found or too short. Generating a new secure key...")
		newKey, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}

		if err := saveKeyToEnv(newKey); err != nil {
			fmt.Printf("Warning: Failed to save generated key to .env: %v\n", err)
		} else {
			fmt.Println("New FINTRACK_KEY saved to .env file.")
		}
		key = newKey
	}

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	metaDB := os.Getenv("FINTRACK_META_DB")
	if metaDB == "" {
		metaDB = "fintrack-meta.db"
	}

	logDir := os.Getenv("FINTRACK_LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	return &Config{
		Port:       port,
		SecretKey:  key,
		MetaDBPath: metaDB,
		LogDir:     logDir,
	}, nil
}

func generateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// Base64 so the key is printable in .env
	return base64.StdEncoding.EncodeToString(b), nil
}

func saveKeyToEnv(key string) error {
	filename := ".env"
	content, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return os.WriteFile(filename, []byte(fmt.Sprintf("FINTRACK_KEY=%s\nPORT=8080\n", key)), 0644)
	} else if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	found := false
	newLines := []string{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FINTRACK_KEY=") {
			newLines = append(newLines, fmt.Sprintf("FINTRACK_KEY=%s", key))
			found = true
		} else if trimmed != "" {
			newLines = append(newLines, trimmed)
		}
	}

	if !found {
		newLines = append(newLines, fmt.Sprintf("FINTRACK_KEY=%s", key))
	}

	return os.WriteFile(filename, []byte(strings.Join(newLines, "\n")+"\n"), 0644)
}
