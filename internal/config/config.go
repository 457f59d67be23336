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

// minSecretLen is the shortest JWT signing secret accepted before a fresh
// one is generated.
const minSecretLen = 32

type Config struct {
	Port         int
	DatabasePath string
	JWTSecret    string
	AnalyzerURL  string
	CORSOrigins  []string
	Production   bool
	LogLevel     string
	LogPretty    bool
}

func Load() (*Config, error) {
	// Try loading .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < minSecretLen {
		fmt.Println("JWT_SECRET not found or too short. Generating a new secure key...")
		newSecret, err := generateRandomKey(minSecretLen)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing secret: %w", err)
		}

		if err := saveSecretToEnv(newSecret); err != nil {
			fmt.Printf("Warning: Failed to save generated secret to .env: %v\n", err)
		} else {
			fmt.Println("New JWT_SECRET saved to .env file.")
		}
		secret = newSecret
	}

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err == nil {
			port = p
		}
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "queryproxy.db"
	}

	origins := []string{"http://localhost:5173"}
	if originsStr := os.Getenv("CORS_ORIGINS"); originsStr != "" {
		origins = origins[:0]
		for _, o := range strings.Split(originsStr, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Port:         port,
		DatabasePath: dbPath,
		JWTSecret:    secret,
		AnalyzerURL:  os.Getenv("ANALYZER_URL"),
		CORSOrigins:  origins,
		Production:   os.Getenv("APP_ENV") == "production",
		LogLevel:     logLevel,
		LogPretty:    os.Getenv("LOG_PRETTY") == "true",
	}, nil
}

func generateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// Base64 so the key is printable and survives the .env round trip
	return base64.StdEncoding.EncodeToString(b), nil
}

// saveSecretToEnv writes the generated secret back to .env so restarts keep
// issued session tokens valid.
func saveSecretToEnv(secret string) error {
	filename := ".env"
	content, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return os.WriteFile(filename, []byte(fmt.Sprintf("JWT_SECRET=%s\n", secret)), 0644)
	} else if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	found := false
	newLines := make([]string, 0, len(lines)+1)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "JWT_SECRET=") {
			newLines = append(newLines, fmt.Sprintf("JWT_SECRET=%s", secret))
			found = true
		} else if trimmed != "" {
			newLines = append(newLines, trimmed)
		}
	}

	if !found {
		newLines = append(newLines, fmt.Sprintf("JWT_SECRET=%s", secret))
	}

	return os.WriteFile(filename, []byte(strings.Join(newLines, "\n")+"\n"), 0644)
}
