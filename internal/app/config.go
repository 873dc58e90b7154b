package app

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/zerozero/labforge/pkg/config"
)

// rootDir walks up from the working directory to the repository root,
// marked by .git or go.mod.
func rootDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// LoadConfig reads .env.local from the repository root when present, then
// builds the application configuration from the environment.
func LoadConfig() (*config.Config, error) {
	envPath := filepath.Join(rootDir(), ".env.local")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env.local at %s, using process environment", envPath)
	}

	return config.Load()
}
