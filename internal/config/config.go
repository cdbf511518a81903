// Package config centralizes environment-variable reads for the
// composition roots (cmd/server, cmd/dbtool). It never reaches into the
// optimization core directly — the core takes a plain Config struct
// built by its caller from these helpers.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"golang.org/x/text/width"
)

var loadOnce sync.Once

func loadEnvFile() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found (using environment variables)")
		}
	})
}

// Get returns the environment variable's value, or fallback if unset/empty.
func Get(key, fallback string) string {
	loadEnvFile()
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// foldDigits normalizes full-width digits (U+FF10-FF19, occasionally
// pasted in from CJK-locale shells or config tools) to their ASCII
// equivalents before numeric parsing. Anything already ASCII passes
// through unchanged.
func foldDigits(v string) string {
	return width.Narrow.String(v)
}

// GetInt parses the environment variable as an int, or returns fallback
// if unset or unparseable.
func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(foldDigits(v))
	if err != nil {
		log.Printf("config: %s=%q is not an int, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

// GetFloat parses the environment variable as a float64, or returns
// fallback if unset or unparseable.
func GetFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(foldDigits(v), 64)
	if err != nil {
		log.Printf("config: %s=%q is not a float, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

// GetBool parses the environment variable as a bool, or returns fallback
// if unset or unparseable.
func GetBool(key string, fallback bool) bool {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: %s=%q is not a bool, using default %v", key, v, fallback)
		return fallback
	}
	return b
}
