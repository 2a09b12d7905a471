// Package config reads the environment variables that drive the api,
// migrate, and import binaries. LoadAPIConfig is the single entry point;
// the typed getters below back it and fall back to sane local-development
// defaults so the stack runs with an empty environment.
package config

import (
	"log"
	"os"
	"strconv"
)

// GetString returns the named environment variable, or fallback when unset.
// An empty-but-set variable is returned as the empty string.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt parses the named environment variable as an integer. Unparseable
// values log and fall back rather than failing startup.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool parses the named environment variable as a boolean, accepting the
// strconv.ParseBool spellings (1/t/true, 0/f/false).
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
