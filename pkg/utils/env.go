package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Unquote trims space and one pair of matching surrounding quotes, as left by some .env files.
func Unquote(v string) string {
	s := strings.TrimSpace(v)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if v := GetEnvTrimmed(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns fallback when key is unset or not a valid bool.
func GetEnvBool(key string, fallback bool) bool {
	if parsed, err := strconv.ParseBool(GetEnvTrimmed(key)); err == nil {
		return parsed
	}
	return fallback
}

// GetEnvPositiveInt returns fallback unless key parses to an integer above zero.
func GetEnvPositiveInt(key string, fallback int) int {
	if parsed, err := strconv.Atoi(GetEnvTrimmed(key)); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

// GetEnvPositiveDuration returns fallback unless key parses to a duration above zero.
func GetEnvPositiveDuration(key string, fallback time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(GetEnvTrimmed(key)); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}
