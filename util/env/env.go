package env

import (
	"os"
	"strings"
)

func GetOrDefault(name string, defaultValue string) string {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}

// GetList splits a comma-delimited variable into trimmed, non-empty items.
func GetList(name string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
