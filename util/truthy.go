package util

import "strings"

// IsTruthy reports whether an environment-style flag value means "on".
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
