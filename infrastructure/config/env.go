package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnv substitutes ${VAR} and ${VAR:-default} references. In strict
// mode an unset variable without a default is an error; otherwise it expands
// to the empty string.
func expandEnv(input string, strict bool) (string, error) {
	var missing []string

	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		inner := match[2 : len(match)-1]

		name, fallback, hasFallback := strings.Cut(inner, ":-")
		value, exists := os.LookupEnv(name)

		if !exists || value == "" {
			if hasFallback {
				return fallback
			}
			if strict {
				missing = append(missing, name)
			}
			return ""
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("unset environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}
