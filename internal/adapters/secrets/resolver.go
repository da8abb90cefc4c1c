// Package secrets resolves credential references so API keys can stay out
// of servers.toml.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

const (
	envScheme  = "env:"
	fileScheme = "file:"
)

// Resolve expands a secret reference into its value. Three forms are
// recognized: "env:NAME" reads an environment variable, "file:/path" reads
// a file (trailing whitespace trimmed), and anything else is returned as a
// literal.
func Resolve(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, envScheme):
		name := strings.TrimPrefix(ref, envScheme)
		if name == "" {
			return "", fmt.Errorf("empty environment variable name in secret reference")
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return value, nil

	case strings.HasPrefix(ref, fileScheme):
		path := strings.TrimPrefix(ref, fileScheme)
		if path == "" {
			return "", fmt.Errorf("empty path in secret reference")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil

	default:
		return ref, nil
	}
}
