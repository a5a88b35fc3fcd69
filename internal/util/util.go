// Package util holds small helpers shared by the CLI commands.
package util

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"

	"gopkg.in/yaml.v3"
)

// GetCurrentUsername returns the login name of the current user, or "mercator"
// when it cannot be determined.
func GetCurrentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "mercator"
}

// PathExists reports whether something exists at path.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ParseKeyValues turns "key=value" arguments into a settings map. Values are
// read as YAML scalars so "true" and "8" keep their types; quote them to keep
// a string.
func ParseKeyValues(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		out[key] = value
	}
	return out, nil
}

// FormatErrorList condenses errs into one error with an indexed line per
// entry. It returns nil for an empty list.
func FormatErrorList(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = fmt.Sprintf("\t[%d] %v", i, err)
	}
	return fmt.Errorf("%d error(s):\n%s", len(errs), strings.Join(lines, "\n"))
}
