// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFile loads a dotenv file and merges its contents into env.
// Relative paths resolve against baseDir (the pipefile directory).
// Files suffixed with '?' are optional; a missing optional file is not an
// error. Later calls override earlier values for the same keys.
func LoadEnvFile(env map[string]string, path, baseDir string) error {
	return loadDotenv(env, path, baseDir)
}

// LoadEnvFileFromCwd loads a dotenv file relative to the working directory.
// This is used for --env-file flag files specified at runtime. When cwd is
// empty, os.Getwd() is used.
func LoadEnvFileFromCwd(env map[string]string, path, cwd string) error {
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	return loadDotenv(env, path, cwd)
}

// loadDotenv resolves path against baseDir, honoring the '?' optional
// suffix, and parses the file into env.
func loadDotenv(env map[string]string, path, baseDir string) error {
	optional := strings.HasSuffix(path, "?")
	if optional {
		path = strings.TrimSuffix(path, "?")
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		// Pipefiles use forward slashes regardless of platform
		fullPath = filepath.Join(baseDir, filepath.FromSlash(path))
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	return ParseEnvFile(env, content, path)
}

// ParseEnvFile parses dotenv format content and merges into the env map.
// Supported format:
//   - Lines starting with # are comments
//   - Empty lines are ignored
//   - KEY=value (unquoted; trailing " #..." comments stripped)
//   - KEY="value" (double-quoted, escape sequences: \n, \r, \t, \\, \", \$)
//   - KEY='value' (single-quoted, literal - no escape processing)
//   - export KEY=value (export prefix is optional and ignored)
//   - KEY= (empty value)
//
// The filename parameter is used for error messages.
func ParseEnvFile(env map[string]string, content []byte, filename string) error {
	for i, line := range strings.Split(string(content), "\n") {
		lineNum := i + 1

		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("%s:%d: invalid format (missing '=')", filename, lineNum)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%s:%d: empty variable name", filename, lineNum)
		}

		parsed, err := parseEnvValue(value)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", filename, lineNum, err)
		}

		env[key] = parsed
	}

	return nil
}

// parseEnvValue parses a dotenv value, handling quoting and escape sequences.
func parseEnvValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch value[0] {
	case '"':
		if len(value) < 2 || value[len(value)-1] != '"' {
			return "", fmt.Errorf("unterminated double quote")
		}
		return unescapeDoubleQuoted(value[1 : len(value)-1]), nil
	case '\'':
		if len(value) < 2 || value[len(value)-1] != '\'' {
			return "", fmt.Errorf("unterminated single quote")
		}
		// Single-quoted: literal value, no escape processing
		return value[1 : len(value)-1], nil
	}

	// Unquoted: strip inline comments
	if idx := strings.Index(value, " #"); idx != -1 {
		value = strings.TrimSpace(value[:idx])
	}
	return value, nil
}

// unescapeDoubleQuoted processes escape sequences in a double-quoted value.
func unescapeDoubleQuoted(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i+1 >= len(value) {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '$':
			b.WriteByte('$')
		default:
			// Unknown escape - keep both characters
			b.WriteByte('\\')
			b.WriteByte(value[i])
		}
	}

	return b.String()
}
