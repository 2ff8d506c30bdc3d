package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// envExpander expands environment variable references in configuration
// text before parsing.
type envExpander struct {
	// strict fails if a referenced variable is not set.
	strict bool
	// missing tracks missing environment variables.
	missing []string
}

var (
	// ${VAR}, ${VAR:-default}, ${VAR:?error message}
	bracketPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)
	// $VAR
	simplePattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Expand replaces environment variable references in the input.
// Supported patterns:
//   - ${VAR} - expands to the value of VAR
//   - ${VAR:-default} - expands to VAR or "default" if not set
//   - ${VAR:?error message} - fails if VAR is not set
//   - $VAR - simple expansion (not recommended, use ${VAR})
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := bracketPattern.ReplaceAllStringFunc(input, e.expandBracket)
	result = simplePattern.ReplaceAllStringFunc(result, e.expandSimple)

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return result, nil
}

func (e *envExpander) expandBracket(match string) string {
	inner := match[2 : len(match)-1]

	name, modifier, _ := strings.Cut(inner, ":")
	value, exists := os.LookupEnv(name)

	switch {
	case strings.HasPrefix(modifier, "-"):
		if !exists || value == "" {
			return modifier[1:]
		}
	case strings.HasPrefix(modifier, "?"):
		if !exists || value == "" {
			e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, modifier[1:]))
			return match
		}
	default:
		if !exists {
			if e.strict {
				e.missing = append(e.missing, name)
			}
			return ""
		}
	}

	return value
}

func (e *envExpander) expandSimple(match string) string {
	name := match[1:]
	value, exists := os.LookupEnv(name)
	if !exists {
		if e.strict {
			e.missing = append(e.missing, name)
		}
		return ""
	}
	return value
}

// ExpandEnv is a convenience function that expands environment variables.
func ExpandEnv(input string) string {
	e := &envExpander{strict: false}
	result, _ := e.Expand(input)
	return result
}

// ExpandEnvStrict expands environment variables and returns an error
// for missing variables.
func ExpandEnvStrict(input string) (string, error) {
	e := &envExpander{strict: true}
	return e.Expand(input)
}
