package patch

import (
	"fmt"
	"strings"
)

// ValidateOperations rejects any operation touching a path outside allowed.
// An empty allowed set accepts everything. Allowed entries may use "*" or
// "-" as array-index wildcards, e.g. "/slots/*/note".
func ValidateOperations(ops []Operation, allowed map[string]bool) error {
	if len(ops) == 0 {
		return nil
	}
	for i, op := range ops {
		if err := validatePathAllowed(op.Path, allowed); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validatePathAllowed(path string, allowed map[string]bool) error {
	if len(allowed) == 0 {
		return nil
	}
	if allowed[path] {
		return nil
	}
	if wildcardMatch(path, allowed) {
		return nil
	}
	return fmt.Errorf("path %q is not amendable", path)
}

func wildcardMatch(path string, allowed map[string]bool) bool {
	segments := strings.Split(path, "/")
	return matchRecursive(segments, 0, allowed, false)
}

// matchRecursive tries every combination of substituting path segments with
// the wildcard tokens and checks the resulting patterns against allowed.
func matchRecursive(segments []string, index int, allowed map[string]bool, substituted bool) bool {
	if index >= len(segments) {
		if !substituted {
			return false
		}
		return allowed[strings.Join(segments, "/")]
	}

	if index == 0 {
		return matchRecursive(segments, index+1, allowed, substituted)
	}

	original := segments[index]

	for _, wildcard := range []string{"-", "*"} {
		segments[index] = wildcard
		if matchRecursive(segments, index+1, allowed, true) {
			segments[index] = original
			return true
		}
	}

	segments[index] = original
	return matchRecursive(segments, index+1, allowed, substituted)
}
