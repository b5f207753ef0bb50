package helpers

import (
	"os"
	"strings"
)

func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

// IsPathOverlap reports whether a and b are the same path or one contains
// the other. Both must be cleaned.
func IsPathOverlap(a, b string) bool {
	if a == b {
		return true
	}
	if a == "." || b == "." {
		return !strings.HasPrefix(a, "..") && !strings.HasPrefix(b, "..") && !isAbs(a) && !isAbs(b)
	}
	if strings.HasPrefix(a, b+string(os.PathSeparator)) {
		return true
	}
	if strings.HasPrefix(b, a+string(os.PathSeparator)) {
		return true
	}
	return false
}

func isAbs(p string) bool {
	return strings.HasPrefix(p, string(os.PathSeparator))
}
