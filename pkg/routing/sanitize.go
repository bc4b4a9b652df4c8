package routing

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/arbor/pkg/domain"
)

var (
	// DefaultMaxPathSize bounds navigation paths received from outside the process.
	DefaultMaxPathSize = 2048
	// EnvMaxPathSize overrides DefaultMaxPathSize.
	EnvMaxPathSize = "ARBOR_MAX_PATH_SIZE"
)

// SanitizePath checks an untrusted navigation path before it is resolved. It
// rejects oversized paths and invalid UTF-8 with an error wrapping
// domain.ErrInvalidPath, and strips control characters and surrounding
// whitespace so they never reach logs or terminals.
func SanitizePath(path string) (string, error) {
	limit := maxPathSize()
	if len(path) > limit {
		// never truncated
		return "", fmt.Errorf("%w: size=%d limit=%d", domain.ErrInvalidPath, len(path), limit)
	}
	if !utf8.ValidString(path) {
		return "", fmt.Errorf("%w: invalid UTF-8", domain.ErrInvalidPath)
	}

	if strings.IndexFunc(path, unicode.IsControl) < 0 {
		return strings.TrimSpace(path), nil
	}
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func maxPathSize() int {
	if val := os.Getenv(EnvMaxPathSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxPathSize
}
