package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// safePath resolves p against baseDir and rejects anything that ends up
// outside it. Absolute paths are accepted when they are inside baseDir.
func safePath(baseDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("path must not be empty")
	}

	var joined string
	if filepath.IsAbs(p) {
		joined = filepath.Clean(p)
	} else {
		joined = filepath.Join(baseDir, p)
	}
	cleanBase := filepath.Clean(baseDir)
	if joined != cleanBase && !strings.HasPrefix(joined, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the data directory", p)
	}
	return joined, nil
}
