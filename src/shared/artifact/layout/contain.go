package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
)

// Contain resolves a caller supplied path relative to the root. Paths with
// parent segments, absolute paths and symlinks leading outside the root are
// rejected with PathEscape.
func (m Manager) Contain(rel string) (string, error) {
	escape := func(msg string) error {
		return cerr.Field("path", rel).Wrap(mark.Message(PathEscape, msg)).Error("Rejected requested path")
	}

	if strings.ContainsRune(rel, 0) {
		return "", escape("path contains a NUL byte")
	}

	slashed := strings.ReplaceAll(rel, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(rel) {
		return "", escape("path is absolute")
	}

	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", escape("path has a parent segment")
		}
	}

	root, err := filepath.Abs(m.Root)
	if err != nil {
		return "", cerr.Field("root", m.Root).Wrap(err).Error("Failed to resolve root directory")
	}

	resolved := filepath.Join(root, filepath.FromSlash(slashed))
	if !within(root, resolved) {
		return "", escape("path resolves outside the root")
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", cerr.Field("root", root).Wrap(err).Error("Failed to resolve root directory")
	}

	realPath, err := filepath.EvalSymlinks(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return resolved, nil
	}

	if err != nil {
		return "", cerr.Field("path", resolved).Wrap(err).Error("Failed to resolve requested path")
	}

	if !within(realRoot, realPath) {
		return "", escape("path links outside the root")
	}

	return resolved, nil
}

func within(root string, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
