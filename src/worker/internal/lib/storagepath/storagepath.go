package storagepath

import (
	"fmt"
	"path"
	"strings"
)

type Generator struct {
	Host   string
	Bucket string
}

// GeneratePath is the public URL of an object stored under the artifact's
// path relative to the output root.
func (g Generator) GeneratePath(relPath string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(g.Host, "/"), g.Bucket, g.ObjectName(relPath))
}

// ObjectName keeps bucket object names in forward slash form whatever the
// local separator is.
func (g Generator) ObjectName(relPath string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(relPath, "\\", "/")), "/")
}
