package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
)

const dirPerm = 0o755

// EnsureDir creates the directory and its parents. Concurrent callers racing
// on the same path all succeed.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return cerr.Field("dir", path).Wrap(err).Error("Failed to create directory")
	}

	return nil
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ScanAudio returns the audio files directly inside dir, sorted by name. A
// missing directory scans as empty.
func ScanAudio(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}

	if err != nil {
		return nil, cerr.Field("dir", dir).Wrap(err).Error("Failed to scan directory")
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.EqualFold(filepath.Ext(entry.Name()), AudioExt) {
			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	return files, nil
}

// Clear removes a stage directory and everything below it.
func Clear(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return cerr.Field("dir", dir).Wrap(err).Error("Failed to clear directory")
	}

	return nil
}

// MoveFile renames src onto dst, replacing dst.
func MoveFile(src string, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err != nil {
		return cerr.Fields(cerr.F{
			"src": src,
			"dst": dst,
		}).Wrap(err).Error("Failed to move file")
	}

	return nil
}
