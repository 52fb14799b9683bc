package working_dir

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/veedubyou/midifi/src/shared/lib/cerr"
)

type WorkingDir struct {
	root string
}

func NewWorkingDir(dir string) (WorkingDir, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return WorkingDir{}, cerr.Field("dir", dir).Wrap(err).Error("Failed to convert working dir to absolute format")
	}

	return WorkingDir{root: root}, nil
}

// NewScratch creates a hidden scratch directory beside the final destination,
// on the same filesystem so results can be renamed into place.
func NewScratch(destDir string, prefix string) (WorkingDir, error) {
	parent := filepath.Dir(filepath.Clean(destDir))
	if err := os.MkdirAll(parent, os.ModePerm); err != nil {
		return WorkingDir{}, cerr.Field("dir", parent).Wrap(err).Error("Failed to create scratch parent dir")
	}

	dir, err := os.MkdirTemp(parent, "."+prefix+"-*")
	if err != nil {
		return WorkingDir{}, cerr.Field("dir", parent).Wrap(err).Error("Failed to create scratch dir")
	}

	return NewWorkingDir(dir)
}

func (w WorkingDir) Root() string {
	return w.root
}

func (w WorkingDir) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

func (w WorkingDir) Remove() {
	_ = os.RemoveAll(w.root)
}

// CollectFiles walks the working dir and returns every regular file whose
// extension matches ext, in lexical order.
func (w WorkingDir) CollectFiles(ext string) ([]string, error) {
	files := []string{}
	err := filepath.WalkDir(w.root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, cerr.Field("dir", w.root).Wrap(err).Error("Failed to walk working dir")
	}

	return files, nil
}
