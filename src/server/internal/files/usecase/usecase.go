package fileusecase

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
	fileerrors "github.com/veedubyou/midifi/src/server/internal/files/errors"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
)

type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type Listing struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

// Usecase exposes the artifact tree under the output root, read only.
type Usecase struct {
	manager layout.Manager
}

func NewUsecase(manager layout.Manager) Usecase {
	return Usecase{
		manager: manager,
	}
}

func (u Usecase) Browse(relPath string) (Listing, *api.Error) {
	dir, info, apiErr := u.resolve(relPath)
	if apiErr != nil {
		return Listing{}, apiErr
	}

	if !info.IsDir() {
		return Listing{}, api.CommitError(errors.Newf("%s is not a directory", dir),
			fileerrors.NotADirectoryCode,
			"The requested path is not a directory")
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, api.CommitError(errors.Wrap(err, "Failed to read directory"),
			api.DefaultErrorCode,
			"Unknown error: Failed to list the directory")
	}

	listing := Listing{
		Path:    cleanRel(relPath),
		Entries: []Entry{},
	}

	for _, dirEntry := range dirEntries {
		// scratch dirs and identity markers are bookkeeping
		if strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}

		entryInfo, err := dirEntry.Info()
		if err != nil {
			continue
		}

		listing.Entries = append(listing.Entries, Entry{
			Name:       dirEntry.Name(),
			Path:       joinRel(listing.Path, dirEntry.Name()),
			IsDir:      dirEntry.IsDir(),
			Size:       entryInfo.Size(),
			ModifiedAt: entryInfo.ModTime().UTC(),
		})
	}

	sort.Slice(listing.Entries, func(i, j int) bool {
		if listing.Entries[i].IsDir != listing.Entries[j].IsDir {
			return listing.Entries[i].IsDir
		}

		return listing.Entries[i].Name < listing.Entries[j].Name
	})

	return listing, nil
}

// File returns the absolute path of a regular file under the root.
func (u Usecase) File(relPath string) (string, *api.Error) {
	file, info, apiErr := u.resolve(relPath)
	if apiErr != nil {
		return "", apiErr
	}

	if info.IsDir() {
		return "", api.CommitError(errors.Newf("%s is a directory", file),
			fileerrors.IsADirectoryCode,
			"The requested path is a directory")
	}

	return file, nil
}

func (u Usecase) resolve(relPath string) (string, os.FileInfo, *api.Error) {
	path, err := u.manager.Contain(relPath)
	if err != nil {
		if markers.Is(err, layout.PathEscape) {
			return "", nil, api.CommitError(err,
				fileerrors.PathEscapeCode,
				"The requested path is outside the output directory")
		}

		return "", nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to resolve the requested path")
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil, api.CommitError(errors.Wrap(err, "Requested path does not exist"),
			fileerrors.FileNotFoundCode,
			"The requested path does not exist")
	}

	if err != nil {
		return "", nil, api.CommitError(errors.Wrap(err, "Failed to stat requested path"),
			api.DefaultErrorCode,
			"Unknown error: Failed to read the requested path")
	}

	return path, info, nil
}

func cleanRel(relPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(relPath)))
	if cleaned == "." {
		return ""
	}

	return strings.TrimPrefix(cleaned, "/")
}

func joinRel(dir string, name string) string {
	if dir == "" {
		return name
	}

	return dir + "/" + name
}
