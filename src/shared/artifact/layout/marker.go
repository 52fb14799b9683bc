package layout

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
)

const MarkerFile = ".midifi.json"

type identityMarker struct {
	Artist string `json:"artist"`
	Song   string `json:"song"`
}

func MarkerPath(paths ArtifactPaths) string {
	return filepath.Join(paths.SongDir, MarkerFile)
}

// ClaimSongDir records the unsanitized name in the song directory. A directory
// already claimed by a different name yields ArtifactLayoutCollision; one
// without a marker is claimed as is.
func ClaimSongDir(paths ArtifactPaths, name mediaentity.CanonicalName) error {
	if err := EnsureDir(paths.SongDir); err != nil {
		return err
	}

	markerPath := MarkerPath(paths)
	want := identityMarker{Artist: name.Artist, Song: name.Song}

	contents, err := json.Marshal(want)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal identity marker")
	}

	// the marker is written aside and hard linked into place so a concurrent
	// reader never sees a partial file
	tmp, err := os.CreateTemp(paths.SongDir, MarkerFile+".*")
	if err != nil {
		return cerr.Field("song_dir", paths.SongDir).Wrap(err).Error("Failed to create identity marker")
	}
	defer os.Remove(tmp.Name())

	_, writeErr := tmp.Write(contents)
	closeErr := tmp.Close()
	if err := errors.CombineErrors(writeErr, closeErr); err != nil {
		return cerr.Field("marker", tmp.Name()).Wrap(err).Error("Failed to write identity marker")
	}

	err = os.Link(tmp.Name(), markerPath)
	if err == nil {
		return nil
	}

	if !errors.Is(err, os.ErrExist) {
		return cerr.Field("marker", markerPath).Wrap(err).Error("Failed to create identity marker")
	}

	existing, err := readMarker(markerPath)
	if err != nil {
		return err
	}

	if existing == want {
		return nil
	}

	log.WithFields(log.Fields{
		"song_dir":        paths.SongDir,
		"existing_artist": existing.Artist,
		"existing_song":   existing.Song,
		"artist":          name.Artist,
		"song":            name.Song,
	}).Warn("Song directory belongs to another identity")

	return cerr.Fields(cerr.F{
		"song_dir":        paths.SongDir,
		"existing_artist": existing.Artist,
		"existing_song":   existing.Song,
	}).Wrap(mark.Message(ArtifactLayoutCollision, "identity marker mismatch")).Error("Failed to claim song directory")
}

func readMarker(markerPath string) (identityMarker, error) {
	contents, err := os.ReadFile(markerPath)
	if err != nil {
		return identityMarker{}, cerr.Field("marker", markerPath).Wrap(err).Error("Failed to read identity marker")
	}

	marker := identityMarker{}
	if err := json.Unmarshal(contents, &marker); err != nil {
		return identityMarker{}, cerr.Field("marker", markerPath).Wrap(err).Error("Failed to parse identity marker")
	}

	return marker, nil
}
