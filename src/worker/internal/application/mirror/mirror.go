package mirror

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/worker/internal/lib/storagepath"
)

func NewMirror(fileStore FileStore, pathGenerator storagepath.Generator) Mirror {
	return Mirror{
		fileStore:     fileStore,
		pathGenerator: pathGenerator,
	}
}

// Mirror uploads a run's artifacts to cloud storage under the same relative
// layout they have on disk.
type Mirror struct {
	fileStore     FileStore
	pathGenerator storagepath.Generator
}

func (m Mirror) MirrorRun(ctx context.Context, record runentity.RunRecord) ([]string, error) {
	paths := record.Paths
	errctx := cerr.Field("run_id", record.ID)

	files := []string{}
	if layout.Exists(paths.RawAudioFile) {
		files = append(files, paths.RawAudioFile)
	}

	files = append(files, paths.StemFiles...)
	files = append(files, paths.DrumStemFiles...)

	midiFiles, err := filepath.Glob(filepath.Join(paths.TranscriptionDir, "*"+layout.TranscriptionExt))
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to list transcriptions")
	}
	files = append(files, midiFiles...)

	uploaded := []string{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return uploaded, errctx.Wrap(err).Error("Mirroring cancelled")
		}

		rel, err := filepath.Rel(paths.RootDir, file)
		if err != nil {
			return uploaded, errctx.Field("file", file).Wrap(err).Error("Artifact is not under the root")
		}

		contents, err := os.ReadFile(file)
		if err != nil {
			return uploaded, errctx.Field("file", file).Wrap(err).Error("Failed to read artifact")
		}

		destinationURL := m.pathGenerator.GeneratePath(filepath.ToSlash(rel))
		log.WithField("destination", destinationURL).Debug("Uploading artifact")

		if err := m.fileStore.WriteFile(ctx, destinationURL, contents); err != nil {
			return uploaded, errctx.Field("destination", destinationURL).Wrap(err).Error("Failed to upload artifact")
		}

		uploaded = append(uploaded, destinationURL)
	}

	return uploaded, nil
}
