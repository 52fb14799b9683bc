package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

type drumRename struct {
	native    string
	canonical string
}

// DrumRenames maps the drum model's component names to the names kept on
// disk.
var DrumRenames = []drumRename{
	{native: "bombo", canonical: "kick"},
	{native: "redoblante", canonical: "snare"},
	{native: "platillos", canonical: "cymbals"},
	{native: "toms", canonical: "toms"},
}

func CanonicalDrumComponents() []string {
	names := make([]string, 0, len(DrumRenames))
	for _, rename := range DrumRenames {
		names = append(names, rename.canonical)
	}

	return names
}

func (o Orchestrator) separateDrums(ctx context.Context, r run) runentity.StageResult {
	paths := &r.record.Paths
	drumTrack := paths.DrumTrackFile()

	if !layout.Exists(drumTrack) {
		return runentity.FailedResult(cerr.Field("drum_track", drumTrack).
			Wrap(mark.Message(MissingPrerequisite, "drum track does not exist")).
			Error("Cannot separate drums"))
	}

	existing, err := layout.ScanAudio(paths.DrumStemDir)
	if err != nil {
		return runentity.FailedResult(err)
	}

	// a previous run that stopped between separation and renaming only needs
	// the rename
	if len(existing) > 0 && !hasNativeComponents(paths.DrumStemDir) {
		paths.DrumStemFiles = existing
		return runentity.SkippedResult(ReasonDrumsExist, outputs(existing, runentity.Skipped)...)
	}

	if len(existing) == 0 {
		err := o.separator.Separate(ctx, drumTrack, paths.DrumStemDir, r.layout.DrumModel, r.plan.Device)
		if err != nil {
			return runentity.FailedResult(mark.Wrap(err, CollaboratorUnavailable, "Drum separator failed"))
		}
	}

	if err := o.renameDrumComponents(r, paths.DrumStemDir); err != nil {
		return runentity.FailedResult(err)
	}

	components, err := layout.ScanAudio(paths.DrumStemDir)
	if err != nil {
		return runentity.FailedResult(err)
	}

	if len(components) == 0 {
		return runentity.FailedResult(cerr.Field("drum_stem_dir", paths.DrumStemDir).
			Wrap(mark.Message(CollaboratorUnavailable, "drum separator produced no components")).
			Error("Drum stem directory is empty after separation"))
	}

	paths.DrumStemFiles = components
	return runentity.DoneResult(outputs(components, runentity.Done)...)
}

// renameDrumComponents applies DrumRenames inside dir. An existing file with
// the canonical name is overwritten. Components the model did not emit are
// logged and left out.
func (o Orchestrator) renameDrumComponents(r run, dir string) error {
	for _, rename := range DrumRenames {
		src := filepath.Join(dir, rename.native+layout.AudioExt)
		dst := filepath.Join(dir, rename.canonical+layout.AudioExt)
		logger := r.logger.WithFields(log.Fields{
			"native":    rename.native,
			"canonical": rename.canonical,
		})

		if !layout.Exists(src) {
			if !layout.Exists(dst) {
				logger.Warn("Drum component missing, omitting it")
			}
			continue
		}

		if src == dst {
			continue
		}

		if layout.Exists(dst) {
			logger.Warn("Overwriting existing drum component")
		}

		if err := os.Rename(src, dst); err != nil {
			return cerr.Fields(cerr.F{
				"src": src,
				"dst": dst,
			}).Wrap(err).Error("Failed to rename drum component")
		}
	}

	return nil
}

func hasNativeComponents(dir string) bool {
	for _, rename := range DrumRenames {
		if rename.native == rename.canonical {
			continue
		}

		if layout.Exists(filepath.Join(dir, rename.native+layout.AudioExt)) {
			return true
		}
	}

	return false
}
