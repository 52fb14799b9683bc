package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/filename"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

const (
	ReasonSuppliedByCaller = "artifacts supplied by caller"
	ReasonLayoutCollision  = "artifact layout collision"
	ReasonRawAudioExists   = "raw audio already exists"
	ReasonStemsExist       = "stems already exist"
	ReasonDrumsExist       = "drum components already exist"
	ReasonMidiExists       = "transcriptions already exist"
)

func (o Orchestrator) download(ctx context.Context, r run) runentity.StageResult {
	paths := r.record.Paths
	rawOutput := func(status runentity.Status) runentity.Output {
		return runentity.Output{Name: filename.Stem(paths.RawAudioFile), Path: paths.RawAudioFile, Status: status}
	}

	if r.record.Request.HasArtifacts() {
		return runentity.SkippedResult(ReasonSuppliedByCaller, rawOutput(runentity.Skipped))
	}

	if err := layout.ClaimSongDir(paths, r.record.Name); err != nil {
		if markers.Is(err, layout.ArtifactLayoutCollision) {
			return runentity.SkippedResult(ReasonLayoutCollision, rawOutput(runentity.Skipped))
		}

		return runentity.FailedResult(err)
	}

	if layout.Exists(paths.RawAudioFile) {
		return runentity.SkippedResult(ReasonRawAudioExists, rawOutput(runentity.Skipped))
	}

	itemURL := r.record.Identity.URL
	if itemURL == "" {
		itemURL = r.record.Request.URL
	}

	if _, err := o.downloader.Download(ctx, itemURL, paths.RawAudioTemplate()); err != nil {
		return runentity.FailedResult(mark.Wrap(err, CollaboratorUnavailable, "Downloader failed"))
	}

	if !layout.Exists(paths.RawAudioFile) {
		return runentity.FailedResult(cerr.Field("raw_audio_file", paths.RawAudioFile).
			Wrap(mark.Message(CollaboratorUnavailable, "downloader reported success without producing audio")).
			Error("Raw audio file is missing after download"))
	}

	return runentity.DoneResult(rawOutput(runentity.Done))
}

func (o Orchestrator) separate(ctx context.Context, r run) runentity.StageResult {
	paths := &r.record.Paths

	if !layout.Exists(paths.RawAudioFile) {
		return runentity.FailedResult(cerr.Field("raw_audio_file", paths.RawAudioFile).
			Wrap(mark.Message(MissingPrerequisite, "raw audio file does not exist")).
			Error("Cannot separate"))
	}

	existing, err := layout.ScanAudio(paths.StemDir)
	if err != nil {
		return runentity.FailedResult(err)
	}

	if len(existing) > 0 {
		paths.StemFiles = existing
		return runentity.SkippedResult(ReasonStemsExist, outputs(existing, runentity.Skipped)...)
	}

	err = o.separator.Separate(ctx, paths.RawAudioFile, paths.StemDir, r.layout.Model, r.plan.Device)
	if err != nil {
		return runentity.FailedResult(mark.Wrap(err, CollaboratorUnavailable, "Separator failed"))
	}

	stems, err := layout.ScanAudio(paths.StemDir)
	if err != nil {
		return runentity.FailedResult(err)
	}

	if len(stems) == 0 {
		return runentity.FailedResult(cerr.Field("stem_dir", paths.StemDir).
			Wrap(mark.Message(CollaboratorUnavailable, "separator produced no stems")).
			Error("Stem directory is empty after separation"))
	}

	paths.StemFiles = stems
	return runentity.DoneResult(outputs(stems, runentity.Done)...)
}

func (o Orchestrator) transcribe(ctx context.Context, r run) runentity.StageResult {
	paths := &r.record.Paths

	stems, err := layout.ScanAudio(paths.StemDir)
	if err != nil {
		return runentity.FailedResult(err)
	}

	drums, err := layout.ScanAudio(paths.DrumStemDir)
	if err != nil {
		return runentity.FailedResult(err)
	}

	paths.StemFiles = stems
	paths.DrumStemFiles = drums

	inputs := layout.TranscriptionInputs(*paths, len(drums) > 0)
	if len(inputs) == 0 {
		return runentity.FailedResult(cerr.Field("stem_dir", paths.StemDir).
			Wrap(mark.Message(MissingPrerequisite, "no stems to transcribe")).
			Error("Cannot transcribe"))
	}

	if err := layout.EnsureDir(paths.TranscriptionDir); err != nil {
		return runentity.FailedResult(err)
	}

	results := []runentity.Output{}
	ran := false
	for _, input := range inputs {
		midiFile := layout.TranscriptionFile(*paths, input)
		output := runentity.Output{Name: filename.Stem(input), Path: midiFile}

		if layout.Exists(midiFile) {
			output.Status = runentity.Skipped
			results = append(results, output)
			continue
		}

		if err := ctx.Err(); err != nil {
			return runentity.FailedResult(mark.Wrap(err, Cancelled, "Run cancelled between transcriptions"), results...)
		}

		ran = true
		if err := o.transcriber.Transcribe(ctx, input, paths.TranscriptionDir); err != nil {
			err = cerr.Field("input", input).Wrap(mark.Wrap(err, CollaboratorUnavailable, "Transcriber failed")).
				Error("Failed to transcribe stem")
			return runentity.FailedResult(err, append(results, failedOutput(output))...)
		}

		if !layout.Exists(midiFile) {
			err := cerr.Field("midi_file", midiFile).
				Wrap(mark.Message(CollaboratorUnavailable, "transcriber reported success without producing a file")).
				Error("Transcription is missing")
			return runentity.FailedResult(err, append(results, failedOutput(output))...)
		}

		output.Status = runentity.Done
		results = append(results, output)
	}

	if !ran {
		return runentity.SkippedResult(ReasonMidiExists, results...)
	}

	return runentity.DoneResult(results...)
}

// clearStage removes what a stage produced so it runs from scratch.
func (o Orchestrator) clearStage(r run, stage runentity.Stage) error {
	paths := r.record.Paths
	r.logger.WithField("stage", stage).Info("Clearing stage outputs for rebuild")

	switch stage {
	case runentity.DownloadStage:
		if r.record.Request.HasArtifacts() {
			return nil
		}

		if err := os.Remove(paths.RawAudioFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cerr.Field("raw_audio_file", paths.RawAudioFile).Wrap(err).Error("Failed to remove raw audio")
		}

		return nil

	case runentity.SeparateStage:
		return layout.Clear(paths.StemDir)

	case runentity.SeparateDrumsStage:
		return layout.Clear(filepath.Dir(paths.DrumStemDir))

	case runentity.TranscribeStage:
		return layout.Clear(paths.TranscriptionDir)

	default:
		return nil
	}
}

func outputs(files []string, status runentity.Status) []runentity.Output {
	results := make([]runentity.Output, 0, len(files))
	for _, file := range files {
		results = append(results, runentity.Output{Name: filename.Stem(file), Path: file, Status: status})
	}

	return results
}

func failedOutput(output runentity.Output) runentity.Output {
	output.Status = runentity.Failed
	return output
}
