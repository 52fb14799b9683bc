package transcribe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/filename"
	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
	"github.com/veedubyou/midifi/src/worker/internal/lib/working_dir"
)

var _ Transcriber = BasicPitch{}

func NewBasicPitch(binPath string, commandExecutor executor.Executor) BasicPitch {
	return BasicPitch{
		binPath:         binPath,
		commandExecutor: commandExecutor,
	}
}

type BasicPitch struct {
	binPath         string
	commandExecutor executor.Executor
}

func (b BasicPitch) Transcribe(ctx context.Context, input string, outputDir string) error {
	absInput, err := filepath.Abs(input)
	if err != nil {
		return cerr.Wrap(err).Error("Cannot convert source path to absolute format")
	}

	errctx := cerr.Field("input", absInput).Field("output_dir", outputDir)

	// basic-pitch refuses to overwrite, and names its output <stem>_basic_pitch.mid
	scratch, err := working_dir.NewScratch(filepath.Join(outputDir, filename.Stem(absInput)), "transcribe")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to prepare transcription dir")
	}
	defer scratch.Remove()

	logger := log.WithFields(log.Fields{
		"input":      absInput,
		"workingDir": scratch.Root(),
	})

	logger.Info("Running basic-pitch command")

	cmd := b.commandExecutor.Command(ctx, b.binPath, scratch.Root(), absInput)
	cmd.SetDir(scratch.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errctx.Field("basic_pitch_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running basic-pitch: %s", string(output)))
	}

	logger.Debug(string(output))

	midiFiles, err := scratch.CollectFiles(layout.TranscriptionExt)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to collect transcription output")
	}

	if len(midiFiles) != 1 {
		return errctx.Field("midi_files", midiFiles).Error("Expected exactly one transcription file")
	}

	dest := filepath.Join(outputDir, filename.Stem(absInput)+layout.TranscriptionExt)
	if err := layout.MoveFile(midiFiles[0], dest); err != nil {
		return errctx.Wrap(err).Error("Failed to move transcription into place")
	}

	logger.WithField("output", dest).Info("Finished basic-pitch command")

	return nil
}
