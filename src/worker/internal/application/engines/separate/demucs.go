package separate

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/config/envvar"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
	"github.com/veedubyou/midifi/src/worker/internal/lib/working_dir"
)

var _ Separator = Demucs{}

const (
	DefaultJobs   = 4
	mp3Bitrate    = "192"
	filenameShape = "{stem}.{ext}"
)

type DemucsConfig struct {
	BinPath string
	Jobs    int
	// ModelRepos maps models that are not pretrained, such as the drum
	// model, to the directory holding their weights.
	ModelRepos map[string]string
}

func NewDemucs(config DemucsConfig, commandExecutor executor.Executor) Demucs {
	if config.Jobs <= 0 {
		config.Jobs = DefaultJobs
	}

	return Demucs{
		config:          config,
		commandExecutor: commandExecutor,
	}
}

type Demucs struct {
	config          DemucsConfig
	commandExecutor executor.Executor
}

func (d Demucs) Separate(ctx context.Context, input string, outputDir string, model string, device runentity.Device) error {
	absInput, err := filepath.Abs(input)
	if err != nil {
		return cerr.Wrap(err).Error("Cannot convert source path to absolute format")
	}

	errctx := cerr.Field("input", absInput).Field("output_dir", outputDir).Field("model", model)

	scratch, err := working_dir.NewScratch(outputDir, "separate")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to prepare separation dir")
	}
	defer scratch.Remove()

	if err := d.runDemucs(ctx, absInput, scratch, model, device); err != nil {
		return errctx.Wrap(err).Error("Failed to execute demucs")
	}

	stems, err := scratch.CollectFiles(layout.AudioExt)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to collect separated stems")
	}

	if len(stems) == 0 {
		return errctx.Error("demucs produced no stems")
	}

	for _, stem := range stems {
		if err := layout.MoveFile(stem, filepath.Join(outputDir, filepath.Base(stem))); err != nil {
			return errctx.Wrap(err).Error("Failed to move stem into place")
		}
	}

	return nil
}

func (d Demucs) runDemucs(ctx context.Context, input string, scratch working_dir.WorkingDir, model string, device runentity.Device) error {
	logger := log.WithFields(log.Fields{
		"input":      input,
		"model":      model,
		"device":     device.Name,
		"workingDir": scratch.Root(),
	})

	args := []string{
		"-d", device.Name,
		"--jobs", strconv.Itoa(d.config.Jobs),
		"--mp3",
		"--mp3-bitrate", mp3Bitrate,
		"-n", model,
		"-o", scratch.Root(),
		"--filename", filenameShape,
	}

	if repo, ok := d.config.ModelRepos[model]; ok && repo != "" {
		args = append(args, "--repo", repo)
	}

	args = append(args, input)

	errctx := cerr.Field("demucs_bin_path", d.config.BinPath).Field("demucs_args", args)

	cmd := d.commandExecutor.Command(ctx, d.config.BinPath, args...)
	cmd.SetDir(scratch.Root())
	if device.VisibleDevices != "" {
		cmd.SetEnv(envvar.CUDA_VISIBLE_DEVICES, device.VisibleDevices)
	}

	logger.Info("Running demucs command")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errctx.Field("demucs_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running demucs: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	return nil
}
