package main

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

type runOptions struct {
	url  string
	file string

	download      bool
	separate      bool
	separateDrums bool
	transcribe    bool
	rebuild       []string

	model              string
	drumModel          string
	drumModelRepo      string
	device             string
	cudaVisibleDevices string
	jobs               int
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	options := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for a URL or an existing audio file",
		Long: "Runs the selected stages for every item a URL expands to, or for one\n" +
			"audio file already on disk. Without stage flags every stage runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, options)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&options.url, "url", "u", "", "Media or playlist URL")
	flags.StringVarP(&options.file, "file", "f", "", "Audio file already inside a song directory")
	flags.BoolVarP(&options.download, "download", "d", false, "Download the raw audio")
	flags.BoolVarP(&options.separate, "separate", "s", false, "Separate the raw audio into stems")
	flags.BoolVar(&options.separateDrums, "separate-drums", false, "Split the drum stem into components")
	flags.BoolVarP(&options.transcribe, "transcribe", "t", false, "Transcribe stems to MIDI")
	flags.StringSliceVar(&options.rebuild, "rebuild", nil, "Stages to redo even when their outputs exist")
	flags.StringVar(&options.model, "model", layout.DefaultModel, "Separation model")
	flags.StringVar(&options.drumModel, "drum-model", layout.DefaultDrumModel, "Drum separation model")
	flags.StringVar(&options.drumModelRepo, "drum-model-repo", "", "Directory holding the drum model weights")
	flags.StringVar(&options.device, "device", runentity.DefaultDeviceName, "Separation device, such as cpu or cuda")
	flags.StringVar(&options.cudaVisibleDevices, "cuda-visible-devices", "", "CUDA_VISIBLE_DEVICES for the separation engine")
	flags.IntVarP(&options.jobs, "jobs", "j", runentity.DefaultJobs, "Parallel items and separation jobs")

	cmd.MarkFlagsMutuallyExclusive("url", "file")

	return cmd
}

func (o runOptions) plan() (runentity.Plan, error) {
	stages := runentity.StageSet{
		Download:      o.download,
		Separate:      o.separate,
		SeparateDrums: o.separateDrums,
		Transcribe:    o.transcribe,
	}

	if stages.IsEmpty() {
		stages = runentity.AllStages()
	}

	rebuild, err := parseStages(o.rebuild)
	if err != nil {
		return runentity.Plan{}, err
	}

	plan := runentity.Plan{
		Stages:    stages,
		Rebuild:   rebuild,
		Model:     o.model,
		DrumModel: o.drumModel,
		Device: runentity.Device{
			Name:           o.device,
			VisibleDevices: o.cudaVisibleDevices,
		},
		Jobs: o.jobs,
	}

	return plan.WithDefaults(), nil
}

// parseStages accepts stage names with either dashes or underscores.
func parseStages(names []string) (runentity.StageSet, error) {
	set := runentity.StageSet{}

	for _, name := range names {
		switch runentity.Stage(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")) {
		case runentity.DownloadStage:
			set.Download = true
		case runentity.SeparateStage:
			set.Separate = true
		case runentity.SeparateDrumsStage:
			set.SeparateDrums = true
		case runentity.TranscribeStage:
			set.Transcribe = true
		default:
			return runentity.StageSet{}, errors.Newf("unknown stage %q", name)
		}
	}

	return set, nil
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, options runOptions) error {
	if options.url == "" && options.file == "" {
		return errors.New("one of --url or --file is required")
	}

	plan, err := options.plan()
	if err != nil {
		return err
	}

	orchestrator, _, err := ctx.orchestrator(engineOptions{
		needs: engineNeeds{
			downloader:  options.url != "",
			separator:   plan.Stages.Separate || plan.Stages.SeparateDrums,
			transcriber: plan.Stages.Transcribe,
		},
		jobs:          plan.Jobs,
		drumModel:     plan.DrumModel,
		drumModelRepo: options.drumModelRepo,
	})
	if err != nil {
		return err
	}

	var records []runentity.RunRecord

	if options.url != "" {
		records, err = orchestrator.RunURL(cmd.Context(), options.url, plan)
		if err != nil {
			return err
		}
	} else {
		audioFile, err := filepath.Abs(options.file)
		if err != nil {
			return errors.Wrap(err, "resolve audio file path")
		}

		if !layout.Exists(audioFile) {
			return errors.Newf("audio file does not exist: %s", audioFile)
		}

		records = []runentity.RunRecord{
			orchestrator.Run(cmd.Context(), runentity.Request{AudioFile: audioFile, Plan: plan}),
		}
	}

	if err := printRecords(cmd.OutOrStdout(), records); err != nil {
		return err
	}

	failed := 0
	for _, record := range records {
		if record.IsFailed() {
			failed++
		}
	}

	if failed > 0 {
		return errors.Newf("%d of %d runs failed", failed, len(records))
	}

	return cmd.Context().Err()
}
