package main

import (
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/config/envvar"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/download"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/separate"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/transcribe"
	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
	"github.com/veedubyou/midifi/src/worker/internal/application/pipeline"
)

const defaultOutputRoot = "output"

// toolchain is how commands reach external binaries.
type toolchain struct {
	executor executor.Executor
	// lookPath returns "" when the binary is not installed
	lookPath func(bin string) string
}

type binary struct {
	name   string
	envKey string
	flag   *string
}

type commandContext struct {
	tools toolchain

	outputRoot    string
	verbose       bool
	youtubeDLBin  string
	demucsBin     string
	basicPitchBin string
}

func newCommandContext(tools toolchain) *commandContext {
	return &commandContext{tools: tools}
}

func (c *commandContext) root() string {
	if c.outputRoot != "" {
		return c.outputRoot
	}

	return envvar.GetOr(envvar.OUTPUT_ROOT, defaultOutputRoot)
}

// binPath takes the flag first, then the env variable, then PATH.
func (c *commandContext) binPath(bin binary) (string, error) {
	if *bin.flag != "" {
		return *bin.flag, nil
	}

	if path := envvar.GetOr(bin.envKey, ""); path != "" {
		return path, nil
	}

	if path := c.tools.lookPath(bin.name); path != "" {
		return path, nil
	}

	return "", errors.Newf("%s not found, install it or pass --%s or set %s", bin.name, bin.name, bin.envKey)
}

func (c *commandContext) youtubeDL() binary {
	return binary{name: "yt-dlp", envKey: envvar.YOUTUBEDL_BIN_PATH, flag: &c.youtubeDLBin}
}

func (c *commandContext) demucs() binary {
	return binary{name: "demucs", envKey: envvar.DEMUCS_BIN_PATH, flag: &c.demucsBin}
}

func (c *commandContext) basicPitch() binary {
	return binary{name: "basic-pitch", envKey: envvar.BASIC_PITCH_BIN_PATH, flag: &c.basicPitchBin}
}

func (c *commandContext) downloader() (download.YoutubeDLer, error) {
	binPath, err := c.binPath(c.youtubeDL())
	if err != nil {
		return download.YoutubeDLer{}, err
	}

	return download.NewYoutubeDLer(binPath, c.tools.executor), nil
}

type engineNeeds struct {
	downloader  bool
	separator   bool
	transcriber bool
}

type engineOptions struct {
	needs         engineNeeds
	jobs          int
	drumModel     string
	drumModelRepo string
}

// orchestrator only looks up the binaries a run is going to call.
func (c *commandContext) orchestrator(options engineOptions) (pipeline.Orchestrator, layout.Manager, error) {
	manager := layout.NewManager(c.root(), "", options.drumModel)
	collaborators := pipeline.Collaborators{}

	if options.needs.downloader {
		downloader, err := c.downloader()
		if err != nil {
			return pipeline.Orchestrator{}, layout.Manager{}, err
		}
		collaborators.Downloader = downloader
	}

	if options.needs.separator {
		binPath, err := c.binPath(c.demucs())
		if err != nil {
			return pipeline.Orchestrator{}, layout.Manager{}, err
		}

		repo := options.drumModelRepo
		if repo == "" {
			repo = envvar.GetOr(envvar.DRUM_MODEL_REPO, "")
		}

		modelRepos := map[string]string{}
		if repo != "" {
			modelRepos[manager.DrumModel] = repo
		}

		collaborators.Separator = separate.NewDemucs(separate.DemucsConfig{
			BinPath:    binPath,
			Jobs:       options.jobs,
			ModelRepos: modelRepos,
		}, c.tools.executor)
	}

	if options.needs.transcriber {
		binPath, err := c.binPath(c.basicPitch())
		if err != nil {
			return pipeline.Orchestrator{}, layout.Manager{}, err
		}
		collaborators.Transcriber = transcribe.NewBasicPitch(binPath, c.tools.executor)
	}

	return pipeline.NewOrchestrator(collaborators, manager, nil), manager, nil
}
