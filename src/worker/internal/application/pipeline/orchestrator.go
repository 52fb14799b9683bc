package pipeline

import (
	"context"
	"path/filepath"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
	"github.com/veedubyou/midifi/src/shared/media/title"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/download"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/separate"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/transcribe"
)

// RecordSink receives a copy of the run record after every stage.
type RecordSink interface {
	SetRun(ctx context.Context, record runentity.RunRecord) error
}

type Collaborators struct {
	Downloader  download.Downloader
	Separator   separate.Separator
	Transcriber transcribe.Transcriber
}

func NewOrchestrator(collaborators Collaborators, manager layout.Manager, sink RecordSink) Orchestrator {
	return Orchestrator{
		downloader:  collaborators.Downloader,
		separator:   collaborators.Separator,
		transcriber: collaborators.Transcriber,
		layout:      manager,
		sink:        sink,
	}
}

// Orchestrator drives one run at a time through resolve, download, separate,
// separate drums and transcribe. It keeps no state between runs, so a single
// value may serve many runs concurrently.
type Orchestrator struct {
	downloader  download.Downloader
	separator   separate.Separator
	transcriber transcribe.Transcriber
	layout      layout.Manager
	sink        RecordSink
}

// run carries the per-run values every stage needs.
type run struct {
	record *runentity.RunRecord
	plan   runentity.Plan
	layout layout.Manager
	logger log.Interface
}

func (o Orchestrator) Run(ctx context.Context, request runentity.Request) runentity.RunRecord {
	return o.RunWithID(ctx, uuid.New().String(), request)
}

// RunWithID runs one item under a caller chosen run ID. Failures are recorded
// on the returned record, never returned or raised.
func (o Orchestrator) RunWithID(ctx context.Context, id string, request runentity.Request) runentity.RunRecord {
	plan := request.Plan.WithDefaults()
	manager := o.layout.WithModel(plan.Model).WithDrumModel(plan.DrumModel)
	plan.Model = manager.Model
	plan.DrumModel = manager.DrumModel
	request.Plan = plan

	record := runentity.NewRunRecordWithID(id, request)
	r := run{
		record: &record,
		plan:   plan,
		layout: manager,
		logger: log.WithField("run_id", id),
	}

	r.logger.Info("Starting run")
	o.save(ctx, r)

	if err := o.resolve(ctx, r); err != nil {
		record.Fail(runentity.ResolveStage, err.Error())
		return o.finish(ctx, r)
	}
	o.save(ctx, r)

	for _, stage := range runentity.Stages {
		if err := ctx.Err(); err != nil {
			cancelled := mark.Wrap(err, Cancelled, "Run cancelled before stage")
			r.logger.WithField("stage", stage).Warn("Run cancelled, remaining stages left pending")
			record.Fail(stage, cancelled.Error())
			break
		}

		if !plan.Stages.Has(stage) && !o.presatisfied(r, stage) {
			continue
		}

		result := o.runStage(ctx, r, stage)
		record.Record(stage, result)
		o.save(ctx, r)

		if result.Status == runentity.Failed {
			r.logger.WithFields(log.Fields{
				"stage": stage,
				"error": result.Error,
			}).Error("Stage failed")
			break
		}
	}

	return o.finish(ctx, r)
}

// presatisfied reports stages a caller covered by supplying artifacts.
func (o Orchestrator) presatisfied(r run, stage runentity.Stage) bool {
	return stage == runentity.DownloadStage && r.record.Request.HasArtifacts()
}

func (o Orchestrator) runStage(ctx context.Context, r run, stage runentity.Stage) runentity.StageResult {
	logger := r.logger.WithField("stage", stage)
	logger.Info("Starting stage")

	if r.plan.Rebuild.Has(stage) && r.plan.Stages.Has(stage) {
		if err := o.clearStage(r, stage); err != nil {
			return runentity.FailedResult(err)
		}
	}

	var result runentity.StageResult
	switch stage {
	case runentity.DownloadStage:
		result = o.download(ctx, r)
	case runentity.SeparateStage:
		result = o.separate(ctx, r)
	case runentity.SeparateDrumsStage:
		result = o.separateDrums(ctx, r)
	case runentity.TranscribeStage:
		result = o.transcribe(ctx, r)
	default:
		panic("Unrecognized stage")
	}

	logger.WithFields(log.Fields{
		"status":  result.Status,
		"reason":  result.Reason,
		"outputs": len(result.Outputs),
	}).Info("Finished stage")

	return result
}

func (o Orchestrator) resolve(ctx context.Context, r run) error {
	request := r.record.Request

	switch {
	case request.Paths != nil:
		r.record.Paths = *request.Paths
		r.record.Name = nameFromPaths(r.record.Paths)

	case request.AudioFile != "":
		r.record.Paths = r.layout.FromAudioFile(request.AudioFile)
		r.record.Name = nameFromPaths(r.record.Paths)

	case request.URL != "":
		metadata, err := o.itemMetadata(ctx, request)
		if err != nil {
			return err
		}

		r.record.Identity = metadata.Identity(request.URL)
		r.record.Name = title.Resolve(r.record.Identity)
		r.record.Paths = r.layout.Paths(r.record.Name)

	default:
		return cerr.Error("Request has neither a URL nor existing artifacts")
	}

	r.record.State = runentity.Resolved
	r.logger.WithFields(log.Fields{
		"artist":   r.record.Name.Artist,
		"song":     r.record.Name.Song,
		"song_dir": r.record.Paths.SongDir,
	}).Info("Resolved canonical name")

	return nil
}

// itemMetadata uses metadata that came with the request when it is complete,
// and asks the downloader otherwise. Flat playlist entries are incomplete.
func (o Orchestrator) itemMetadata(ctx context.Context, request runentity.Request) (mediaentity.Metadata, error) {
	if request.Metadata != nil && !request.Metadata.IsFlat() {
		return *request.Metadata, nil
	}

	itemURL := request.URL
	if request.Metadata != nil {
		itemURL = request.Metadata.ItemURL(request.URL)
	}

	errctx := cerr.Field("url", itemURL)

	items, err := o.downloader.Resolve(ctx, itemURL)
	if err != nil {
		return mediaentity.Metadata{}, errctx.Wrap(mark.Wrap(err, CollaboratorUnavailable, "Downloader failed to resolve")).
			Error("Failed to resolve media info")
	}

	if len(items) != 1 {
		return mediaentity.Metadata{}, errctx.Field("items", len(items)).
			Error("URL does not resolve to exactly one item")
	}

	return items[0], nil
}

func nameFromPaths(paths layout.ArtifactPaths) mediaentity.CanonicalName {
	return mediaentity.CanonicalName{
		Artist: filepath.Base(paths.ArtistDir),
		Song:   filepath.Base(paths.SongDir),
	}
}

func (o Orchestrator) finish(ctx context.Context, r run) runentity.RunRecord {
	o.refreshPaths(r)

	// a cancelled run stays unfinished so a redelivered job picks it up again
	if ctx.Err() != nil && r.record.IsFailed() {
		o.save(ctx, r)
		r.logger.WithField("failed_stage", r.record.FailedStage).Warn("Run interrupted")
		return *r.record
	}

	r.record.Finish()
	o.save(ctx, r)

	r.logger.WithFields(log.Fields{
		"state":        r.record.State,
		"failed_stage": r.record.FailedStage,
	}).Info("Finished run")

	return *r.record
}

// refreshPaths fills the stem lists from disk, which is authoritative over
// whatever the engines reported.
func (o Orchestrator) refreshPaths(r run) {
	if r.record.Paths.SongDir == "" {
		return
	}

	if stems, err := layout.ScanAudio(r.record.Paths.StemDir); err == nil {
		r.record.Paths.StemFiles = stems
	}

	if drums, err := layout.ScanAudio(r.record.Paths.DrumStemDir); err == nil {
		r.record.Paths.DrumStemFiles = drums
	}
}

// save hands the record to the sink. The directory tree is the state that
// matters, so a sink failure is logged and the run carries on.
func (o Orchestrator) save(ctx context.Context, r run) {
	o.saveRecord(ctx, *r.record)
}

func (o Orchestrator) saveRecord(ctx context.Context, record runentity.RunRecord) {
	if o.sink == nil {
		return
	}

	if err := o.sink.SetRun(context.WithoutCancel(ctx), record); err != nil {
		cerr.Log(cerr.Field("run_id", record.ID).Wrap(err).Error("Failed to save run record"))
	}
}
