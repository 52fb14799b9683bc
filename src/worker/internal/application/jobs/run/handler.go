package run

import (
	"context"

	"github.com/apex/log"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/shared/run/job"
	"github.com/veedubyou/midifi/src/worker/internal/application/pipeline"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType = job.RunPipelineType
const ErrorMessage string = "Failed to run the pipeline"

//counterfeiter:generate . RunJobHandler
type RunJobHandler interface {
	HandleRunJob(ctx context.Context, message []byte) (runentity.RunRecord, error)
}

var _ RunJobHandler = JobHandler{}

//counterfeiter:generate . Runner
type Runner interface {
	RunJob(ctx context.Context, id string, request runentity.Request) (runentity.RunRecord, []runentity.RunRecord)
}

// Mirror copies a finished run's artifacts somewhere else.
type Mirror interface {
	MirrorRun(ctx context.Context, record runentity.RunRecord) ([]string, error)
}

func NewJobHandler(runner Runner, runStore runentity.Store, mirror Mirror) JobHandler {
	return JobHandler{
		runner:   runner,
		runStore: runStore,
		mirror:   mirror,
	}
}

type JobHandler struct {
	runner   Runner
	runStore runentity.Store
	mirror   Mirror
}

func (j JobHandler) HandleRunJob(ctx context.Context, message []byte) (runentity.RunRecord, error) {
	params, err := job.ParseRunPipelineMessage(message)
	if err != nil {
		return runentity.RunRecord{}, cerr.Wrap(err).Error("Failed to parse run job")
	}

	errctx := cerr.Field("run_id", params.RunID)
	logger := log.WithField("run_id", params.RunID)

	// a redelivered message for a run that already finished is dropped
	existing, err := j.runStore.GetRun(ctx, params.RunID)
	if err == nil && existing.IsFinished() {
		logger.Info("Run already finished, skipping")
		return existing, nil
	}

	record, items := j.runner.RunJob(ctx, params.RunID, params.Request)

	if record.IsInterrupted() {
		return record, errctx.Wrap(mark.Message(pipeline.Cancelled, record.Error)).Error("Run was interrupted")
	}

	if j.mirror == nil {
		return record, nil
	}

	finished := items
	if len(record.Items) == 0 {
		finished = []runentity.RunRecord{record}
	}

	for _, item := range finished {
		if item.IsFailed() {
			continue
		}

		uploaded, err := j.mirror.MirrorRun(ctx, item)
		if err != nil {
			return record, errctx.Field("item_run_id", item.ID).Wrap(err).Error("Failed to mirror run artifacts")
		}

		logger.WithFields(log.Fields{
			"item_run_id": item.ID,
			"uploaded":    len(uploaded),
		}).Info("Mirrored run artifacts")
	}

	return record, nil
}
