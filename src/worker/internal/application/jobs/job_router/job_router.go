package job_router

import (
	"context"

	"github.com/apex/log"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/shared/run/job"
	"github.com/veedubyou/midifi/src/worker/internal/application/jobs/run"
	"github.com/veedubyou/midifi/src/worker/internal/application/pipeline"
)

const failedJobStage = runentity.Stage("job")

func NewJobRouter(runStore runentity.Store, runHandler run.RunJobHandler) JobRouter {
	return JobRouter{
		runStore:   runStore,
		runHandler: runHandler,
	}
}

type JobRouter struct {
	runStore   runentity.Store
	runHandler run.RunJobHandler
}

func (j JobRouter) HandleMessage(ctx context.Context, message amqp091.Delivery) error {
	switch message.Type {
	case run.JobType:
		record, err := j.runHandler.HandleRunJob(ctx, message.Body)
		if err != nil {
			if !markers.Is(err, pipeline.Cancelled) {
				j.recordFailure(ctx, message.Body, err)
			}
			return cerr.Wrap(err).Error(run.ErrorMessage)
		}

		log.WithFields(log.Fields{
			"run_id": record.ID,
			"state":  record.State,
		}).Info("Run job handled")

		return nil

	default:
		return cerr.Field("message_type", message.Type).Error("Unrecognized message type")
	}
}

// recordFailure marks the stored run as failed so callers polling it are not
// left waiting on a job that will never finish.
func (j JobRouter) recordFailure(ctx context.Context, body []byte, jobErr error) {
	params, err := job.ParseRunPipelineMessage(body)
	if err != nil {
		return
	}

	record, err := j.runStore.GetRun(ctx, params.RunID)
	if err != nil {
		cerr.Log(cerr.Field("run_id", params.RunID).Wrap(err).Error("Failed to fetch run to record job failure"))
		return
	}

	if !record.IsFailed() {
		record.Fail(failedJobStage, jobErr.Error())
	}

	if !record.IsFinished() {
		record.Finish()
	}

	if err := j.runStore.SetRun(ctx, record); err != nil {
		cerr.Log(cerr.Field("run_id", params.RunID).Wrap(err).Error("Failed to record job failure"))
	}
}
