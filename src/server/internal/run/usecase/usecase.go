package runusecase

import (
	"context"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
	runerrors "github.com/veedubyou/midifi/src/server/internal/run/errors"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/rabbitmq"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/shared/run/job"
	runstorage "github.com/veedubyou/midifi/src/shared/run/storage"
)

const enqueueStage = runentity.Stage("enqueue")

// CreateRunRequest is what a client may ask for. AudioFile is relative to the
// output root; absolute artifact paths are never accepted from outside.
type CreateRunRequest struct {
	URL       string         `json:"url"`
	AudioFile string         `json:"audio_file"`
	Plan      runentity.Plan `json:"plan"`
}

type Usecase struct {
	db        runentity.Store
	publisher rabbitmq.Publisher
	manager   layout.Manager
}

func NewUsecase(db runentity.Store, publisher rabbitmq.Publisher, manager layout.Manager) Usecase {
	return Usecase{
		db:        db,
		publisher: publisher,
		manager:   manager,
	}
}

func (u Usecase) GetRun(ctx context.Context, runID string) (runentity.RunRecord, *api.Error) {
	record, err := u.db.GetRun(ctx, runID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get run from DB")
		switch {
		case markers.Is(err, runstorage.RunNotFound):
			return runentity.RunRecord{}, api.CommitError(err,
				runerrors.RunNotFoundCode,
				"The requested run could not be found")

		case markers.Is(err, runstorage.IDEmptyMark):
			return runentity.RunRecord{}, api.CommitError(err,
				runerrors.RunNotFoundCode,
				"No run ID was provided")

		default:
			return runentity.RunRecord{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown Error: Failed to fetch the run")
		}
	}

	return record, nil
}

func (u Usecase) CreateRun(ctx context.Context, createRequest CreateRunRequest) (runentity.RunRecord, *api.Error) {
	request, apiErr := u.toRequest(createRequest)
	if apiErr != nil {
		return runentity.RunRecord{}, apiErr
	}

	record := runentity.NewRunRecord(request)

	if err := u.db.SetRun(ctx, record); err != nil {
		return runentity.RunRecord{}, api.CommitError(errors.Wrap(err, "Failed to save new run"),
			api.DefaultErrorCode,
			"Unknown error: Failed to save the run. Please contact the developer")
	}

	if err := u.publishRun(record); err != nil {
		u.markEnqueueFailed(ctx, record, err)
		return runentity.RunRecord{}, api.CommitError(err,
			runerrors.EnqueueFailedCode,
			"The run could not be queued. Please try again later")
	}

	log.WithField("run_id", record.ID).Info("Queued run")

	return record, nil
}

func (u Usecase) toRequest(createRequest CreateRunRequest) (runentity.Request, *api.Error) {
	hasURL := createRequest.URL != ""
	hasFile := createRequest.AudioFile != ""

	if hasURL == hasFile {
		return runentity.Request{}, api.CommitError(errors.New("Run request must name exactly one of url and audio_file"),
			runerrors.BadRunRequestCode,
			"Provide either a URL or an audio file, but not both")
	}

	plan := createRequest.Plan
	if plan.Stages.IsEmpty() {
		plan.Stages = runentity.AllStages()
	}

	request := runentity.Request{
		URL:  createRequest.URL,
		Plan: plan.WithDefaults(),
	}

	if hasFile {
		audioFile, err := u.manager.Contain(createRequest.AudioFile)
		if err != nil {
			return runentity.Request{}, api.CommitError(err,
				runerrors.BadRunRequestCode,
				"The audio file must be inside the output directory")
		}

		if !layout.Exists(audioFile) {
			return runentity.Request{}, api.CommitError(errors.Newf("Audio file %s does not exist", audioFile),
				runerrors.BadRunRequestCode,
				"The audio file does not exist")
		}

		request.AudioFile = audioFile
	}

	return request, nil
}

func (u Usecase) publishRun(record runentity.RunRecord) error {
	msg, err := job.NewRunPipelineMessage(job.RunPipelineParams{
		RunID:   record.ID,
		Request: record.Request,
	})
	if err != nil {
		return errors.Wrap(err, "Failed to build run message")
	}

	if err := u.publisher.Publish(msg); err != nil {
		return errors.Wrap(err, "Failed to publish message to rabbitmq")
	}

	return nil
}

func (u Usecase) markEnqueueFailed(ctx context.Context, record runentity.RunRecord, enqueueErr error) {
	record.Fail(enqueueStage, enqueueErr.Error())
	record.Finish()

	if err := u.db.SetRun(ctx, record); err != nil {
		log.WithField("run_id", record.ID).
			WithError(err).
			Error("Failed to mark run as failed to enqueue")
	}
}
