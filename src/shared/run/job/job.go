package job

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

const RunPipelineType string = "run_pipeline"

// RunPipelineParams is the body of a run_pipeline message. The run record
// already exists in the store under RunID when the message is published.
type RunPipelineParams struct {
	RunID   string            `json:"run_id"`
	Request runentity.Request `json:"request"`
}

func (r RunPipelineParams) Validate() error {
	if r.RunID == "" {
		return errors.New("Missing run ID")
	}

	request := r.Request
	if request.URL == "" && !request.HasArtifacts() {
		return errors.New("Request names neither a URL nor existing artifacts")
	}

	if request.Plan.Stages.IsEmpty() {
		return errors.New("Request selects no stages")
	}

	return nil
}

func NewRunPipelineMessage(params RunPipelineParams) (amqp091.Publishing, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return amqp091.Publishing{}, errors.Wrap(err, "Failed to marshal run pipeline params")
	}

	return amqp091.Publishing{
		Type: RunPipelineType,
		Body: body,
	}, nil
}

func ParseRunPipelineMessage(message []byte) (RunPipelineParams, error) {
	params := RunPipelineParams{}
	if err := json.Unmarshal(message, &params); err != nil {
		return RunPipelineParams{}, errors.Wrap(err, "Failed to unmarshal message JSON")
	}

	if err := params.Validate(); err != nil {
		return RunPipelineParams{}, errors.Wrap(err, "Invalid run pipeline message")
	}

	return params, nil
}
