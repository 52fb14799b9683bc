package runentity

import (
	"time"

	"github.com/google/uuid"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/jsonlib"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
)

// ResolveStage only ever appears as a failed stage; resolving names is total,
// but looking up an item's metadata is not.
const ResolveStage Stage = "resolve"

// ItemsStage is the failed stage of a playlist run when one of its item runs
// failed.
const ItemsStage Stage = "items"

// Request describes one item to run. Exactly one of URL, AudioFile or Paths
// is expected; Metadata may accompany URL when the item was already resolved
// as part of a playlist.
type Request struct {
	URL       string                `json:"url,omitempty"`
	Metadata  *mediaentity.Metadata `json:"metadata,omitempty"`
	AudioFile string                `json:"audio_file,omitempty"`
	Paths     *layout.ArtifactPaths `json:"paths,omitempty"`
	Plan      Plan                  `json:"plan"`
}

// HasArtifacts reports whether the caller supplied the artifacts that resolve
// and download would otherwise produce.
func (r Request) HasArtifacts() bool {
	return r.AudioFile != "" || r.Paths != nil
}

type RunRecord struct {
	ID          string                    `json:"id"`
	Request     Request                   `json:"request"`
	Identity    mediaentity.MediaIdentity `json:"identity"`
	Name        mediaentity.CanonicalName `json:"name"`
	Paths       layout.ArtifactPaths      `json:"paths"`
	State       State                     `json:"state"`
	FailedStage Stage                     `json:"failed_stage,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Stages      map[Stage]StageResult     `json:"stages"`
	Items       []string                  `json:"items,omitempty"`
	StartedAt   time.Time                 `json:"started_at"`
	FinishedAt  time.Time                 `json:"finished_at"`
}

func NewRunRecord(request Request) RunRecord {
	return NewRunRecordWithID(uuid.New().String(), request)
}

func NewRunRecordWithID(id string, request Request) RunRecord {
	stages := make(map[Stage]StageResult, len(Stages))
	for _, stage := range Stages {
		stages[stage] = PendingResult()
	}

	return RunRecord{
		ID:        id,
		Request:   request,
		State:     Created,
		Stages:    stages,
		StartedAt: time.Now().UTC(),
	}
}

func (r RunRecord) Stage(stage Stage) StageResult {
	result, ok := r.Stages[stage]
	if !ok {
		return PendingResult()
	}

	return result
}

// Record stores a stage's result and advances the state when it settled.
func (r *RunRecord) Record(stage Stage, result StageResult) {
	r.Stages[stage] = result

	if result.Status == Failed {
		r.Fail(stage, result.Error)
		return
	}

	if result.Settled() {
		r.State = StateAfter(stage)
	}
}

func (r *RunRecord) Fail(stage Stage, reason string) {
	r.State = FailedState
	r.FailedStage = stage
	r.Error = reason
}

func (r *RunRecord) Finish() {
	if r.State != FailedState {
		r.State = Complete
	}

	r.FinishedAt = time.Now().UTC()
}

// IsInterrupted reports a run that failed without finishing, which happens
// when it was cancelled. It may be run again under the same ID.
func (r RunRecord) IsInterrupted() bool {
	return r.IsFailed() && !r.IsFinished()
}

func (r RunRecord) IsFailed() bool {
	return r.State == FailedState
}

func (r RunRecord) IsFinished() bool {
	return !r.FinishedAt.IsZero()
}

func (r RunRecord) ToMap() (map[string]any, error) {
	return jsonlib.StructToMap(r)
}

func (r *RunRecord) FromMap(m map[string]any) error {
	record, err := jsonlib.MapToStruct[RunRecord](m)
	if err != nil {
		return err
	}

	*r = record
	return nil
}
