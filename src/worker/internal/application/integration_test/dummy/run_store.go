package dummy

import (
	"context"
	"sync"

	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

var _ runentity.Store = &RunStore{}

func NewDummyRunStore() *RunStore {
	return &RunStore{
		Unavailable: false,
		State:       make(map[string]runentity.RunRecord),
	}
}

type RunStore struct {
	Unavailable bool
	State       map[string]runentity.RunRecord
	Writes      int
	mutex       sync.RWMutex
}

func (r *RunStore) GetRun(ctx context.Context, id string) (runentity.RunRecord, error) {
	if r.Unavailable {
		return runentity.RunRecord{}, NetworkFailure
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, ok := r.State[id]
	if !ok {
		return runentity.RunRecord{}, NotFound
	}

	return record, nil
}

func (r *RunStore) SetRun(ctx context.Context, record runentity.RunRecord) error {
	if r.Unavailable {
		return NetworkFailure
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.Writes++
	r.State[record.ID] = record
	return nil
}
