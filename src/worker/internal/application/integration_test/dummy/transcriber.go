package dummy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/veedubyou/midifi/src/worker/internal/application/engines/transcribe"
)

var _ transcribe.Transcriber = &Transcriber{}

func NewDummyTranscriber() *Transcriber {
	return &Transcriber{
		Silent: make(map[string]bool),
	}
}

// Transcriber writes <stem>.mid into the output dir. Stems in Silent report
// success without writing anything.
type Transcriber struct {
	Unavailable bool
	Silent      map[string]bool

	mutex  sync.Mutex
	Inputs []string
}

func (t *Transcriber) Transcribe(ctx context.Context, input string, outputDir string) error {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	t.mutex.Lock()
	t.Inputs = append(t.Inputs, input)
	unavailable := t.Unavailable
	silent := t.Silent[stem]
	t.mutex.Unlock()

	if unavailable {
		return EngineFailure
	}

	if silent {
		return nil
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(outputDir, stem+".mid"), []byte("midi:"+stem), 0o644)
}

func (t *Transcriber) CallCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.Inputs)
}
