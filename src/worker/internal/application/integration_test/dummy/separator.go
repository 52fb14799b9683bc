package dummy

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/separate"
)

var _ separate.Separator = &Separator{}

var (
	FourStems = []string{"vocals", "drums", "bass", "other"}
	DrumStems = []string{"bombo", "redoblante", "platillos", "toms"}
)

func NewDummySeparator() *Separator {
	return &Separator{
		Stems: make(map[string][]string),
	}
}

type SeparateCall struct {
	Input     string
	OutputDir string
	Model     string
	Device    runentity.Device
}

// Separator writes one file per configured stem name. Models without an entry
// produce the four standard stems.
type Separator struct {
	Unavailable bool
	Stems       map[string][]string

	mutex sync.Mutex
	Calls []SeparateCall
}

func (s *Separator) Separate(ctx context.Context, input string, outputDir string, model string, device runentity.Device) error {
	s.mutex.Lock()
	s.Calls = append(s.Calls, SeparateCall{Input: input, OutputDir: outputDir, Model: model, Device: device})
	stems, ok := s.Stems[model]
	unavailable := s.Unavailable
	s.mutex.Unlock()

	if unavailable {
		return EngineFailure
	}

	if !ok {
		stems = FourStems
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return err
	}

	for _, stem := range stems {
		if err := os.WriteFile(filepath.Join(outputDir, stem+".mp3"), []byte(stem), 0o644); err != nil {
			return err
		}
	}

	return nil
}

func (s *Separator) CallCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.Calls)
}
