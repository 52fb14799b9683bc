package runentity

// StageSet selects stages by capability. Any combination is valid; stages
// outside the set stay pending and their outputs are taken from disk.
type StageSet struct {
	Download      bool `json:"download"`
	Separate      bool `json:"separate"`
	SeparateDrums bool `json:"separate_drums"`
	Transcribe    bool `json:"transcribe"`
}

func AllStages() StageSet {
	return StageSet{
		Download:      true,
		Separate:      true,
		SeparateDrums: true,
		Transcribe:    true,
	}
}

func (s StageSet) Has(stage Stage) bool {
	switch stage {
	case DownloadStage:
		return s.Download
	case SeparateStage:
		return s.Separate
	case SeparateDrumsStage:
		return s.SeparateDrums
	case TranscribeStage:
		return s.Transcribe
	default:
		return false
	}
}

func (s StageSet) IsEmpty() bool {
	return s == StageSet{}
}

// Device pins a run to an accelerator. VisibleDevices is handed to the
// separation engine's environment and never set on this process.
type Device struct {
	Name           string `json:"name"`
	VisibleDevices string `json:"visible_devices,omitempty"`
}

const (
	DefaultDeviceName = "cuda"
	DefaultJobs       = 4
)

type Plan struct {
	Stages    StageSet `json:"stages"`
	Rebuild   StageSet `json:"rebuild"`
	Model     string   `json:"model"`
	DrumModel string   `json:"drum_model"`
	Device    Device   `json:"device"`
	Jobs      int      `json:"jobs"`
}

// WithDefaults fills the values a caller left out.
func (p Plan) WithDefaults() Plan {
	if p.Device.Name == "" {
		p.Device.Name = DefaultDeviceName
	}

	if p.Jobs <= 0 {
		p.Jobs = DefaultJobs
	}

	return p
}
