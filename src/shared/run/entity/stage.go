package runentity

type Stage string

const (
	DownloadStage      Stage = "download"
	SeparateStage      Stage = "separate"
	SeparateDrumsStage Stage = "separate_drums"
	TranscribeStage    Stage = "transcribe"
)

// Stages lists every stage in execution order.
var Stages = []Stage{DownloadStage, SeparateStage, SeparateDrumsStage, TranscribeStage}

type Status string

const (
	Pending Status = "pending"
	Skipped Status = "skipped"
	Done    Status = "done"
	Failed  Status = "failed"
)

type State string

const (
	Created        State = "created"
	Resolved       State = "resolved"
	Downloaded     State = "downloaded"
	Separated      State = "separated"
	DrumsSeparated State = "drums_separated"
	Transcribed    State = "transcribed"
	Complete       State = "complete"
	FailedState    State = "failed"
)

// StateAfter is the state a run reaches once the stage has been settled.
func StateAfter(stage Stage) State {
	switch stage {
	case DownloadStage:
		return Downloaded
	case SeparateStage:
		return Separated
	case SeparateDrumsStage:
		return DrumsSeparated
	case TranscribeStage:
		return Transcribed
	default:
		panic("Unrecognized stage")
	}
}

type Output struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Status Status `json:"status"`
}

type StageResult struct {
	Status  Status   `json:"status"`
	Reason  string   `json:"reason,omitempty"`
	Error   string   `json:"error,omitempty"`
	Outputs []Output `json:"outputs"`
}

func PendingResult() StageResult {
	return StageResult{Status: Pending, Outputs: []Output{}}
}

func SkippedResult(reason string, outputs ...Output) StageResult {
	return StageResult{Status: Skipped, Reason: reason, Outputs: nonNil(outputs)}
}

func DoneResult(outputs ...Output) StageResult {
	return StageResult{Status: Done, Outputs: nonNil(outputs)}
}

func FailedResult(err error, outputs ...Output) StageResult {
	return StageResult{Status: Failed, Error: err.Error(), Outputs: nonNil(outputs)}
}

// Settled reports whether the stage no longer blocks the stages after it.
func (s StageResult) Settled() bool {
	return s.Status == Skipped || s.Status == Done
}

func (s StageResult) OutputPaths() []string {
	paths := make([]string, 0, len(s.Outputs))
	for _, output := range s.Outputs {
		paths = append(paths, output.Path)
	}

	return paths
}

func nonNil(outputs []Output) []Output {
	if outputs == nil {
		return []Output{}
	}

	return outputs
}
