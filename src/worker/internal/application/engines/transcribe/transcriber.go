package transcribe

import "context"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Transcriber
type Transcriber interface {
	// Transcribe writes <stem>.mid for the input into outputDir.
	Transcribe(ctx context.Context, input string, outputDir string) error
}
