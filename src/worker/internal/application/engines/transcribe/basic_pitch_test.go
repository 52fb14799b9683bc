package transcribe_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/transcribe"
	"github.com/veedubyou/midifi/src/worker/internal/application/integration_test/dummy"
)

const basicPitchBinPath = "/bin/basic-pitch"

func writeMidi(invocation dummy.Invocation) ([]byte, error) {
	outDir, input := invocation.Args[0], invocation.Args[1]
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	midi := filepath.Join(outDir, stem+"_basic_pitch.mid")

	return nil, os.WriteFile(midi, []byte("midi:"+stem), 0o644)
}

var _ = Describe("BasicPitch", func() {
	var (
		dummyExecutor *dummy.Executor
		basicPitch    transcribe.BasicPitch
		ctx           context.Context

		input     string
		outputDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dummyExecutor = dummy.NewDummyExecutor()
		basicPitch = transcribe.NewBasicPitch(basicPitchBinPath, dummyExecutor)

		root, err := os.MkdirTemp("", "basic-pitch-test")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, root)

		input = filepath.Join(root, "htdemucs", "vocals.mp3")
		outputDir = filepath.Join(root, "midi")
		Expect(os.MkdirAll(filepath.Dir(input), 0o755)).To(Succeed())
		Expect(os.WriteFile(input, []byte("vocals"), 0o644)).To(Succeed())
	})

	Describe("Happy path", func() {
		BeforeEach(func() {
			dummyExecutor.On(basicPitchBinPath, writeMidi)
		})

		It("writes <stem>.mid into the output dir", func() {
			Expect(basicPitch.Transcribe(ctx, input, outputDir)).To(Succeed())

			contents, err := os.ReadFile(filepath.Join(outputDir, "vocals.mid"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("midi:vocals"))
		})

		It("passes the output dir and then the input", func() {
			Expect(basicPitch.Transcribe(ctx, input, outputDir)).To(Succeed())

			calls := dummyExecutor.Calls(basicPitchBinPath)
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Args).To(HaveLen(2))
			Expect(calls[0].Args[1]).To(Equal(input))
		})

		It("leaves only the transcription in the output dir", func() {
			Expect(basicPitch.Transcribe(ctx, input, outputDir)).To(Succeed())

			entries, err := os.ReadDir(outputDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("vocals.mid"))
		})

		It("replaces an earlier transcription", func() {
			Expect(os.MkdirAll(outputDir, 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(outputDir, "vocals.mid"), []byte("stale"), 0o644)).To(Succeed())

			Expect(basicPitch.Transcribe(ctx, input, outputDir)).To(Succeed())

			contents, err := os.ReadFile(filepath.Join(outputDir, "vocals.mid"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("midi:vocals"))
		})
	})

	Describe("basic-pitch fails", func() {
		BeforeEach(func() {
			dummyExecutor.On(basicPitchBinPath, func(_ dummy.Invocation) ([]byte, error) {
				return []byte("no such file"), dummy.EngineFailure
			})
		})

		It("returns an error", func() {
			Expect(basicPitch.Transcribe(ctx, input, outputDir)).NotTo(Succeed())
			Expect(filepath.Join(outputDir, "vocals.mid")).NotTo(BeAnExistingFile())
		})
	})

	Describe("basic-pitch writes nothing", func() {
		BeforeEach(func() {
			dummyExecutor.On(basicPitchBinPath, func(_ dummy.Invocation) ([]byte, error) {
				return nil, nil
			})
		})

		It("returns an error", func() {
			Expect(basicPitch.Transcribe(ctx, input, outputDir)).NotTo(Succeed())
		})
	})
})
