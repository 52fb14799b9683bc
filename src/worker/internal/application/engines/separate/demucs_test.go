package separate_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/separate"
	"github.com/veedubyou/midifi/src/worker/internal/application/integration_test/dummy"
)

const demucsBinPath = "/bin/demucs"

// writeStems fakes demucs writing <out>/<model>/<stem>.mp3 for each stem.
func writeStems(stems ...string) dummy.Behaviour {
	return func(invocation dummy.Invocation) ([]byte, error) {
		modelDir := filepath.Join(invocation.Arg("-o"), invocation.Arg("-n"))
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return nil, err
		}

		for _, stem := range stems {
			if err := os.WriteFile(filepath.Join(modelDir, stem+".mp3"), []byte(stem), 0o644); err != nil {
				return nil, err
			}
		}

		return []byte("Separated tracks will be stored in " + modelDir), nil
	}
}

var _ = Describe("Demucs", func() {
	var (
		dummyExecutor *dummy.Executor
		demucs        separate.Demucs
		ctx           context.Context

		songDir   string
		input     string
		outputDir string
		device    runentity.Device
	)

	BeforeEach(func() {
		ctx = context.Background()
		dummyExecutor = dummy.NewDummyExecutor()
		demucs = separate.NewDemucs(separate.DemucsConfig{
			BinPath: demucsBinPath,
			ModelRepos: map[string]string{
				"modelo_final": "/models/drums",
			},
		}, dummyExecutor)

		root, err := os.MkdirTemp("", "demucs-test")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, root)

		songDir = filepath.Join(root, "Band", "Tune")
		input = filepath.Join(songDir, "Band - Tune.mp3")
		outputDir = filepath.Join(songDir, "htdemucs")
		Expect(os.MkdirAll(songDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(input, []byte("audio"), 0o644)).To(Succeed())

		device = runentity.Device{Name: "cuda"}
	})

	Describe("Happy path", func() {
		BeforeEach(func() {
			dummyExecutor.On(demucsBinPath, writeStems("bass", "drums", "other", "vocals"))
		})

		It("moves every stem into the output dir", func() {
			Expect(demucs.Separate(ctx, input, outputDir, "htdemucs", device)).To(Succeed())

			for _, stem := range []string{"bass", "drums", "other", "vocals"} {
				contents, err := os.ReadFile(filepath.Join(outputDir, stem+".mp3"))
				Expect(err).NotTo(HaveOccurred())
				Expect(string(contents)).To(Equal(stem))
			}
		})

		It("runs demucs with the model, device and mp3 output", func() {
			Expect(demucs.Separate(ctx, input, outputDir, "htdemucs", device)).To(Succeed())

			calls := dummyExecutor.Calls(demucsBinPath)
			Expect(calls).To(HaveLen(1))
			call := calls[0]
			Expect(call.Arg("-d")).To(Equal("cuda"))
			Expect(call.Arg("-n")).To(Equal("htdemucs"))
			Expect(call.Arg("--jobs")).To(Equal("4"))
			Expect(call.Arg("--mp3-bitrate")).To(Equal("192"))
			Expect(call.Arg("--filename")).To(Equal("{stem}.{ext}"))
			Expect(call.HasArg("--mp3")).To(BeTrue())
			Expect(call.HasArg("--repo")).To(BeFalse())
			Expect(call.Args[len(call.Args)-1]).To(Equal(input))
		})

		It("leaves the device visibility alone when none is given", func() {
			Expect(demucs.Separate(ctx, input, outputDir, "htdemucs", device)).To(Succeed())
			Expect(dummyExecutor.Calls(demucsBinPath)[0].Env).To(BeEmpty())
		})

		It("leaves only the output dir beside the input", func() {
			Expect(demucs.Separate(ctx, input, outputDir, "htdemucs", device)).To(Succeed())

			entries, err := os.ReadDir(songDir)
			Expect(err).NotTo(HaveOccurred())
			names := []string{}
			for _, entry := range entries {
				names = append(names, entry.Name())
			}
			Expect(names).To(ConsistOf("Band - Tune.mp3", "htdemucs"))
		})
	})

	Describe("A device is pinned", func() {
		BeforeEach(func() {
			dummyExecutor.On(demucsBinPath, writeStems("bass", "drums", "other", "vocals"))
			device = runentity.Device{Name: "cuda", VisibleDevices: "1"}
		})

		It("sets the visible devices for the child process only", func() {
			Expect(demucs.Separate(ctx, input, outputDir, "htdemucs", device)).To(Succeed())
			Expect(dummyExecutor.Calls(demucsBinPath)[0].Env).To(HaveKeyWithValue("CUDA_VISIBLE_DEVICES", "1"))
			Expect(os.Getenv("CUDA_VISIBLE_DEVICES")).NotTo(Equal("1"))
		})
	})

	Describe("A model with its own weights repo", func() {
		BeforeEach(func() {
			dummyExecutor.On(demucsBinPath, writeStems("bombo", "redoblante", "platillos", "toms"))
			outputDir = filepath.Join(songDir, "htdemucs", "drums_drums")
		})

		It("points demucs at the repo", func() {
			drumsInput := filepath.Join(songDir, "htdemucs", "drums.mp3")
			Expect(os.MkdirAll(filepath.Dir(drumsInput), 0o755)).To(Succeed())
			Expect(os.WriteFile(drumsInput, []byte("drums"), 0o644)).To(Succeed())

			Expect(demucs.Separate(ctx, drumsInput, outputDir, "modelo_final", device)).To(Succeed())

			call := dummyExecutor.Calls(demucsBinPath)[0]
			Expect(call.Arg("--repo")).To(Equal("/models/drums"))
			Expect(filepath.Join(outputDir, "bombo.mp3")).To(BeAnExistingFile())
		})
	})

	Describe("demucs fails", func() {
		BeforeEach(func() {
			dummyExecutor.On(demucsBinPath, func(_ dummy.Invocation) ([]byte, error) {
				return []byte("CUDA out of memory"), dummy.EngineFailure
			})
		})

		It("returns an error and publishes no stems", func() {
			err := demucs.Separate(ctx, input, outputDir, "htdemucs", device)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("CUDA out of memory"))
			Expect(filepath.Join(outputDir, "drums.mp3")).NotTo(BeAnExistingFile())
		})
	})

	Describe("demucs produces nothing", func() {
		BeforeEach(func() {
			dummyExecutor.On(demucsBinPath, writeStems())
		})

		It("returns an error", func() {
			Expect(demucs.Separate(ctx, input, outputDir, "htdemucs", device)).NotTo(Succeed())
		})
	})
})
