package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/integration_test/dummy"
	"github.com/veedubyou/midifi/src/worker/internal/application/pipeline"
)

const (
	songURL   = "https://www.youtube.com/watch?v=song"
	drumModel = "modelo_final"
)

func baseNames(files []string) []string {
	names := []string{}
	for _, file := range files {
		names = append(names, filepath.Base(file))
	}
	return names
}

func writeFile(path string, contents string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
}

var _ = Describe("Orchestrator", func() {
	var (
		root        string
		downloader  *dummy.Downloader
		separator   *dummy.Separator
		transcriber *dummy.Transcriber
		store       *dummy.RunStore
		manager     layout.Manager

		orchestrator pipeline.Orchestrator
		ctx          context.Context
		plan         runentity.Plan
	)

	BeforeEach(func() {
		By("Creating an empty output root", func() {
			var err error
			root, err = os.MkdirTemp("", "pipeline-test")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, root)
		})

		By("Setting up the dummy collaborators", func() {
			downloader = dummy.NewDummyDownloader()
			downloader.AddItem(songURL, mediaentity.MetadataFields{
				ID:         "song",
				Title:      "Artist X - Song Y (Official Video)",
				Channel:    "ArtistXVEVO",
				WebpageURL: songURL,
			})

			separator = dummy.NewDummySeparator()
			separator.Stems[drumModel] = dummy.DrumStems

			transcriber = dummy.NewDummyTranscriber()
			store = dummy.NewDummyRunStore()
		})

		By("Instantiating the orchestrator", func() {
			manager = layout.NewManager(root, "htdemucs", drumModel)
			orchestrator = pipeline.NewOrchestrator(pipeline.Collaborators{
				Downloader:  downloader,
				Separator:   separator,
				Transcriber: transcriber,
			}, manager, store)
		})

		ctx = context.Background()
		plan = runentity.Plan{
			Stages: runentity.AllStages(),
			Device: runentity.Device{Name: "cpu", VisibleDevices: "1"},
		}
	})

	Describe("A full run from a URL", func() {
		var record runentity.RunRecord

		JustBeforeEach(func() {
			record = orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
		})

		It("completes every stage", func() {
			Expect(record.State).To(Equal(runentity.Complete))
			Expect(record.Error).To(BeEmpty())
			for _, stage := range runentity.Stages {
				Expect(record.Stage(stage).Status).To(Equal(runentity.Done), "stage %s", stage)
			}
		})

		It("resolves the canonical name from the title", func() {
			Expect(record.Name).To(Equal(mediaentity.CanonicalName{Artist: "Artist X", Song: "Song Y"}))
			Expect(record.Paths.RawAudioFile).To(Equal(filepath.Join(root, "Artist X", "Song Y", "Song Y.mp3")))
			Expect(record.Paths.RawAudioFile).To(BeAnExistingFile())
		})

		It("separates with the plan's model and device", func() {
			Expect(separator.Calls).To(HaveLen(2))
			Expect(separator.Calls[0].Model).To(Equal("htdemucs"))
			Expect(separator.Calls[0].OutputDir).To(Equal(record.Paths.StemDir))
			Expect(separator.Calls[0].Device).To(Equal(runentity.Device{Name: "cpu", VisibleDevices: "1"}))
			Expect(separator.Calls[1].Model).To(Equal(drumModel))
			Expect(separator.Calls[1].Input).To(Equal(record.Paths.DrumTrackFile()))
		})

		It("records the stems found on disk", func() {
			Expect(baseNames(record.Paths.StemFiles)).To(ConsistOf("vocals.mp3", "drums.mp3", "bass.mp3", "other.mp3"))
		})

		It("renames every drum component to its canonical name", func() {
			Expect(baseNames(record.Paths.DrumStemFiles)).To(ConsistOf("kick.mp3", "snare.mp3", "cymbals.mp3", "toms.mp3"))

			for _, native := range []string{"bombo", "redoblante", "platillos"} {
				Expect(filepath.Join(record.Paths.DrumStemDir, native+".mp3")).NotTo(BeAnExistingFile())
			}
		})

		It("transcribes every stem except the raw audio and the split drum track", func() {
			Expect(transcriber.Inputs).NotTo(ContainElement(record.Paths.RawAudioFile))
			Expect(transcriber.Inputs).NotTo(ContainElement(record.Paths.DrumTrackFile()))
			Expect(baseNames(transcriber.Inputs)).To(ConsistOf(
				"vocals.mp3", "bass.mp3", "other.mp3",
				"kick.mp3", "snare.mp3", "cymbals.mp3", "toms.mp3",
			))

			Expect(filepath.Join(record.Paths.TranscriptionDir, "kick.mid")).To(BeAnExistingFile())
			Expect(filepath.Join(record.Paths.TranscriptionDir, "drums.mid")).NotTo(BeAnExistingFile())
		})

		It("saves the record after every stage", func() {
			stored, err := store.GetRun(ctx, record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.State).To(Equal(runentity.Complete))
			Expect(store.Writes).To(BeNumerically(">=", len(runentity.Stages)+2))
		})

		It("claims the song directory", func() {
			Expect(layout.MarkerPath(record.Paths)).To(BeAnExistingFile())
		})

		Describe("Without drum separation", func() {
			BeforeEach(func() {
				plan.Stages.SeparateDrums = false
			})

			It("transcribes the drum track itself", func() {
				Expect(record.Stage(runentity.SeparateDrumsStage).Status).To(Equal(runentity.Pending))
				Expect(transcriber.Inputs).To(ContainElement(record.Paths.DrumTrackFile()))
			})
		})
	})

	Describe("Running again over an existing tree", func() {
		var (
			first   runentity.RunRecord
			second  runentity.RunRecord
			modTime time.Time
		)

		BeforeEach(func() {
			first = orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
			Expect(first.State).To(Equal(runentity.Complete))

			info, err := os.Stat(first.Paths.RawAudioFile)
			Expect(err).NotTo(HaveOccurred())
			modTime = info.ModTime()

			second = orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
		})

		It("skips the download and leaves the raw audio untouched", func() {
			Expect(second.Stage(runentity.DownloadStage).Status).To(Equal(runentity.Skipped))
			Expect(second.Stage(runentity.DownloadStage).Reason).To(Equal(pipeline.ReasonRawAudioExists))
			Expect(downloader.DownloadCount()).To(Equal(1))

			info, err := os.Stat(second.Paths.RawAudioFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.ModTime()).To(Equal(modTime))

			contents, err := os.ReadFile(second.Paths.RawAudioFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("downloaded:" + songURL))
		})

		It("skips every other stage too", func() {
			Expect(second.State).To(Equal(runentity.Complete))
			Expect(second.Stage(runentity.SeparateStage).Status).To(Equal(runentity.Skipped))
			Expect(second.Stage(runentity.SeparateDrumsStage).Status).To(Equal(runentity.Skipped))
			Expect(second.Stage(runentity.TranscribeStage).Status).To(Equal(runentity.Skipped))
			Expect(separator.CallCount()).To(Equal(2))
			Expect(transcriber.CallCount()).To(Equal(7))
		})
	})

	Describe("Separating a file whose stems already exist", func() {
		var (
			songFile string
			record   runentity.RunRecord
		)

		BeforeEach(func() {
			songFile = filepath.Join(root, "Band", "Tune", "Tune.mp3")
			writeFile(songFile, "raw")
			for _, stem := range []string{"vocals", "drums", "bass", "other"} {
				writeFile(filepath.Join(root, "Band", "Tune", "htdemucs", stem+".mp3"), stem)
			}

			record = orchestrator.Run(ctx, runentity.Request{
				AudioFile: songFile,
				Plan: runentity.Plan{
					Stages: runentity.StageSet{Separate: true},
					Model:  "htdemucs",
				},
			})
		})

		It("doesn't invoke the separator", func() {
			Expect(separator.CallCount()).To(BeZero())
		})

		It("reports all four stems as skipped", func() {
			result := record.Stage(runentity.SeparateStage)
			Expect(result.Status).To(Equal(runentity.Skipped))
			Expect(result.Outputs).To(HaveLen(4))
			for _, output := range result.Outputs {
				Expect(output.Status).To(Equal(runentity.Skipped))
			}
			Expect(baseNames(result.OutputPaths())).To(ConsistOf("vocals.mp3", "drums.mp3", "bass.mp3", "other.mp3"))
		})

		It("treats download as satisfied by the caller", func() {
			Expect(record.Stage(runentity.DownloadStage).Status).To(Equal(runentity.Skipped))
			Expect(record.Stage(runentity.DownloadStage).Reason).To(Equal(pipeline.ReasonSuppliedByCaller))
			Expect(downloader.ResolveCalls).To(BeEmpty())
			Expect(record.State).To(Equal(runentity.Complete))
		})
	})

	Describe("Separating a file that doesn't exist", func() {
		var record runentity.RunRecord

		BeforeEach(func() {
			record = orchestrator.Run(ctx, runentity.Request{
				AudioFile: filepath.Join(root, "Nobody", "Nothing", "Nothing.mp3"),
				Plan:      runentity.Plan{Stages: runentity.StageSet{Separate: true, Transcribe: true}},
			})
		})

		It("fails fast without inferring the raw audio", func() {
			Expect(record.State).To(Equal(runentity.FailedState))
			Expect(record.FailedStage).To(Equal(runentity.SeparateStage))
			Expect(record.Error).To(ContainSubstring("raw audio file does not exist"))
			Expect(separator.CallCount()).To(BeZero())
			Expect(downloader.DownloadCount()).To(BeZero())
			Expect(record.Stage(runentity.TranscribeStage).Status).To(Equal(runentity.Pending))
		})
	})

	Describe("Drum separation", func() {
		var (
			songDir string
			record  runentity.RunRecord
			request runentity.Request
		)

		BeforeEach(func() {
			songDir = filepath.Join(root, "Band", "Tune")
			writeFile(filepath.Join(songDir, "Tune.mp3"), "raw")
			writeFile(filepath.Join(songDir, "htdemucs", "drums.mp3"), "drums")

			request = runentity.Request{
				AudioFile: filepath.Join(songDir, "Tune.mp3"),
				Plan:      runentity.Plan{Stages: runentity.StageSet{SeparateDrums: true}},
			}
		})

		JustBeforeEach(func() {
			record = orchestrator.Run(ctx, request)
		})

		Describe("When the model skips some components", func() {
			BeforeEach(func() {
				separator.Stems[drumModel] = []string{"bombo", "redoblante"}
			})

			It("omits the missing ones without failing", func() {
				Expect(record.Stage(runentity.SeparateDrumsStage).Status).To(Equal(runentity.Done))
				Expect(baseNames(record.Paths.DrumStemFiles)).To(ConsistOf("kick.mp3", "snare.mp3"))
			})
		})

		Describe("When a previous run stopped before renaming", func() {
			BeforeEach(func() {
				drumDir := filepath.Join(songDir, "htdemucs_drums", "drums")
				writeFile(filepath.Join(drumDir, "bombo.mp3"), "new kick")
				writeFile(filepath.Join(drumDir, "kick.mp3"), "stray kick")
			})

			It("finishes the rename without separating again", func() {
				Expect(separator.CallCount()).To(BeZero())
				Expect(record.Stage(runentity.SeparateDrumsStage).Status).To(Equal(runentity.Done))
			})

			It("overwrites the stray canonical file", func() {
				contents, err := os.ReadFile(filepath.Join(record.Paths.DrumStemDir, "kick.mp3"))
				Expect(err).NotTo(HaveOccurred())
				Expect(string(contents)).To(Equal("new kick"))
				Expect(filepath.Join(record.Paths.DrumStemDir, "bombo.mp3")).NotTo(BeAnExistingFile())
			})
		})

		Describe("Without a drum track", func() {
			BeforeEach(func() {
				Expect(os.Remove(filepath.Join(songDir, "htdemucs", "drums.mp3"))).To(Succeed())
			})

			It("fails with a missing prerequisite", func() {
				Expect(record.FailedStage).To(Equal(runentity.SeparateDrumsStage))
				Expect(record.Error).To(ContainSubstring("drum track does not exist"))
				Expect(separator.CallCount()).To(BeZero())
			})
		})
	})

	Describe("A collaborator failing", func() {
		var record runentity.RunRecord

		BeforeEach(func() {
			separator.Unavailable = true
			record = orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
		})

		It("fails that stage and keeps what came before", func() {
			Expect(record.State).To(Equal(runentity.FailedState))
			Expect(record.FailedStage).To(Equal(runentity.SeparateStage))
			Expect(record.Stage(runentity.DownloadStage).Status).To(Equal(runentity.Done))
			Expect(record.Stage(runentity.SeparateStage).Status).To(Equal(runentity.Failed))
			Expect(record.Stage(runentity.SeparateStage).Error).To(ContainSubstring("dummy engine failure"))
			Expect(record.Stage(runentity.TranscribeStage).Status).To(Equal(runentity.Pending))
			Expect(record.Paths.RawAudioFile).To(BeAnExistingFile())
		})
	})

	Describe("A transcriber that writes nothing", func() {
		var record runentity.RunRecord

		BeforeEach(func() {
			transcriber.Silent["vocals"] = true
			record = orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
		})

		It("fails the transcription stage", func() {
			Expect(record.FailedStage).To(Equal(runentity.TranscribeStage))
			Expect(record.Stage(runentity.TranscribeStage).Error).To(ContainSubstring("without producing a file"))
		})
	})

	Describe("Rebuilding a stage", func() {
		BeforeEach(func() {
			first := orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
			Expect(first.State).To(Equal(runentity.Complete))

			plan.Rebuild = runentity.StageSet{Separate: true}
		})

		It("runs the stage again even though its outputs existed", func() {
			record := orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})

			Expect(record.Stage(runentity.SeparateStage).Status).To(Equal(runentity.Done))
			Expect(record.Stage(runentity.DownloadStage).Status).To(Equal(runentity.Skipped))
			Expect(separator.CallCount()).To(Equal(3))
		})
	})

	Describe("A song directory owned by another identity", func() {
		var record runentity.RunRecord

		BeforeEach(func() {
			paths := manager.Paths(mediaentity.CanonicalName{Artist: "Artist X", Song: "Song Y"})
			Expect(layout.ClaimSongDir(paths, mediaentity.CanonicalName{Artist: "Artist X", Song: "Song Y?"})).To(Succeed())
			writeFile(paths.RawAudioFile, "other song")

			record = orchestrator.Run(ctx, runentity.Request{URL: songURL, Plan: plan})
		})

		It("skips the download and reuses what is there", func() {
			Expect(record.Stage(runentity.DownloadStage).Status).To(Equal(runentity.Skipped))
			Expect(record.Stage(runentity.DownloadStage).Reason).To(Equal(pipeline.ReasonLayoutCollision))
			Expect(downloader.DownloadCount()).To(BeZero())

			contents, err := os.ReadFile(record.Paths.RawAudioFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("other song"))
		})
	})

	Describe("A cancelled run", func() {
		var record runentity.RunRecord

		BeforeEach(func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			record = orchestrator.Run(cancelled, runentity.Request{URL: songURL, Plan: plan})
		})

		It("leaves every stage pending and reports the cancellation", func() {
			Expect(record.State).To(Equal(runentity.FailedState))
			Expect(record.Error).To(ContainSubstring("context canceled"))
			for _, stage := range runentity.Stages {
				Expect(record.Stage(stage).Status).To(Equal(runentity.Pending))
			}
			Expect(downloader.DownloadCount()).To(BeZero())
		})

		It("leaves the run unfinished so it can be picked up again", func() {
			Expect(record.IsInterrupted()).To(BeTrue())
			Expect(record.FinishedAt.IsZero()).To(BeTrue())
		})
	})

	Describe("RunURL", func() {
		const playlistURL = "https://www.youtube.com/playlist?list=abc"

		BeforeEach(func() {
			for _, id := range []string{"one", "two", "three"} {
				itemURL := "https://www.youtube.com/watch?v=" + id
				downloader.AddItem(playlistURL, mediaentity.MetadataFields{
					ID:   id,
					Type: "url",
					URL:  itemURL,
				})
				downloader.AddItem(itemURL, mediaentity.MetadataFields{
					ID:         id,
					Title:      "Band - Song " + id,
					WebpageURL: itemURL,
				})
			}

			downloader.Failing["https://www.youtube.com/watch?v=two"] = true
			plan.Jobs = 2
		})

		It("runs every item independently", func() {
			records, err := orchestrator.RunURL(ctx, playlistURL, plan)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))

			Expect(records[0].Name.Song).To(Equal("Song one"))
			Expect(records[0].State).To(Equal(runentity.Complete))

			Expect(records[1].Name.Song).To(Equal("Song two"))
			Expect(records[1].State).To(Equal(runentity.FailedState))
			Expect(records[1].FailedStage).To(Equal(runentity.DownloadStage))

			Expect(records[2].Name.Song).To(Equal("Song three"))
			Expect(records[2].State).To(Equal(runentity.Complete))
		})

		It("gives each item its own record", func() {
			records, err := orchestrator.RunURL(ctx, playlistURL, plan)
			Expect(err).NotTo(HaveOccurred())
			Expect(records[0].ID).NotTo(Equal(records[2].ID))
			Expect(records[0].Paths.SongDir).NotTo(Equal(records[2].Paths.SongDir))
		})

		It("returns an error when the URL can't be expanded", func() {
			_, err := orchestrator.RunURL(ctx, "https://nowhere.example", plan)
			Expect(err).To(HaveOccurred())
		})

		Describe("as a queued job", func() {
			const playlistRunID = "playlist-run"

			It("runs the items under IDs derived from the job's run ID", func() {
				record, items := orchestrator.RunJob(ctx, playlistRunID, runentity.Request{URL: playlistURL, Plan: plan})
				Expect(items).To(HaveLen(3))
				Expect(record.ID).To(Equal(playlistRunID))
				Expect(record.Items).To(HaveLen(3))

				for i, id := range []string{"one", "two", "three"} {
					itemURL := "https://www.youtube.com/watch?v=" + id
					Expect(record.Items[i]).To(Equal(pipeline.ItemRunID(playlistRunID, itemURL)))
					Expect(items[i].ID).To(Equal(record.Items[i]))

					stored, err := store.GetRun(ctx, record.Items[i])
					Expect(err).NotTo(HaveOccurred())
					Expect(stored.Name.Song).To(Equal("Song " + id))
				}

				Expect(record.FailedStage).To(Equal(runentity.ItemsStage))
				Expect(record.Error).To(Equal("1 of 3 item runs failed"))
				Expect(record.IsFinished()).To(BeTrue())
			})

			It("derives the same item IDs on a second delivery", func() {
				first, _ := orchestrator.RunJob(ctx, playlistRunID, runentity.Request{URL: playlistURL, Plan: plan})
				second, _ := orchestrator.RunJob(ctx, playlistRunID, runentity.Request{URL: playlistURL, Plan: plan})
				Expect(second.Items).To(Equal(first.Items))
			})
		})
	})

	Describe("RunJob with a single item", func() {
		It("runs it under the job's run ID without expanding it", func() {
			record, items := orchestrator.RunJob(ctx, "single-run", runentity.Request{URL: songURL, Plan: plan})
			Expect(items).To(BeEmpty())
			Expect(record.ID).To(Equal("single-run"))
			Expect(record.Items).To(BeEmpty())
			Expect(record.State).To(Equal(runentity.Complete))
			Expect(downloader.ResolveCalls).To(HaveLen(1))
		})

		It("records a lookup failure on the run", func() {
			record, _ := orchestrator.RunJob(ctx, "missing-run", runentity.Request{URL: "https://nowhere.example", Plan: plan})
			Expect(record.FailedStage).To(Equal(runentity.ResolveStage))
			Expect(record.IsFinished()).To(BeTrue())
		})
	})
})
