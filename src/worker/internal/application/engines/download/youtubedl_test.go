package download_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/download"
	"github.com/veedubyou/midifi/src/worker/internal/application/integration_test/dummy"
)

const (
	youtubeDLBinPath = "/bin/yt-dlp"
	videoURL         = "https://www.youtube.com/watch?v=abc"
	playlistURL      = "https://www.youtube.com/playlist?list=xyz"

	videoInfo    = `{"id":"abc","_type":"video","title":"Band - Tune","channel":"BandVEVO","duration":201.5,"webpage_url":"https://www.youtube.com/watch?v=abc","like_count":12}`
	playlistInfo = `{"id":"xyz","_type":"playlist","title":"Mix","entries":[{"_type":"url","url":"https://www.youtube.com/watch?v=one","title":"One"},null,{"_type":"url","url":"https://www.youtube.com/watch?v=two","title":"Two"}]}`
)

// writeDownload fakes yt-dlp writing the extracted audio to the -o template.
func writeDownload(invocation dummy.Invocation) ([]byte, error) {
	output := strings.ReplaceAll(invocation.Arg("-o"), "%(ext)s", "mp3")
	if err := os.WriteFile(output, []byte("audio"), 0o644); err != nil {
		return nil, err
	}

	return []byte("[download] 100%\n" + videoInfo + "\n"), nil
}

var _ = Describe("YoutubeDLer", func() {
	var (
		dummyExecutor *dummy.Executor
		youtubedler   download.YoutubeDLer
		ctx           context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dummyExecutor = dummy.NewDummyExecutor()
		youtubedler = download.NewYoutubeDLer(youtubeDLBinPath, dummyExecutor)
	})

	Describe("Resolve", func() {
		Describe("A single video", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, func(_ dummy.Invocation) ([]byte, error) {
					return []byte(videoInfo), nil
				})
			})

			It("returns one item with its metadata", func() {
				items, err := youtubedler.Resolve(ctx, videoURL)
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveLen(1))
				Expect(items[0].Defined.Title).To(Equal("Band - Tune"))
				Expect(items[0].Defined.Channel).To(Equal("BandVEVO"))
				Expect(items[0].Defined.Duration).To(Equal(201.5))
				Expect(items[0].Extra).To(HaveKeyWithValue("like_count", BeEquivalentTo(12)))
			})

			It("asks for a flat info document without downloading", func() {
				_, err := youtubedler.Resolve(ctx, videoURL)
				Expect(err).NotTo(HaveOccurred())

				calls := dummyExecutor.Calls(youtubeDLBinPath)
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Args).To(ContainElements("-J", "--flat-playlist", videoURL))
			})
		})

		Describe("A playlist", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, func(_ dummy.Invocation) ([]byte, error) {
					return []byte(playlistInfo), nil
				})
			})

			It("expands the entries in order and drops unavailable ones", func() {
				items, err := youtubedler.Resolve(ctx, playlistURL)
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveLen(2))
				Expect(items[0].Defined.Title).To(Equal("One"))
				Expect(items[1].Defined.Title).To(Equal("Two"))
				Expect(items[0].IsFlat()).To(BeTrue())
				Expect(items[1].ItemURL(playlistURL)).To(Equal("https://www.youtube.com/watch?v=two"))
			})
		})

		Describe("yt-dlp fails", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, func(_ dummy.Invocation) ([]byte, error) {
					return []byte("ERROR: unsupported URL"), dummy.EngineFailure
				})
			})

			It("returns an error", func() {
				_, err := youtubedler.Resolve(ctx, videoURL)
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("yt-dlp prints garbage", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, func(_ dummy.Invocation) ([]byte, error) {
					return []byte("not json"), nil
				})
			})

			It("returns an error", func() {
				_, err := youtubedler.Resolve(ctx, videoURL)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Download", func() {
		var (
			artistDir    string
			songDir      string
			destTemplate string
		)

		BeforeEach(func() {
			root, err := os.MkdirTemp("", "youtubedl-test")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, root)

			artistDir = filepath.Join(root, "Band")
			songDir = filepath.Join(artistDir, "Tune")
			destTemplate = filepath.Join(songDir, "Band - Tune.%(ext)s")
		})

		Describe("Happy path", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, writeDownload)
			})

			It("moves the audio into the song dir and reports the metadata", func() {
				metadata, err := youtubedler.Download(ctx, videoURL, destTemplate)
				Expect(err).NotTo(HaveOccurred())
				Expect(metadata.Defined.Title).To(Equal("Band - Tune"))

				contents, err := os.ReadFile(filepath.Join(songDir, "Band - Tune.mp3"))
				Expect(err).NotTo(HaveOccurred())
				Expect(string(contents)).To(Equal("audio"))
			})

			It("extracts mp3 audio for the single item", func() {
				_, err := youtubedler.Download(ctx, videoURL, destTemplate)
				Expect(err).NotTo(HaveOccurred())

				calls := dummyExecutor.Calls(youtubeDLBinPath)
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Arg("--audio-format")).To(Equal("mp3"))
				Expect(calls[0].Args).To(ContainElements("-x", "--no-playlist", "--dump-json"))
				Expect(calls[0].Args[len(calls[0].Args)-1]).To(Equal(videoURL))
			})

			It("leaves no scratch dirs behind", func() {
				_, err := youtubedler.Download(ctx, videoURL, destTemplate)
				Expect(err).NotTo(HaveOccurred())

				entries, err := os.ReadDir(artistDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Name()).To(Equal("Tune"))
			})
		})

		Describe("The first attempt fails", func() {
			var attempts int

			BeforeEach(func() {
				attempts = 0
				dummyExecutor.On(youtubeDLBinPath, func(invocation dummy.Invocation) ([]byte, error) {
					if invocation.HasArg("--rm-cache-dir") {
						return nil, nil
					}

					attempts++
					if attempts == 1 {
						return []byte("ERROR: HTTP Error 403"), dummy.EngineFailure
					}

					return writeDownload(invocation)
				})
			})

			It("clears the cache and retries", func() {
				_, err := youtubedler.Download(ctx, videoURL, destTemplate)
				Expect(err).NotTo(HaveOccurred())
				Expect(attempts).To(Equal(2))
				Expect(filepath.Join(songDir, "Band - Tune.mp3")).To(BeAnExistingFile())

				calls := dummyExecutor.Calls(youtubeDLBinPath)
				Expect(calls).To(HaveLen(3))
				Expect(calls[1].Args).To(Equal([]string{"--rm-cache-dir"}))
			})
		})

		Describe("Every attempt fails", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, func(invocation dummy.Invocation) ([]byte, error) {
					return []byte("ERROR: video unavailable"), dummy.EngineFailure
				})
			})

			It("returns an error and writes nothing", func() {
				_, err := youtubedler.Download(ctx, videoURL, destTemplate)
				Expect(err).To(HaveOccurred())
				Expect(filepath.Join(songDir, "Band - Tune.mp3")).NotTo(BeAnExistingFile())
			})
		})

		Describe("yt-dlp succeeds without producing audio", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, func(_ dummy.Invocation) ([]byte, error) {
					return []byte(videoInfo), nil
				})
			})

			It("returns an error", func() {
				_, err := youtubedler.Download(ctx, videoURL, destTemplate)
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("The context is cancelled", func() {
			BeforeEach(func() {
				dummyExecutor.On(youtubeDLBinPath, writeDownload)
			})

			It("does not retry", func() {
				cancelled, cancel := context.WithCancel(ctx)
				cancel()

				_, err := youtubedler.Download(cancelled, videoURL, destTemplate)
				Expect(err).To(HaveOccurred())
				Expect(dummyExecutor.Calls(youtubeDLBinPath)).To(HaveLen(1))
			})
		})
	})
})
