package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
	"github.com/veedubyou/midifi/src/worker/internal/lib/working_dir"
)

var _ Downloader = YoutubeDLer{}

func NewYoutubeDLer(youtubedlBinPath string, commandExecutor executor.Executor) YoutubeDLer {
	return YoutubeDLer{
		youtubedlBinPath: youtubedlBinPath,
		commandExecutor:  commandExecutor,
	}
}

type YoutubeDLer struct {
	youtubedlBinPath string
	commandExecutor  executor.Executor
}

type playlistInfo struct {
	Entries []*mediaentity.Metadata `json:"entries"`
}

func (y YoutubeDLer) Resolve(ctx context.Context, url string) ([]mediaentity.Metadata, error) {
	errctx := cerr.Field("url", url)

	log.WithField("url", url).Info("Resolving media info")

	cmd := y.commandExecutor.Command(ctx, y.youtubedlBinPath, "-J", "--flat-playlist", "--no-warnings", url)
	output, err := cmd.Output()
	if err != nil {
		return nil, errctx.Field("youtubedl_output", string(output)).
			Wrap(err).Error("Failed to resolve media info")
	}

	info := mediaentity.Metadata{}
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, errctx.Wrap(err).Error("Failed to parse media info")
	}

	if !info.IsPlaylist() {
		return []mediaentity.Metadata{info}, nil
	}

	playlist := playlistInfo{}
	if err := json.Unmarshal(output, &playlist); err != nil {
		return nil, errctx.Wrap(err).Error("Failed to parse playlist entries")
	}

	items := []mediaentity.Metadata{}
	for _, entry := range playlist.Entries {
		// unavailable entries come back as null
		if entry == nil {
			continue
		}

		items = append(items, *entry)
	}

	log.WithFields(log.Fields{
		"url":   url,
		"items": len(items),
	}).Info("Expanded playlist")

	return items, nil
}

func (y YoutubeDLer) Download(ctx context.Context, url string, destTemplate string) (mediaentity.Metadata, error) {
	metadata, err := y.download(ctx, url, destTemplate)
	// error may be fixable by clearing the cache dir
	// so try again in case that's the issue
	if err != nil && ctx.Err() == nil {
		y.clearCache(ctx)
		return y.download(ctx, url, destTemplate)
	}

	return metadata, err
}

func (y YoutubeDLer) download(ctx context.Context, url string, destTemplate string) (mediaentity.Metadata, error) {
	destDir := filepath.Dir(destTemplate)
	errctx := cerr.Field("url", url).Field("dest_template", destTemplate)

	scratch, err := working_dir.NewScratch(destDir, "download")
	if err != nil {
		return mediaentity.Metadata{}, errctx.Wrap(err).Error("Failed to prepare download dir")
	}
	defer scratch.Remove()

	log.WithFields(log.Fields{
		"url":          url,
		"destTemplate": destTemplate,
	}).Info("Running yt-dlp")

	args := []string{
		"-o", scratch.Path(filepath.Base(destTemplate)),
		"-x", "--audio-format", "mp3", "--audio-quality", "0",
		"--no-playlist", "--no-simulate", "--dump-json", "--no-progress",
		url,
	}

	cmd := y.commandExecutor.Command(ctx, y.youtubedlBinPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return mediaentity.Metadata{}, errctx.Field("youtubedl_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Failed to run yt-dlp: %s", string(output)))
	}

	metadata, err := lastJSONLine(output)
	if err != nil {
		return mediaentity.Metadata{}, errctx.Wrap(err).Error("Failed to parse downloaded media info")
	}

	files, err := scratch.CollectFiles(layout.AudioExt)
	if err != nil {
		return mediaentity.Metadata{}, errctx.Wrap(err).Error("Failed to collect downloaded files")
	}

	if len(files) == 0 {
		return mediaentity.Metadata{}, errctx.Error("yt-dlp produced no audio file")
	}

	for _, file := range files {
		if err := layout.MoveFile(file, filepath.Join(destDir, filepath.Base(file))); err != nil {
			return mediaentity.Metadata{}, errctx.Wrap(err).Error("Failed to move downloaded file into place")
		}
	}

	return metadata, nil
}

func lastJSONLine(output []byte) (mediaentity.Metadata, error) {
	lines := bytes.Split(bytes.TrimSpace(output), []byte("\n"))

	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if !bytes.HasPrefix(line, []byte("{")) {
			continue
		}

		metadata := mediaentity.Metadata{}
		if err := json.Unmarshal(line, &metadata); err != nil {
			return mediaentity.Metadata{}, cerr.Wrap(err).Error("Failed to unmarshal media info line")
		}

		return metadata, nil
	}

	return mediaentity.Metadata{}, cerr.Error("No media info in yt-dlp output")
}

func (y YoutubeDLer) clearCache(ctx context.Context) {
	log.Info("Clearing yt-dlp cache")
	cmd := y.commandExecutor.Command(ctx, y.youtubedlBinPath, "--rm-cache-dir")
	output, err := cmd.CombinedOutput()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to clear cache: %s", string(output))
		log.Error(errorMsg)
	}
}
